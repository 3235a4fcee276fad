package api

import (
	"log/slog"

	"github.com/bloomery/bloomery/internal/api/handlers"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics())

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.Redis, cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	gardenService := garden.NewService(cfg.DB, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	plantHandler := handlers.NewPlantHandler(gardenService, cfg.AuthService)
	careHandler := handlers.NewCareHandler(gardenService)
	memberHandler := handlers.NewMemberHandler(gardenService, cfg.AsynqClient, cfg.Logger)
	profileHandler := handlers.NewProfileHandler(cfg.AuthService)

	// Health and metrics endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Degraded anonymous fallback: list is empty, create is ephemeral.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTService))
			r.Get("/plants", plantHandler.List)
			r.Post("/plants", plantHandler.Create)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", profileHandler.Me)
			r.Post("/users/setup", profileHandler.Setup)

			r.Post("/plants/join", memberHandler.Join)

			r.Route("/plants/{id}", func(r chi.Router) {
				r.Get("/", plantHandler.Get)
				r.Put("/", plantHandler.Update)
				r.Delete("/", plantHandler.Delete)

				r.Post("/care", careHandler.Care)
				r.Get("/care-history", careHandler.History)

				r.Post("/invitations", memberHandler.Invite)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", memberHandler.List)
					r.Post("/", memberHandler.Add)
					r.Put("/{userId}", memberHandler.UpdateRole)
					r.Delete("/{userId}", memberHandler.Remove)
				})
			})
		})
	})

	return &Router{r}
}

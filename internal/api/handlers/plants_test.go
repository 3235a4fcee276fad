package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bloomery/bloomery/internal/api/handlers"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/bloomery/bloomery/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupPlantTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	service := garden.NewService(tc.DB, discardLogger())
	handler := handlers.NewPlantHandler(service, auth.NewService(tc.DB))

	r := chi.NewRouter()
	r.Route("/api/v1/plants", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tc.JWTService))
			r.Get("/", handler.List)
			r.Post("/", handler.Create)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tc.JWTService))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.Get)
				r.Put("/", handler.Update)
				r.Delete("/", handler.Delete)
			})
		})
	})

	return r, tc
}

func TestPlantHandler_List(t *testing.T) {
	router, tc := setupPlantTestRouter(t)
	defer tc.Cleanup()

	t.Run("anonymous callers get an empty list", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/v1/plants", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Plants []handlers.PlantResponse `json:"plants"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Empty(t, resp.Plants)
	})

	t.Run("lists owned plants", func(t *testing.T) {
		testutil.CreateTestPlant(t, tc.DB, tc.User)

		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/plants", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Plants []handlers.PlantResponse `json:"plants"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		require.Len(t, resp.Plants, 1)
		assert.Equal(t, "Sprouty", resp.Plants[0].Name)
		assert.Equal(t, tc.User.ID.String(), resp.Plants[0].OwnerID)
	})
}

func TestPlantHandler_Create(t *testing.T) {
	router, tc := setupPlantTestRouter(t)
	defer tc.Cleanup()

	t.Run("creates a plant with defaults", func(t *testing.T) {
		body := map[string]interface{}{"name": "Fernie"}
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/plants", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)

		var resp struct {
			Plant handlers.PlantResponse `json:"plant"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Fernie", resp.Plant.Name)
		assert.Equal(t, 80, resp.Plant.Health)
		assert.Equal(t, 75, resp.Plant.Happiness)
		assert.Equal(t, 25, resp.Plant.Growth)
		assert.Equal(t, models.StageSeedling, resp.Plant.Stage)
		assert.Equal(t, models.MoodHappy, resp.Plant.Mood)
	})

	t.Run("anonymous callers get an ephemeral plant", func(t *testing.T) {
		var before int64
		tc.DB.Model(&models.Plant{}).Count(&before)

		body := map[string]interface{}{"name": "Ghost"}
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/plants", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Plant handlers.PlantResponse `json:"plant"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Ghost", resp.Plant.Name)
		assert.True(t, strings.HasPrefix(resp.Plant.ID, "ephemeral-"))
		assert.Equal(t, "anonymous", resp.Plant.OwnerID)

		// Nothing persisted
		var after int64
		tc.DB.Model(&models.Plant{}).Count(&after)
		assert.Equal(t, before, after)
	})

	t.Run("provisions the profile on first write", func(t *testing.T) {
		// A token for an identity with no profile row yet
		newcomer := &models.User{
			Base:  models.Base{ID: uuid.New()},
			Email: "fresh@example.com",
			Name:  "Fresh",
		}
		token := testutil.GenerateTestToken(t, tc.JWTService, newcomer)

		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/plants", map[string]interface{}{}, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)

		var user models.User
		require.NoError(t, tc.DB.First(&user, "id = ?", newcomer.ID).Error)
		assert.Equal(t, "fresh@example.com", user.Email)
	})
}

func TestPlantHandler_Get(t *testing.T) {
	router, tc := setupPlantTestRouter(t)
	defer tc.Cleanup()

	plant := testutil.CreateTestPlant(t, tc.DB, tc.User)

	t.Run("returns plant with members", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/plants/"+plant.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Plant handlers.PlantResponse `json:"plant"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, plant.ID.String(), resp.Plant.ID)
		require.Len(t, resp.Plant.Members, 1)
		assert.Equal(t, models.RoleOwner, resp.Plant.Members[0].Role)
	})

	t.Run("strangers get 403", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, tc.DB)
		token := testutil.GenerateTestToken(t, tc.JWTService, stranger)

		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/plants/"+plant.ID.String(), nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/v1/plants/"+plant.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/plants/not-a-uuid", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestPlantHandler_Update(t *testing.T) {
	router, tc := setupPlantTestRouter(t)
	defer tc.Cleanup()

	plant := testutil.CreateTestPlant(t, tc.DB, tc.User)

	t.Run("owner updates with clamping", func(t *testing.T) {
		body := map[string]interface{}{"name": "Renamed", "health": 300}
		req := testutil.AuthenticatedRequest(t, http.MethodPut, "/api/v1/plants/"+plant.ID.String(), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Plant handlers.PlantResponse `json:"plant"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Renamed", resp.Plant.Name)
		assert.Equal(t, 100, resp.Plant.Health)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		body := map[string]interface{}{"stage": "bonsai"}
		req := testutil.AuthenticatedRequest(t, http.MethodPut, "/api/v1/plants/"+plant.ID.String(), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("non-owners get 403", func(t *testing.T) {
		buddy := testutil.CreateTestUser(t, tc.DB)
		testutil.CreateTestMembership(t, tc.DB, plant, buddy, models.RoleAdmin)
		token := testutil.GenerateTestToken(t, tc.JWTService, buddy)

		body := map[string]interface{}{"name": "Nope"}
		req := testutil.AuthenticatedRequest(t, http.MethodPut, "/api/v1/plants/"+plant.ID.String(), body, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestPlantHandler_Delete(t *testing.T) {
	router, tc := setupPlantTestRouter(t)
	defer tc.Cleanup()

	plant := testutil.CreateTestPlant(t, tc.DB, tc.User)

	t.Run("members may not delete", func(t *testing.T) {
		buddy := testutil.CreateTestUser(t, tc.DB)
		testutil.CreateTestMembership(t, tc.DB, plant, buddy, models.RoleMember)
		token := testutil.GenerateTestToken(t, tc.JWTService, buddy)

		req := testutil.AuthenticatedRequest(t, http.MethodDelete, "/api/v1/plants/"+plant.ID.String(), nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("owner deletes", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodDelete, "/api/v1/plants/"+plant.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var count int64
		tc.DB.Model(&models.Plant{}).Where("id = ?", plant.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("deleting again is a 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodDelete, "/api/v1/plants/"+plant.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

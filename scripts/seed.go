//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/database"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/bloomery/bloomery/pkg/config"
	"github.com/bloomery/bloomery/pkg/util"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db)
	gardens := garden.NewService(db, logger)

	seedUsers := []struct {
		id    uuid.UUID
		email string
		name  string
	}{
		{uuid.New(), "flora@example.com", "Flora"},
		{uuid.New(), "basil@example.com", "Basil"},
		{uuid.New(), "ivy@example.com", "Ivy"},
	}

	users := make([]*models.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		user, err := authService.EnsureUser(ctx, &auth.Claims{
			UserID: su.id,
			Email:  su.email,
			Name:   su.name,
		})
		if err != nil {
			log.Fatalf("failed to create user %s: %v", su.email, err)
		}
		users = append(users, user)
	}

	// Flora owns the shared plant; Basil joins as admin, Ivy as member.
	plant, err := gardens.CreatePlant(ctx, users[0].ID, "Fernie")
	if err != nil {
		log.Fatalf("failed to create plant: %v", err)
	}
	if _, err := gardens.AddMember(ctx, plant.ID, users[0].ID, users[1].Email, models.RoleAdmin); err != nil {
		log.Fatalf("failed to add admin member: %v", err)
	}
	if _, err := gardens.AddMember(ctx, plant.ID, users[0].ID, users[2].Email, models.RoleMember); err != nil {
		log.Fatalf("failed to add member: %v", err)
	}

	// Backfill a little care history
	care := []struct {
		user   *models.User
		action models.CareActionType
	}{
		{users[0], models.ActionWater},
		{users[1], models.ActionFeed},
		{users[2], models.ActionPlay},
	}
	for _, c := range care {
		if _, _, err := gardens.PerformCare(ctx, plant.ID, c.user.ID, c.action); err != nil {
			log.Fatalf("failed to record care action: %v", err)
		}
	}

	fmt.Printf("Seeded plant %q (%s)\n\n", plant.Name, plant.ID)
	for _, user := range users {
		token, err := jwtService.GenerateToken(user.ID, user.Email, user.Name)
		if err != nil {
			log.Fatalf("failed to generate token for %s: %v", user.Email, err)
		}
		fmt.Printf("%s <%s>\n  Token: %s\n\n", user.Name, user.Email, token)
	}
}

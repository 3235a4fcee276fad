package auth

import (
	"context"

	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/google/uuid"
)

// IdentityResolver defines the user-profile side of identity resolution.
type IdentityResolver interface {
	EnsureUser(ctx context.Context, claims *Claims) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uuid.UUID, email, name string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ IdentityResolver = (*Service)(nil)
	_ TokenService     = (*JWTService)(nil)
)

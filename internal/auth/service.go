package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EnsureUser looks up the profile for a verified identity and provisions it
// if absent. Idempotent: concurrent first requests for the same identity
// resolve to the same row via the unique email/id constraints.
func (s *Service) EnsureUser(ctx context.Context, claims *Claims) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Base:  models.Base{ID: claims.UserID},
		Email: claims.Email,
		Name:  displayName(claims),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a provisioning race; the row exists now.
		var existing models.User
		if ferr := s.db.WithContext(ctx).First(&existing, "id = ?", claims.UserID).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func displayName(claims *Claims) string {
	if claims.Name != "" {
		return claims.Name
	}
	if at := strings.Index(claims.Email, "@"); at > 0 {
		return claims.Email[:at]
	}
	return "User"
}

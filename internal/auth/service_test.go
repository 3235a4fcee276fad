package auth_test

import (
	"testing"

	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	svc := auth.NewService(db)
	ctx := testutil.TestContext(t)

	t.Run("provisions a new user", func(t *testing.T) {
		claims := &auth.Claims{
			UserID: uuid.New(),
			Email:  "flora@example.com",
			Name:   "Flora",
		}

		user, err := svc.EnsureUser(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, claims.UserID, user.ID)
		assert.Equal(t, "flora@example.com", user.Email)
		assert.Equal(t, "Flora", user.Name)
	})

	t.Run("is idempotent", func(t *testing.T) {
		claims := &auth.Claims{
			UserID: uuid.New(),
			Email:  "basil@example.com",
			Name:   "Basil",
		}

		first, err := svc.EnsureUser(ctx, claims)
		require.NoError(t, err)

		// A changed name on a later token does not rewrite the profile
		claims.Name = "Basil II"
		second, err := svc.EnsureUser(ctx, claims)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Basil", second.Name)
	})

	t.Run("derives name from email local part", func(t *testing.T) {
		claims := &auth.Claims{
			UserID: uuid.New(),
			Email:  "ivy@example.com",
		}

		user, err := svc.EnsureUser(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, "ivy", user.Name)
	})
}

func TestGetUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	svc := auth.NewService(db)
	ctx := testutil.TestContext(t)

	user := testutil.CreateTestUser(t, db)

	t.Run("by id", func(t *testing.T) {
		got, err := svc.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := svc.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		_, err = svc.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloomery/bloomery/internal/api/handlers"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProfileTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewProfileHandler(auth.NewService(tc.DB))

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))
	r.Get("/api/v1/me", handler.Me)
	r.Post("/api/v1/users/setup", handler.Setup)

	return r, tc
}

func TestProfileHandler_Me(t *testing.T) {
	router, tc := setupProfileTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns the profile", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			User handlers.UserResponse `json:"user"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.User.ID.String(), resp.User.ID)
		assert.Equal(t, tc.User.Email, resp.User.Email)
	})

	t.Run("unknown identity is a 404", func(t *testing.T) {
		ghost := &models.User{
			Base:  models.Base{ID: uuid.New()},
			Email: "ghost@example.com",
		}
		token := testutil.GenerateTestToken(t, tc.JWTService, ghost)

		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestProfileHandler_Setup(t *testing.T) {
	router, tc := setupProfileTestRouter(t)
	defer tc.Cleanup()

	t.Run("provisions the profile", func(t *testing.T) {
		newcomer := &models.User{
			Base:  models.Base{ID: uuid.New()},
			Email: "newcomer@example.com",
			Name:  "Newcomer",
		}
		token := testutil.GenerateTestToken(t, tc.JWTService, newcomer)

		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/users/setup", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var user models.User
		require.NoError(t, tc.DB.First(&user, "id = ?", newcomer.ID).Error)
		assert.Equal(t, "Newcomer", user.Name)
	})

	t.Run("is idempotent", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/users/setup", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			User handlers.UserResponse `json:"user"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.User.ID.String(), resp.User.ID)
	})
}

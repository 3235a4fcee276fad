package handlers

import (
	"net/http"

	"github.com/bloomery/bloomery/internal/api/dto"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/auth"
)

type ProfileHandler struct {
	users auth.IdentityResolver
}

func NewProfileHandler(users auth.IdentityResolver) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": userToResponse(user)})
}

// Setup handles POST /api/v1/users/setup — the explicit form of the lazy
// provisioning that plant creation also performs.
func (h *ProfileHandler) Setup(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.EnsureUser(r.Context(), middleware.Claims(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create user profile"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": userToResponse(user)})
}

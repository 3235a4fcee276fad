package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bloomery/bloomery/internal/api/dto"
	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain errors onto the response taxonomy:
// 404 missing resource, 403 insufficient privilege, 400 rule violation,
// 500 everything else.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, garden.ErrPlantNotFound),
		errors.Is(err, garden.ErrUserNotFound),
		errors.Is(err, garden.ErrMemberNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, garden.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, garden.ErrInvalidAction),
		errors.Is(err, garden.ErrInvalidRole),
		errors.Is(err, garden.ErrOwnerRoleGrant),
		errors.Is(err, garden.ErrOwnerRoleChange),
		errors.Is(err, garden.ErrAlreadyMember),
		errors.Is(err, garden.ErrLastOwner):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

// UserResponse is the public slice of a profile.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func userToResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
	}
}

type MemberResponse struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	Role     models.MemberRole `json:"role"`
	JoinedAt string            `json:"joined_at"`
	User     *UserResponse     `json:"user,omitempty"`
}

func memberToResponse(m *models.PlantMember) MemberResponse {
	return MemberResponse{
		ID:       m.ID.String(),
		UserID:   m.UserID.String(),
		Role:     m.Role,
		JoinedAt: m.JoinedAt.Format(time.RFC3339),
		User:     userToResponse(m.User),
	}
}

type CareActionResponse struct {
	ID        string                `json:"id"`
	Action    models.CareActionType `json:"action"`
	CreatedAt string                `json:"created_at"`
	User      *UserResponse         `json:"user,omitempty"`
}

func careActionToResponse(a *models.CareAction) CareActionResponse {
	return CareActionResponse{
		ID:        a.ID.String(),
		Action:    a.Action,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		User:      userToResponse(a.User),
	}
}

type PlantResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Health      int                  `json:"health"`
	Happiness   int                  `json:"happiness"`
	Growth      int                  `json:"growth"`
	Stage       models.Stage         `json:"stage"`
	Mood        models.Mood          `json:"mood"`
	LastWatered string               `json:"last_watered"`
	LastFed     string               `json:"last_fed"`
	LastPlayed  string               `json:"last_played"`
	OwnerID     string               `json:"owner_id"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
	Members     []MemberResponse     `json:"members,omitempty"`
	CareHistory []CareActionResponse `json:"care_history,omitempty"`
}

func plantToResponse(plant *models.Plant) PlantResponse {
	resp := PlantResponse{
		ID:          plant.ID.String(),
		Name:        plant.Name,
		Health:      plant.Health,
		Happiness:   plant.Happiness,
		Growth:      plant.Growth,
		Stage:       plant.Stage,
		Mood:        plant.Mood,
		LastWatered: plant.LastWatered.Format(time.RFC3339),
		LastFed:     plant.LastFed.Format(time.RFC3339),
		LastPlayed:  plant.LastPlayed.Format(time.RFC3339),
		OwnerID:     plant.OwnerID.String(),
		CreatedAt:   plant.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   plant.UpdatedAt.Format(time.RFC3339),
	}
	for i := range plant.Members {
		resp.Members = append(resp.Members, memberToResponse(&plant.Members[i]))
	}
	for i := range plant.CareActions {
		resp.CareHistory = append(resp.CareHistory, careActionToResponse(&plant.CareActions[i]))
	}
	return resp
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bloomery/bloomery/internal/api/dto"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/bloomery/bloomery/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type MemberHandler struct {
	service *garden.Service
	queue   *asynq.Client
	logger  *slog.Logger
}

func NewMemberHandler(service *garden.Service, queue *asynq.Client, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{service: service, queue: queue, logger: logger}
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (r AddMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !strings.Contains(r.Email, "@") {
		errors["email"] = "Invalid email"
	}
	return errors
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type JoinRequest struct {
	PlantID string `json:"plantId"`
	Role    string `json:"role,omitempty"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

// List handles GET /api/v1/plants/{id}/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	members, err := h.service.ListMembers(r.Context(), plantID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]MemberResponse, len(members))
	for i := range members {
		response[i] = memberToResponse(&members[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": response})
}

// Add handles POST /api/v1/plants/{id}/members
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	member, err := h.service.AddMember(r.Context(), plantID, userID, req.Email, models.MemberRole(req.Role))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"member": memberToResponse(member)})
}

// UpdateRole handles PUT /api/v1/plants/{id}/members/{userId}
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	member, err := h.service.UpdateRole(r.Context(), plantID, userID, targetID, models.MemberRole(req.Role))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"member": memberToResponse(member)})
}

// Remove handles DELETE /api/v1/plants/{id}/members/{userId}
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.service.RemoveMember(r.Context(), plantID, userID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}

// Join handles POST /api/v1/plants/join
func (h *MemberHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	plantID, err := uuid.Parse(req.PlantID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	member, err := h.service.Join(r.Context(), plantID, userID, models.MemberRole(req.Role))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"member": memberToResponse(member)})
}

// Invite handles POST /api/v1/plants/{id}/invitations. The email goes out
// through the background queue; this endpoint only enqueues.
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Valid email is required"})
		return
	}

	// Same privilege as adding a member directly.
	plant, err := h.service.Authorize(r.Context(), plantID, userID, garden.OpAddMember)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Invitations are temporarily unavailable"})
		return
	}

	task, err := tasks.NewInvitationEmailTask(tasks.InvitationEmailPayload{
		PlantID:      plant.ID,
		PlantName:    plant.Name,
		Email:        req.Email,
		InviterName:  middleware.GetUserName(r.Context()),
		InviterEmail: middleware.GetUserEmail(r.Context()),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build invitation"})
		return
	}
	if _, err := h.queue.EnqueueContext(r.Context(), task); err != nil {
		h.logger.Error("failed to enqueue invitation", "plant_id", plant.ID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Invitations are temporarily unavailable"})
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SuccessResponse{Message: "Invitation queued"})
}

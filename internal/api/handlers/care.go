package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bloomery/bloomery/internal/api/dto"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CareHandler struct {
	service *garden.Service
}

func NewCareHandler(service *garden.Service) *CareHandler {
	return &CareHandler{service: service}
}

type CareRequest struct {
	ActionType string `json:"actionType"`
}

type CareResponse struct {
	Plant      PlantResponse       `json:"plant"`
	CareAction *CareActionResponse `json:"careAction,omitempty"`
}

// Care handles POST /api/v1/plants/{id}/care
func (h *CareHandler) Care(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	var req CareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	action := models.CareActionType(req.ActionType)
	plant, record, err := h.service.PerformCare(r.Context(), plantID, userID, action)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.CareActionsTotal.WithLabelValues(string(action)).Inc()

	resp := CareResponse{Plant: plantToResponse(plant)}
	if record != nil {
		ca := careActionToResponse(record)
		resp.CareAction = &ca
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/v1/plants/{id}/care-history
func (h *CareHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	actions, err := h.service.CareHistory(r.Context(), plantID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]CareActionResponse, len(actions))
	for i := range actions {
		response[i] = careActionToResponse(&actions[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"careHistory": response})
}

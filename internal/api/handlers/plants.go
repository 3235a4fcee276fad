package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bloomery/bloomery/internal/api/dto"
	"github.com/bloomery/bloomery/internal/api/middleware"
	"github.com/bloomery/bloomery/internal/auth"
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PlantHandler struct {
	service *garden.Service
	users   auth.IdentityResolver
}

func NewPlantHandler(service *garden.Service, users auth.IdentityResolver) *PlantHandler {
	return &PlantHandler{service: service, users: users}
}

type CreatePlantRequest struct {
	Name string `json:"name"`
}

type UpdatePlantRequest struct {
	Name      *string `json:"name,omitempty"`
	Health    *int    `json:"health,omitempty"`
	Happiness *int    `json:"happiness,omitempty"`
	Growth    *int    `json:"growth,omitempty"`
	Stage     *string `json:"stage,omitempty"`
	Mood      *string `json:"mood,omitempty"`
}

func (r UpdatePlantRequest) Validate() map[string]string {
	errors := make(map[string]string)
	validStages := map[string]bool{"seedling": true, "growing": true, "mature": true, "blooming": true}
	validMoods := map[string]bool{"happy": true, "sad": true, "excited": true, "sleepy": true}
	if r.Stage != nil && !validStages[*r.Stage] {
		errors["stage"] = "Invalid stage"
	}
	if r.Mood != nil && !validMoods[*r.Mood] {
		errors["mood"] = "Invalid mood"
	}
	return errors
}

// List handles GET /api/v1/plants. Behind OptionalAuth: an anonymous caller
// gets an empty list, not an error.
func (h *PlantHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"plants": []PlantResponse{}})
		return
	}

	plants, err := h.service.ListPlants(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]PlantResponse, len(plants))
	for i := range plants {
		response[i] = plantToResponse(&plants[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plants": response})
}

// Create handles POST /api/v1/plants. Also behind OptionalAuth: an anonymous
// caller gets an ephemeral plant that is never persisted.
func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePlantRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"plant": ephemeralPlant(req.Name)})
		return
	}

	// Lazy provisioning: the first authenticated write creates the profile.
	if _, err := h.users.EnsureUser(r.Context(), middleware.Claims(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}

	plant, err := h.service.CreatePlant(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"plant": plantToResponse(plant)})
}

// ephemeralPlant mirrors the anonymous-create fallback: default stats, a
// throwaway id, nothing stored.
func ephemeralPlant(name string) PlantResponse {
	if name == "" {
		name = models.DefaultName
	}
	now := time.Now().Format(time.RFC3339)
	stats := garden.DefaultStats()
	return PlantResponse{
		ID:          "ephemeral-" + uuid.NewString(),
		Name:        name,
		Health:      stats.Health,
		Happiness:   stats.Happiness,
		Growth:      stats.Growth,
		Stage:       models.StageSeedling,
		Mood:        models.MoodHappy,
		LastWatered: now,
		LastFed:     now,
		LastPlayed:  now,
		OwnerID:     "anonymous",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Get handles GET /api/v1/plants/{id}
func (h *PlantHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	plant, err := h.service.GetPlant(r.Context(), plantID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plant": plantToResponse(plant)})
}

// Update handles PUT /api/v1/plants/{id}
func (h *PlantHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	var req UpdatePlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	input := garden.UpdatePlantInput{
		Name:      req.Name,
		Health:    req.Health,
		Happiness: req.Happiness,
		Growth:    req.Growth,
	}
	if req.Stage != nil {
		stage := models.Stage(*req.Stage)
		input.Stage = &stage
	}
	if req.Mood != nil {
		mood := models.Mood(*req.Mood)
		input.Mood = &mood
	}

	plant, err := h.service.UpdatePlant(r.Context(), plantID, userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plant": plantToResponse(plant)})
}

// Delete handles DELETE /api/v1/plants/{id}
func (h *PlantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid plant ID"})
		return
	}

	if err := h.service.DeletePlant(r.Context(), plantID, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Plant deleted successfully"})
}

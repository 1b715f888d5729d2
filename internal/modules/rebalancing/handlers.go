package rebalancing

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandlePlan computes a rebalancing plan for the requested mode
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.Mode.Valid() {
		h.writeError(w, http.StatusBadRequest, "mode must be one of existing-only, new-only, new-with-sells")
		return
	}
	if req.InvestmentAmount < 0 {
		h.writeError(w, http.StatusBadRequest, "investment_amount cannot be negative")
		return
	}

	plan, err := h.service.Plan(r.Context(), req)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleSaveSimulation computes and persists a named run
func (h *Handler) HandleSaveSimulation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		PlanRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		h.writeError(w, http.StatusBadRequest, "Simulation name is required")
		return
	}
	if !req.Mode.Valid() {
		h.writeError(w, http.StatusBadRequest, "mode must be one of existing-only, new-only, new-with-sells")
		return
	}

	sim, err := h.service.SaveSimulation(r.Context(), req.Name, req.PlanRequest)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, sim)
}

// HandleListSimulations returns saved runs, newest first
func (h *Handler) HandleListSimulations(w http.ResponseWriter, r *http.Request) {
	sims, err := h.service.ListSimulations(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"simulations": sims,
	})
}

// HandleGetSimulation returns one saved run with its full plan
func (h *Handler) HandleGetSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sim, err := h.service.GetSimulation(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sim == nil {
		h.writeError(w, http.StatusNotFound, "Simulation not found")
		return
	}

	h.writeJSON(w, http.StatusOK, sim)
}

// HandleDeleteSimulation removes a saved run
func (h *Handler) HandleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteSimulation(r.Context(), id); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

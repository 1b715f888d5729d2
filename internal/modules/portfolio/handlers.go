package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/domain"
)

// Handler handles portfolio and position HTTP requests
type Handler struct {
	service *Service
	rules   *RulesRepository
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, rules *RulesRepository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		rules:   rules,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleList returns all portfolios with their positions
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"portfolios": portfolios})
}

// HandleGet returns one portfolio
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// HandleCreate adds a new portfolio
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p Portfolio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if p.AllocationPercent < 0 || p.AllocationPercent > 100 {
		h.writeError(w, http.StatusBadRequest, "allocation_percent must be between 0 and 100")
		return
	}

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate stores a portfolio's builder fields
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var p Portfolio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = id

	if p.AllocationPercent < 0 || p.AllocationPercent > 100 {
		h.writeError(w, http.StatusBadRequest, "allocation_percent must be between 0 and 100")
		return
	}

	if err := h.service.Update(r.Context(), p); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// HandleDelete removes a portfolio and its positions
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleAddPosition adds a position to a portfolio
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var pos Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos.PortfolioID = portfolioID

	if pos.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if pos.Weight < 0 {
		h.writeError(w, http.StatusBadRequest, "weight cannot be negative")
		return
	}

	created, err := h.service.AddPosition(r.Context(), pos)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdatePosition stores a position's editable fields
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := h.pathID(w, r, "positionID")
	if !ok {
		return
	}

	var pos Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pos.ID = positionID

	if pos.Weight < 0 {
		h.writeError(w, http.StatusBadRequest, "weight cannot be negative")
		return
	}

	if err := h.service.UpdatePosition(r.Context(), pos); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// HandleDeletePosition removes a position
func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := h.pathID(w, r, "positionID")
	if !ok {
		return
	}

	if err := h.service.DeletePosition(r.Context(), positionID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleGetRules returns the concentration caps
func (h *Handler) HandleGetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.Rules(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, rules)
}

// HandleUpdateRules stores new concentration caps
func (h *Handler) HandleUpdateRules(w http.ResponseWriter, r *http.Request) {
	var rules domain.AllocationRules
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, limit := range []float64{rules.MaxPerStock, rules.MaxPerETF, rules.MaxPerCrypto, rules.MaxPerSector, rules.MaxPerCountry} {
		if limit < 0 || limit > 100 {
			h.writeError(w, http.StatusBadRequest, "caps must be between 0 and 100")
			return
		}
	}

	if err := h.rules.Update(r.Context(), rules); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, rules)
}

// HandleSnapshotHistory returns recent daily value rollups
func (h *Handler) HandleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	snaps, err := h.service.SnapshotHistory(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snaps})
}

// Helper methods

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

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

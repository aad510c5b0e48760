package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/decision"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/logger"
)

// DecisionHandler handles decision lifecycle endpoints
type DecisionHandler struct {
	engine *decision.Engine
	logger *logger.Logger
}

func NewDecisionHandler(engine *decision.Engine, log *logger.Logger) *DecisionHandler {
	return &DecisionHandler{engine: engine, logger: log}
}

// Generate runs one decision-generation pass. The router gates this behind
// the admin token; no authorization happens here.
// POST /api/decisions/generate
func (h *DecisionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	created, err := h.engine.GenerateDecisions(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Decision generation failed")
		respondError(w, http.StatusInternalServerError, KindPersistence, "Decision generation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"created":   len(created),
		"decisions": created,
	})
}

// GetLatest returns the most recent open decision per symbol
// GET /api/decisions/latest
func (h *DecisionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.engine.GetLatestDecisions(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read decisions")
		respondError(w, http.StatusInternalServerError, KindPersistence, "Failed to retrieve decisions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(decisions),
		"decisions": decisions,
	})
}

// ExecuteRequest carries the broker order backing an executed decision
type ExecuteRequest struct {
	OrderID string  `json:"order_id"`
	Qty     float64 `json:"qty"`
}

// MarkExecuted transitions a planned decision to executed
// POST /api/decisions/{id}/executed
func (h *DecisionHandler) MarkExecuted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, KindValidation, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		respondError(w, http.StatusUnprocessableEntity, KindValidation, "order_id is required")
		return
	}
	if req.Qty <= 0 {
		respondError(w, http.StatusUnprocessableEntity, KindValidation, "qty must be positive")
		return
	}

	d, err := h.engine.MarkExecuted(r.Context(), id, req.OrderID, req.Qty)
	if err != nil {
		h.respondTransitionError(w, err, "Failed to execute decision")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// Cancel terminates a decision from any non-terminal state
// POST /api/decisions/{id}/cancel
func (h *DecisionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	d, err := h.engine.Cancel(r.Context(), id)
	if err != nil {
		h.respondTransitionError(w, err, "Failed to cancel decision")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (h *DecisionHandler) respondTransitionError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, KindNotFound, "Decision not found")
		return
	}

	var perr *store.PersistenceError
	if errors.As(err, &perr) {
		h.logger.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, KindPersistence, fallback)
		return
	}

	// illegal lifecycle transition
	respondError(w, http.StatusConflict, KindConflict, err.Error())
}

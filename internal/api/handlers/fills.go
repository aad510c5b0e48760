package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/decision"
	"github.com/alphastack/backend/internal/positions"
	"github.com/alphastack/backend/pkg/logger"
)

// FillHandler receives broker fill webhooks
type FillHandler struct {
	reconciler *positions.Reconciler
	engine     *decision.Engine
	logger     *logger.Logger
}

func NewFillHandler(reconciler *positions.Reconciler, engine *decision.Engine, log *logger.Logger) *FillHandler {
	return &FillHandler{reconciler: reconciler, engine: engine, logger: log}
}

// PostFill applies one fill event to its position
// POST /api/fills
func (h *FillHandler) PostFill(w http.ResponseWriter, r *http.Request) {
	var event contracts.FillEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, KindValidation, "Invalid request body")
		return
	}

	// required fields checked before any lookup
	if strings.TrimSpace(event.OrderID) == "" {
		respondError(w, http.StatusUnprocessableEntity, KindValidation, "order_id is required")
		return
	}
	if strings.TrimSpace(event.Ticker) == "" {
		respondError(w, http.StatusUnprocessableEntity, KindValidation, "ticker is required")
		return
	}

	position, err := h.reconciler.Reconcile(event)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, KindNotFound, "No position for order "+event.OrderID)
			return
		}
		h.logger.WithError(err).Error("Fill reconciliation failed")
		respondError(w, http.StatusInternalServerError, KindInternal, "Fill reconciliation failed")
		return
	}

	// the position id doubles as the decision id; advance it too. Repeated
	// fills find the decision already terminal, which is fine.
	if _, err := h.engine.MarkFilled(r.Context(), position.ID); err != nil && !errors.Is(err, contracts.ErrNotFound) {
		h.logger.WithFields(map[string]interface{}{
			"decision": position.ID,
			"error":    err.Error(),
		}).Debug("Decision not advanced by fill")
	}

	respondJSON(w, http.StatusOK, position)
}

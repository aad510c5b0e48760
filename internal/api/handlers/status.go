package handlers

import (
	"net/http"

	"github.com/alphastack/backend/internal/enrichment"
	"github.com/alphastack/backend/internal/positions"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/logger"
)

// StatusHandler exposes process diagnostics
type StatusHandler struct {
	scheduler *enrichment.Scheduler
	store     store.Store
	positions *positions.Store
	logger    *logger.Logger
}

func NewStatusHandler(scheduler *enrichment.Scheduler, st store.Store, pos *positions.Store, log *logger.Logger) *StatusHandler {
	return &StatusHandler{scheduler: scheduler, store: st, positions: pos, logger: log}
}

// GetStatus returns scheduler and storage diagnostics
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	var schedulerStatus interface{}
	if h.scheduler != nil {
		schedulerStatus = h.scheduler.Status()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler": schedulerStatus,
		"storage": map[string]interface{}{
			"type":       h.store.Type(),
			"connection": h.store.ConnString(), // always masked
		},
		"positions": len(h.positions.All()),
	})
}

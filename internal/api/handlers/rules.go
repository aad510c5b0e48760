package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/rules"
	"github.com/alphastack/backend/pkg/logger"
)

// RulesHandler handles per-ticker exit rule endpoints
type RulesHandler struct {
	store  *rules.Store
	logger *logger.Logger
}

func NewRulesHandler(store *rules.Store, log *logger.Logger) *RulesHandler {
	return &RulesHandler{store: store, logger: log}
}

// Put stores the rule set for a ticker
// PUT /api/rules/{ticker}
func (h *RulesHandler) Put(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req contracts.TickerRules
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, KindValidation, "Invalid request body")
		return
	}

	if err := h.store.Put(ticker, req); err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusUnprocessableEntity, KindValidation, verr.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to store rules")
		respondError(w, http.StatusInternalServerError, KindInternal, "Failed to store rules")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

// Get returns the stored or default rules for a ticker
// GET /api/rules/{ticker}
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	respondJSON(w, http.StatusOK, h.store.Get(ticker))
}

// GetAll returns every explicitly configured rule set
// GET /api/rules
func (h *RulesHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	all := h.store.GetAll()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(all),
		"rules": all,
	})
}

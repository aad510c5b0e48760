package handlers

import (
	"encoding/json"
	"net/http"
)

// Error kinds exposed to clients. Stable strings: dashboards and the
// screener worker match on them.
const (
	KindValidation   = "validation_error"
	KindNotFound     = "not_found"
	KindUnauthorized = "unauthorized"
	KindPersistence  = "persistence_error"
	KindConflict     = "conflict"
	KindInternal     = "internal_error"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes the structured error envelope. Never leaks internals:
// the message is what the caller needs, the kind is what it matches on.
func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

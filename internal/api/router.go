package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/alphastack/backend/internal/api/handlers"
	"github.com/alphastack/backend/pkg/logger"
)

// Handlers bundles everything the router wires up
type Handlers struct {
	Discoveries *handlers.DiscoveryHandler
	Decisions   *handlers.DecisionHandler
	Fills       *handlers.FillHandler
	Rules       *handlers.RulesHandler
	Status      *handlers.StatusHandler
	Stream      *StreamHub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, adminToken string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Discovery ingest and reads
	api.HandleFunc("/discoveries", h.Discoveries.Ingest).Methods("POST")
	api.HandleFunc("/discoveries/latest", h.Discoveries.GetLatest).Methods("GET")

	// Decision lifecycle; the manual trigger is admin-gated
	api.Handle("/decisions/generate",
		adminOnly(adminToken, http.HandlerFunc(h.Decisions.Generate)),
	).Methods("POST")
	api.HandleFunc("/decisions/latest", h.Decisions.GetLatest).Methods("GET")
	api.HandleFunc("/decisions/{id}/executed", h.Decisions.MarkExecuted).Methods("POST")
	api.HandleFunc("/decisions/{id}/cancel", h.Decisions.Cancel).Methods("POST")

	// Broker fill webhook
	api.HandleFunc("/fills", h.Fills.PostFill).Methods("POST")

	// Per-ticker exit rules
	api.HandleFunc("/rules", h.Rules.GetAll).Methods("GET")
	api.HandleFunc("/rules/{ticker}", h.Rules.Put).Methods("PUT")
	api.HandleFunc("/rules/{ticker}", h.Rules.Get).Methods("GET")

	// Diagnostics
	api.HandleFunc("/status", h.Status.GetStatus).Methods("GET")

	// Dashboard event stream
	if h.Stream != nil {
		api.HandleFunc("/stream", h.Stream.Handle).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "alphastack-api",
	})
}

// adminOnly rejects requests without the shared admin token before any side
// effect occurs. An empty configured token disables the endpoint entirely.
func adminOnly(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"kind":    "unauthorized",
					"message": "Admin token required",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error": map[string]string{
							"kind":    "internal_error",
							"message": "Internal server error",
						},
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/ingest"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/logger"
)

const maxIngestBody = 1 << 20 // 1 MiB

// DiscoveryHandler handles discovery ingest and read endpoints
// ⭐ SSOT: 디스커버리 API 핸들러는 이 구조체에서만
type DiscoveryHandler struct {
	store  store.Store
	logger *logger.Logger
}

func NewDiscoveryHandler(st store.Store, log *logger.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{store: st, logger: log}
}

const insertDiscoveryQuery = `
	INSERT INTO discoveries (ticker, score, price, confidence, thesis, metrics_json, reasons_json, meta_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (ticker) DO UPDATE SET
		score = excluded.score,
		price = excluded.price,
		confidence = excluded.confidence,
		metrics_json = excluded.metrics_json,
		reasons_json = excluded.reasons_json,
		meta_json = excluded.meta_json,
		updated_at = excluded.updated_at
`

// Ingest validates and persists one raw discovery
// POST /api/discoveries
func (h *DiscoveryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, KindValidation, "Unreadable request body")
		return
	}

	d, err := ingest.Validate(body)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusUnprocessableEntity, KindValidation, verr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, KindValidation, "Invalid discovery payload")
		return
	}

	metricsJSON, _ := json.Marshal(d.Metrics)
	reasonsJSON, _ := json.Marshal(d.Reasons)
	metaJSON, _ := json.Marshal(d.Meta)

	_, err = h.store.Run(ctx, insertDiscoveryQuery,
		d.Ticker, d.Score, d.Price, string(d.Confidence), d.Thesis,
		string(metricsJSON), string(reasonsJSON), string(metaJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		h.logger.WithError(err).Error("Failed to persist discovery")
		respondError(w, http.StatusInternalServerError, KindPersistence, "Failed to persist discovery")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"ticker": d.Ticker,
		"score":  d.Score,
	}).Info("Discovery ingested")

	respondJSON(w, http.StatusCreated, d)
}

// GetLatest returns the current discovery snapshot ordered by score
// GET /api/discoveries/latest?limit=N
func (h *DiscoveryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.store.All(ctx, "SELECT * FROM discoveries ORDER BY score DESC LIMIT ?", limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read discoveries")
		respondError(w, http.StatusInternalServerError, KindPersistence, "Failed to retrieve discoveries")
		return
	}

	discoveries := make([]contracts.Discovery, 0, len(rows))
	for _, row := range rows {
		d, err := discoveryFromRow(row)
		if err != nil {
			h.logger.WithError(err).Warn("Skipping unreadable discovery row")
			continue
		}
		discoveries = append(discoveries, d)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(discoveries),
		"discoveries": discoveries,
	})
}

func discoveryFromRow(row store.Row) (contracts.Discovery, error) {
	d := contracts.Discovery{
		Reasons: []contracts.ReasonEntry{},
		Meta:    map[string]interface{}{},
	}

	d.Ticker, _ = row["ticker"].(string)
	if score, ok := row["score"].(float64); ok {
		d.Score = score
	}
	if price, ok := row["price"].(float64); ok {
		d.Price = &price
	}
	if conf, ok := row["confidence"].(string); ok {
		d.Confidence = contracts.Confidence(conf)
	}
	d.Thesis, _ = row["thesis"].(string)

	if raw, ok := row["metrics_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Metrics); err != nil {
			return d, err
		}
	}
	if raw, ok := row["reasons_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Reasons); err != nil {
			return d, err
		}
	}
	if raw, ok := row["meta_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Meta); err != nil {
			return d, err
		}
	}
	if raw, ok := row["updated_at"].(string); ok {
		d.UpdatedAt, _ = time.Parse(time.RFC3339, raw)
	}

	return d, nil
}

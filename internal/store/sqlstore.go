package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

// sqlStore is the shared implementation behind both backends. The dialect
// differences are confined to how a store is opened and how placeholders
// are rebound; everything else runs the same statements.
type sqlStore struct {
	db     *sql.DB
	typ    Type
	masked string
	rebind func(query string) string
	logger *logger.Logger
}

// Initialize creates the schema if it does not exist
func (s *sqlStore) Initialize(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &PersistenceError{Op: "initialize", Err: err}
		}
	}

	s.logger.WithField("backend", s.typ).Info("Store initialized")
	return nil
}

// Get returns the first result row, or nil when nothing matches
func (s *sqlStore) Get(ctx context.Context, query string, args ...interface{}) (Row, error) {
	rows, err := s.All(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Run executes a statement and returns the affected row count
func (s *sqlStore) Run(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, &PersistenceError{Op: "run", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil // driver without affected-row support
	}
	return affected, nil
}

// All returns every result row as generic maps
func (s *sqlStore) All(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, &PersistenceError{Op: "all", Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &PersistenceError{Op: "all", Err: err}
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &PersistenceError{Op: "all", Err: err}
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "all", Err: err}
	}
	return out, nil
}

// normalizeValue maps driver-specific raw values onto the common shape both
// backends expose: []byte becomes string so text round-trips identically.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

const upsertDiscoveryQuery = `
	INSERT INTO discoveries (ticker, score, price, confidence, thesis, metrics_json, reasons_json, meta_json, updated_at)
	VALUES (?, ?, ?, 'medium', ?, ?, ?, '{}', ?)
	ON CONFLICT (ticker) DO UPDATE SET
		score = excluded.score,
		price = excluded.price,
		thesis = excluded.thesis,
		metrics_json = excluded.metrics_json,
		reasons_json = excluded.reasons_json,
		updated_at = excluded.updated_at
`

const upsertScoreQuery = `
	INSERT INTO discovery_scores (ticker, run_id, momentum, squeeze, sentiment, options, technical, composite, thesis, reasons_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (ticker, run_id) DO UPDATE SET
		momentum = excluded.momentum,
		squeeze = excluded.squeeze,
		sentiment = excluded.sentiment,
		options = excluded.options,
		technical = excluded.technical,
		composite = excluded.composite,
		thesis = excluded.thesis,
		reasons_json = excluded.reasons_json,
		created_at = excluded.created_at
`

const upsertRunQuery = `
	INSERT INTO scan_runs (run_id, started_at, finished_at, item_count)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (run_id) DO UPDATE SET
		finished_at = excluded.finished_at,
		item_count = excluded.item_count
`

// UpsertScoresAtomic writes one scan run's batch inside a single
// transaction. Partial results are never visible: any failure rolls the
// whole batch back.
func (s *sqlStore) UpsertScoresAtomic(ctx context.Context, items []contracts.ScoreItem, meta contracts.RunMeta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "upsert begin", Err: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, item := range items {
		metricsJSON, err := json.Marshal(item.Metrics)
		if err != nil {
			return &PersistenceError{Op: "upsert marshal", Err: err}
		}
		reasonsJSON, err := json.Marshal(item.Reasons)
		if err != nil {
			return &PersistenceError{Op: "upsert marshal", Err: err}
		}

		_, err = tx.ExecContext(ctx, s.rebind(upsertDiscoveryQuery),
			item.Ticker, item.Scores.Composite, item.Price, item.Thesis,
			string(metricsJSON), string(reasonsJSON), now,
		)
		if err != nil {
			return &PersistenceError{Op: "upsert discovery", Err: err}
		}

		_, err = tx.ExecContext(ctx, s.rebind(upsertScoreQuery),
			item.Ticker, meta.RunID,
			item.Scores.Momentum, item.Scores.Squeeze, item.Scores.Sentiment,
			item.Scores.Options, item.Scores.Technical, item.Scores.Composite,
			item.Thesis, string(reasonsJSON), now,
		)
		if err != nil {
			return &PersistenceError{Op: "upsert score", Err: err}
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(upsertRunQuery),
		meta.RunID,
		meta.StartedAt.UTC().Format(time.RFC3339),
		meta.FinishedAt.UTC().Format(time.RFC3339),
		meta.ItemCount,
	)
	if err != nil {
		return &PersistenceError{Op: "upsert run", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "upsert commit", Err: err}
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id": meta.RunID,
		"items":  len(items),
	}).Debug("Score batch committed")

	return nil
}

// Type reports the concrete engine
func (s *sqlStore) Type() Type {
	return s.typ
}

// ConnString returns the connection string with credentials masked
func (s *sqlStore) ConnString() string {
	return s.masked
}

// Close releases the underlying connections
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity for diagnostics
func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

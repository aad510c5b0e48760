// Package store implements the persistence gateway over two interchangeable
// storage engines: an embedded sqlite file and a networked postgres server.
// Both backends produce identical logical results for the same operation
// sequence, so every higher-level component works against the Store
// interface alone.
// ⭐ SSOT: 영속성 접근은 이 패키지를 통해서만
package store

import (
	"context"
	"fmt"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

// Type identifies the concrete storage engine behind a Store
type Type string

const (
	TypeEmbedded  Type = "embedded"  // sqlite file
	TypeNetworked Type = "networked" // postgres
)

// Row is one generic result row
type Row map[string]interface{}

// MergeStats summarizes a store-to-store merge
type MergeStats struct {
	Discoveries int `json:"discoveries"`
	Scores      int `json:"scores"`
	Decisions   int `json:"decisions"`
	Runs        int `json:"runs"`
}

// Store is the backend-agnostic persistence capability set.
// Queries are written with `?` placeholders; each backend rebinds them to
// its native form.
type Store interface {
	// Initialize creates the schema if it does not exist
	Initialize(ctx context.Context) error

	// Get returns the first result row, or nil when nothing matches
	Get(ctx context.Context, query string, args ...interface{}) (Row, error)

	// Run executes a statement and returns the affected row count
	Run(ctx context.Context, query string, args ...interface{}) (int64, error)

	// All returns every result row
	All(ctx context.Context, query string, args ...interface{}) ([]Row, error)

	// UpsertScoresAtomic writes one scan run's batch in a single
	// transaction. Any failure rolls back the whole batch; repeated calls
	// with identical keys converge to one row per key.
	UpsertScoresAtomic(ctx context.Context, items []contracts.ScoreItem, meta contracts.RunMeta) error

	// MergeFrom copies rows from src with insert-if-absent semantics.
	// Existing rows are never overwritten.
	MergeFrom(ctx context.Context, src Store) (MergeStats, error)

	// Type reports the concrete engine
	Type() Type

	// ConnString returns the connection string with credentials masked
	ConnString() string

	// Close releases the underlying connections
	Close() error
}

// PersistenceError wraps a backend failure. The scheduler classifies it as
// a failed run; the current batch has already been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// New selects and opens the configured backend. The selection happens
// exactly once, here; nothing downstream inspects the concrete type.
func New(cfg *config.Config, log *logger.Logger) (Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return NewSQLite(cfg.Database, log)
	case "postgres":
		return NewPostgres(cfg.Database, log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

// NewSQLite opens the embedded file-based backend.
// 단일 파일 DB — 개발/단독 배포용
func NewSQLite(cfg config.DatabaseConfig, log *logger.Logger) (Store, error) {
	// Foreign keys off by default in sqlite; busy timeout keeps concurrent
	// readers from failing during a batch commit.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	// A single writer connection sidesteps SQLITE_BUSY on write contention
	db.SetMaxOpenConns(1)

	return &sqlStore{
		db:     db,
		typ:    TypeEmbedded,
		masked: "sqlite://" + cfg.Path,
		rebind: func(query string) string { return query }, // sqlite uses ? natively
		logger: log.WithComponent("store"),
	}, nil
}

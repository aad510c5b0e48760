package store

// Schema DDL shared by both backends. Types are chosen from the common
// subset both engines understand; timestamps are stored as RFC3339 text so
// the two backends stay logically identical.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS discoveries (
		ticker       TEXT PRIMARY KEY CHECK (ticker <> ''),
		score        DOUBLE PRECISION NOT NULL,
		price        DOUBLE PRECISION,
		confidence   TEXT NOT NULL DEFAULT 'medium',
		thesis       TEXT NOT NULL DEFAULT '',
		metrics_json TEXT NOT NULL DEFAULT '{}',
		reasons_json TEXT NOT NULL DEFAULT '[]',
		meta_json    TEXT NOT NULL DEFAULT '{}',
		updated_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS discovery_scores (
		ticker       TEXT NOT NULL CHECK (ticker <> ''),
		run_id       TEXT NOT NULL,
		momentum     DOUBLE PRECISION NOT NULL DEFAULT 0,
		squeeze      DOUBLE PRECISION NOT NULL DEFAULT 0,
		sentiment    DOUBLE PRECISION NOT NULL DEFAULT 0,
		options      DOUBLE PRECISION NOT NULL DEFAULT 0,
		technical    DOUBLE PRECISION NOT NULL DEFAULT 0,
		composite    DOUBLE PRECISION NOT NULL DEFAULT 0,
		thesis       TEXT NOT NULL DEFAULT '',
		reasons_json TEXT NOT NULL DEFAULT '[]',
		created_at   TEXT NOT NULL,
		PRIMARY KEY (ticker, run_id)
	)`,

	`CREATE TABLE IF NOT EXISTS scan_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		item_count  INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id             TEXT PRIMARY KEY,
		symbol         TEXT NOT NULL CHECK (symbol <> ''),
		status         TEXT NOT NULL,
		entry          DOUBLE PRECISION NOT NULL,
		stop           DOUBLE PRECISION NOT NULL,
		target_1       DOUBLE PRECISION NOT NULL,
		target_2       DOUBLE PRECISION NOT NULL,
		rationale_json TEXT NOT NULL DEFAULT '{}',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_discovery_scores_run ON discovery_scores (run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions (symbol, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions (status)`,
}

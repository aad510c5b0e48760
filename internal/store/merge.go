package store

import (
	"context"
	"fmt"
	"strings"
)

// mergeTables lists every table with its primary-key-ordered column set.
// Merge copies row-by-row with insert-if-absent semantics per primary key.
var mergeTables = []struct {
	name    string
	columns []string
}{
	{"discoveries", []string{"ticker", "score", "price", "confidence", "thesis", "metrics_json", "reasons_json", "meta_json", "updated_at"}},
	{"discovery_scores", []string{"ticker", "run_id", "momentum", "squeeze", "sentiment", "options", "technical", "composite", "thesis", "reasons_json", "created_at"}},
	{"scan_runs", []string{"run_id", "started_at", "finished_at", "item_count"}},
	{"decisions", []string{"id", "symbol", "status", "entry", "stop", "target_1", "target_2", "rationale_json", "created_at", "updated_at"}},
}

// MergeFrom copies all rows from src into this store. Rows whose primary
// key already exists are left untouched — merge never overwrites.
func (s *sqlStore) MergeFrom(ctx context.Context, src Store) (MergeStats, error) {
	stats := MergeStats{}

	for _, table := range mergeTables {
		inserted, err := s.mergeTable(ctx, src, table.name, table.columns)
		if err != nil {
			return stats, fmt.Errorf("merge of %s failed: %w", table.name, err)
		}

		switch table.name {
		case "discoveries":
			stats.Discoveries = inserted
		case "discovery_scores":
			stats.Scores = inserted
		case "scan_runs":
			stats.Runs = inserted
		case "decisions":
			stats.Decisions = inserted
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"discoveries": stats.Discoveries,
		"scores":      stats.Scores,
		"runs":        stats.Runs,
		"decisions":   stats.Decisions,
	}).Info("Store merge completed")

	return stats, nil
}

func (s *sqlStore) mergeTable(ctx context.Context, src Store, table string, columns []string) (int, error) {
	selectQuery := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	rows, err := src.All(ctx, selectQuery)
	if err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(columns, ", "), placeholders,
	)

	inserted := 0
	for _, row := range rows {
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}

		affected, err := s.Run(ctx, insertQuery, args...)
		if err != nil {
			return inserted, err
		}
		inserted += int(affected)
	}

	return inserted, nil
}

package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/store"
)

// Repository persists decisions through the storage gateway
type Repository struct {
	store store.Store
}

func NewRepository(st store.Store) *Repository {
	return &Repository{store: st}
}

const upsertDecisionQuery = `
	INSERT INTO decisions (id, symbol, status, entry, stop, target_1, target_2, rationale_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at
`

// Save writes a decision; repeated saves of the same id update its status
func (r *Repository) Save(ctx context.Context, d contracts.Decision) error {
	rationaleJSON, err := json.Marshal(d.Rationale)
	if err != nil {
		return fmt.Errorf("failed to marshal rationale: %w", err)
	}

	_, err = r.store.Run(ctx, upsertDecisionQuery,
		d.ID, d.Symbol, string(d.Status),
		d.SizePlan.Entry, d.SizePlan.Stop, d.SizePlan.Target1, d.SizePlan.Target2,
		string(rationaleJSON),
		d.CreatedAt.UTC().Format(time.RFC3339),
		d.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetByID returns one decision
func (r *Repository) GetByID(ctx context.Context, id string) (contracts.Decision, error) {
	row, err := r.store.Get(ctx, "SELECT * FROM decisions WHERE id = ?", id)
	if err != nil {
		return contracts.Decision{}, err
	}
	if row == nil {
		return contracts.Decision{}, fmt.Errorf("decision %s: %w", id, contracts.ErrNotFound)
	}
	return decisionFromRow(row)
}

// HasOpenForSymbol reports whether a planned or executed decision exists
func (r *Repository) HasOpenForSymbol(ctx context.Context, symbol string) (bool, error) {
	row, err := r.store.Get(ctx,
		"SELECT id FROM decisions WHERE symbol = ? AND status IN ('planned', 'executed') LIMIT 1",
		symbol,
	)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// LatestPerSymbol returns the most recent open decision for each symbol
func (r *Repository) LatestPerSymbol(ctx context.Context) ([]contracts.Decision, error) {
	rows, err := r.store.All(ctx, `
		SELECT * FROM decisions
		WHERE status IN ('planned', 'executed')
		ORDER BY symbol, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.Decision, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		d, err := decisionFromRow(row)
		if err != nil {
			return nil, err
		}
		if seen[d.Symbol] {
			continue
		}
		seen[d.Symbol] = true
		out = append(out, d)
	}
	return out, nil
}

func decisionFromRow(row store.Row) (contracts.Decision, error) {
	d := contracts.Decision{}

	var ok bool
	if d.ID, ok = row["id"].(string); !ok {
		return d, fmt.Errorf("decision row missing id")
	}
	d.Symbol, _ = row["symbol"].(string)

	status, _ := row["status"].(string)
	d.Status = contracts.DecisionStatus(status)
	if !d.Status.Valid() {
		return d, fmt.Errorf("decision %s has invalid status %q", d.ID, status)
	}

	d.SizePlan = contracts.SizePlan{
		Entry:   asFloat(row["entry"]),
		Stop:    asFloat(row["stop"]),
		Target1: asFloat(row["target_1"]),
		Target2: asFloat(row["target_2"]),
	}

	if raw, ok := row["rationale_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Rationale); err != nil {
			return d, fmt.Errorf("rationale for %s unreadable: %w", d.ID, err)
		}
	}

	if raw, ok := row["created_at"].(string); ok {
		d.CreatedAt, _ = time.Parse(time.RFC3339, raw)
	}
	if raw, ok := row["updated_at"].(string); ok {
		d.UpdatedAt, _ = time.Parse(time.RFC3339, raw)
	}

	return d, nil
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

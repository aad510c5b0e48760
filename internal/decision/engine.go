// Package decision promotes top-scoring candidates into trade decisions and
// walks them through the planned → executed → filled lifecycle.
// ⭐ SSOT: 디시전 생성/전이는 이 패키지에서만
package decision

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/positions"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

// Engine creates and transitions decisions. It performs no authorization:
// the route boundary gates the manual trigger before calling in.
type Engine struct {
	store     store.Store
	repo      *Repository
	positions *positions.Store
	cfg       config.DecisionConfig
	logger    *logger.Logger
}

func NewEngine(st store.Store, repo *Repository, pos *positions.Store, cfg config.DecisionConfig, log *logger.Logger) *Engine {
	return &Engine{
		store:     st,
		repo:      repo,
		positions: pos,
		cfg:       cfg,
		logger:    log.WithComponent("decision"),
	}
}

// GenerateDecisions promotes qualifying candidates without an open decision.
// Returns the decisions created by this pass.
func (e *Engine) GenerateDecisions(ctx context.Context) ([]contracts.Decision, error) {
	rows, err := e.store.All(ctx, `
		SELECT ticker, score, price, thesis, reasons_json FROM discoveries
		WHERE score >= ? AND price IS NOT NULL
		ORDER BY score DESC
		LIMIT ?`,
		e.cfg.MinScore, e.cfg.TopN,
	)
	if err != nil {
		return nil, err
	}

	created := make([]contracts.Decision, 0, len(rows))
	for _, row := range rows {
		ticker, _ := row["ticker"].(string)
		price := asFloat(row["price"])
		if ticker == "" || price <= 0 {
			continue
		}

		open, err := e.repo.HasOpenForSymbol(ctx, ticker)
		if err != nil {
			return created, err
		}
		if open {
			e.logger.WithField("symbol", ticker).Debug("Open decision exists, skipping")
			continue
		}

		d, err := e.buildDecision(ctx, ticker, price, row)
		if err != nil {
			return created, err
		}
		if err := e.repo.Save(ctx, d); err != nil {
			return created, err
		}

		e.logger.WithFields(map[string]interface{}{
			"id":     d.ID,
			"symbol": d.Symbol,
			"entry":  d.SizePlan.Entry,
			"stop":   d.SizePlan.Stop,
		}).Info("Decision planned")

		created = append(created, d)
	}

	return created, nil
}

// buildDecision derives the size plan from the reference price and snapshots
// the scoring state that triggered the promotion.
func (e *Engine) buildDecision(ctx context.Context, ticker string, price float64, discoveryRow store.Row) (contracts.Decision, error) {
	rationale := contracts.Rationale{}
	rationale.Thesis, _ = discoveryRow["thesis"].(string)

	if raw, ok := discoveryRow["reasons_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rationale.Reasons); err != nil {
			return contracts.Decision{}, fmt.Errorf("reasons for %s unreadable: %w", ticker, err)
		}
	}

	scoreRow, err := e.store.Get(ctx, `
		SELECT momentum, squeeze, sentiment, options, technical, composite
		FROM discovery_scores WHERE ticker = ?
		ORDER BY created_at DESC LIMIT 1`,
		ticker,
	)
	if err != nil {
		return contracts.Decision{}, err
	}
	if scoreRow != nil {
		rationale.Scores = contracts.ComponentScoreSet{
			Momentum:  asFloat(scoreRow["momentum"]),
			Squeeze:   asFloat(scoreRow["squeeze"]),
			Sentiment: asFloat(scoreRow["sentiment"]),
			Options:   asFloat(scoreRow["options"]),
			Technical: asFloat(scoreRow["technical"]),
			Composite: asFloat(scoreRow["composite"]),
		}
	}

	now := time.Now().UTC()
	return contracts.Decision{
		ID:     newDecisionID(),
		Symbol: ticker,
		Status: contracts.DecisionPlanned,
		SizePlan: contracts.SizePlan{
			Entry:   price * e.cfg.EntryMult,
			Stop:    price * e.cfg.StopMult,
			Target1: price * e.cfg.Target1Mult,
			Target2: price * e.cfg.Target2Mult,
		},
		Rationale: rationale,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetLatestDecisions returns the most recent open decision per symbol
func (e *Engine) GetLatestDecisions(ctx context.Context) ([]contracts.Decision, error) {
	return e.repo.LatestPerSymbol(ctx)
}

// MarkExecuted transitions a planned decision to executed and registers the
// pending position that tracks the placed order.
func (e *Engine) MarkExecuted(ctx context.Context, id, orderID string, qty float64) (contracts.Decision, error) {
	d, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return contracts.Decision{}, err
	}

	if !d.Status.CanTransitionTo(contracts.DecisionExecuted) {
		return contracts.Decision{}, fmt.Errorf("decision %s is %s, cannot execute", id, d.Status)
	}

	d.Status = contracts.DecisionExecuted
	d.UpdatedAt = time.Now().UTC()
	if err := e.repo.Save(ctx, d); err != nil {
		return contracts.Decision{}, err
	}

	e.positions.Put(contracts.Position{
		ID:        d.ID,
		Ticker:    d.Symbol,
		Qty:       qty,
		RefPrice:  d.SizePlan.Entry,
		OrderID:   orderID,
		Status:    contracts.PositionPending,
		CreatedAt: d.UpdatedAt,
	})

	e.logger.WithFields(map[string]interface{}{
		"id":       d.ID,
		"symbol":   d.Symbol,
		"order_id": orderID,
	}).Info("Decision executed")

	return d, nil
}

// Cancel terminates a decision from any non-terminal state
func (e *Engine) Cancel(ctx context.Context, id string) (contracts.Decision, error) {
	d, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return contracts.Decision{}, err
	}

	if !d.Status.CanTransitionTo(contracts.DecisionCancelled) {
		return contracts.Decision{}, fmt.Errorf("decision %s is %s, cannot cancel", id, d.Status)
	}

	d.Status = contracts.DecisionCancelled
	d.UpdatedAt = time.Now().UTC()
	if err := e.repo.Save(ctx, d); err != nil {
		return contracts.Decision{}, err
	}

	e.logger.WithFields(map[string]interface{}{
		"id":     d.ID,
		"symbol": d.Symbol,
	}).Info("Decision cancelled")

	return d, nil
}

// MarkFilled advances an executed decision after its position fills
func (e *Engine) MarkFilled(ctx context.Context, id string) (contracts.Decision, error) {
	d, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return contracts.Decision{}, err
	}

	if !d.Status.CanTransitionTo(contracts.DecisionFilled) {
		return contracts.Decision{}, fmt.Errorf("decision %s is %s, cannot fill", id, d.Status)
	}

	d.Status = contracts.DecisionFilled
	d.UpdatedAt = time.Now().UTC()
	if err := e.repo.Save(ctx, d); err != nil {
		return contracts.Decision{}, err
	}
	return d, nil
}

func newDecisionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("dec-%d", time.Now().UnixNano())
	}
	return "dec-" + hex.EncodeToString(buf)
}

// Package rules keeps per-ticker exit parameters. Absent tickers fall back
// to the global defaults, so reads always succeed.
// ⭐ SSOT: 티커별 익절/손절 규칙은 여기서만
package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

// ValidationError reports a rejected rule field with its allowed range
type ValidationError struct {
	Field  string
	Bounds string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule %s: must be in %s", e.Field, e.Bounds)
}

// Store holds ticker rules in memory. Writes replace the full rule set for
// a ticker; the last write wins.
type Store struct {
	mu       sync.RWMutex
	rules    map[string]contracts.TickerRules
	defaults contracts.TickerRules
	logger   *logger.Logger
}

func NewStore(log *logger.Logger) *Store {
	return &Store{
		rules:    make(map[string]contracts.TickerRules),
		defaults: contracts.DefaultTickerRules(),
		logger:   log.WithComponent("rules"),
	}
}

// Put validates and stores the rule set for a ticker. Invalid values reject
// the whole write; the previously stored rules stay in effect.
func (s *Store) Put(ticker string, r contracts.TickerRules) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return &ValidationError{Field: "ticker", Bounds: "non-empty"}
	}
	if err := validate(r); err != nil {
		return err
	}

	s.mu.Lock()
	s.rules[ticker] = r
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"tp1":    r.TP1Pct,
		"tp2":    r.TP2Pct,
		"stop":   r.StopPct,
	}).Info("Ticker rules updated")

	return nil
}

// Get returns the rules for a ticker, falling back to defaults when no
// explicit rules exist.
func (s *Store) Get(ticker string) contracts.TickerRules {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rules[ticker]; ok {
		return r
	}
	return s.defaults
}

// GetAll returns every explicitly stored rule set keyed by ticker
func (s *Store) GetAll() map[string]contracts.TickerRules {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.TickerRules, len(s.rules))
	for ticker, r := range s.rules {
		out[ticker] = r
	}
	return out
}

// validate enforces the allowed ranges. Upper bounds are inclusive: a 100%
// first target or a 50% stop is aggressive but expressible.
func validate(r contracts.TickerRules) error {
	if r.TP1Pct <= 0 || r.TP1Pct > 1.0 {
		return &ValidationError{Field: "tp1_pct", Bounds: "(0, 1.0]"}
	}
	if r.TP2Pct <= 0 || r.TP2Pct > 2.0 {
		return &ValidationError{Field: "tp2_pct", Bounds: "(0, 2.0]"}
	}
	if r.StopPct <= 0 || r.StopPct > 0.5 {
		return &ValidationError{Field: "stop_pct", Bounds: "(0, 0.5]"}
	}
	return nil
}

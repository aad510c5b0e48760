package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

func TestPut_Validation(t *testing.T) {
	tests := []struct {
		name      string
		rules     contracts.TickerRules
		wantField string
	}{
		{"tp1 zero rejected", contracts.TickerRules{TP1Pct: 0, TP2Pct: 0.5, StopPct: 0.1}, "tp1_pct"},
		{"tp1 above one rejected", contracts.TickerRules{TP1Pct: 1.5, TP2Pct: 0.5, StopPct: 0.1}, "tp1_pct"},
		{"tp1 exactly one accepted", contracts.TickerRules{TP1Pct: 1.0, TP2Pct: 0.5, StopPct: 0.1}, ""},
		{"tp2 above two rejected", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 2.01, StopPct: 0.1}, "tp2_pct"},
		{"tp2 exactly two accepted", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 2.0, StopPct: 0.1}, ""},
		{"stop above half rejected", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.5, StopPct: 0.51}, "stop_pct"},
		{"stop exactly half accepted", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.5, StopPct: 0.5}, ""},
		{"stop negative rejected", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.5, StopPct: -0.1}, "stop_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(logger.NewNop())
			err := s.Put("NVDA", tt.rules)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestPut_RejectedWriteKeepsPrevious(t *testing.T) {
	s := NewStore(logger.NewNop())

	good := contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.6, StopPct: 0.08}
	require.NoError(t, s.Put("NVDA", good))

	bad := contracts.TickerRules{TP1Pct: 1.5, TP2Pct: 0.6, StopPct: 0.08}
	require.Error(t, s.Put("NVDA", bad))

	assert.Equal(t, good, s.Get("NVDA"))
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	s := NewStore(logger.NewNop())

	got := s.Get("UNKNOWN")
	assert.Equal(t, contracts.DefaultTickerRules(), got)
}

func TestPut_LastWriteWins(t *testing.T) {
	s := NewStore(logger.NewNop())

	first := contracts.TickerRules{TP1Pct: 0.1, TP2Pct: 0.3, StopPct: 0.05}
	second := contracts.TickerRules{TP1Pct: 0.25, TP2Pct: 0.8, StopPct: 0.12}

	require.NoError(t, s.Put("TSLA", first))
	require.NoError(t, s.Put("TSLA", second))

	assert.Equal(t, second, s.Get("TSLA"))
}

func TestStore_TickerNormalized(t *testing.T) {
	s := NewStore(logger.NewNop())

	r := contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.6, StopPct: 0.1}
	require.NoError(t, s.Put(" nvda ", r))

	assert.Equal(t, r, s.Get("NVDA"))

	all := s.GetAll()
	require.Len(t, all, 1)
	assert.Contains(t, all, "NVDA")
}

func TestPut_EmptyTickerRejected(t *testing.T) {
	s := NewStore(logger.NewNop())

	err := s.Put("  ", contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.6, StopPct: 0.1})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ticker", verr.Field)
}

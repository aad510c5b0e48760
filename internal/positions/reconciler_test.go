package positions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

func pendingPosition(id, ticker, orderID string) contracts.Position {
	return contracts.Position{
		ID:        id,
		Ticker:    ticker,
		Qty:       100,
		RefPrice:  42.5,
		OrderID:   orderID,
		Status:    contracts.PositionPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestReconcile_AdvancesPendingToFilled(t *testing.T) {
	store := NewStore()
	store.Put(pendingPosition("d1", "NVDA", "ord-123"))

	r := NewReconciler(store, logger.NewNop())

	qty := 100.0
	avg := 43.1
	filledAt := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)

	got, err := r.Reconcile(contracts.FillEvent{
		OrderID:  "ord-123",
		Ticker:   "NVDA",
		Qty:      &qty,
		AvgCost:  &avg,
		FilledAt: &filledAt,
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.PositionFilled, got.Status)
	assert.Equal(t, 100.0, got.FilledQty)
	assert.Equal(t, 43.1, got.FilledAvgPrice)
	require.NotNil(t, got.FilledAt)
	assert.Equal(t, filledAt, *got.FilledAt)

	// the store reflects the mutation
	stored, ok := store.GetByOrderID("ord-123")
	require.True(t, ok)
	assert.Equal(t, contracts.PositionFilled, stored.Status)
}

func TestReconcile_UnknownOrderIsNoOp(t *testing.T) {
	store := NewStore()
	store.Put(pendingPosition("d1", "NVDA", "ord-123"))

	r := NewReconciler(store, logger.NewNop())

	_, err := r.Reconcile(contracts.FillEvent{OrderID: "ord-999", Ticker: "NVDA"})
	require.ErrorIs(t, err, contracts.ErrNotFound)

	// no position was created or mutated
	assert.Len(t, store.All(), 1)
	stored, _ := store.GetByOrderID("ord-123")
	assert.Equal(t, contracts.PositionPending, stored.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	store := NewStore()
	store.Put(pendingPosition("d1", "TSLA", "ord-5"))

	r := NewReconciler(store, logger.NewNop())

	qty := 50.0
	avg := 210.0
	filledAt := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	event := contracts.FillEvent{OrderID: "ord-5", Ticker: "TSLA", Qty: &qty, AvgCost: &avg, FilledAt: &filledAt}

	first, err := r.Reconcile(event)
	require.NoError(t, err)
	second, err := r.Reconcile(event)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated identical fills must converge")
}

func TestReconcile_MissingOptionalFieldsDefaulted(t *testing.T) {
	store := NewStore()
	store.Put(pendingPosition("d1", "AMD", "ord-7"))

	r := NewReconciler(store, logger.NewNop())

	got, err := r.Reconcile(contracts.FillEvent{OrderID: "ord-7", Ticker: "AMD"})
	require.NoError(t, err)

	assert.Equal(t, 100.0, got.FilledQty, "missing qty falls back to planned qty")
	require.NotNil(t, got.FilledAt, "missing fill time is stamped")
}

func TestReconcile_MissingOrderIDRejected(t *testing.T) {
	r := NewReconciler(NewStore(), logger.NewNop())

	_, err := r.Reconcile(contracts.FillEvent{Ticker: "NVDA"})
	require.Error(t, err)
}

func TestStore_OrderIndexFollowsReplacement(t *testing.T) {
	store := NewStore()
	store.Put(pendingPosition("d1", "NVDA", "ord-old"))

	replaced := pendingPosition("d1", "NVDA", "ord-new")
	store.Put(replaced)

	_, ok := store.GetByOrderID("ord-old")
	assert.False(t, ok)

	got, ok := store.GetByOrderID("ord-new")
	require.True(t, ok)
	assert.Equal(t, "d1", got.ID)
}

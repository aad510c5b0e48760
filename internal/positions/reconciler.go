package positions

import (
	"fmt"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

// Reconciler matches broker fill events to tracked positions by order id
// and advances their status. It never creates positions — a fill for an
// unknown order is reported as not found and mutates nothing.
type Reconciler struct {
	store  *Store
	logger *logger.Logger
}

func NewReconciler(store *Store, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: log.WithComponent("reconciler"),
	}
}

// Reconcile applies one fill event. Repeated identical events converge to
// the same final state.
func (r *Reconciler) Reconcile(event contracts.FillEvent) (contracts.Position, error) {
	if event.OrderID == "" {
		return contracts.Position{}, fmt.Errorf("fill event missing order_id")
	}

	var updated contracts.Position
	ok := r.store.update(event.OrderID, func(p *contracts.Position) {
		if event.Qty != nil {
			p.FilledQty = *event.Qty
		} else {
			p.FilledQty = p.Qty
		}
		if event.AvgCost != nil {
			p.FilledAvgPrice = *event.AvgCost
		}
		if event.FilledAt != nil {
			t := *event.FilledAt
			p.FilledAt = &t
		} else if p.FilledAt == nil {
			now := time.Now().UTC()
			p.FilledAt = &now
		}
		p.Status = contracts.PositionFilled
		updated = *p
	})

	if !ok {
		r.logger.WithField("order_id", event.OrderID).Warn("Fill event for unknown order")
		return contracts.Position{}, fmt.Errorf("no position for order %s: %w", event.OrderID, contracts.ErrNotFound)
	}

	r.logger.WithFields(map[string]interface{}{
		"order_id":   event.OrderID,
		"ticker":     updated.Ticker,
		"filled_qty": updated.FilledQty,
	}).Info("Position filled")

	return updated, nil
}

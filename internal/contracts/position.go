package contracts

import "time"

// PositionStatus represents the fill state of a position
type PositionStatus string

const (
	PositionPending PositionStatus = "pending"
	PositionFilled  PositionStatus = "filled"
)

// Position represents an open position awaiting (or holding) a broker fill.
// Created when a decision transitions to executed; mutated only by the
// fill reconciler.
type Position struct {
	ID             string         `json:"id"`
	Ticker         string         `json:"ticker"`
	Qty            float64        `json:"qty"`
	RefPrice       float64        `json:"ref_price"`
	OrderID        string         `json:"alpaca_order_id"`
	FilledQty      float64        `json:"filled_qty,omitempty"`
	FilledAvgPrice float64        `json:"filled_avg_price,omitempty"`
	FilledAt       *time.Time     `json:"filled_at,omitempty"`
	Status         PositionStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// FillEvent is an asynchronous broker fill notification.
// OrderID and Ticker are required; everything else is optional.
type FillEvent struct {
	OrderID  string     `json:"order_id"`
	Ticker   string     `json:"ticker"`
	Qty      *float64   `json:"qty,omitempty"`
	AvgCost  *float64   `json:"avg_cost,omitempty"`
	FilledAt *time.Time `json:"filled_at,omitempty"`
}

// TickerRules holds per-ticker take-profit / stop-loss configuration
type TickerRules struct {
	TP1Pct  float64 `json:"tp1_pct"`  // (0, 1]
	TP2Pct  float64 `json:"tp2_pct"`  // (0, 2]
	StopPct float64 `json:"stop_pct"` // (0, 0.5]
}

// DefaultTickerRules is returned for any ticker without stored rules
func DefaultTickerRules() TickerRules {
	return TickerRules{TP1Pct: 0.15, TP2Pct: 0.50, StopPct: 0.10}
}

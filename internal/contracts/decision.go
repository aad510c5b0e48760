package contracts

import "time"

// DecisionStatus represents the decision lifecycle state
// planned → executed → filled, or cancelled from any non-terminal state
type DecisionStatus string

const (
	DecisionPlanned   DecisionStatus = "planned"
	DecisionExecuted  DecisionStatus = "executed"
	DecisionFilled    DecisionStatus = "filled"
	DecisionCancelled DecisionStatus = "cancelled"
)

// Valid checks the decision status enum
func (s DecisionStatus) Valid() bool {
	switch s {
	case DecisionPlanned, DecisionExecuted, DecisionFilled, DecisionCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status allows no further transitions
func (s DecisionStatus) Terminal() bool {
	return s == DecisionFilled || s == DecisionCancelled
}

// CanTransitionTo checks a single lifecycle transition
func (s DecisionStatus) CanTransitionTo(next DecisionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case DecisionExecuted:
		return s == DecisionPlanned
	case DecisionFilled:
		return s == DecisionExecuted
	case DecisionCancelled:
		return true
	}
	return false
}

// SizePlan holds entry/stop/target levels derived from the reference price
type SizePlan struct {
	Entry   float64 `json:"entry"`
	Stop    float64 `json:"stop"`
	Target1 float64 `json:"target_1"`
	Target2 float64 `json:"target_2"`
}

// Rationale is a snapshot of the scoring state that triggered a decision
type Rationale struct {
	Scores  ComponentScoreSet `json:"scores"`
	Reasons []ReasonEntry     `json:"reasons"`
	Thesis  string            `json:"thesis,omitempty"`
}

// Decision represents a trade decision promoted from a scored candidate
// ⭐ SSOT: 디시전 라이프사이클은 여기서만 정의
type Decision struct {
	ID        string         `json:"id"`
	Symbol    string         `json:"symbol"`
	Status    DecisionStatus `json:"status"`
	SizePlan  SizePlan       `json:"size_plan"`
	Rationale Rationale      `json:"rationale"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Open reports whether the decision still blocks a new one for the symbol
func (d *Decision) Open() bool {
	return d.Status == DecisionPlanned || d.Status == DecisionExecuted
}

package contracts

import "time"

// Confidence represents the ingest-time confidence tag on a discovery
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid checks the confidence enum
func (c Confidence) Valid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// ReasonEntry is a single scored reason attached to a discovery
type ReasonEntry struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// Metrics holds the optional component metrics of a discovery.
// ⭐ 불변식: 없는 지표는 nil — 0은 의미 있는 값이므로 절대 0으로 채우지 않음
type Metrics struct {
	RelVol           *float64 `json:"relVol,omitempty"`
	ATRPct           *float64 `json:"atrPct,omitempty"`
	RSI              *float64 `json:"rsi,omitempty"`
	VWAPDistPct      *float64 `json:"vwapDistPct,omitempty"`
	ShortInterestPct *float64 `json:"shortInterestPct,omitempty"`
	BorrowFeePct     *float64 `json:"borrowFeePct,omitempty"`
	UtilizationPct   *float64 `json:"utilizationPct,omitempty"`
	IVPercentile     *float64 `json:"ivPercentile,omitempty"`
	CallPutRatio     *float64 `json:"callPutRatio,omitempty"`
	Catalyst         *string  `json:"catalyst,omitempty"`
	SentimentScore   *float64 `json:"sentimentScore,omitempty"`

	// Derived during enrichment (never part of the ingest payload)
	EMABullCross *bool   `json:"emaBullCross,omitempty"`
	VWAPSide     *string `json:"vwapSide,omitempty"` // "above" or "below"
}

// Discovery represents one canonical stock candidate record
// ⭐ SSOT: 디스커버리 스키마는 여기서만 정의
type Discovery struct {
	Ticker     string                 `json:"ticker"`
	Score      float64                `json:"score"` // 0..100
	Price      *float64               `json:"price,omitempty"`
	Confidence Confidence             `json:"confidence,omitempty"`
	Metrics    Metrics                `json:"metrics"`
	Reasons    []ReasonEntry          `json:"reasons"`
	Meta       map[string]interface{} `json:"meta"`
	Thesis     string                 `json:"thesis,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at,omitempty"`
}

// ComponentScoreSet holds per-candidate partial scores (each 0..100).
// Composite is recomputed on every enrichment pass and is not monotonic.
type ComponentScoreSet struct {
	Momentum  float64 `json:"momentum"`
	Squeeze   float64 `json:"squeeze"`
	Sentiment float64 `json:"sentiment"`
	Options   float64 `json:"options"`
	Technical float64 `json:"technical"`
	Composite float64 `json:"composite"`
}

// ScoreItem is one row of an atomic batch upsert: the re-scored state of a
// discovery produced by a single enrichment pass.
type ScoreItem struct {
	Ticker  string            `json:"ticker"`
	Price   *float64          `json:"price,omitempty"`
	Scores  ComponentScoreSet `json:"scores"`
	Thesis  string            `json:"thesis"`
	Reasons []ReasonEntry     `json:"reasons"`
	Metrics Metrics           `json:"metrics"`
}

// RunMeta identifies the scan run a batch of score items belongs to
type RunMeta struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ItemCount  int       `json:"item_count"`
}

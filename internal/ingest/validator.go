// Package ingest validates raw discovery payloads into the canonical schema.
// ⭐ SSOT: 디스커버리 입력 검증은 여기서만
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/alphastack/backend/internal/contracts"
)

// ValidationError reports the specific constraint a payload violated.
// Nothing downstream of the validator ever sees a rejected payload.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Constraint)
}

// rawDiscovery mirrors the ingest wire schema. Pointer fields keep the
// absent-vs-zero distinction intact.
type rawDiscovery struct {
	Ticker           *string                `json:"ticker"`
	Score            *float64               `json:"score"`
	Price            *float64               `json:"price"`
	Confidence       *string                `json:"confidence"`
	RelVol           *float64               `json:"relVol"`
	ATRPct           *float64               `json:"atrPct"`
	RSI              *float64               `json:"rsi"`
	VWAPDistPct      *float64               `json:"vwapDistPct"`
	ShortInterestPct *float64               `json:"shortInterestPct"`
	BorrowFeePct     *float64               `json:"borrowFeePct"`
	UtilizationPct   *float64               `json:"utilizationPct"`
	IVPercentile     *float64               `json:"ivPercentile"`
	CallPutRatio     *float64               `json:"callPutRatio"`
	Catalyst         *string                `json:"catalyst"`
	SentimentScore   *float64               `json:"sentimentScore"`
	Reasons          []contracts.ReasonEntry `json:"reasons"`
	Meta             map[string]interface{}  `json:"meta"`
}

// Validate parses and validates a raw discovery payload.
// Requires ticker non-empty and score finite in [0,100]; every other field
// is optional and defaulted (absent numerics stay nil, lists become empty,
// maps become empty maps). Pure function, no side effects.
func Validate(raw []byte) (*contracts.Discovery, error) {
	var in rawDiscovery
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &ValidationError{Field: "payload", Constraint: "is not valid JSON"}
	}

	if in.Ticker == nil || strings.TrimSpace(*in.Ticker) == "" {
		return nil, &ValidationError{Field: "ticker", Constraint: "must be a non-empty string"}
	}
	if in.Score == nil {
		return nil, &ValidationError{Field: "score", Constraint: "is required"}
	}
	if math.IsNaN(*in.Score) || math.IsInf(*in.Score, 0) {
		return nil, &ValidationError{Field: "score", Constraint: "must be finite"}
	}
	if *in.Score < 0 || *in.Score > 100 {
		return nil, &ValidationError{Field: "score", Constraint: "out of range [0,100]"}
	}

	confidence := contracts.ConfidenceMedium
	if in.Confidence != nil && *in.Confidence != "" {
		confidence = contracts.Confidence(strings.ToLower(*in.Confidence))
		if !confidence.Valid() {
			return nil, &ValidationError{Field: "confidence", Constraint: "must be one of low, medium, high"}
		}
	}

	d := &contracts.Discovery{
		Ticker:     strings.ToUpper(strings.TrimSpace(*in.Ticker)),
		Score:      *in.Score,
		Price:      in.Price,
		Confidence: confidence,
		Metrics: contracts.Metrics{
			RelVol:           in.RelVol,
			ATRPct:           in.ATRPct,
			RSI:              in.RSI,
			VWAPDistPct:      in.VWAPDistPct,
			ShortInterestPct: in.ShortInterestPct,
			BorrowFeePct:     in.BorrowFeePct,
			UtilizationPct:   in.UtilizationPct,
			IVPercentile:     in.IVPercentile,
			CallPutRatio:     in.CallPutRatio,
			Catalyst:         in.Catalyst,
			SentimentScore:   in.SentimentScore,
		},
		Reasons: in.Reasons,
		Meta:    in.Meta,
	}

	if d.Reasons == nil {
		d.Reasons = []contracts.ReasonEntry{}
	}
	if d.Meta == nil {
		d.Meta = map[string]interface{}{}
	}

	return d, nil
}

// Package thesis renders a human-readable rationale for a scored candidate.
// ⭐ SSOT: 시세 근거 문자열 생성은 여기서만
package thesis

import (
	"fmt"
	"strings"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/scoring"
)

// separator joins thesis fragments, matching the screener output format
const separator = "; "

// Result is the composed thesis plus the category reasons behind it
type Result struct {
	Thesis  string                  `json:"thesis"`
	Reasons []contracts.ReasonEntry `json:"reasons"`
}

// Composer builds thesis strings and category reasons from metrics.
// It never fails: absent metrics are omitted entirely, never rendered as
// empty placeholders.
type Composer struct {
	weights scoring.Weights
}

// NewComposer creates a composer with the given category weights
func NewComposer(weights scoring.Weights) *Composer {
	return &Composer{weights: weights}
}

// Compose renders the thesis string and up to four category reasons.
// Metric order in the thesis is fixed: relative volume, short interest,
// borrow fee, utilization, EMA cross, VWAP side, RSI, IV percentile, ATR%.
func (c *Composer) Compose(m contracts.Metrics) Result {
	fragments := make([]string, 0, 9)

	if m.RelVol != nil {
		fragments = append(fragments, fmt.Sprintf("RelVol %.1fx", *m.RelVol))
	}
	if m.ShortInterestPct != nil {
		fragments = append(fragments, fmt.Sprintf("SI %.1f%%", *m.ShortInterestPct*100))
	}
	if m.BorrowFeePct != nil {
		fragments = append(fragments, fmt.Sprintf("Borrow fee %.1f%%", *m.BorrowFeePct*100))
	}
	if m.UtilizationPct != nil {
		fragments = append(fragments, fmt.Sprintf("Utilization %.1f%%", *m.UtilizationPct*100))
	}
	if m.EMABullCross != nil && *m.EMABullCross {
		fragments = append(fragments, "EMA9>EMA20 bull cross")
	}
	if m.VWAPSide != nil {
		if *m.VWAPSide == "above" {
			fragments = append(fragments, "Above VWAP")
		} else {
			fragments = append(fragments, "Below VWAP")
		}
	}
	if m.RSI != nil {
		fragments = append(fragments, fmt.Sprintf("RSI %.1f", *m.RSI))
	}
	if m.IVPercentile != nil {
		fragments = append(fragments, fmt.Sprintf("IV percentile %.0f", *m.IVPercentile))
	}
	if m.ATRPct != nil {
		fragments = append(fragments, fmt.Sprintf("ATR %.1f%%", *m.ATRPct*100))
	}

	return Result{
		Thesis:  join(fragments),
		Reasons: c.composeReasons(m),
	}
}

// composeReasons builds the fixed-order category reason list. A category is
// included only when at least one of its constituent metrics is non-null.
func (c *Composer) composeReasons(m contracts.Metrics) []contracts.ReasonEntry {
	reasons := make([]contracts.ReasonEntry, 0, 4)

	if frags := volumeMomentumFragments(m); len(frags) > 0 {
		reasons = append(reasons, contracts.ReasonEntry{
			Key:    "volume_momentum",
			Label:  "Volume & Momentum",
			Value:  join(frags),
			Weight: c.weights.VolumeMomentum,
		})
	}
	if frags := floatShortFragments(m); len(frags) > 0 {
		reasons = append(reasons, contracts.ReasonEntry{
			Key:    "float_short",
			Label:  "Float & Short Interest",
			Value:  join(frags),
			Weight: c.weights.FloatShort,
		})
	}
	if frags := technicalFragments(m); len(frags) > 0 {
		reasons = append(reasons, contracts.ReasonEntry{
			Key:    "technical",
			Label:  "Technical Setup",
			Value:  join(frags),
			Weight: c.weights.Technical,
		})
	}
	if frags := optionsSentimentFragments(m); len(frags) > 0 {
		reasons = append(reasons, contracts.ReasonEntry{
			Key:    "options_sentiment",
			Label:  "Options & Sentiment",
			Value:  join(frags),
			Weight: c.weights.OptionsSentiment,
		})
	}

	return reasons
}

func volumeMomentumFragments(m contracts.Metrics) []string {
	frags := []string{}
	if m.RelVol != nil {
		frags = append(frags, fmt.Sprintf("RelVol %.1fx", *m.RelVol))
	}
	if m.VWAPSide != nil {
		frags = append(frags, fmt.Sprintf("%s VWAP", titleSide(*m.VWAPSide)))
	}
	return frags
}

func floatShortFragments(m contracts.Metrics) []string {
	frags := []string{}
	if m.ShortInterestPct != nil {
		frags = append(frags, fmt.Sprintf("SI %.1f%%", *m.ShortInterestPct*100))
	}
	if m.BorrowFeePct != nil {
		frags = append(frags, fmt.Sprintf("borrow fee %.1f%%", *m.BorrowFeePct*100))
	}
	if m.UtilizationPct != nil {
		frags = append(frags, fmt.Sprintf("utilization %.1f%%", *m.UtilizationPct*100))
	}
	return frags
}

func technicalFragments(m contracts.Metrics) []string {
	frags := []string{}
	if m.EMABullCross != nil {
		if *m.EMABullCross {
			frags = append(frags, "EMA bull cross")
		} else {
			frags = append(frags, "no EMA cross")
		}
	}
	if m.RSI != nil {
		frags = append(frags, fmt.Sprintf("RSI %.1f", *m.RSI))
	}
	if m.ATRPct != nil {
		frags = append(frags, fmt.Sprintf("ATR %.1f%%", *m.ATRPct*100))
	}
	return frags
}

func optionsSentimentFragments(m contracts.Metrics) []string {
	frags := []string{}
	if m.CallPutRatio != nil {
		frags = append(frags, fmt.Sprintf("C/P ratio %.1f", *m.CallPutRatio))
	}
	if m.IVPercentile != nil {
		frags = append(frags, fmt.Sprintf("IV percentile %.0f", *m.IVPercentile))
	}
	if m.SentimentScore != nil {
		frags = append(frags, fmt.Sprintf("sentiment %.2f", *m.SentimentScore))
	}
	return frags
}

func titleSide(side string) string {
	if side == "above" {
		return "Above"
	}
	return "Below"
}

func join(fragments []string) string {
	return strings.Join(fragments, separator)
}

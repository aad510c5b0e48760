// Package scoring computes per-candidate component scores and the weighted
// composite score.
// ⭐ SSOT: 스코어 계산은 이 패키지에서만
package scoring

import (
	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/pkg/logger"
)

// Weights holds the four documented category weights.
// They sum to 0.80 by design of the upstream scoring config; the remainder
// is intentionally left unallocated rather than invented here.
type Weights struct {
	VolumeMomentum   float64
	FloatShort       float64
	Technical        float64
	OptionsSentiment float64
}

// DefaultWeights returns the reference category weights
func DefaultWeights() Weights {
	return Weights{
		VolumeMomentum:   0.25,
		FloatShort:       0.20,
		Technical:        0.20,
		OptionsSentiment: 0.15,
	}
}

// Bucket classifies a composite score into an action tag
type Bucket string

const (
	BucketTradeReady Bucket = "trade-ready"
	BucketWatch      Bucket = "watch"
	BucketDrop       Bucket = "drop"
)

// Thresholds holds the bucket cut-offs
type Thresholds struct {
	Watch      float64
	TradeReady float64
}

// DefaultThresholds returns the reference bucket thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{Watch: 70, TradeReady: 75}
}

// Scorer turns candidate metrics into a component score set
type Scorer struct {
	weights Weights
	logger  *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(weights Weights, log *logger.Logger) *Scorer {
	return &Scorer{weights: weights, logger: log}
}

// Score computes the full component score set for a candidate.
// Every part score lands in [0,100]; the composite is the weighted sum of
// the four category scores, clamped to [0,100]. Missing metrics simply do
// not contribute — they are never treated as zero readings.
func (s *Scorer) Score(ticker string, m contracts.Metrics, catalystScore float64) contracts.ComponentScoreSet {
	set := contracts.ComponentScoreSet{
		Momentum:  s.momentumScore(m, catalystScore),
		Squeeze:   s.squeezeScore(m),
		Sentiment: s.sentimentScore(m),
		Options:   s.optionsScore(m),
		Technical: s.technicalScore(m),
	}

	optionsSentiment := (set.Options + set.Sentiment) / 2
	set.Composite = clamp(
		set.Momentum*s.weights.VolumeMomentum+
			set.Squeeze*s.weights.FloatShort+
			set.Technical*s.weights.Technical+
			optionsSentiment*s.weights.OptionsSentiment,
		0, 100,
	)

	s.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"momentum":  set.Momentum,
		"squeeze":   set.Squeeze,
		"sentiment": set.Sentiment,
		"options":   set.Options,
		"technical": set.Technical,
		"composite": set.Composite,
	}).Debug("Calculated component scores")

	return set
}

// momentumScore covers relative volume, VWAP posture and catalyst strength
func (s *Scorer) momentumScore(m contracts.Metrics, catalystScore float64) float64 {
	score := 0.0

	if m.RelVol != nil {
		switch {
		case *m.RelVol >= 3.0:
			score += 60
		case *m.RelVol >= 1.5:
			score += 30
		}
	}
	if m.VWAPSide != nil && *m.VWAPSide == "above" {
		score += 20
	}
	if m.EMABullCross != nil && *m.EMABullCross {
		score += 20
	}
	score += clamp(catalystScore/5, 0, 20)

	return clamp(score, 0, 100)
}

// squeezeScore covers the short-interest / borrow-fee / utilization profile
func (s *Scorer) squeezeScore(m contracts.Metrics) float64 {
	score := 0.0

	if m.ShortInterestPct != nil && *m.ShortInterestPct >= 0.20 {
		score += 40
	}
	if m.BorrowFeePct != nil {
		switch {
		case *m.BorrowFeePct >= 0.20:
			score += 30
		case *m.BorrowFeePct >= 0.10:
			score += 15
		}
	}
	if m.UtilizationPct != nil {
		switch {
		case *m.UtilizationPct >= 0.85:
			score += 30
		case *m.UtilizationPct >= 0.70:
			score += 15
		}
	}

	return clamp(score, 0, 100)
}

func (s *Scorer) sentimentScore(m contracts.Metrics) float64 {
	if m.SentimentScore == nil {
		return 0
	}
	return clamp(*m.SentimentScore*100, 0, 100)
}

func (s *Scorer) optionsScore(m contracts.Metrics) float64 {
	score := 0.0

	if m.CallPutRatio != nil && *m.CallPutRatio >= 2.0 {
		score += 60
	}
	if m.IVPercentile != nil && *m.IVPercentile >= 80 {
		score += 40
	}

	return clamp(score, 0, 100)
}

func (s *Scorer) technicalScore(m contracts.Metrics) float64 {
	score := 0.0

	if m.EMABullCross != nil && *m.EMABullCross {
		score += 30
	}
	if m.RSI != nil && *m.RSI >= 60 && *m.RSI <= 70 {
		score += 40
	}
	if m.ATRPct != nil && *m.ATRPct >= 0.04 {
		score += 30
	}

	return clamp(score, 0, 100)
}

// Bucketize classifies a composite score against the thresholds
func Bucketize(score float64, th Thresholds) Bucket {
	switch {
	case score >= th.TradeReady:
		return BucketTradeReady
	case score >= th.Watch:
		return BucketWatch
	default:
		return BucketDrop
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

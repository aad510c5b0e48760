// Package enrichment runs the periodic re-scoring pass: pull price history
// for every known discovery, derive technical metrics, recompute component
// scores and theses, and commit the whole batch atomically.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/indicators"
	"github.com/alphastack/backend/internal/marketdata"
	"github.com/alphastack/backend/internal/scoring"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/internal/thesis"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

const (
	emaFastPeriod = 9
	emaSlowPeriod = 20
	rsiPeriod     = 14
	atrPeriod     = 14
)

// HeadlineFetcher is the news capability used for catalyst scoring
type HeadlineFetcher interface {
	Headlines(ctx context.Context, ticker string) ([]string, error)
}

// RunResult summarizes one completed enrichment pass
type RunResult struct {
	RunID      string        `json:"run_id"`
	Items      int           `json:"items"`
	Fetched    int           `json:"fetched"`
	Failed     int           `json:"failed"`
	TradeReady int           `json:"trade_ready"`
	Watch      int           `json:"watch"`
	Took       time.Duration `json:"took"`
}

// Enricher executes a single enrichment pass over all stored discoveries
type Enricher struct {
	store      store.Store
	bars       *marketdata.BatchFetcher
	news       HeadlineFetcher
	scorer     *scoring.Scorer
	composer   *thesis.Composer
	thresholds scoring.Thresholds
	cfg        config.EnrichmentConfig
	notify     func(RunResult)
	logger     *logger.Logger
}

func NewEnricher(
	st store.Store,
	bars *marketdata.BatchFetcher,
	news HeadlineFetcher,
	scorer *scoring.Scorer,
	composer *thesis.Composer,
	thresholds scoring.Thresholds,
	cfg config.EnrichmentConfig,
	log *logger.Logger,
) *Enricher {
	return &Enricher{
		store:      st,
		bars:       bars,
		news:       news,
		scorer:     scorer,
		composer:   composer,
		thresholds: thresholds,
		cfg:        cfg,
		logger:     log.WithComponent("enricher"),
	}
}

// OnRunComplete registers a hook fired after each successful pass
func (e *Enricher) OnRunComplete(fn func(RunResult)) {
	e.notify = fn
}

// Run executes one full enrichment pass
func (e *Enricher) Run(ctx context.Context) (RunResult, error) {
	started := time.Now().UTC()
	runID := fmt.Sprintf("run-%s", started.Format("20060102T150405.000Z0700"))

	rows, err := e.store.All(ctx, "SELECT ticker, price, metrics_json FROM discoveries ORDER BY ticker")
	if err != nil {
		return RunResult{}, err
	}
	if len(rows) == 0 {
		e.logger.Debug("Nothing to enrich")
		return RunResult{RunID: runID}, nil
	}

	tickers := make([]string, 0, len(rows))
	base := make(map[string]contracts.Discovery, len(rows))
	for _, row := range rows {
		d, err := discoveryFromRow(row)
		if err != nil {
			e.logger.WithError(err).Warn("Skipping malformed discovery row")
			continue
		}
		tickers = append(tickers, d.Ticker)
		base[d.Ticker] = d
	}

	bars, fetchErrs := e.bars.FetchAll(ctx, tickers, e.cfg.HistoryDays)
	for ticker, ferr := range fetchErrs {
		// transient: the symbol keeps its previous metrics, nulls stay null
		e.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  ferr.Error(),
		}).Warn("Price history unavailable")
	}

	items := make([]contracts.ScoreItem, 0, len(tickers))
	tradeReady, watch := 0, 0
	for _, ticker := range tickers {
		d := base[ticker]
		metrics := d.Metrics

		if history, ok := bars[ticker]; ok {
			applyIndicators(&metrics, history)
			if last := lastClose(history); last != nil {
				d.Price = last
			}
		}

		catalystScore := e.catalystScore(ctx, ticker, metrics)

		scores := e.scorer.Score(ticker, metrics, catalystScore)
		composed := e.composer.Compose(metrics)

		switch scoring.Bucketize(scores.Composite, e.thresholds) {
		case scoring.BucketTradeReady:
			tradeReady++
		case scoring.BucketWatch:
			watch++
		}

		items = append(items, contracts.ScoreItem{
			Ticker:  ticker,
			Price:   d.Price,
			Scores:  scores,
			Thesis:  composed.Thesis,
			Reasons: composed.Reasons,
			Metrics: metrics,
		})
	}

	finished := time.Now().UTC()
	meta := contracts.RunMeta{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		ItemCount:  len(items),
	}

	if err := e.store.UpsertScoresAtomic(ctx, items, meta); err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		RunID:      runID,
		Items:      len(items),
		Fetched:    len(bars),
		Failed:     len(fetchErrs),
		TradeReady: tradeReady,
		Watch:      watch,
		Took:       finished.Sub(started),
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"items":       result.Items,
		"fetched":     result.Fetched,
		"failed":      result.Failed,
		"trade_ready": result.TradeReady,
		"watch":       result.Watch,
		"took":        result.Took.String(),
	}).Info("Enrichment pass completed")

	if e.notify != nil {
		e.notify(result)
	}
	return result, nil
}

// catalystScore pulls recent headlines when no catalyst text arrived with
// the discovery itself. Headline failures degrade to zero, never abort.
func (e *Enricher) catalystScore(ctx context.Context, ticker string, m contracts.Metrics) float64 {
	if m.Catalyst != nil {
		score, _ := scoring.CatalystScore([]string{*m.Catalyst})
		return score
	}
	if e.news == nil {
		return 0
	}

	headlines, err := e.news.Headlines(ctx, ticker)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err.Error(),
		}).Debug("Headline fetch failed")
		return 0
	}

	score, _ := scoring.CatalystScore(headlines)
	return score
}

// applyIndicators derives the technical metrics from daily bars, replacing
// any stale derived values while leaving ingest-supplied metrics alone.
func applyIndicators(m *contracts.Metrics, bars []marketdata.Bar) {
	if len(bars) == 0 {
		return
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	if rsi := indicators.Last(indicators.RSI(closes, rsiPeriod)); !math.IsNaN(rsi) {
		m.RSI = &rsi
	}

	lastPrice := closes[len(closes)-1]

	if atr := indicators.Last(indicators.ATR(highs, lows, closes, atrPeriod)); !math.IsNaN(atr) && lastPrice > 0 {
		atrPct := atr / lastPrice
		m.ATRPct = &atrPct
	}

	if len(closes) >= emaSlowPeriod {
		fast := indicators.Last(indicators.EMA(closes, emaFastPeriod))
		slow := indicators.Last(indicators.EMA(closes, emaSlowPeriod))
		cross := fast > slow
		m.EMABullCross = &cross
	}

	if vwap := indicators.Last(indicators.VWAP(closes, volumes)); !math.IsNaN(vwap) && vwap > 0 {
		side := "below"
		if lastPrice >= vwap {
			side = "above"
		}
		m.VWAPSide = &side

		dist := (lastPrice - vwap) / vwap
		m.VWAPDistPct = &dist
	}
}

func lastClose(bars []marketdata.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	v := bars[len(bars)-1].Close
	return &v
}

// discoveryFromRow hydrates the subset of a discovery row the enricher needs
func discoveryFromRow(row store.Row) (contracts.Discovery, error) {
	d := contracts.Discovery{}

	ticker, _ := row["ticker"].(string)
	if ticker == "" {
		return d, fmt.Errorf("row without ticker")
	}
	d.Ticker = ticker

	if price, ok := row["price"].(float64); ok {
		d.Price = &price
	}

	if raw, ok := row["metrics_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &d.Metrics); err != nil {
			return d, fmt.Errorf("metrics for %s unreadable: %w", ticker, err)
		}
	}

	return d, nil
}

// Package marketdata fetches daily price history and news headlines from
// the external market-data collaborators. All failures here are transient:
// callers null out the affected fields and move on, they never abort a
// whole enrichment pass over one symbol.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/httputil"
	"github.com/alphastack/backend/pkg/logger"
)

// Bar is one daily OHLCV bar
type Bar struct {
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
	Timestamp time.Time `json:"t"`
}

// FetchError marks a transient market-data failure for one symbol
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("market data fetch for %s failed: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the aggregates API
type Client struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	logger  *logger.Logger
}

func NewClient(cfg config.PolygonConfig, enrich config.EnrichmentConfig, log *logger.Logger) *Client {
	httpClient := httputil.New(enrich.FetchTimeout, log).
		WithRateLimit(enrich.FetchRatePerSec, enrich.FetchConcurrency)

	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  log.WithComponent("marketdata"),
	}
}

// aggsResponse mirrors the aggregates endpoint payload
type aggsResponse struct {
	Ticker  string   `json:"ticker"`
	Results []aggBar `json:"results"`
	Status  string   `json:"status"`
}

type aggBar struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	TsMs   int64   `json:"t"`
}

// DailyBars returns up to `days` daily bars for a symbol, oldest first
func (c *Client) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=%d&apiKey=%s",
		c.baseURL,
		url.PathEscape(symbol),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		days,
		url.QueryEscape(c.apiKey),
	)

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload aggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("decode failed: %w", err)}
	}

	bars := make([]Bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, Bar{
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			Timestamp: time.UnixMilli(r.TsMs).UTC(),
		})
	}

	return bars, nil
}

package marketdata

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/httputil"
	"github.com/alphastack/backend/pkg/logger"
)

const maxHeadlines = 20

// NewsClient scrapes recent headlines for a ticker from the configured
// quote page. Headlines feed catalyst scoring only; an empty result is a
// normal outcome, not an error.
type NewsClient struct {
	http    *httputil.Client
	baseURL string
	enabled bool
	logger  *logger.Logger
}

func NewNewsClient(cfg config.NewsConfig, enrich config.EnrichmentConfig, log *logger.Logger) *NewsClient {
	httpClient := httputil.New(enrich.FetchTimeout, log).
		WithRateLimit(enrich.FetchRatePerSec, 1)

	return &NewsClient{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		enabled: cfg.Enabled,
		logger:  log.WithComponent("news"),
	}
}

// Headlines returns up to maxHeadlines recent headline strings for a ticker
func (c *NewsClient) Headlines(ctx context.Context, ticker string) ([]string, error) {
	if !c.enabled {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s?t=%s", c.baseURL, url.QueryEscape(ticker))

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, &FetchError{Symbol: ticker, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, &FetchError{Symbol: ticker, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Symbol: ticker, Err: fmt.Errorf("parse failed: %w", err)}
	}

	headlines := make([]string, 0, maxHeadlines)
	doc.Find("#news-table tr a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if text != "" {
			headlines = append(headlines, text)
		}
		return len(headlines) < maxHeadlines
	})

	c.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"headlines": len(headlines),
	}).Debug("Headlines fetched")

	return headlines, nil
}

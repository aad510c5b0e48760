package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

func testEnrichConfig() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		FetchTimeout:     2 * time.Second,
		FetchConcurrency: 4,
		FetchRatePerSec:  1000, // effectively unlimited in tests
		HistoryDays:      30,
	}
}

func TestDailyBars_ParsesAggregates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v2/aggs/ticker/NVDA/range/1/day/")
		fmt.Fprint(w, `{"ticker":"NVDA","status":"OK","results":[
			{"o":10,"h":12,"l":9.5,"c":11,"v":1000000,"t":1756339200000},
			{"o":11,"h":13,"l":10.5,"c":12.5,"v":1200000,"t":1756425600000}
		]}`)
	}))
	defer server.Close()

	c := NewClient(config.PolygonConfig{BaseURL: server.URL, APIKey: "k"}, testEnrichConfig(), logger.NewNop())

	bars, err := c.DailyBars(context.Background(), "NVDA", 30)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 11.0, bars[0].Close)
	assert.Equal(t, 13.0, bars[1].High)
	assert.Equal(t, 2025, bars[0].Timestamp.Year())
}

func TestDailyBars_ErrorStatusIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(config.PolygonConfig{BaseURL: server.URL}, testEnrichConfig(), logger.NewNop())

	_, err := c.DailyBars(context.Background(), "NVDA", 30)
	require.Error(t, err)

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "NVDA", ferr.Symbol)
}

type stubFetcher struct {
	mu       sync.Mutex
	inflight int32
	peak     int32
	failing  map[string]bool
}

func (f *stubFetcher) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)

	f.mu.Lock()
	if cur > f.peak {
		f.peak = cur
	}
	fail := f.failing[symbol]
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	if fail {
		return nil, &FetchError{Symbol: symbol, Err: errors.New("boom")}
	}
	return []Bar{{Close: 1}}, nil
}

func TestFetchAll_FailureDoesNotAbortSiblings(t *testing.T) {
	stub := &stubFetcher{failing: map[string]bool{"BAD": true}}
	b := NewBatchFetcher(stub, 4)

	bars, errs := b.FetchAll(context.Background(), []string{"AAA", "BAD", "CCC"}, 30)

	assert.Len(t, bars, 2)
	assert.Contains(t, bars, "AAA")
	assert.Contains(t, bars, "CCC")

	require.Contains(t, errs, "BAD")
	var ferr *FetchError
	assert.True(t, errors.As(errs["BAD"], &ferr))
}

func TestFetchAll_BoundedConcurrency(t *testing.T) {
	stub := &stubFetcher{failing: map[string]bool{}}
	b := NewBatchFetcher(stub, 2)

	symbols := []string{"A", "B", "C", "D", "E", "F"}
	bars, errs := b.FetchAll(context.Background(), symbols, 30)

	assert.Len(t, bars, len(symbols))
	assert.Empty(t, errs)
	assert.LessOrEqual(t, stub.peak, int32(2), "chunking must cap parallel fetches")
}

func TestFetchAll_CancelledContextFailsRemaining(t *testing.T) {
	stub := &stubFetcher{failing: map[string]bool{}}
	b := NewBatchFetcher(stub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bars, errs := b.FetchAll(ctx, []string{"A", "B", "C"}, 30)

	// the first chunk still ran; later chunks were abandoned
	assert.LessOrEqual(t, len(bars), len([]string{"A", "B", "C"}))
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestHeadlines_ParsesNewsTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NVDA", r.URL.Query().Get("t"))
		fmt.Fprint(w, `<html><body><table id="news-table">
			<tr><td>08:00</td><td><a href="#">Earnings beat expectations</a></td></tr>
			<tr><td>07:30</td><td><a href="#">FDA approval granted for partner</a></td></tr>
		</table></body></html>`)
	}))
	defer server.Close()

	c := NewNewsClient(config.NewsConfig{BaseURL: server.URL, Enabled: true}, testEnrichConfig(), logger.NewNop())

	headlines, err := c.Headlines(context.Background(), "NVDA")
	require.NoError(t, err)
	require.Len(t, headlines, 2)
	assert.Equal(t, "Earnings beat expectations", headlines[0])
}

func TestHeadlines_DisabledReturnsNothing(t *testing.T) {
	c := NewNewsClient(config.NewsConfig{Enabled: false}, testEnrichConfig(), logger.NewNop())

	headlines, err := c.Headlines(context.Background(), "NVDA")
	assert.NoError(t, err)
	assert.Nil(t, headlines)
}

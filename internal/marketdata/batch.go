package marketdata

import (
	"context"
	"sync"
	"time"
)

// interChunkPause keeps bursts apart even when the rate limiter has budget
const interChunkPause = 200 * time.Millisecond

// BarFetcher is the single-symbol history capability used by the batch layer
type BarFetcher interface {
	DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error)
}

// BatchFetcher pulls price history for many symbols with bounded
// parallelism. One symbol failing never takes down its siblings: failed
// symbols are simply absent from the result map.
type BatchFetcher struct {
	fetcher     BarFetcher
	concurrency int
}

func NewBatchFetcher(fetcher BarFetcher, concurrency int) *BatchFetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchFetcher{fetcher: fetcher, concurrency: concurrency}
}

// FetchAll returns bars per symbol and the per-symbol errors for the rest.
// Symbols are processed in chunks of the configured concurrency with a
// brief pause between chunks.
func (b *BatchFetcher) FetchAll(ctx context.Context, symbols []string, days int) (map[string][]Bar, map[string]error) {
	bars := make(map[string][]Bar, len(symbols))
	errs := make(map[string]error)

	var mu sync.Mutex

	for start := 0; start < len(symbols); start += b.concurrency {
		end := start + b.concurrency
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(sym string) {
				defer wg.Done()

				result, err := b.fetcher.DailyBars(ctx, sym, days)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs[sym] = err
					return
				}
				bars[sym] = result
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) {
			select {
			case <-ctx.Done():
				for _, sym := range symbols[end:] {
					errs[sym] = ctx.Err()
				}
				return bars, errs
			case <-time.After(interChunkPause):
			}
		}
	}

	return bars, errs
}

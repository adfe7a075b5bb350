package inventory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var inventoryBatchInflight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "inventory_batch_inflight",
	Help: "Inventory fetches currently running in a batch",
})

// DefaultBatchConcurrency is the default number of parallel fetches.
const DefaultBatchConcurrency = 4

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// BatchFetcher runs many independent fetches with bounded concurrency.
// Each fetch keeps its own pagination state; only the HTTP client is shared.
type BatchFetcher struct {
	service     *Service
	concurrency int
}

// NewBatchFetcher creates a batch fetcher. concurrency <= 0 uses
// DefaultBatchConcurrency.
func NewBatchFetcher(service *Service, concurrency int) *BatchFetcher {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &BatchFetcher{
		service:     service,
		concurrency: concurrency,
	}
}

// FetchAll fetches every request. Results are in request order; a failed
// request does not stop the others. Requests not started before ctx is
// done report ctx.Err().
func (b *BatchFetcher) FetchAll(ctx context.Context, reqs []Request) []BatchResult {
	start := time.Now()
	results := make([]BatchResult, len(reqs))
	logger := b.service.logger

	logger.Info().
		Int("requests", len(reqs)).
		Int("concurrency", b.concurrency).
		Msg("Starting batch fetch")

	var done, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, req := range reqs {
		i, req := i, req
		results[i].Request = req
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			failed.Add(1)
			continue
		}

		g.Go(func() error {
			inventoryBatchInflight.Inc()
			defer inventoryBatchInflight.Dec()

			res, err := b.service.Fetch(ctx, req)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				failed.Add(1)
			}

			// Progress logging every 50 fetches
			if n := done.Add(1); n%50 == 0 {
				logger.Info().
					Int64("fetched", n).
					Int("total", len(reqs)).
					Float64("progress_pct", float64(n)/float64(len(reqs))*100).
					Msg("Batch progress")
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().
		Int("requests", len(reqs)).
		Int64("failed", failed.Load()).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return results
}

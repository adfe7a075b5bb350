// Package pagination walks a cursor-paginated inventory to completion.
//
// A Paginator drives one fetch through an explicit State: it asks a
// PageFetcher for the page after the current cursor, normalizes every asset
// against a per-fetch description index, filters and positions the items, and
// loops while the provider reports more items. Transient failures (errors
// whose Temporary method returns true) are retried on the same cursor under a
// RetryPolicy whose budget is shared by the whole fetch.
//
// Example usage:
//
//	fetcher := pagination.PageFetcherFunc(func(ctx context.Context, cursor string) (*econ.Page, error) {
//		return adapter.FetchPage(ctx, req, cursor)
//	})
//	p := pagination.New(fetcher, pagination.Options{
//		ContextID:    "2",
//		TradableOnly: true,
//		Retry:        pagination.DefaultRetryPolicy(adapter.RetryBudget()),
//	})
//	result, err := p.Run(ctx)
//
// State transitions:
//   - Start: no cursor, position 1, empty accumulators
//   - Fetching: one request in flight
//   - Accumulating: page normalized and appended; loop if more items
//   - Retrying: transient failure with budget left, same cursor
//   - Failed: terminal error or exhausted budget
//   - Done: no more items, or the documented empty inventory
package pagination

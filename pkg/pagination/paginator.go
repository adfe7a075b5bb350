package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
	"github.com/Sternrassler/steam-inventory-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrCursorStalled is returned when a provider reports more items but the
// next cursor does not advance.
var ErrCursorStalled = errors.New("pagination cursor did not advance")

// Prometheus metrics for pagination.
var (
	inventoryPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_pages_total",
		Help: "Total inventory pages accumulated by provider",
	}, []string{"provider"})

	inventoryRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_retries_total",
		Help: "Total number of page retry attempts by provider",
	}, []string{"provider"})

	inventoryRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_retry_backoff_seconds",
		Help:    "Backoff duration before page retries by provider",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"provider"})

	inventoryRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_retry_exhausted_total",
		Help: "Total number of fetches that exhausted their retry budget by provider",
	}, []string{"provider"})
)

// PageFetcher fetches the page following cursor ("" for the first page).
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*econ.Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, cursor string) (*econ.Page, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, cursor string) (*econ.Page, error) {
	return f(ctx, cursor)
}

// Phase is a paginator state.
type Phase string

const (
	PhaseStart        Phase = "start"
	PhaseFetching     Phase = "fetching"
	PhaseAccumulating Phase = "accumulating"
	PhaseRetrying     Phase = "retrying"
	PhaseFailed       Phase = "failed"
	PhaseDone         Phase = "done"
)

// State is everything one fetch carries between pages.
type State struct {
	Phase   Phase
	Cursor  string
	NextPos int

	// RetriesLeft is the remaining budget; Retries counts those spent.
	RetriesLeft int
	Retries     int

	Pages     int
	Inventory []econ.Item
	Currency  []econ.Item
	Total     int
	Err       error

	page    *econ.Page
	lastErr error
	index   *econ.DescriptionIndex
}

// Options configures a Paginator.
type Options struct {
	// ContextID is the requested context, used when assets omit theirs.
	ContextID string

	// TradableOnly keeps only items whose description is tradable.
	TradableOnly bool

	Retry RetryPolicy

	// Provider labels metrics and logs.
	Provider string

	// Logger overrides the component logger. It is used as given: callers
	// attach their own provider and fetch fields.
	Logger *zerolog.Logger
}

// Result is a completed fetch.
type Result struct {
	Inventory           []econ.Item
	Currency            []econ.Item
	TotalInventoryCount int
	Pages               int
	Retries             int
}

// Paginator drives one inventory fetch to completion.
type Paginator struct {
	fetcher PageFetcher
	opts    Options
	logger  zerolog.Logger
}

// New creates a paginator for a single fetch.
func New(fetcher PageFetcher, opts Options) *Paginator {
	if opts.Provider == "" {
		opts.Provider = "unknown"
	}
	logger := logging.NewLogger("pagination").With().Str("provider", opts.Provider).Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Paginator{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
	}
}

// Run fetches every page and returns the accumulated inventory.
func (p *Paginator) Run(ctx context.Context) (*Result, error) {
	st := &State{Phase: PhaseStart}
	for st.Phase != PhaseDone && st.Phase != PhaseFailed {
		p.Step(ctx, st)
	}
	if st.Phase == PhaseFailed {
		return nil, st.Err
	}
	return &Result{
		Inventory:           st.Inventory,
		Currency:            st.Currency,
		TotalInventoryCount: st.Total,
		Pages:               st.Pages,
		Retries:             st.Retries,
	}, nil
}

// Step performs one state transition.
func (p *Paginator) Step(ctx context.Context, st *State) {
	switch st.Phase {
	case PhaseStart:
		st.Cursor = ""
		st.NextPos = 1
		st.RetriesLeft = p.opts.Retry.MaxRetries
		st.Inventory = []econ.Item{}
		st.Currency = []econ.Item{}
		st.index = econ.NewDescriptionIndex()
		st.Phase = PhaseFetching

	case PhaseFetching:
		p.fetch(ctx, st)

	case PhaseRetrying:
		p.retry(ctx, st)

	case PhaseAccumulating:
		p.accumulate(st)
	}
}

func (p *Paginator) fetch(ctx context.Context, st *State) {
	if err := ctx.Err(); err != nil {
		p.fail(st, err)
		return
	}

	page, err := p.fetcher.FetchPage(ctx, st.Cursor)
	if err == nil {
		st.page = page
		st.Phase = PhaseAccumulating
		return
	}

	switch {
	case ctx.Err() != nil:
		p.fail(st, ctx.Err())
	case !isTemporary(err):
		p.fail(st, err)
	case st.RetriesLeft > 0:
		st.lastErr = err
		st.Phase = PhaseRetrying
	default:
		inventoryRetryExhaustedTotal.WithLabelValues(p.opts.Provider).Inc()
		p.logger.Warn().
			Err(err).
			Int("retries", st.Retries).
			Str("cursor", st.Cursor).
			Msg("Retry attempts exhausted")
		p.fail(st, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, st.Retries+1, err))
	}
}

func (p *Paginator) retry(ctx context.Context, st *State) {
	st.RetriesLeft--
	st.Retries++

	delay := p.opts.Retry.Delay(st.Retries)
	inventoryRetriesTotal.WithLabelValues(p.opts.Provider).Inc()
	inventoryRetryBackoffSeconds.WithLabelValues(p.opts.Provider).Observe(delay.Seconds())

	p.logger.Warn().
		Err(st.lastErr).
		Int("attempt", st.Retries).
		Int("retries_left", st.RetriesLeft).
		Dur("backoff", delay).
		Str("cursor", st.Cursor).
		Msg("Retrying page after transient error")

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			p.fail(st, ctx.Err())
			return
		case <-timer.C:
		}
	}
	st.Phase = PhaseFetching
}

func (p *Paginator) accumulate(st *State) {
	page := st.page
	st.page = nil
	st.Pages++
	inventoryPagesTotal.WithLabelValues(p.opts.Provider).Inc()

	if page == nil {
		p.fail(st, errors.New("provider returned no page"))
		return
	}

	if page.Empty {
		st.Inventory = []econ.Item{}
		st.Currency = []econ.Item{}
		st.Total = 0
		st.Phase = PhaseDone
		p.logger.Debug().Int("page", st.Pages).Msg("Empty inventory")
		return
	}

	for _, asset := range page.Assets {
		desc := st.index.Resolve(page.Descriptions, string(asset.ClassID), string(asset.InstanceID))
		item := econ.Normalize(asset, desc, p.opts.ContextID)
		if err := item.Validate(); err != nil {
			p.fail(st, fmt.Errorf("page %d: %w", st.Pages, err))
			return
		}

		if p.opts.TradableOnly && !item.Tradable {
			continue
		}

		item.Pos = st.NextPos
		st.NextPos++
		if item.IsCurrency {
			st.Currency = append(st.Currency, item)
		} else {
			st.Inventory = append(st.Inventory, item)
		}
	}
	st.Total = page.TotalInventoryCount

	p.logger.Debug().
		Int("page", st.Pages).
		Int("assets", len(page.Assets)).
		Int("items", len(st.Inventory)).
		Int("currency", len(st.Currency)).
		Bool("more_items", page.MoreItems).
		Msg("Page accumulated")

	if !page.MoreItems {
		st.Phase = PhaseDone
		return
	}

	next := page.NextCursor()
	if next == "" || next == st.Cursor {
		p.fail(st, fmt.Errorf("%w at %q", ErrCursorStalled, st.Cursor))
		return
	}
	st.Cursor = next
	st.Phase = PhaseFetching
}

func (p *Paginator) fail(st *State, err error) {
	st.Err = err
	st.Inventory = nil
	st.Currency = nil
	st.Total = 0
	st.Phase = PhaseFailed
}

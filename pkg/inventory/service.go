// Package inventory fetches complete Steam inventories through any provider
// and delivers them in the canonical item shape.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
	"github.com/Sternrassler/steam-inventory-client/pkg/logging"
	"github.com/Sternrassler/steam-inventory-client/pkg/pagination"
	"github.com/Sternrassler/steam-inventory-client/pkg/provider"
	"github.com/Sternrassler/steam-inventory-client/pkg/steamid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for inventory fetches.
var (
	inventoryFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_fetches_total",
		Help: "Total inventory fetches by provider and result",
	}, []string{"provider", "result"})

	inventoryFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_fetch_duration_seconds",
		Help:    "End-to-end inventory fetch duration by provider",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"provider"})

	inventoryItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_items_total",
		Help: "Total items returned by provider and type",
	}, []string{"provider", "type"})
)

// Callback receives the outcome of one fetch. On error the slices are nil
// and total is 0.
type Callback func(err error, inventory, currency []econ.Item, total int)

// Request describes one inventory fetch.
type Request struct {
	Provider provider.Kind

	// APIKey is required by every provider except community.
	APIKey string

	// Target is the inventory owner: steamid.ID, *steamid.ID, uint64, or a
	// string in any format steamid.Parse accepts.
	Target any

	AppID     uint32
	ContextID string

	// TradableOnly drops items whose description is not tradable.
	TradableOnly bool

	// Language defaults to "english".
	Language string
}

// Result is a completed fetch.
type Result struct {
	FetchID             string
	Provider            provider.Kind
	SteamID             steamid.ID
	Inventory           []econ.Item
	Currency            []econ.Item
	TotalInventoryCount int
	Pages               int
	Retries             int
	Duration            time.Duration
}

// Service runs inventory fetches against a set of providers.
type Service struct {
	registry *provider.Registry
	retry    pagination.RetryPolicy
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry replaces the default provider set.
func WithRegistry(registry *provider.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithRetryPolicy sets the retry delays. MaxRetries is always taken from the
// provider's retry budget.
func WithRetryPolicy(policy pagination.RetryPolicy) Option {
	return func(s *Service) { s.retry = policy }
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service using all five providers on httpClient.
func NewService(httpClient provider.HTTPClient, opts ...Option) *Service {
	s := &Service{
		retry:  pagination.DefaultRetryPolicy(0),
		logger: logging.NewLogger("inventory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = provider.DefaultRegistry(httpClient)
	}
	return s
}

// Providers lists the configured provider kinds.
func (s *Service) Providers() []provider.Kind {
	return s.registry.Kinds()
}

// FetchInventory fetches the whole inventory and invokes cb exactly once.
func (s *Service) FetchInventory(ctx context.Context, req Request, cb Callback) {
	res, err := s.Fetch(ctx, req)
	if err != nil {
		cb(err, nil, nil, 0)
		return
	}
	cb(nil, res.Inventory, res.Currency, res.TotalInventoryCount)
}

// Fetch fetches the whole inventory.
func (s *Service) Fetch(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	fetchID := uuid.NewString()
	logger := logging.ForFetch(s.logger, fetchID, string(req.Provider))

	res, err := s.fetch(ctx, req, fetchID, logger)
	duration := time.Since(start)

	providerLabel := string(req.Provider)
	inventoryFetchDuration.WithLabelValues(providerLabel).Observe(duration.Seconds())
	inventoryFetchesTotal.WithLabelValues(providerLabel, resultLabel(err)).Inc()

	if err != nil {
		logger.Error().
			Err(err).
			Dur("duration", duration).
			Msg("Inventory fetch failed")
		return nil, err
	}

	res.Duration = duration
	inventoryItemsTotal.WithLabelValues(providerLabel, "item").Add(float64(len(res.Inventory)))
	inventoryItemsTotal.WithLabelValues(providerLabel, "currency").Add(float64(len(res.Currency)))

	logger.Info().
		Str("steamid", res.SteamID.String()).
		Int("items", len(res.Inventory)).
		Int("currency", len(res.Currency)).
		Int("total", res.TotalInventoryCount).
		Int("pages", res.Pages).
		Int("retries", res.Retries).
		Dur("duration", duration).
		Msg("Inventory fetch complete")

	return res, nil
}

func (s *Service) fetch(ctx context.Context, req Request, fetchID string, logger zerolog.Logger) (*Result, error) {
	adapter, ok := s.registry.Get(req.Provider)
	if !ok {
		return nil, &provider.Error{
			Kind:     provider.ErrorKindInvalidInput,
			Provider: req.Provider,
			Message:  fmt.Sprintf("unknown provider %q", req.Provider),
		}
	}

	id, err := ResolveTarget(req.Target)
	if err != nil {
		return nil, &provider.Error{
			Kind:     provider.ErrorKindInvalidInput,
			Provider: req.Provider,
			Message:  "invalid target",
			Err:      err,
		}
	}

	preq := provider.Request{
		SteamID:   id,
		AppID:     req.AppID,
		ContextID: req.ContextID,
		Language:  req.Language,
		APIKey:    req.APIKey,
	}
	if preq.Language == "" {
		preq.Language = provider.DefaultLanguage
	}

	logger.Debug().
		Str("steamid", id.String()).
		Uint32("appid", req.AppID).
		Str("contextid", req.ContextID).
		Bool("tradable_only", req.TradableOnly).
		Msg("Starting inventory fetch")

	policy := s.retry
	policy.MaxRetries = adapter.RetryBudget()

	fetcher := pagination.PageFetcherFunc(func(ctx context.Context, cursor string) (*econ.Page, error) {
		return adapter.FetchPage(ctx, preq, cursor)
	})
	p := pagination.New(fetcher, pagination.Options{
		ContextID:    req.ContextID,
		TradableOnly: req.TradableOnly,
		Retry:        policy,
		Provider:     string(adapter.Kind()),
		Logger:       &logger,
	})

	res, err := p.Run(ctx)
	if errors.Is(err, econ.ErrMalformedItem) {
		return nil, &provider.Error{
			Kind:     provider.ErrorKindMalformedResponse,
			Provider: adapter.Kind(),
			Message:  "malformed item",
			Err:      err,
		}
	}
	if errors.Is(err, pagination.ErrRetryExhausted) {
		return nil, exhaustedError(adapter.Kind(), err)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		FetchID:             fetchID,
		Provider:            adapter.Kind(),
		SteamID:             id,
		Inventory:           res.Inventory,
		Currency:            res.Currency,
		TotalInventoryCount: res.TotalInventoryCount,
		Pages:               res.Pages,
		Retries:             res.Retries,
	}, nil
}

// exhaustedError escalates a transient failure that outlived the retry
// budget to a generic provider error. The transient error is not wrapped:
// the result matches ErrProvider and ErrRetryExhausted, never ErrTransient.
func exhaustedError(kind provider.Kind, err error) *provider.Error {
	e := &provider.Error{
		Kind:     provider.ErrorKindProvider,
		Provider: kind,
		Message:  err.Error(),
		Err:      pagination.ErrRetryExhausted,
	}
	var last *provider.Error
	if errors.As(err, &last) {
		e.StatusCode = last.StatusCode
		e.EResult = last.EResult
		e.Message = last.Message
	}
	return e
}

// ResolveTarget turns a caller-supplied identity into a valid SteamID.
func ResolveTarget(target any) (steamid.ID, error) {
	var id steamid.ID
	switch v := target.(type) {
	case steamid.ID:
		id = v
	case *steamid.ID:
		if v == nil {
			return 0, fmt.Errorf("%w: nil steamid", steamid.ErrInvalid)
		}
		id = *v
	case uint64:
		id = steamid.ID(v)
	case string:
		parsed, err := steamid.Parse(v)
		if err != nil {
			return 0, err
		}
		id = parsed
	case fmt.Stringer:
		parsed, err := steamid.Parse(v.String())
		if err != nil {
			return 0, err
		}
		id = parsed
	case nil:
		return 0, fmt.Errorf("%w: missing target", steamid.ErrInvalid)
	default:
		return 0, fmt.Errorf("%w: unsupported target type %T", steamid.ErrInvalid, target)
	}

	if !id.IsValid() {
		return 0, fmt.Errorf("%w: %s", steamid.ErrInvalid, id)
	}
	return id, nil
}

// resultLabel maps a fetch outcome to the metrics result label.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	if errors.Is(err, pagination.ErrRetryExhausted) {
		return "retry_exhausted"
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		return string(perr.Kind)
	}
	return "error"
}

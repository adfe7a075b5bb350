// Package provider implements the inventory backends: the Steam Community
// inventory endpoint, the Steam Web API and three third-party mirrors. Each
// adapter fetches one page and classifies failures into the Error taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Sternrassler/steam-inventory-client/pkg/client"
	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
	"github.com/Sternrassler/steam-inventory-client/pkg/steamid"
)

// Kind names a provider.
type Kind string

const (
	KindCommunity   Kind = "community"
	KindWebAPI      Kind = "webapi"
	KindSteamApis   Kind = "steamapis"
	KindSteamSupply Kind = "steamsupply"
	KindSteamApiIO  Kind = "steamapiio"
)

// DefaultLanguage is used when a request carries no language.
const DefaultLanguage = "english"

// Request identifies one inventory.
type Request struct {
	SteamID   steamid.ID
	AppID     uint32
	ContextID string
	Language  string
	APIKey    string
}

func (r Request) language() string {
	if r.Language == "" {
		return DefaultLanguage
	}
	return r.Language
}

// Provider fetches single inventory pages from one backend.
type Provider interface {
	Kind() Kind

	// RetryBudget is how many times a transient failure may be retried
	// within one fetch.
	RetryBudget() int

	// FetchPage fetches the page starting after cursor ("" for the first).
	FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error)
}

// HTTPClient is the transport adapters depend on. *client.Client satisfies it.
type HTTPClient interface {
	Get(ctx context.Context, rawURL string, query url.Values, header http.Header) (*client.Response, error)
}

// Option configures an adapter.
type Option func(*options)

type options struct {
	baseURL     string
	pageSize    int
	retryBudget int
}

// WithBaseURL points the adapter at another host (tests, self-hosted mirrors).
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithPageSize overrides the page size sent as count.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithRetryBudget overrides the adapter's transient retry budget.
func WithRetryBudget(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retryBudget = n
		}
	}
}

func buildOptions(base options, opts []Option) options {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// ParseKind resolves a provider name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindCommunity, KindWebAPI, KindSteamApis, KindSteamSupply, KindSteamApiIO:
		return k, nil
	}
	return "", invalidInput("", "unknown provider %q", s)
}

// Registry maps provider kinds to adapters.
type Registry struct {
	providers map[Kind]Provider
}

// NewRegistry creates a registry holding providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[Kind]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry registers all five adapters on httpClient.
func DefaultRegistry(httpClient HTTPClient) *Registry {
	return NewRegistry(
		NewCommunity(httpClient),
		NewWebAPI(httpClient),
		NewSteamApis(httpClient),
		NewSteamSupply(httpClient),
		NewSteamApiIO(httpClient),
	)
}

// Register adds or replaces the adapter for p.Kind().
func (r *Registry) Register(p Provider) {
	r.providers[p.Kind()] = p
}

// Get returns the adapter for kind.
func (r *Registry) Get(kind Kind) (Provider, bool) {
	p, ok := r.providers[kind]
	return p, ok
}

// Kinds lists the registered providers in name order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// validateRequest rejects requests no backend could serve.
func validateRequest(p Kind, req Request, needKey bool) error {
	if !req.SteamID.IsValid() {
		return invalidInput(p, "invalid steamid %q", req.SteamID.String())
	}
	if req.AppID == 0 {
		return invalidInput(p, "missing app id")
	}
	if req.ContextID == "" {
		return invalidInput(p, "missing context id")
	}
	if needKey && req.APIKey == "" {
		return invalidInput(p, "api key required")
	}
	return nil
}

// get issues the request and maps transport failures into the taxonomy.
func get(ctx context.Context, httpClient HTTPClient, p Kind, rawURL string, query url.Values, header http.Header) (*client.Response, error) {
	resp, err := httpClient.Get(ctx, rawURL, query, header)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var reqErr *client.RequestError
	if errors.As(err, &reqErr) && reqErr.IsRateLimited() {
		e := newError(p, ErrorKindTransient, http.StatusTooManyRequests, "rate limited")
		e.Err = err
		return nil, e
	}

	e := newError(p, ErrorKindTransport, 0, "request failed")
	e.Err = err
	return nil, e
}

func pageQuery(req Request, cursor string, pageSize int) url.Values {
	q := url.Values{}
	q.Set("count", fmt.Sprint(pageSize))
	if cursor != "" {
		q.Set("start_assetid", cursor)
	}
	return q
}

func inventoryPath(req Request) string {
	return fmt.Sprintf("%s/%d/%s", req.SteamID.String(), req.AppID, url.PathEscape(req.ContextID))
}

package provider

import (
	"context"
	"net/http"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

const (
	steamApisBaseURL     = "https://api.steamapis.com"
	steamApisPageSize    = 5000
	steamApisRetryBudget = 5
)

// SteamApis fetches through the api.steamapis.com mirror.
type SteamApis struct {
	http HTTPClient
	opts options
}

// NewSteamApis creates the steamapis.com adapter.
func NewSteamApis(httpClient HTTPClient, opts ...Option) *SteamApis {
	return &SteamApis{
		http: httpClient,
		opts: buildOptions(options{baseURL: steamApisBaseURL, pageSize: steamApisPageSize, retryBudget: steamApisRetryBudget}, opts),
	}
}

func (s *SteamApis) Kind() Kind       { return KindSteamApis }
func (s *SteamApis) RetryBudget() int { return s.opts.retryBudget }

// FetchPage implements Provider.
func (s *SteamApis) FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error) {
	if err := validateRequest(KindSteamApis, req, true); err != nil {
		return nil, err
	}

	query := pageQuery(req, cursor, s.opts.pageSize)
	query.Set("api_key", req.APIKey)
	query.Set("l", req.language())

	resp, err := get(ctx, s.http, KindSteamApis, s.opts.baseURL+"/steam/inventory/"+inventoryPath(req), query, nil)
	if err != nil {
		return nil, err
	}
	return s.classify(resp.StatusCode, resp.Body)
}

func (s *SteamApis) classify(status int, body []byte) (*econ.Page, error) {
	switch status {
	case http.StatusUnauthorized:
		return nil, newError(KindSteamApis, ErrorKindInvalidCredential, status, "api key rejected")
	case http.StatusForbidden:
		return nil, newError(KindSteamApis, ErrorKindPrivateProfile, status, "inventory is private")
	case http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return nil, newError(KindSteamApis, ErrorKindTransient, status, http.StatusText(status))
	}

	if msg, ok := errorMessage(body); ok {
		return nil, providerError(KindSteamApis, status, msg)
	}
	if status < 200 || status > 299 {
		return nil, httpError(KindSteamApis, status)
	}

	return decodePage(KindSteamApis, status, body, false)
}

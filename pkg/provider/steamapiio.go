package provider

import (
	"context"
	"net/http"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

const (
	steamApiIOBaseURL  = "https://api.steamapi.io"
	steamApiIOPageSize = 5000
)

// SteamApiIO fetches through the api.steamapi.io mirror. It has no
// transient path: every failure is terminal.
type SteamApiIO struct {
	http HTTPClient
	opts options
}

// NewSteamApiIO creates the steamapi.io adapter.
func NewSteamApiIO(httpClient HTTPClient, opts ...Option) *SteamApiIO {
	return &SteamApiIO{
		http: httpClient,
		opts: buildOptions(options{baseURL: steamApiIOBaseURL, pageSize: steamApiIOPageSize}, opts),
	}
}

func (s *SteamApiIO) Kind() Kind       { return KindSteamApiIO }
func (s *SteamApiIO) RetryBudget() int { return s.opts.retryBudget }

// FetchPage implements Provider.
func (s *SteamApiIO) FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error) {
	if err := validateRequest(KindSteamApiIO, req, true); err != nil {
		return nil, err
	}

	query := pageQuery(req, cursor, s.opts.pageSize)
	query.Set("key", req.APIKey)
	query.Set("l", req.language())

	resp, err := get(ctx, s.http, KindSteamApiIO, s.opts.baseURL+"/user/inventory/"+inventoryPath(req), query, nil)
	if err != nil {
		return nil, err
	}
	return s.classify(resp.StatusCode, resp.Body)
}

func (s *SteamApiIO) classify(status int, body []byte) (*econ.Page, error) {
	switch status {
	case http.StatusUnauthorized:
		return nil, newError(KindSteamApiIO, ErrorKindInvalidCredential, status, "api key rejected")
	case http.StatusForbidden:
		return nil, newError(KindSteamApiIO, ErrorKindPrivateProfile, status, "inventory is private")
	}

	if msg, ok := errorMessage(body); ok {
		return nil, providerError(KindSteamApiIO, status, msg)
	}
	if status < 200 || status > 299 {
		return nil, httpError(KindSteamApiIO, status)
	}

	return decodePage(KindSteamApiIO, status, body, false)
}

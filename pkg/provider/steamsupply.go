package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

const (
	steamSupplyBaseURL     = "https://steam.supply"
	steamSupplyPageSize    = 5000
	steamSupplyRetryBudget = 5
)

// SteamSupply fetches through the steam.supply mirror. The API key is part
// of the path, and the mirror answers with HTML redirect pages when busy.
type SteamSupply struct {
	http HTTPClient
	opts options
}

// NewSteamSupply creates the steam.supply adapter.
func NewSteamSupply(httpClient HTTPClient, opts ...Option) *SteamSupply {
	return &SteamSupply{
		http: httpClient,
		opts: buildOptions(options{baseURL: steamSupplyBaseURL, pageSize: steamSupplyPageSize, retryBudget: steamSupplyRetryBudget}, opts),
	}
}

func (s *SteamSupply) Kind() Kind       { return KindSteamSupply }
func (s *SteamSupply) RetryBudget() int { return s.opts.retryBudget }

// FetchPage implements Provider.
func (s *SteamSupply) FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error) {
	if err := validateRequest(KindSteamSupply, req, true); err != nil {
		return nil, err
	}

	query := pageQuery(req, cursor, s.opts.pageSize)
	query.Set("steamid", req.SteamID.String())
	query.Set("appid", strconv.FormatUint(uint64(req.AppID), 10))
	query.Set("contextid", req.ContextID)
	query.Set("l", req.language())

	rawURL := s.opts.baseURL + "/API/" + url.PathEscape(req.APIKey) + "/loadinventory"
	resp, err := get(ctx, s.http, KindSteamSupply, rawURL, query, nil)
	if err != nil {
		return nil, err
	}
	return s.classify(resp.StatusCode, resp.Body)
}

func (s *SteamSupply) classify(status int, body []byte) (*econ.Page, error) {
	if status == http.StatusTooManyRequests || status >= 500 {
		return nil, newError(KindSteamSupply, ErrorKindTransient, status, http.StatusText(status))
	}

	if !json.Valid(body) {
		switch {
		case bodyContains(body, "private"):
			return nil, newError(KindSteamSupply, ErrorKindPrivateProfile, status, "inventory is private")
		case bodyContains(body, "api key"):
			return nil, newError(KindSteamSupply, ErrorKindInvalidCredential, status, "api key rejected")
		}
		return nil, newError(KindSteamSupply, ErrorKindTransient, status, "non-json response")
	}

	if msg, ok := errorMessage(body); ok {
		switch {
		case bodyContains([]byte(msg), "private"):
			return nil, newError(KindSteamSupply, ErrorKindPrivateProfile, status, msg)
		case bodyContains([]byte(msg), "api key"):
			return nil, newError(KindSteamSupply, ErrorKindInvalidCredential, status, msg)
		case bodyContains([]byte(msg), "try again"):
			return nil, newError(KindSteamSupply, ErrorKindTransient, status, msg)
		}
		return nil, providerError(KindSteamSupply, status, msg)
	}
	if status < 200 || status > 299 {
		return nil, httpError(KindSteamSupply, status)
	}

	return decodePage(KindSteamSupply, status, body, false)
}

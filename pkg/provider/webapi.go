package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

const (
	webAPIBaseURL     = "https://api.steampowered.com"
	webAPIPath        = "/IEconService/GetInventoryItemsWithDescriptions/v1/"
	webAPIPageSize    = 5000
	webAPIRetryBudget = 10
)

// WebAPI fetches through the keyed IEconService endpoint of the Steam Web
// API. The inventory document is wrapped in a "response" envelope.
type WebAPI struct {
	http HTTPClient
	opts options
}

// NewWebAPI creates the Steam Web API adapter.
func NewWebAPI(httpClient HTTPClient, opts ...Option) *WebAPI {
	return &WebAPI{
		http: httpClient,
		opts: buildOptions(options{baseURL: webAPIBaseURL, pageSize: webAPIPageSize, retryBudget: webAPIRetryBudget}, opts),
	}
}

func (w *WebAPI) Kind() Kind       { return KindWebAPI }
func (w *WebAPI) RetryBudget() int { return w.opts.retryBudget }

// FetchPage implements Provider.
func (w *WebAPI) FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error) {
	if err := validateRequest(KindWebAPI, req, true); err != nil {
		return nil, err
	}

	query := pageQuery(req, cursor, w.opts.pageSize)
	query.Set("key", req.APIKey)
	query.Set("steamid", req.SteamID.String())
	query.Set("appid", strconv.FormatUint(uint64(req.AppID), 10))
	query.Set("contextid", req.ContextID)
	query.Set("get_descriptions", "true")
	query.Set("language", req.language())

	resp, err := get(ctx, w.http, KindWebAPI, w.opts.baseURL+webAPIPath, query, nil)
	if err != nil {
		return nil, err
	}
	return w.classify(resp.StatusCode, resp.Body)
}

func (w *WebAPI) classify(status int, body []byte) (*econ.Page, error) {
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden && bodyContains(body, "key="):
		return nil, newError(KindWebAPI, ErrorKindInvalidCredential, status, "api key rejected")
	case status == http.StatusForbidden:
		return nil, newError(KindWebAPI, ErrorKindPrivateProfile, status, "inventory is private")
	case status == http.StatusTooManyRequests,
		status == http.StatusInternalServerError,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return nil, newError(KindWebAPI, ErrorKindTransient, status, http.StatusText(status))
	case status < 200 || status > 299:
		return nil, httpError(KindWebAPI, status)
	}

	var envelope struct {
		Response *inventoryBody `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		e := malformed(KindWebAPI, status, "invalid json")
		e.Err = err
		return nil, e
	}
	if envelope.Response == nil {
		return nil, malformed(KindWebAPI, status, "missing response envelope")
	}
	return bodyToPage(KindWebAPI, status, envelope.Response, false)
}

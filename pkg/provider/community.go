package provider

import (
	"context"
	"net/http"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

const (
	communityBaseURL  = "https://steamcommunity.com"
	communityPageSize = 2000
)

// Community fetches from the public steamcommunity.com inventory endpoint.
// It needs no API key and has no transient retry path beyond 429.
type Community struct {
	http HTTPClient
	opts options
}

// NewCommunity creates the Steam Community adapter.
func NewCommunity(httpClient HTTPClient, opts ...Option) *Community {
	return &Community{
		http: httpClient,
		opts: buildOptions(options{baseURL: communityBaseURL, pageSize: communityPageSize}, opts),
	}
}

func (c *Community) Kind() Kind       { return KindCommunity }
func (c *Community) RetryBudget() int { return c.opts.retryBudget }

// FetchPage implements Provider.
func (c *Community) FetchPage(ctx context.Context, req Request, cursor string) (*econ.Page, error) {
	if err := validateRequest(KindCommunity, req, false); err != nil {
		return nil, err
	}

	query := pageQuery(req, cursor, c.opts.pageSize)
	query.Set("l", req.language())

	header := http.Header{}
	header.Set("Referer", c.opts.baseURL+"/profiles/"+req.SteamID.String()+"/inventory")

	resp, err := get(ctx, c.http, KindCommunity, c.opts.baseURL+"/inventory/"+inventoryPath(req), query, header)
	if err != nil {
		return nil, err
	}
	return c.classify(resp.StatusCode, resp.Body)
}

func (c *Community) classify(status int, body []byte) (*econ.Page, error) {
	switch {
	case status == http.StatusForbidden && isEmptyBody(body):
		return nil, newError(KindCommunity, ErrorKindPrivateProfile, status, "inventory is private")
	case status == http.StatusTooManyRequests:
		return nil, newError(KindCommunity, ErrorKindTransient, status, "rate limited")
	}

	if msg, ok := errorMessage(body); ok {
		return nil, providerError(KindCommunity, status, msg)
	}
	if status < 200 || status > 299 {
		return nil, httpError(KindCommunity, status)
	}

	return decodePage(KindCommunity, status, body, true)
}

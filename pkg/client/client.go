// Package client provides the HTTP transport shared by all inventory
// providers: request pacing, provider cooldown handling, metrics, and
// transport error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/steam-inventory-client/pkg/logging"
	"github.com/Sternrassler/steam-inventory-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for outgoing provider requests.
var (
	inventoryHTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_http_requests_total",
		Help: "Total provider HTTP requests by host and status",
	}, []string{"host", "status"})

	inventoryHTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_http_request_duration_seconds",
		Help:    "Provider HTTP request duration in seconds by host",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"host"})

	inventoryHTTPErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_http_errors_total",
		Help: "Total provider HTTP errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and active cooldowns.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultMaxBodyBytes bounds how much of a response body is read.
const DefaultMaxBodyBytes = 64 << 20

// Client performs GET requests against inventory providers.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cooldowns  *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for shared cooldown state. Optional: without it provider
	// 429s are still reported but not remembered between requests.
	Redis *redis.Client

	// User-Agent header sent with every request.
	UserAgent string

	// RateLimit is the outgoing request rate per second (0 disables pacing).
	RateLimit float64
	Burst     int

	// Timeout for a single HTTP request.
	Timeout time.Duration

	// MaxCooldownWait is how long a request may wait for a provider
	// cooldown before failing with a rate limit error.
	MaxCooldownWait time.Duration

	// Proxy is an optional HTTP proxy URL.
	Proxy string

	// Jar stores cookies between requests (default: fresh in-memory jar).
	Jar http.CookieJar

	// MaxBodyBytes bounds response size (default: DefaultMaxBodyBytes).
	MaxBodyBytes int64
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:       userAgent,
		RateLimit:       5,
		Burst:           5,
		Timeout:         30 * time.Second,
		MaxCooldownWait: 60 * time.Second,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// Response is a fully read provider response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// New creates a new provider HTTP client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	jar := cfg.Jar
	if jar == nil {
		var err error
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	logger := logging.NewLogger("inventory-client")

	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		limiter: rate.NewLimiter(limit, burst),
		config:  cfg,
		logger:  logger,
	}
	if cfg.Redis != nil {
		c.cooldowns = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return c, nil
}

// Get performs a GET request. query and header may be nil.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.Do(req)
}

// Do executes req and reads the whole body. Non-2xx statuses are returned
// as a Response, not an error; only transport failures and exceeded
// cooldowns produce a *RequestError.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	host := req.URL.Hostname()

	// Step 1: Honour provider cooldown
	if c.cooldowns != nil {
		err := c.cooldowns.Wait(ctx, host, c.config.MaxCooldownWait)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, ratelimit.ErrCoolingDown):
			inventoryHTTPErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			inventoryHTTPRequestsTotal.WithLabelValues(host, "cooldown").Inc()
			return nil, &RequestError{
				ErrorClass: ErrorClassRateLimit,
				Message:    "provider cooling down",
				Err:        err,
			}
		default:
			// Cooldown store unavailable: fail open.
			c.logger.Warn().Err(err).Str("host", host).Msg("Failed to read provider cooldown")
		}
	}

	// Step 2: Local pacing
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// Step 3: Headers
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	c.logger.Debug().
		Str("host", host).
		Str("path", req.URL.Path).
		Msg("Executing provider request")

	// Step 4: Execute
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	inventoryHTTPRequestDuration.WithLabelValues(host).Observe(time.Since(startTime).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errClass := c.classifyError(nil, err)
		inventoryHTTPErrorsTotal.WithLabelValues(string(errClass)).Inc()
		inventoryHTTPRequestsTotal.WithLabelValues(host, "network_error").Inc()
		c.logger.Warn().Err(err).Str("host", host).Msg("HTTP request failed")
		return nil, &RequestError{
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err == nil && int64(len(body)) > c.config.MaxBodyBytes {
		inventoryHTTPErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
		inventoryHTTPRequestsTotal.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    fmt.Sprintf("response body exceeds %d bytes", c.config.MaxBodyBytes),
			Err:        ErrBodyTooLarge,
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		inventoryHTTPErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	inventoryHTTPRequestsTotal.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: Record cooldowns and classify failures for metrics
	if c.cooldowns != nil {
		if err := c.cooldowns.UpdateFromResponse(ctx, host, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record provider cooldown")
		}
	}
	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp, nil)
		inventoryHTTPErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Debug().
			Str("host", host).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Provider returned error status")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Package metrics documents the Prometheus metrics of the inventory client
// and serves them. Collectors are declared with promauto in the packages
// that update them (client, ratelimit, pagination, inventory).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all collectors are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer the /metrics handler reads.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric family the module registers.
var Names = []string{
	// pkg/client
	"inventory_http_requests_total",
	"inventory_http_request_duration_seconds",
	"inventory_http_errors_total",

	// pkg/ratelimit
	"inventory_rate_limit_cooldowns_total",
	"inventory_rate_limit_wait_seconds",
	"inventory_rate_limit_rejects_total",

	// pkg/pagination
	"inventory_pages_total",
	"inventory_retries_total",
	"inventory_retry_backoff_seconds",
	"inventory_retry_exhausted_total",

	// pkg/inventory
	"inventory_fetches_total",
	"inventory_fetch_duration_seconds",
	"inventory_items_total",
	"inventory_batch_inflight",
}

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - inventory_http_requests_total{host, status} (Counter): Provider requests by host and HTTP status
//     ("network_error" and "cooldown" for requests without a response)
//   - inventory_http_request_duration_seconds{host} (Histogram): Request duration by host
//   - inventory_http_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Cooldown Metrics (pkg/ratelimit):
//   - inventory_rate_limit_cooldowns_total{host} (Counter): 429 / Retry-After cooldowns recorded
//   - inventory_rate_limit_wait_seconds{host} (Histogram): Time spent waiting for a cooldown
//   - inventory_rate_limit_rejects_total{host} (Counter): Requests failed because a cooldown outlasted the wait budget
//
// Pagination Metrics (pkg/pagination):
//   - inventory_pages_total{provider} (Counter): Pages accumulated
//   - inventory_retries_total{provider} (Counter): Transient page failures retried
//   - inventory_retry_backoff_seconds{provider} (Histogram): Delay before each retry
//   - inventory_retry_exhausted_total{provider} (Counter): Fetches that exhausted the retry budget
//
// Fetch Metrics (pkg/inventory):
//   - inventory_fetches_total{provider, result} (Counter): Completed fetches by error kind ("ok" on success)
//   - inventory_fetch_duration_seconds{provider} (Histogram): End-to-end fetch duration
//   - inventory_items_total{provider, type} (Counter): Items returned (type = item | currency)
//   - inventory_batch_inflight (Gauge): Fetches currently running in a BatchFetcher
//
// Example Prometheus Queries:
//
//   # Fetch failure ratio by provider
//   sum by (provider) (rate(inventory_fetches_total{result!="ok"}[5m])) /
//   sum by (provider) (rate(inventory_fetches_total[5m]))
//
//   # Private profiles per minute
//   rate(inventory_fetches_total{result="private_profile"}[1m]) * 60
//
//   # Retries per fetch
//   rate(inventory_retries_total[5m]) / rate(inventory_fetches_total[5m])
//
//   # P95 provider latency
//   histogram_quantile(0.95, rate(inventory_http_request_duration_seconds_bucket[5m]))
//
//   # Hosts currently rate limiting us
//   increase(inventory_rate_limit_cooldowns_total[10m]) > 0

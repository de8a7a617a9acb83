// Package metrics holds the shared Prometheus registry and the /metrics
// handler for posts-api. Metrics themselves are defined next to the code
// that records them (cache, client, ratelimit, api).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "posts_api"

// Registry is the Prometheus registerer used by the service.
// All metrics are registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - posts_api_cache_hits_total (Counter): Responses served from the cache
//   - posts_api_cache_misses_total (Counter): Lookups without a fresh entry
//   - posts_api_cache_stores_total{status_class} (Counter): Captured responses stored
//   - posts_api_cache_skips_total{status_class} (Counter): Captured responses refused by policy
//   - posts_api_cache_entries (Gauge): Entries currently held
//   - posts_api_cache_purged_total (Counter): Expired entries removed by the janitor
//
// Upstream Metrics (pkg/client, pkg/ratelimit):
//   - posts_api_upstream_requests_total{status} (Counter): Upstream requests by outcome
//   - posts_api_upstream_request_duration_seconds (Histogram): Upstream latency
//   - posts_api_upstream_errors_total{class} (Counter): Errors by class
//   - posts_api_upstream_retries_total{error_class} (Counter): Retry attempts
//   - posts_api_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff before each retry
//   - posts_api_upstream_retry_exhausted_total{error_class} (Counter): Requests that ran out of attempts
//   - posts_api_upstream_throttled_total (Counter): Requests delayed by the rate limiter
//   - posts_api_upstream_rate_limit_rejected_total (Counter): Requests abandoned while waiting for a token
//
// Pipeline Metrics (pkg/posts):
//   - posts_api_aggregate_posts (Histogram): Posts returned per aggregated query
//   - posts_api_aggregate_duplicates_total (Counter): Posts dropped as duplicates
//
// HTTP Metrics (pkg/api):
//   - posts_api_http_requests_total{method, route, status} (Counter)
//   - posts_api_http_request_duration_seconds{method, route} (Histogram)
//   - posts_api_http_panics_total (Counter): Handler panics recovered
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(posts_api_cache_hits_total[5m])) /
//   (sum(rate(posts_api_cache_hits_total[5m])) + sum(rate(posts_api_cache_misses_total[5m])))
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(posts_api_upstream_request_duration_seconds_bucket[5m]))

// Package metrics documents the Prometheus metrics exported by the client.
// Metrics are defined in their own packages (client, cache, ratelimit, store,
// perf) to keep those packages independent; this package only exposes the
// shared registry and a handler for it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers against via promauto.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Gateway requests (pkg/client):
//   - rsywx_gateway_requests_total{endpoint, status}
//   - rsywx_gateway_request_duration_seconds{endpoint}
//   - rsywx_gateway_errors_total{class}
//   - rsywx_gateway_retries_total{error_class}
//   - rsywx_gateway_retry_exhausted_total{error_class}
//   - rsywx_gateway_cached_envelopes_total: envelopes the gateway flagged cached
//
// Response cache (pkg/cache):
//   - rsywx_cache_hits_total{layer="memory"|"redis"}
//   - rsywx_cache_misses_total
//   - rsywx_cache_stale_total: stale entries returned for revalidation
//   - rsywx_cache_304_responses_total
//   - rsywx_cache_errors_total{operation}
//
// Rate gate (pkg/ratelimit):
//   - rsywx_ratelimit_remaining
//   - rsywx_ratelimit_blocks_total
//   - rsywx_ratelimit_wait_seconds
//
// Stores (pkg/store):
//   - rsywx_store_loads_total{field, result}
//   - rsywx_store_batch_fallbacks_total{domain}
//
// Instrumentation (pkg/perf):
//   - rsywx_timer_duration_seconds{category, status}
//
// Example queries:
//
//	# cache hit rate
//	sum(rate(rsywx_cache_hits_total[5m])) /
//	(sum(rate(rsywx_cache_hits_total[5m])) + sum(rate(rsywx_cache_misses_total[5m])))
//
//	# p95 gateway latency
//	histogram_quantile(0.95, rate(rsywx_gateway_request_duration_seconds_bucket[5m]))
//
//	# optional widgets failing
//	sum by (field) (rate(rsywx_store_loads_total{result="failed"}[15m]))

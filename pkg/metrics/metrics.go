// Package metrics provides the shared Prometheus registerer for paged-grid.
// Metrics are declared in the packages that own them (pagination, cache, client, page-server)
// and registered through Registry when those packages initialise.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the registerer every paged-grid package registers its metrics with.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

// Factory returns a promauto factory bound to Registry.
func Factory() promauto.Factory {
	return promauto.With(Registry)
}

// Metrics Documentation
//
// Row source metrics (pkg/pagination):
//   - grid_page_fetches_total{outcome} (Counter): Page fetches by outcome (loaded, empty, error)
//   - grid_page_fetch_duration_seconds (Histogram): Fetch hook latency
//   - grid_pages_in_flight (Gauge): Pages currently being fetched
//   - grid_pages_pending (Gauge): Pages waiting for a fetch slot
//   - grid_cached_rows (Gauge): Rows held in row source page caches
//
// Page store metrics (pkg/cache):
//   - grid_page_cache_hits_total (Counter): Pages served from Redis
//   - grid_page_cache_misses_total (Counter): Pages not found in Redis
//   - grid_page_cache_errors_total{operation} (Counter): Redis errors by operation
//   - grid_page_cache_size_bytes (Gauge): Bytes written to Redis
//
// HTTP client metrics (pkg/client):
//   - grid_page_requests_total{status} (Counter): Page requests by HTTP status
//   - grid_page_request_duration_seconds (Histogram): Page request latency
//   - grid_page_retries_total{error_class} (Counter): Retry attempts by error class
//   - grid_page_retry_backoff_seconds{error_class} (Histogram): Backoff before each retry
//   - grid_page_retry_exhausted_total{error_class} (Counter): Requests that ran out of retries
//
// Page server metrics (cmd/page-server):
//   - grid_server_pages_served_total{status} (Counter): Pages served by HTTP status
//
// Example Prometheus Queries:
//
//   # Page store hit rate
//   sum(rate(grid_page_cache_hits_total[5m])) /
//   (sum(rate(grid_page_cache_hits_total[5m])) + sum(rate(grid_page_cache_misses_total[5m])))
//
//   # Soft failure rate
//   rate(grid_page_fetches_total{outcome!="loaded"}[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(grid_page_fetch_duration_seconds_bucket[5m]))

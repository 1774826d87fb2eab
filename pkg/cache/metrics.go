package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sternrassler/paged-grid/pkg/metrics"
)

var (
	// CacheHits counts pages served from Redis
	CacheHits = metrics.Factory().NewCounter(
		prometheus.CounterOpts{
			Name: "grid_page_cache_hits_total",
			Help: "Total number of pages served from the page store",
		},
	)

	// CacheMisses counts pages not found in Redis
	CacheMisses = metrics.Factory().NewCounter(
		prometheus.CounterOpts{
			Name: "grid_page_cache_misses_total",
			Help: "Total number of page store misses",
		},
	)

	// CacheSize tracks bytes written to Redis
	CacheSize = metrics.Factory().NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_page_cache_size_bytes",
			Help: "Bytes written to the page store",
		},
	)

	// CacheErrors counts Redis errors by operation
	CacheErrors = metrics.Factory().NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_page_cache_errors_total",
			Help: "Total number of page store errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate", "encode", "decode"
	)
)

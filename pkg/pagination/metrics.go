package pagination

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sternrassler/paged-grid/pkg/metrics"
)

// Fetch outcomes used as the outcome label.
const (
	outcomeLoaded = "loaded"
	outcomeEmpty  = "empty"
	outcomeError  = "error"
)

var (
	pageFetchesTotal = metrics.Factory().NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_page_fetches_total",
			Help: "Total number of page fetches by outcome",
		},
		[]string{"outcome"}, // "loaded", "empty", "error"
	)

	pageFetchDuration = metrics.Factory().NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grid_page_fetch_duration_seconds",
			Help:    "Page fetch hook duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	pagesInFlight = metrics.Factory().NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_pages_in_flight",
			Help: "Number of pages currently being fetched",
		},
	)

	pagesPending = metrics.Factory().NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_pages_pending",
			Help: "Number of pages queued for a fetch slot",
		},
	)

	cachedRows = metrics.Factory().NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_cached_rows",
			Help: "Number of rows held in row source page caches",
		},
	)
)

// Package metrics holds the Prometheus collectors of the path service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region collectors
var (
	// searchesTotal counts finished searches by outcome.
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railpath_searches_total",
		Help: "Total path searches by outcome",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "railpath_search_duration_seconds",
		Help:    "Path search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	})

	expandedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "railpath_search_expanded_nodes",
		Help:    "Nodes expanded per search",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	})

	segmentCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "railpath_segment_cache_hits_total",
		Help: "Segments reused from the shared segment cache",
	})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "railpath_searches_in_flight",
		Help: "Searches currently running",
	})

	layoutSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "railpath_layout_swaps_total",
		Help: "Times a new layout version was made active",
	})
)
// #endregion collectors

// #region observe
// SearchStarted marks a search as running and returns the func that ends it.
func SearchStarted() (done func()) {
	inFlight.Inc()
	return inFlight.Dec
}

// ObserveSearch records one finished search.
func ObserveSearch(outcome string, d time.Duration, stats railpf.Stats) {
	searchesTotal.WithLabelValues(outcome).Inc()
	searchDuration.Observe(d.Seconds())
	expandedNodes.Observe(float64(stats.Expanded))
	segmentCacheHits.Add(float64(stats.CacheHits))
}

// LayoutSwapped records a layout activation.
func LayoutSwapped() {
	layoutSwaps.Inc()
}
// #endregion observe

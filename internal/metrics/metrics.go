// Package metrics exposes Prometheus collectors for the fetch pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal             *prometheus.CounterVec
	bytesTotal             prometheus.Counter
	fetchDurationSeconds   prometheus.Histogram
	sitemapsTotal          *prometheus.CounterVec
	activeFetches          prometheus.Gauge
	discardedPagesTotal    prometheus.Counter
	unexpandedEntriesTotal prometheus.Counter

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitefetch_pages_total",
				Help: "Total number of page fetches completed, labeled by status class.",
			},
			[]string{"class"},
		)

		bytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitefetch_bytes_total",
				Help: "Total number of response body bytes fetched.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitefetch_fetch_duration_seconds",
				Help:    "Page fetch latency covering connection and full body read.",
				Buckets: prometheus.DefBuckets,
			},
		)

		sitemapsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitefetch_sitemaps_total",
				Help: "Total number of sitemap documents processed, labeled by result.",
			},
			[]string{"result"},
		)

		activeFetches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitefetch_active_fetches",
				Help: "Number of page fetches currently in flight.",
			},
		)

		discardedPagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitefetch_discarded_pages_total",
				Help: "Page tasks discarded because the page limit was exhausted.",
			},
		)

		unexpandedEntriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sitefetch_unexpanded_entries_total",
				Help: "Child sitemap URLs reported instead of followed (recursion disabled).",
			},
		)
	})
}

// FetchStarted increments the in-flight gauge.
func FetchStarted() {
	if activeFetches != nil {
		activeFetches.Inc()
	}
}

// ObserveFetch records one completed page fetch.
func ObserveFetch(class string, seconds float64, bytes int64) {
	if pagesTotal == nil {
		return
	}
	activeFetches.Dec()
	pagesTotal.WithLabelValues(class).Inc()
	fetchDurationSeconds.Observe(seconds)
	bytesTotal.Add(float64(bytes))
}

// ObserveSitemap records one processed sitemap document.
func ObserveSitemap(result string) {
	if sitemapsTotal != nil {
		sitemapsTotal.WithLabelValues(result).Inc()
	}
}

// PageDiscarded counts a page task dropped by the limit check.
func PageDiscarded() {
	if discardedPagesTotal != nil {
		discardedPagesTotal.Inc()
	}
}

// UnexpandedEntry counts a child sitemap URL that was reported rather
// than followed.
func UnexpandedEntry() {
	if unexpandedEntriesTotal != nil {
		unexpandedEntriesTotal.Inc()
	}
}

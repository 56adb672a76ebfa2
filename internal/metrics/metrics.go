// Package metrics exposes the engine's operational counters to Prometheus.
// The engine's own stats snapshot (per-process, resettable) stays in
// internal/engine; these collectors are the scrape-facing mirror.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors under one registry so tests can create
// isolated instances without tripping duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched      prometheus.Counter
	FetchErrors       *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	ContactsExtracted *prometheus.CounterVec
	FormsExtracted    prometheus.Counter
	Validations       *prometheus.CounterVec
	ValidateDuration  prometheus.Histogram
	DiscoverDuration  prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// New builds the collector set on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "pages_fetched_total",
		Help:      "Pages fetched successfully.",
	})
	m.FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "fetch_errors_total",
		Help:      "Fetch failures by error kind.",
	}, []string{"kind"})
	m.FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "discovery",
		Name:      "fetch_duration_seconds",
		Help:      "Wall time of page fetches including rate-limit waits.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	m.ContactsExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "contacts_extracted_total",
		Help:      "Contacts extracted by contact method.",
	}, []string{"method"})
	m.FormsExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "forms_extracted_total",
		Help:      "Contact forms detected.",
	})
	m.Validations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "validations_total",
		Help:      "Validation passes by method and outcome.",
	}, []string{"method", "outcome"})
	m.ValidateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "discovery",
		Name:      "validate_duration_seconds",
		Help:      "Wall time of single-contact validations.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	m.DiscoverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "discovery",
		Name:      "discover_duration_seconds",
		Help:      "Wall time of full per-URL discovery runs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "result_cache_hits_total",
		Help:      "Discovery result cache hits.",
	})
	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "result_cache_misses_total",
		Help:      "Discovery result cache misses.",
	})

	m.registry.MustRegister(
		m.PagesFetched, m.FetchErrors, m.FetchDuration,
		m.ContactsExtracted, m.FormsExtracted,
		m.Validations, m.ValidateDuration, m.DiscoverDuration,
		m.CacheHits, m.CacheMisses,
	)
	return m
}

// ObserveFetch records one fetch outcome. kind is empty for success.
func (m *Metrics) ObserveFetch(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		m.PagesFetched.Inc()
	} else {
		m.FetchErrors.WithLabelValues(kind).Inc()
	}
	m.FetchDuration.Observe(elapsed.Seconds())
}

// ObserveValidation records one validation outcome.
func (m *Metrics) ObserveValidation(method string, valid bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.Validations.WithLabelValues(method, outcome).Inc()
	m.ValidateDuration.Observe(elapsed.Seconds())
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes application metrics for Prometheus scraping:
// content-store fetches, discovery progress and experiment renders.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps a dedicated Prometheus registry.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	fetches             *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	sitesDiscovered     prometheus.Gauge
	markersRegistered   prometheus.Counter
	rendersTotal        prometheus.Counter
	rendersStale        prometheus.Counter
	rendersFailed       prometheus.Counter
}

// New creates a fresh registry with all visualizer metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the backend",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meshviz",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the backend",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "contentstore_fetches_total",
		Help:      "Content-store fetches by operation and outcome",
	}, []string{"op", "outcome"})

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meshviz",
		Name:      "contentstore_fetch_duration_seconds",
		Help:      "Duration of content-store fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"op"})

	sitesDiscovered := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meshviz",
		Name:      "sites_discovered",
		Help:      "Number of sites discovered during startup enumeration",
	})

	markersRegistered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "markers_registered_total",
		Help:      "Total node markers placed on the map",
	})

	rendersTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "experiment_renders_total",
		Help:      "Experiment render sequences completed",
	})

	rendersStale := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "experiment_renders_stale_total",
		Help:      "Render results discarded because a newer selection superseded them",
	})

	rendersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "meshviz",
		Name:      "experiment_renders_failed_total",
		Help:      "Render sequences that failed before drawing",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		fetches,
		fetchDuration,
		sitesDiscovered,
		markersRegistered,
		rendersTotal,
		rendersStale,
		rendersFailed,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		fetches:             fetches,
		fetchDuration:       fetchDuration,
		sitesDiscovered:     sitesDiscovered,
		markersRegistered:   markersRegistered,
		rendersTotal:        rendersTotal,
		rendersStale:        rendersStale,
		rendersFailed:       rendersFailed,
	}
}

// ObserveHTTPRequest records one HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveFetch records one content-store fetch.
func (m *Metrics) ObserveFetch(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetches.With(prometheus.Labels{"op": op, "outcome": outcome}).Inc()
	m.fetchDuration.With(prometheus.Labels{"op": op}).Observe(duration.Seconds())
}

// SetSitesDiscovered records the startup enumeration result.
func (m *Metrics) SetSitesDiscovered(n int) {
	if m == nil {
		return
	}
	m.sitesDiscovered.Set(float64(n))
}

// AddMarkersRegistered counts newly placed node markers.
func (m *Metrics) AddMarkersRegistered(n int) {
	if m == nil {
		return
	}
	m.markersRegistered.Add(float64(n))
}

// RenderCompleted counts a finished render sequence.
func (m *Metrics) RenderCompleted() {
	if m == nil {
		return
	}
	m.rendersTotal.Inc()
}

// RenderDiscardedStale counts a render superseded before it landed.
func (m *Metrics) RenderDiscardedStale() {
	if m == nil {
		return
	}
	m.rendersStale.Inc()
}

// RenderFailed counts a render sequence that errored.
func (m *Metrics) RenderFailed() {
	if m == nil {
		return
	}
	m.rendersFailed.Inc()
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package observability provides the Prometheus recorder for warehouse
// queries, the HTTP surface, and the schema refresh job.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS RECORDER
// One instance per process, created in main, registered on its own
// registry and exposed through Handler on /metrics.
// ══════════════════════════════════════════════════════════════════════════════

const namespace = "eport"

// latencyBuckets spans 10ms to 10s, the useful range for single-statement
// warehouse reads and the HTTP calls fronting them.
var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics owns every instrument the service records into.
type Metrics struct {
	registry *prometheus.Registry

	queryDuration *prometheus.HistogramVec
	queryRetries  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	requestErrors *prometheus.CounterVec

	schemaRefreshes   *prometheus.CounterVec
	schemaRefreshedAt prometheus.Gauge
}

var _ warehouse.QueryMetrics = (*Metrics)(nil)

// NewMetrics creates the recorder with all instruments registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "query_duration_seconds",
			Help:      "Latency of composed warehouse queries by query name and outcome.",
			Buckets:   latencyBuckets,
		}, []string{"query", "outcome"}),

		queryRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "query_retries_total",
			Help:      "Retry attempts spent on transient warehouse failures.",
		}, []string{"query"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Failed reads by error taxonomy kind.",
		}, []string{"kind"}),

		schemaRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "refreshes_total",
			Help:      "Schema registry refresh runs by outcome.",
		}, []string{"outcome"}),

		schemaRefreshedAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful schema refresh.",
		}),
	}
}

// Registry exposes the underlying registry for health checks and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Warehouse instruments
// ─────────────────────────────────────────────────────────────────────────────

// ObserveQuery records one executed warehouse query.
func (m *Metrics) ObserveQuery(name, outcome string, elapsed time.Duration) {
	m.queryDuration.WithLabelValues(name, outcome).Observe(elapsed.Seconds())
}

// AddRetries records retry attempts spent on a query.
func (m *Metrics) AddRetries(name string, n int) {
	if n <= 0 {
		return
	}
	m.queryRetries.WithLabelValues(name).Add(float64(n))
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP instruments
// ─────────────────────────────────────────────────────────────────────────────

// ObserveHTTPRequest records one served request. route is the registered
// pattern, not the raw path, to keep cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AddRequestError counts a failed read by taxonomy kind. Schema mismatch
// counts cover hydration failures.
func (m *Metrics) AddRequestError(kind string) {
	m.requestErrors.WithLabelValues(kind).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// Schema refresh instruments
// ─────────────────────────────────────────────────────────────────────────────

// AddSchemaRefresh counts one refresh run.
func (m *Metrics) AddSchemaRefresh(outcome string) {
	m.schemaRefreshes.WithLabelValues(outcome).Inc()
}

// SetSchemaRefreshedAt marks the last successful refresh time.
func (m *Metrics) SetSchemaRefreshedAt(t time.Time) {
	m.schemaRefreshedAt.Set(float64(t.Unix()))
}

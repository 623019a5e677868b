// Package observability holds the Prometheus metrics collector and the
// OpenTelemetry tracing bootstrap.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric the service records. All metrics
// live in one private registry so tests can build collectors without
// tripping duplicate-registration panics on the default registry.
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	LockWaits        *prometheus.HistogramVec
	LockTimeouts     prometheus.Counter
	ConcurrencyRetry prometheus.Counter

	PaymentsAttempted *prometheus.CounterVec
	PoliciesBound     prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands dispatched",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries dispatched",
		}, []string{"query", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LockWaits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_lock_wait_seconds",
			Help:      "Time spent waiting for aggregate locks",
			Buckets:   []float64{.005, .025, .1, .5, 1, 2.5, 5, 10},
		}, []string{"aggregate_type"}),
		LockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_lock_timeouts_total",
			Help:      "Total number of aggregate lock acquisition timeouts",
		}),
		ConcurrencyRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_concurrency_retries_total",
			Help:      "Total number of optimistic-concurrency retries",
		}),
		PaymentsAttempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_attempted_total",
			Help:      "Total number of payment gateway attempts",
		}, []string{"outcome"}),
		PoliciesBound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policies_bound_total",
			Help:      "Total number of policies bound",
		}),
	}

	registry.MustRegister(
		m.CommandsTotal, m.CommandDuration,
		m.QueriesTotal, m.QueryDuration,
		m.HTTPRequests, m.HTTPDuration,
		m.LockWaits, m.LockTimeouts, m.ConcurrencyRetry,
		m.PaymentsAttempted, m.PoliciesBound,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordCommand records one command dispatch.
func (m *Metrics) RecordCommand(name string, took time.Duration, err error) {
	m.CommandsTotal.WithLabelValues(name, statusLabel(err)).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(took.Seconds())
}

// RecordQuery records one query dispatch.
func (m *Metrics) RecordQuery(name string, took time.Duration, err error) {
	m.QueriesTotal.WithLabelValues(name, statusLabel(err)).Inc()
	m.QueryDuration.WithLabelValues(name).Observe(took.Seconds())
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, took time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// RecordPayment records one gateway attempt outcome.
func (m *Metrics) RecordPayment(success bool) {
	outcome := "declined"
	if success {
		outcome = "approved"
	}
	m.PaymentsAttempted.WithLabelValues(outcome).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LookupBuckets suits user store round trips, from 1ms to 2.5s.
var LookupBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// AuthenticationsTotal counts pipeline outcomes by final state and reason.
	AuthenticationsTotal *prometheus.CounterVec
	// AuthorizationsTotal counts policy decisions.
	AuthorizationsTotal *prometheus.CounterVec
	// LookupDuration records identity lookup latency in seconds.
	LookupDuration prometheus.Histogram
	// LoginsTotal counts login attempts by result.
	LoginsTotal *prometheus.CounterVec
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration records HTTP request duration in seconds.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors in a fresh registry,
// alongside the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhs_authentications_total",
				Help: "Authentication pipeline outcomes",
			},
			[]string{"state", "reason"},
		),
		AuthorizationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhs_authorizations_total",
				Help: "Route policy decisions",
			},
			[]string{"decision"},
		),
		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fhs_identity_lookup_duration_seconds",
				Help:    "Identity lookup latency",
				Buckets: LookupBuckets,
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhs_logins_total",
				Help: "Login attempts",
			},
			[]string{"result"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhs_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fhs_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthenticationsTotal,
		m.AuthorizationsTotal,
		m.LookupDuration,
		m.LoginsTotal,
		m.RequestsTotal,
		m.RequestDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAuthentication counts a finished pipeline run
func (m *Metrics) RecordAuthentication(state, reason string) {
	if m == nil {
		return
	}
	m.AuthenticationsTotal.WithLabelValues(state, reason).Inc()
}

// RecordAuthorization counts a policy decision
func (m *Metrics) RecordAuthorization(decision string) {
	if m == nil {
		return
	}
	m.AuthorizationsTotal.WithLabelValues(decision).Inc()
}

// ObserveLookup records how long an identity lookup took
func (m *Metrics) ObserveLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(d.Seconds())
}

// RecordLogin counts a login attempt; result is "success", "rejected" or "error"
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

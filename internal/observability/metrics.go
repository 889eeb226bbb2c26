// Package observability exposes the Prometheus collectors of the HTTP server.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics gathers the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rejections      *prometheus.CounterVec
	findings        *prometheus.CounterVec
	postings        *prometheus.CounterVec
	postedRows      *prometheus.CounterVec
}

// NewMetrics initialises the registry with HTTP, reconciliation and ledger collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_reconciliation_rejections_total",
		Help: "Documents rejected because submitted figures did not reconcile.",
	}, []string{"document"})
	findings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_reconciliation_findings_total",
		Help: "Findings raised by rejected documents.",
	}, []string{"document"})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_postings_total",
		Help: "Balanced operations written to the trial balance.",
	}, []string{"action"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_rows_total",
		Help: "Trial balance rows written.",
	}, []string{"action"})
	registry.MustRegister(requests, duration, rejections, findings, postings, rows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		rejections:      rejections,
		findings:        findings,
		postings:        postings,
		postedRows:      rows,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRejection counts a rejected document and its findings.
func (m *Metrics) ObserveRejection(document string, findings int) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(document).Inc()
	m.findings.WithLabelValues(document).Add(float64(findings))
}

// ObservePosting counts a committed ledger posting.
func (m *Metrics) ObservePosting(action string, rows int) {
	if m == nil {
		return
	}
	m.postings.WithLabelValues(action).Inc()
	m.postedRows.WithLabelValues(action).Add(float64(rows))
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

// Package observability exposes the gateway's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	GuardDecisionsTotal *prometheus.CounterVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	ForcedLogoutsTotal      prometheus.Counter

	UsageIncrementsTotal *prometheus.CounterVec
	UsageResetsTotal     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practice_gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "practice_gateway_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practice_gateway_guard_decisions_total",
				Help: "Route guard decisions by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practice_gateway_upstream_requests_total",
				Help: "Requests sent to backend services",
			},
			[]string{"service", "status"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "practice_gateway_upstream_request_duration_seconds",
				Help:    "Backend service round trip in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service"},
		),
		ForcedLogoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "practice_gateway_forced_logouts_total",
				Help: "Sessions ended because a backend service rejected their credential",
			},
		),
		UsageIncrementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practice_gateway_usage_increments_total",
				Help: "Usage counter increments by metric",
			},
			[]string{"metric"},
		),
		UsageResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "practice_gateway_usage_resets_total",
				Help: "Usage counter resets by period",
			},
			[]string{"period"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GuardDecisionsTotal,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.ForcedLogoutsTotal,
		m.UsageIncrementsTotal,
		m.UsageResetsTotal,
	)

	return m
}

func (m *Metrics) RecordGuardDecision(outcome string) {
	m.GuardDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstream takes status 0 for requests that never got a response.
func (m *Metrics) RecordUpstream(service string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequestsTotal.WithLabelValues(service, label).Inc()
	m.UpstreamRequestDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordForcedLogout() {
	m.ForcedLogoutsTotal.Inc()
}

func (m *Metrics) RecordUsageIncrement(metric string) {
	m.UsageIncrementsTotal.WithLabelValues(metric).Inc()
}

func (m *Metrics) RecordUsageReset(period string) {
	m.UsageResetsTotal.WithLabelValues(period).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming proxied responses working.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetricsMiddleware labels requests by their chi route pattern so
// path parameters do not explode cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	remotePages     *prometheus.CounterVec
	remoteRecords   *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	remotePartial   *prometheus.CounterVec
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_remote_pages_total",
		Help: "Record store page reads by collection and outcome.",
	}, []string{"collection", "outcome"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_remote_records_total",
		Help: "Records read from the record store by collection.",
	}, []string{"collection"})
	pageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_remote_page_duration_seconds",
		Help:    "Record store page read latency by collection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	partial := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_remote_partial_reads_total",
		Help: "Collection reads that stopped before the last page.",
	}, []string{"collection"})
	registry.MustRegister(requests, duration, pages, records, pageDuration, partial)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		remotePages:     pages,
		remoteRecords:   records,
		remoteDuration:  pageDuration,
		remotePartial:   partial,
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

// Middleware records metrics for every HTTP request.
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

// ObservePage records one record store page read. status is zero when the
// request never produced a response.
func (m *Metrics) ObservePage(collection string, status, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.remotePages.WithLabelValues(collection, pageOutcome(status)).Inc()
	if records > 0 {
		m.remoteRecords.WithLabelValues(collection).Add(float64(records))
	}
	m.remoteDuration.WithLabelValues(collection).Observe(elapsed.Seconds())
}

// ObservePartial records a collection read that stopped early.
func (m *Metrics) ObservePartial(collection string) {
	if m == nil {
		return
	}
	m.remotePartial.WithLabelValues(collection).Inc()
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

func pageOutcome(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 200 && status < 300:
		return "ok"
	default:
		return strconv.Itoa(status)
	}
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

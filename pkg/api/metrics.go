package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/shortlinks/pkg/shortener"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API and the engine behind it
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Engine operation metrics
	shortenTotal    *prometheus.CounterVec
	shortenDuration prometheus.Histogram
	resolveTotal    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	linksTotal      prometheus.Gauge
	idsRemaining    prometheus.Gauge
	orphansTotal    prometheus.Gauge
	segmentsTotal   prometheus.Gauge
	highWatermark   prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

var opBuckets = []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .0025, .005, .01}

// NewMetrics creates all Prometheus metrics and registers them with reg.
// A nil reg leaves the metrics unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP request metrics
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinks_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortlinks_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shortlinks_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		shortenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinks_shorten_total",
				Help: "Shorten calls by outcome",
			},
			[]string{"outcome"},
		),

		shortenDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shortlinks_shorten_duration_seconds",
				Help:    "Engine time spent in shorten",
				Buckets: opBuckets,
			},
		),

		resolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinks_resolve_total",
				Help: "Resolve calls by result",
			},
			[]string{"result"},
		),

		resolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shortlinks_resolve_duration_seconds",
				Help:    "Engine time spent in resolve",
				Buckets: opBuckets,
			},
		),

		linksTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlinks_links",
				Help: "Distinct urls held in the reverse index",
			},
		),

		idsRemaining: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlinks_ids_remaining",
				Help: "Identifiers left in the id space",
			},
		),

		orphansTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlinks_orphaned_ids",
				Help: "Forward entries left behind by lost shorten races",
			},
		),

		segmentsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlinks_forward_segments",
				Help: "Materialized forward index segments",
			},
		),

		highWatermark: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlinks_forward_high_watermark",
				Help: "Highest id written to the forward index, -1 when empty",
			},
		),

		// Authentication metrics
		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinks_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		// Health check metrics
		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinks_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordShorten implements shortener.Recorder
func (m *Metrics) RecordShorten(outcome shortener.Outcome, duration time.Duration) {
	m.shortenTotal.WithLabelValues(string(outcome)).Inc()
	m.shortenDuration.Observe(duration.Seconds())
}

// RecordResolve implements shortener.Recorder
func (m *Metrics) RecordResolve(found bool, duration time.Duration) {
	result := "found"
	if !found {
		result = "not_found"
	}
	m.resolveTotal.WithLabelValues(result).Inc()
	m.resolveDuration.Observe(duration.Seconds())
}

// UpdateEngineStats copies an engine snapshot into the gauges
func (m *Metrics) UpdateEngineStats(stats shortener.Stats) {
	m.linksTotal.Set(float64(stats.Links))
	m.idsRemaining.Set(float64(stats.Remaining))
	m.orphansTotal.Set(float64(stats.Orphaned))
	m.segmentsTotal.Set(float64(stats.Forward.SegmentsMaterialized))
	if stats.Forward.Empty {
		m.highWatermark.Set(-1)
	} else {
		m.highWatermark.Set(float64(stats.Forward.HighWatermark))
	}
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

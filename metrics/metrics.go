package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Identity resolution outcomes.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeInvalid       = "invalid"
	OutcomeExpired       = "expired"
	OutcomeUnknownUser   = "unknown_user"
	OutcomeLookupError   = "lookup_error"
)

// Metrics groups the server's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	inFlight          prometheus.Gauge
	requests          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	identities        *prometheus.CounterVec
	assetReplacements *prometheus.CounterVec
	cleanupFailures   prometheus.Counter
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		identities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "Request identity resolutions by outcome.",
		}, []string{"outcome"}),
		assetReplacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_replacements_total",
			Help: "Community asset replacements by kind and outcome.",
		}, []string{"kind", "outcome"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_cleanup_failures_total",
			Help: "Asset files that could not be removed after a replacement.",
		}),
	}
	reg.MustRegister(m.inFlight, m.requests, m.duration, m.identities, m.assetReplacements, m.cleanupFailures)
	return m
}

func (m *Metrics) IdentityResolved(outcome string) {
	if m == nil {
		return
	}
	m.identities.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AssetReplaced(kind, outcome string) {
	if m == nil {
		return
	}
	m.assetReplacements.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) CleanupFailed() {
	if m == nil {
		return
	}
	m.cleanupFailures.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument records request count and latency per route template.
func (m *Metrics) Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.inFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.duration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.inFlight.Dec()
	}
}

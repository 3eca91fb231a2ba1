package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IdentityResolved(OutcomeExpired)
	m.IdentityResolved(OutcomeExpired)
	m.AssetReplaced("banner", "ok")
	m.CleanupFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.identities.WithLabelValues(OutcomeExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assetReplacements.WithLabelValues("banner", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanupFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IdentityResolved(OutcomeAnonymous)
		m.AssetReplaced("image", "ok")
		m.CleanupFailed()
	})

	r := gin.New()
	r.Use(m.Instrument())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInstrumentAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Instrument())
	r.GET("/api/subs/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subs/science", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/subs/:name", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/api/subs/:name",status="404"} 1`), body)
}

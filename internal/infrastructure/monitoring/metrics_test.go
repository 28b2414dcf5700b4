package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveQuery("llm", "traces", true, 20*time.Millisecond)
	m.ObserveQuery("llm", "traces", false, time.Second)
	m.ObservePushEvent("llm", "new", "merged")
	m.ObservePushEvent("llm", "new", "merged")
	m.IncReconnect("llm")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("llm", "traces", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("llm", "traces", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PushEvents.WithLabelValues("llm", "new", "merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconnectsTotal.WithLabelValues("llm")))
}

func TestConnectionStateIsExclusive(t *testing.T) {
	m := NewMetrics()

	m.SetConnectionState("llm", "connecting")
	m.SetConnectionState("llm", "connected")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("llm", "connected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("llm", "connecting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("llm", "disconnected")))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.IncReconnect("llm")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReconnectsTotal.WithLabelValues("llm")))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "GET", "/tracing/:kind/statistics").Stop(200)
	NewTimer(m, "GET", "/tracing/:kind/statistics").Stop(0)
	var nilTimer *Timer
	nilTimer.Stop(200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APICalls.WithLabelValues("GET", "/tracing/:kind/statistics", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APICalls.WithLabelValues("GET", "/tracing/:kind/statistics", "error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/traces/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/traces/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/traces/:id", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "console_http_requests_total")
	assert.Contains(t, body, "console_uptime_seconds")
}

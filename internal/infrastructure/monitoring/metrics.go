package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var connectionStates = []string{"disconnected", "connecting", "connected"}

// Metrics holds all Prometheus metrics of the console
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	PushEvents      *prometheus.CounterVec
	ConnectionState *prometheus.GaugeVec
	ReconnectsTotal *prometheus.CounterVec

	// Console API client metrics
	APICalls    *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	// Dashboard HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a collector on its own registry, so several engines or
// tests never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_tracing_queries_total",
				Help: "Total number of trace queries by kind, operation and result",
			},
			[]string{"kind", "op", "result"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_tracing_query_duration_seconds",
				Help:    "Trace query duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind", "op"},
		),
		PushEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_tracing_push_events_total",
				Help: "Push events received by type and merge outcome",
			},
			[]string{"kind", "type", "outcome"},
		),
		ConnectionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_tracing_connection_state",
				Help: "1 for the current push channel state, 0 otherwise",
			},
			[]string{"kind", "state"},
		),
		ReconnectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_tracing_reconnects_total",
				Help: "Automatic push channel reconnect attempts",
			},
			[]string{"kind"},
		),

		APICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_api_calls_total",
				Help: "Console API calls by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_api_call_duration_seconds",
				Help:    "Console API call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of dashboard HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "Dashboard HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_response_size_bytes",
				Help:    "Dashboard HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "console_uptime_seconds",
			Help: "Console uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry holding every console metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveQuery records one paged, statistics or detail query.
func (m *Metrics) ObserveQuery(kind, op string, ok bool, duration time.Duration) {
	m.QueriesTotal.WithLabelValues(kind, op, result(ok)).Inc()
	m.QueryDuration.WithLabelValues(kind, op).Observe(duration.Seconds())
}

// ObservePushEvent records a push event and how it was merged.
func (m *Metrics) ObservePushEvent(kind, eventType, outcome string) {
	m.PushEvents.WithLabelValues(kind, eventType, outcome).Inc()
}

// SetConnectionState marks state as the current push channel state of kind.
func (m *Metrics) SetConnectionState(kind, state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.ConnectionState.WithLabelValues(kind, s).Set(v)
	}
}

// IncReconnect counts an automatic reconnect attempt.
func (m *Metrics) IncReconnect(kind string) {
	m.ReconnectsTotal.WithLabelValues(kind).Inc()
}

// RecordAPICall records a console API call. Status 0 means no response.
func (m *Metrics) RecordAPICall(method, route string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APICalls.WithLabelValues(method, route, code).Inc()
	m.APIDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordHTTPRequest records a dashboard HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Package metrics holds the Prometheus collectors for the roomshare frontend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Backend API calls.
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Session lifecycle.
	SessionBootstrapsTotal *prometheus.CounterVec
	LogoutsTotal           *prometheus.CounterVec

	// Throttling.
	RateLimitRejectionsTotal *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomshare_backend_requests_total",
			Help: "Total number of calls made to the expense backend.",
		}, []string{"operation", "status_code"}),

		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomshare_backend_request_duration_seconds",
			Help:    "Latency of calls made to the expense backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		SessionBootstrapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomshare_session_bootstraps_total",
			Help: "Session bootstraps by resulting state.",
		}, []string{"outcome"}),

		LogoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomshare_logouts_total",
			Help: "Logouts by reason.",
		}, []string{"reason"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomshare_ratelimit_rejections_total",
			Help: "Requests rejected by the form throttles.",
		}, []string{"form"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomshare_server_start_time_seconds",
			Help: "Unix time the process started.",
		}),
	}

	reg.MustRegister(
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.SessionBootstrapsTotal,
		m.LogoutsTotal,
		m.RateLimitRejectionsTotal,
		m.ServerStartTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	return m
}

// ObserveBackend records one backend call. status is 0 for transport errors.
// Safe on a nil receiver.
func (m *Metrics) ObserveBackend(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.BackendRequestsTotal.WithLabelValues(operation, code).Inc()
	m.BackendRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Bootstrap counts a finished session bootstrap. Safe on a nil receiver.
func (m *Metrics) Bootstrap(outcome string) {
	if m == nil {
		return
	}
	m.SessionBootstrapsTotal.WithLabelValues(outcome).Inc()
}

// Logout counts a logout. Safe on a nil receiver.
func (m *Metrics) Logout(reason string) {
	if m == nil {
		return
	}
	m.LogoutsTotal.WithLabelValues(reason).Inc()
}

// RateLimited counts a throttled form submission. Safe on a nil receiver.
func (m *Metrics) RateLimited(form string) {
	if m == nil {
		return
	}
	m.RateLimitRejectionsTotal.WithLabelValues(form).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package httpx

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// routerMetrics holds the collectors the router reports to. A nil
// *routerMetrics records nothing.
type routerMetrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
	spaceWrites *prometheus.CounterVec
	streams     *prometheus.GaugeVec
}

func newRouterMetrics(reg prometheus.Registerer) *routerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "peoplemover", Subsystem: "api", Name: name, Help: help}
	}
	return &routerMetrics{
		requests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("http_requests_total", "HTTP requests by route and status.")),
			[]string{"method", "route", "status"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "peoplemover",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP handler latency.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"})),
		rateLimited: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("rate_limited_total", "Requests rejected by the rate limiter.")),
			[]string{"route", "key"})),
		spaceWrites: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("space_writes_total", "Successful mutations inside spaces by member role.")),
			[]string{"method", "role"})),
		streams: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts(opts("event_streams", "Open space event streams.")),
			[]string{"transport"})),
	}
}

// register adds c to reg, reusing the collector already registered under the
// same descriptor so several routers can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *routerMetrics) observeRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *routerMetrics) rateLimitHit(route, key string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route, key).Inc()
}

func (m *routerMetrics) spaceWrite(method string, role string) {
	if m == nil {
		return
	}
	m.spaceWrites.WithLabelValues(method, role).Inc()
}

// streamOpened counts an open stream until the returned func runs.
func (m *routerMetrics) streamOpened(transport string) func() {
	if m == nil {
		return func() {}
	}
	gauge := m.streams.WithLabelValues(transport)
	gauge.Inc()
	return gauge.Dec
}

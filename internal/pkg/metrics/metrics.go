package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunchpick",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunchpick",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Recommendation pipeline
	RecommendResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "recommend",
		Name:      "results_total",
		Help:      "Recommendations by terminal state and cause",
	}, []string{"state", "cause"})

	GeocodeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "recommend",
		Name:      "geocode_fallbacks_total",
		Help:      "Requests that used the fallback region after a geocoding failure",
	})

	CandidatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "recommend",
		Name:      "candidates_dropped_total",
		Help:      "Candidates rejected during validation",
	}, []string{"provider"})

	// Upstream providers
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Upstream provider calls by outcome",
	}, []string{"provider", "op", "outcome"})

	ProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunchpick",
		Subsystem: "provider",
		Name:      "call_duration_seconds",
		Help:      "Upstream provider call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider", "op"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lunchpick",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunchpick",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Recommendation events handed to the broker",
	}, []string{"result"})
)

// ObserveProviderCall records the latency and outcome of one upstream call.
// outcome is "ok" or an upstream failure reason.
func ObserveProviderCall(provider, op, outcome string, d time.Duration) {
	ProviderCalls.WithLabelValues(provider, op, outcome).Inc()
	ProviderCallDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

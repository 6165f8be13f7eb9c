package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks request counts and latency by route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, latency)
	return &HTTPMetrics{requests: requests, latency: latency}
}

// ObserveRequest records one completed request. Route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (h *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records the gateway's calls to the storefront API.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream API requests by endpoint and status code.",
	}, []string{"endpoint", "status"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_refresh_retries_total",
		Help: "Requests retried after a token refresh.",
	}, []string{"endpoint"})
	reg.MustRegister(duration, requests, retries)
	return &UpstreamMetrics{
		duration: duration,
		requests: requests,
		retries:  retries,
	}
}

// ObserveRequest records one upstream call.
func (u *UpstreamMetrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	label := normalizeLabel(endpoint)
	u.duration.WithLabelValues(label).Observe(duration.Seconds())
	u.requests.WithLabelValues(label, strconv.Itoa(status)).Inc()
}

// IncRefreshRetry counts a request that was replayed after refreshing
// the access token.
func (u *UpstreamMetrics) IncRefreshRetry(endpoint string) {
	if u == nil || u.retries == nil {
		return
	}
	u.retries.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

func normalizeLabel(endpoint string) string {
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}

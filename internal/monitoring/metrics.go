package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generic HTTP-layer Prometheus metrics, shared across every endpoint
// irmaseal-server exposes. Codec-specific counters (seal/unseal
// operation counts, bytes, MAC validity) live in internal/metrics
// instead, recorded through irmaseal.MetricsRecorder.
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irmaseal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irmaseal_http_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ServerInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "irmaseal_server_info",
			Help: "Server build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "irmaseal_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// SetServerInfo sets server build information.
func SetServerInfo(version, commit, buildTime string) {
	ServerInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

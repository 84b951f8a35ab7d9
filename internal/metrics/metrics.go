// Package metrics implements irmaseal.MetricsRecorder on top of
// Prometheus, following the promauto registration style of
// internal/monitoring/metrics.go.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sealOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irmaseal_seal_operations_total",
			Help: "Total number of Seal operations, by outcome",
		},
		[]string{"status"},
	)

	sealDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irmaseal_seal_duration_seconds",
			Help:    "Seal operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	sealBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irmaseal_seal_bytes_total",
			Help: "Total plaintext bytes sealed",
		},
	)

	unsealOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irmaseal_unseal_operations_total",
			Help: "Total number of Unseal operations, by outcome and MAC validity",
		},
		[]string{"status", "mac_valid"},
	)

	unsealDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irmaseal_unseal_duration_seconds",
			Help:    "Unseal operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	unsealBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irmaseal_unseal_bytes_total",
			Help: "Total plaintext bytes produced by Unseal",
		},
	)
)

// Recorder implements irmaseal.MetricsRecorder by publishing to the
// package's Prometheus collectors.
type Recorder struct{}

// NewRecorder returns a Prometheus-backed irmaseal.MetricsRecorder.
func NewRecorder() Recorder {
	return Recorder{}
}

func (Recorder) SealCompleted(bytesIn int64, duration time.Duration, err error) {
	status := statusLabel(err)
	sealOperationsTotal.WithLabelValues(status).Inc()
	sealDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		sealBytesTotal.Add(float64(bytesIn))
	}
}

func (Recorder) UnsealCompleted(bytesOut int64, duration time.Duration, macValid bool, err error) {
	status := statusLabel(err)
	unsealOperationsTotal.WithLabelValues(status, boolLabel(macValid)).Inc()
	unsealDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		unsealBytesTotal.Add(float64(bytesOut))
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

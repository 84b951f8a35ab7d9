package irmaseal

import "time"

// MetricsRecorder lets a caller observe Seal/Unseal operations without
// this package importing a metrics library directly, mirroring how the
// teacher codebase threads a *logrus.Entry and manager types into its
// operations rather than reaching for globals. internal/metrics ships a
// Prometheus-backed implementation; tests use noopMetrics.
type MetricsRecorder interface {
	SealCompleted(bytesIn int64, duration time.Duration, err error)
	UnsealCompleted(bytesOut int64, duration time.Duration, macValid bool, err error)
}

type noopMetrics struct{}

func (noopMetrics) SealCompleted(int64, time.Duration, error) {}
func (noopMetrics) UnsealCompleted(int64, time.Duration, bool, error) {}

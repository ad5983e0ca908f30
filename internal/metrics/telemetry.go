// Package metrics names and emits the proxyscout telemetry series. Every
// helper is a no-op until observability.InitMetrics has run.
package metrics

import (
	"time"

	"github.com/proxyscout/proxyscout/internal/observability"
)

func counter(name string, value float64, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, value, labels)
	}
}

func gauge(name string, value float64, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, labels)
	}
}

func histogram(name string, duration time.Duration, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, duration, labels)
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func boolLabel(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

package metrics

import "time"

// Server lifecycle and health probe series.
const (
	HealthCheckTotal    = "health_check_total"
	HealthCheckDuration = "health_check_duration_ms"
	ServerStartTime     = "server_start_time_seconds"
)

// RecordHealthCheck records one named checker run and its result
// (healthy, unhealthy or timeout).
func RecordHealthCheck(check string, status string, duration time.Duration) {
	counter(HealthCheckTotal, 1, map[string]string{"check": check, "status": status})
	histogram(HealthCheckDuration, duration, map[string]string{"check": check})
}

// SetServerStartTime publishes when serve started accepting requests.
func SetServerStartTime(started time.Time) {
	gauge(ServerStartTime, float64(started.Unix()), nil)
}

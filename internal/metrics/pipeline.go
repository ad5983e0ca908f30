package metrics

import "time"

// Pipeline series.
const (
	PipelineFetchTotal       = "pipeline_fetch_total"
	PipelineVerifyTotal      = "pipeline_verify_total"
	PipelineUpstreamDuration = "pipeline_upstream_duration_ms"
	PipelineWorkingLast      = "pipeline_working_last"
)

// RecordUpstream records one upstream call by operation and outcome.
func RecordUpstream(operation string, outcome string, duration time.Duration) {
	histogram(PipelineUpstreamDuration, duration, map[string]string{
		"operation": operation,
		"outcome":   outcome,
	})
}

// RecordFetch records a candidate fetch and whether it came back empty.
func RecordFetch(success bool, candidates int) {
	counter(PipelineFetchTotal, 1, map[string]string{
		"status": statusLabel(success),
		"empty":  boolLabel(success && candidates == 0),
	})
}

// RecordVerify counts submitted candidates per batch outcome and publishes
// the working count of the last successful batch.
func RecordVerify(success bool, submitted int, working int) {
	counter(PipelineVerifyTotal, float64(submitted), map[string]string{
		"status": statusLabel(success),
	})
	if success {
		gauge(PipelineWorkingLast, float64(working), nil)
	}
}

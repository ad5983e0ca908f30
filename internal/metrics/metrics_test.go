package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/observability"
)

func useFakeTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	previous := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = previous })

	return collector
}

func TestPipelineSeries(t *testing.T) {
	collector := useFakeTelemetry(t)

	RecordFetch(true, 0)
	RecordVerify(true, 5, 2)
	gauges := collector.CountMetricsByName(PipelineWorkingLast)
	RecordVerify(false, 5, 0)
	RecordUpstream("verify candidates", "ok", 120*time.Millisecond)

	assert.Greater(t, collector.CountMetricsByName(PipelineFetchTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(PipelineVerifyTotal), 0)
	assert.Greater(t, gauges, 0)
	assert.Equal(t, gauges, collector.CountMetricsByName(PipelineWorkingLast), "failed batches leave the gauge alone")
	assert.Greater(t, collector.CountMetricsByName(PipelineUpstreamDuration), 0)
}

func TestServerAndErrorSeries(t *testing.T) {
	collector := useFakeTelemetry(t)

	RecordHealthCheck("rate_limit_store", "healthy", time.Millisecond)
	SetServerStartTime(time.Unix(1_700_000_000, 0))
	RecordError("INVALID_INPUT", 400)
	RecordErrorByEndpoint("/v1/proxies", "INVALID_INPUT")
	RecordPanic()

	for _, name := range []string{HealthCheckTotal, HealthCheckDuration, ServerStartTime, ErrorsTotalName, ErrorsByEndpointName, PanicsTotalName} {
		assert.Greater(t, collector.CountMetricsByName(name), 0, name)
	}
}

func TestHelpersAreNoOpsWithoutTelemetry(t *testing.T) {
	previous := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = previous })

	assert.NotPanics(t, func() {
		RecordFetch(false, 0)
		RecordVerify(true, 1, 1)
		RecordHealthCheck("x", "timeout", time.Second)
		RecordPanic()
	})
}

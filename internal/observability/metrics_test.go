package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9464")
	require.NoError(t, err)
	assert.Equal(t, 9464, port)

	_, err = resolvePort("no-port")
	require.Error(t, err)
}

func TestShutdownMetricsWithoutExporter(t *testing.T) {
	PrometheusExporter = nil
	TelemetrySystem = nil

	require.NoError(t, ShutdownMetrics())
	assert.Zero(t, GetMetricsPort())
}

func TestInitAndShutdownMetrics(t *testing.T) {
	if err := InitMetrics("proxyscout", 0, "proxyscout_test"); err != nil {
		t.Skipf("metrics exporter could not bind: %v", err)
	}
	require.NotNil(t, TelemetrySystem)
	require.NotNil(t, PrometheusExporter)
	assert.NotZero(t, GetMetricsPort())

	require.NoError(t, ShutdownMetrics())
	assert.Nil(t, TelemetrySystem)
	assert.Nil(t, PrometheusExporter)
}

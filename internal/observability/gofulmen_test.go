package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggers(t *testing.T) {
	t.Cleanup(func() {
		CLILogger = nil
		ServerLogger = nil
	})

	InitCLILogger("proxyscout-test", true)
	require.NotNil(t, CLILogger)
	CLILogger.Debug("cli logger ready", zap.String("mode", "verbose"))
	require.Same(t, CLILogger, PipelineLogger())

	InitServerLogger("proxyscout-test", "debug", "structured")
	require.NotNil(t, ServerLogger)
	ServerLogger.Info("server logger ready", zap.Int("port", 8080))
	require.Same(t, ServerLogger, PipelineLogger())

	InitServerLogger("proxyscout-test", "info", "simple")
	require.NotNil(t, ServerLogger)
}

func TestServerLoggerConfigProfiles(t *testing.T) {
	structured := serverLoggerConfig("svc", "warn", "")
	require.Equal(t, logging.ProfileStructured, structured.Profile)
	require.Equal(t, "WARN", structured.DefaultLevel)
	require.Len(t, structured.Middleware, 1)

	simple := serverLoggerConfig("svc", "bogus", "SIMPLE")
	require.Equal(t, logging.ProfileSimple, simple.Profile)
	require.Equal(t, "INFO", simple.DefaultLevel)
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		" DEBUG ": "DEBUG",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
	}
	for input, want := range cases {
		require.Equal(t, want, parseLogLevel(input), input)
	}
}

func TestEmbeddedCrucibleVersion(t *testing.T) {
	version := crucible.GetVersion()
	require.NotEmpty(t, version.Gofulmen)
	require.NotEmpty(t, version.Crucible)
	require.NotEmpty(t, crucible.GetVersionString())
}

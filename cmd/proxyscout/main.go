package main

import (
	"github.com/proxyscout/proxyscout/internal/cmd"
	"github.com/proxyscout/proxyscout/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-01-01"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		// Commands return commandError with the semantic exit code; anything
		// else falls back to ExitFailure.
		cmd.ExitWithCodeStderr(cmd.ExitCodeOf(err), "Command execution failed", err)
	}
}

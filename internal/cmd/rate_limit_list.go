package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/proxyscout/proxyscout/internal/core/engine"
	"github.com/proxyscout/proxyscout/internal/core/store"
	"github.com/proxyscout/proxyscout/internal/output"
)

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored upstream rate limit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd, output.FormatTable, output.FormatJSON)
		if err != nil {
			return err
		}

		prefix, _ := cmd.Flags().GetString("prefix")
		query := store.RateLimitQuery{Prefix: strings.TrimSpace(prefix)}
		if query.Prefix == "" {
			query.All = true
		}

		db, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		limiter := &engine.RateLimiter{}
		limiter.ApplyOverrides(cfg.RateLimitOverrides())
		limiter.ApplySafetyMargin(cfg.RateLimitMargin)

		rendered, err := renderRateLimitEntries(format, entries, limiter, time.Now().UTC())
		if err != nil {
			return err
		}
		return writeRendered(cmd, "rate-limit.list", format, rendered)
	},
}

func renderRateLimitEntries(format output.Format, entries []store.RateLimitEntry, limiter *engine.RateLimiter, now time.Time) (string, error) {
	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	lines := []string{"Rate Limits", ""}
	if len(entries) == 0 {
		lines = append(lines, "(no stored rate limit state)")
		return ascii.DrawBox(strings.Join(lines, "\n"), 0), nil
	}

	for _, entry := range entries {
		limit := limiter.Limit(entry.Endpoint)
		backoff := "-"
		if entry.State.InBackoff(now) {
			backoff = entry.State.BackoffUntil.UTC().Format(time.RFC3339)
		}
		lines = append(lines, fmt.Sprintf("%s: %d/%d per %s, backoff_until=%s",
			entry.Endpoint, entry.State.RequestCount, limit.RequestsPerWindow, limit.WindowDuration, backoff))
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0), nil
}

func init() {
	addOutputFlags(rateLimitListCmd, "table, json")
	rateLimitListCmd.Flags().String("prefix", "", "Only list hosts with this prefix")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/core/engine"
	"github.com/proxyscout/proxyscout/internal/observability"
	"github.com/proxyscout/proxyscout/internal/output"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch, sample and verify random public proxies",
	Long: fmt.Sprintf(`Fetch the public candidate list, pick --count random candidates
(%d-%d) and verify them in one batch. Only working proxies are listed.

Use --output list to get bare ip:port lines for other tools.`, engine.MinCount, engine.MaxCount),
	Example: "  proxyscout scrape --count 10 --output list --out proxies.txt",
	Args:    cobra.NoArgs,
	RunE:    runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().IntP("count", "n", 0, fmt.Sprintf("How many candidates to verify (%d-%d, default batch.default_count)", engine.MinCount, engine.MaxCount))
	addOutputFlags(scrapeCmd, "table, json, markdown, list")
}

func runScrape(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	count := cfg.Batch.DefaultCount
	if cmd.Flags().Changed("count") {
		count, err = cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}
	}
	// Reject before touching the network or the store.
	if err := engine.ValidateCount(count); err != nil {
		return pipelineError(ctx, err)
	}

	deps, err := buildPipeline(ctx, cfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer deps.Close() // nolint:errcheck // best-effort cleanup

	report, err := deps.Pipeline.CheckBatch(ctx, count)
	if err != nil {
		return pipelineError(ctx, err)
	}

	observability.CLILogger.Debug("Scrape finished",
		zap.String("run_id", report.RunID),
		zap.String("status", string(report.Status)),
		zap.Int("working", len(report.Working)))

	rendered, err := output.NewFormatter(format).FormatReport(report)
	if err != nil {
		return err
	}
	if format == output.FormatList && rendered == "" {
		observability.CLILogger.Info(output.EmptyMessage(report))
	}
	return writeRendered(cmd, "scrape-"+report.RunID, format, rendered)
}

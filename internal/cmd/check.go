package cmd

import (
	"github.com/spf13/cobra"

	"github.com/proxyscout/proxyscout/internal/observability"
	"github.com/proxyscout/proxyscout/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check <ip:port>",
	Short: "Check whether a single proxy is working",
	Long: `Submit one ip:port to the online checking service and show whether it
works, its protocol type and country.`,
	Example: "  proxyscout check 203.0.113.7:8080 --output markdown",
	Args:    cobra.ExactArgs(1),
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addOutputFlags(checkCmd, "table, json, markdown, list")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	deps, err := buildPipeline(ctx, cfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer deps.Close() // nolint:errcheck // best-effort cleanup

	record, err := deps.Pipeline.CheckOne(ctx, args[0])
	if err != nil {
		return pipelineError(ctx, err)
	}

	rendered, err := output.NewFormatter(format).FormatRecord(record)
	if err != nil {
		return err
	}
	return writeRendered(cmd, "check-"+record.Address(), format, rendered)
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the dashboard summary and notification badge",
		Example: `  iatfmon summary --file protocols.json
  iatfmon summary --now 2024-01-08 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			src, err := cliCtx.Source(file)
			if err != nil {
				return err
			}

			svc := cliCtx.Service(src)
			now := cliCtx.CurrentTime()

			dashboard, err := svc.Dashboard(cmd.Context(), now)
			if err != nil {
				return err
			}
			badge, err := svc.Badge(cmd.Context(), now)
			if err != nil {
				return err
			}
			if err := writeTextfile(cliCtx); err != nil {
				return err
			}
			return PrintResult(cmd, summaryResult{Dashboard: dashboard, Badge: badge})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "protocol export (default: source.path)")
	return cmd
}

// writeTextfile exports the collected metrics when a textfile path is set.
func writeTextfile(cliCtx *CLIContext) error {
	if cliCtx.Collector == nil || cliCtx.Config.Metrics.TextfilePath == "" {
		return nil
	}
	return cliCtx.Collector.WriteTextfile(cliCtx.Config.Metrics.TextfilePath)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
)

// metricsCmd displays the formal definitions of all report metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display definitions for all report metrics and flags",
	Long: `Show the formal definitions of every metric the report computes,
plus the active anomaly detection parameters.

Provides complete transparency into how reports are produced, including:
- Per-author metric definitions (churn, latency, cycle time, CI failure rate)
- DORA four-keys definitions
- The rolling-baseline z-score rule and the active thresholds

No pipeline run is performed - this is purely informational.

Examples:
  # Show definitions with default thresholds
  fika metrics

  # View with thresholds from a config file
  fika metrics --config .fika.yaml`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// No repo is needed to print definitions.
		if len(args) == 0 {
			args = []string{"metrics/info"}
		}
		return sharedSetup(rootCtx, cmd, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetricsInfo(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}

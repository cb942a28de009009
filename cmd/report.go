package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
)

// reportCmd runs the pipeline for one repo and period.
var reportCmd = &cobra.Command{
	Use:   "report [repo]",
	Short: "Compute and print the insight report for one period.",
	Long: `Run the full pipeline for a repository and reporting period.

Normalizes raw events into canonical records, aggregates per-author and
repo-wide metrics, computes DORA four keys, and flags metrics that deviate
from each author's rolling baseline. Completed periods are stored, so
repeating a report replays the stored payload instead of recomputing it.

Metrics per author:
- Commits, churn (lines added + deleted), files touched
- PRs opened and merged
- Review latency and cycle time in hours
- CI failure rate

Examples:
  # Weekly report for the current period
  fika report acme/app

  # Previous month, flagged at a tighter threshold
  fika report acme/app --grain monthly --period previous --z-threshold 1.5

  # Recompute even if a stored report exists
  fika report acme/app --force

  # Export the report to CSV for tracking
  fika report acme/app --output csv --output-file report.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg, iostore.Manager); err != nil {
			contract.LogFatal("Cannot run report", err)
		}
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
)

// seedCmd backfills the store with demo data across several periods.
var seedCmd = &cobra.Command{
	Use:   "seed [repo]",
	Short: "Backfill reports from deterministic sample data.",
	Long: `Generate deterministic sample events and run the pipeline for the
configured period plus its full lookback window, oldest first.

Running oldest first means each newer period sees the older periods as
baseline history, so anomaly flags in the final period are computed
against a realistic rolling baseline. Repeating the command is a no-op
for periods already completed (use --force to recompute).

The generator is seeded, so the same --seed always produces the same
events and therefore the same stored reports.

Examples:
  # Backfill the default lookback window of weekly periods
  fika seed acme/app

  # Nine daily periods ending at the previous day
  fika seed acme/app --grain daily --period previous --lookback 8

  # A different deterministic dataset
  fika seed acme/app --seed 7`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBackfill(rootCtx, cfg, iostore.Manager); err != nil {
			contract.LogFatal("Cannot run seed backfill", err)
		}
	},
}

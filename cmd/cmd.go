// Package cmd defines the command-line interface for fika.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("grain", "g", string(schema.WeeklyGrain), "Reporting grain: daily or weekly or monthly")
	rootCmd.PersistentFlags().StringP("period", "p", "", "Period reference: ISO8601 date, 'current' or 'previous'")
	rootCmd.PersistentFlags().String("week-start", "monday", "Weekday that anchors weekly periods")
	rootCmd.PersistentFlags().String("timezone", "", "IANA timezone for period boundaries (default UTC)")
	rootCmd.PersistentFlags().Int("lookback", contract.DefaultLookbackPeriods, "Number of prior periods used as the anomaly baseline")
	rootCmd.PersistentFlags().Int("min-samples", contract.DefaultMinSamples, "Minimum baseline samples before z-scores are computed")
	rootCmd.PersistentFlags().Float64("z-threshold", contract.DefaultZThreshold, "Absolute z-score at which a metric is flagged")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers for multi-period runs")
	rootCmd.PersistentFlags().Bool("force", false, "Recompute the period even if a completed report is stored")
	rootCmd.PersistentFlags().Int64("seed", contract.DefaultSeed, "Seed for the deterministic sample event generator")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Pipeline store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}

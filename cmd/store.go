package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get store-related config values
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize persistence with the loaded config (no run history for store commands)
	if err := iostore.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeCmd focused on pipeline store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by report commands. This avoids repo validation
// and period parsing for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the durable pipeline store",
	Long: `Manage the durable store that holds stage outputs and completed reports.

Fika persists normalized records, aggregates and finished report payloads
per (repo, grain, period start) key. Interrupted runs resume from the last
completed stage, and completed periods replay without recomputation.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show store statistics and connection info
  clear  - Remove all stored pipeline data

Examples:
  # Check store status
  fika store status

  # Clear the store before re-seeding demo data
  fika store clear`,
}

// storeClearCmd clears the pipeline store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored stage outputs and reports",
	Long: `Delete all persisted pipeline data from the configured backend.

Use this when:
- Sample data was re-seeded with a different seed
- Stored payloads may be stale after a schema change
- Testing pipeline behavior without stored state
- Starting a fresh baseline history

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store table

Examples:
  # Clear SQLite store (default)
  fika store clear

  # Clear MySQL store (set connection string via env variable)
  FIKA_STORE_BACKEND=mysql FIKA_STORE_DB_CONNECT="..." fika store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ClearStore(cfg.StoreBackend, iostore.GetStoreDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeStatusCmd shows pipeline store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the pipeline store.

Displays:
- Backend type and connection status
- Total number of stored entries
- Last and oldest entry timestamps

Use this to:
- Verify the store is connected
- Check which periods already hold completed reports
- Debug resume and replay behavior

Examples:
  # Check store status
  fika store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iostore.Manager.GetPipelineStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iostore.PrintStoreStatus(status)
	},
}

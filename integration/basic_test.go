//go:build basic

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFikaWithSQLite drives the CLI end to end against SQLite databases in
// a temp directory: seed a backfill, replay the report, then inspect both
// stores.
func TestFikaWithSQLite(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.db")
	historyPath := filepath.Join(dir, "history.db")

	// Set environment variables
	_ = os.Setenv("FIKA_STORE_BACKEND", "sqlite")
	_ = os.Setenv("FIKA_STORE_DB_CONNECT", storePath)
	_ = os.Setenv("FIKA_HISTORY_BACKEND", "sqlite")
	_ = os.Setenv("FIKA_HISTORY_DB_CONNECT", historyPath)
	defer func() { _ = os.Unsetenv("FIKA_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("FIKA_STORE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("FIKA_HISTORY_BACKEND") }()
	defer func() { _ = os.Unsetenv("FIKA_HISTORY_DB_CONNECT") }()

	// Run fika history migrate (sets up the run table on a fresh database)
	err := runFikaCommand(t, "history", "migrate")
	require.NoError(t, err)

	// Backfill a small lookback window of weekly periods
	err = runFikaCommand(t, "seed", "acme/app", "--lookback", "4", "--min-samples", "2")
	require.NoError(t, err)

	// Report on the same period; this replays the stored payload
	err = runFikaCommand(t, "report", "acme/app", "--lookback", "4", "--min-samples", "2")
	require.NoError(t, err)

	// Export the report as JSON to a file
	err = runFikaCommand(t, "report", "acme/app", "--lookback", "4", "--min-samples", "2",
		"--output", "json", "--output-file", filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	// Run fika store status
	err = runFikaCommand(t, "store", "status")
	require.NoError(t, err)

	// Run fika history status
	err = runFikaCommand(t, "history", "status")
	require.NoError(t, err)

	// Export run history to Parquet
	err = runFikaCommand(t, "history", "export", "--output-file", filepath.Join(dir, "runs"))
	require.NoError(t, err)

	// The stores hold real data now
	info, err := os.Stat(storePath)
	require.NoError(t, err)
	require.Positive(t, info.Size())
	_, err = os.Stat(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "runs.run_history.parquet"))
	require.NoError(t, err)
}

// TestFikaMetricsAndVersion covers the informational commands.
func TestFikaMetricsAndVersion(t *testing.T) {
	require.NoError(t, runFikaCommand(t, "metrics"))
	require.NoError(t, runFikaCommand(t, "version"))
}

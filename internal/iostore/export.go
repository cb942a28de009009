package iostore

import (
	"errors"
	"fmt"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/parquet"
)

// ExecuteHistoryExport performs the actual export of run history to a Parquet file.
func ExecuteHistoryExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Get the run history store
	store := Manager.GetRunHistoryStore()
	if store == nil {
		return errors.New("run history tracking is disabled")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total pipeline runs: %d\n", status.TotalRuns)

	// Retrieve all run rows
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	// Convert to Parquet format and write
	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".run_history.parquet"
	if err := parquet.WritePipelineRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write run history: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	return nil
}

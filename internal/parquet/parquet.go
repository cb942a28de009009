// Package parquet provides data structures and functions for exporting fika
// run history data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// PipelineRun represents a single pipeline run with metadata.
// This struct maps to the fika_run_history database table.
type PipelineRun struct {
	// RunID is the unique identifier for this pipeline run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run reached a terminal stage (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// Stage is the terminal stage the run reached (DONE or FAILED)
	Stage string `parquet:"stage,snappy"`

	// FlagCount is the number of anomaly flags the run produced
	FlagCount int32 `parquet:"flag_count,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ConvertRunRecords converts database run records to their Parquet form.
func ConvertRunRecords(records []schema.RunRecord) []PipelineRun {
	out := make([]PipelineRun, 0, len(records))
	for _, r := range records {
		out = append(out, PipelineRun{
			RunID:         r.RunID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			Stage:         string(r.Stage),
			FlagCount:     int32(r.FlagCount),
			ConfigParams:  r.ConfigParams,
		})
	}
	return out
}

// WritePipelineRunsParquet writes a slice of PipelineRun structs to a Parquet file.
func WritePipelineRunsParquet(data []PipelineRun, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the PipelineRun struct tags
	writer := parquet.NewGenericWriter[PipelineRun](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

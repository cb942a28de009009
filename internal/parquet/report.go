package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// AuthorPeriodRow is one per-author metric row of a report, flattened for
// columnar export. Nullable metrics keep their null semantics through the
// optional annotation.
type AuthorPeriodRow struct {
	Repo        string    `parquet:"repo,snappy,dict"`
	Author      string    `parquet:"author,snappy,dict"`
	Grain       string    `parquet:"grain,snappy,dict"`
	PeriodStart time.Time `parquet:"period_start,snappy"`

	CommitCount  int32 `parquet:"commit_count,snappy"`
	LinesAdded   int32 `parquet:"lines_added,snappy"`
	LinesDeleted int32 `parquet:"lines_deleted,snappy"`
	FilesTouched int32 `parquet:"files_touched,snappy"`

	PRCount       int32 `parquet:"pr_count,snappy"`
	PRMergedCount int32 `parquet:"pr_merged_count,snappy"`

	MeanReviewLatencyHours *float64 `parquet:"mean_review_latency_hours,optional,snappy"`
	MeanCycleTimeHours     *float64 `parquet:"mean_cycle_time_hours,optional,snappy"`
	CIFailureRate          *float64 `parquet:"ci_failure_rate,optional,snappy"`

	FlagCount int32 `parquet:"flag_count,snappy"`
}

// ConvertAuthorAggregates flattens a report's author aggregates into rows.
// flagCounts maps author logins to the number of anomaly flags raised.
func ConvertAuthorAggregates(authors []schema.AuthorAggregate, flagCounts map[string]int) []AuthorPeriodRow {
	out := make([]AuthorPeriodRow, 0, len(authors))
	for _, a := range authors {
		out = append(out, AuthorPeriodRow{
			Repo:                   a.Repo,
			Author:                 a.Author,
			Grain:                  string(a.Period.Grain),
			PeriodStart:            a.Period.Start,
			CommitCount:            int32(a.CommitCount),
			LinesAdded:             int32(a.LinesAdded),
			LinesDeleted:           int32(a.LinesDeleted),
			FilesTouched:           int32(a.FilesTouched),
			PRCount:                int32(a.PRCount),
			PRMergedCount:          int32(a.PRMergedCount),
			MeanReviewLatencyHours: a.MeanReviewLatencyHours,
			MeanCycleTimeHours:     a.MeanCycleTimeHours,
			CIFailureRate:          a.CIFailureRate,
			FlagCount:              int32(flagCounts[a.Author]),
		})
	}
	return out
}

// WriteAuthorRowsParquet writes flattened report rows to a Parquet file.
func WriteAuthorRowsParquet(data []AuthorPeriodRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[AuthorPeriodRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

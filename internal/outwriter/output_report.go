package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/parquet"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteReportResults outputs a completed report, dispatching based on the output format configured.
func WriteReportResults(payload *schema.ReportPayload, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, fmtNullable, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeReportJSONResults(payload, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeReportCSVResults(payload, cfg, fmtNullable, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquetResults(payload, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTables(payload, cfg, fmtFloat, fmtNullable, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeReportJSONResults handles opening the file and calling the JSON writer.
func writeReportJSONResults(payload *schema.ReportPayload, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, payload)
	}, "Wrote JSON")
}

// writeReportCSVResults handles opening the file and calling the CSV writer.
func writeReportCSVResults(payload *schema.ReportPayload, cfg *contract.Config, fmtNullable func(*float64) string, intFmt string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVResultsForReport(csvWriter, payload, fmtNullable, intFmt)
	}, "Wrote CSV")
}

// writeReportParquetResults flattens the author aggregates into columnar rows.
// Parquet output is file-only.
func writeReportParquetResults(payload *schema.ReportPayload, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return errors.New("--output-file is required for parquet output")
	}
	rows := parquet.ConvertAuthorAggregates(payload.AuthorAggregates, flagCountsByAuthor(payload.AnomalyFlags))
	if err := parquet.WriteAuthorRowsParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Printf("Exported %d author rows to: %s\n", len(rows), cfg.OutputFile)
	return nil
}

// writeReportTables generates and writes the human-readable report.
func writeReportTables(payload *schema.ReportPayload, cfg *contract.Config, fmtFloat func(float64) string, fmtNullable func(*float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	if err := writeAuthorTable(payload, cfg, fmtNullable, intFmt, writer); err != nil {
		return err
	}
	if err := writeRepoSummary(payload, fmtNullable, writer); err != nil {
		return err
	}
	if len(payload.AnomalyFlags) > 0 {
		if err := writeFlagTable(payload, cfg, fmtFloat, writer); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Report completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeAuthorTable renders the per-author metric table.
func writeAuthorTable(payload *schema.ReportPayload, cfg *contract.Config, fmtNullable func(*float64) string, intFmt string, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	table.Header([]string{"Author", "Commits", "Churn", "Files", "PRs", "Merged", "Review(h)", "Cycle(h)", "CI Fail", "Flag"})

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	maxAuthor := getMaxTableAuthorWidth(cfg)
	for _, a := range payload.AuthorAggregates {
		row := []string{
			truncateLabel(a.Author, maxAuthor),
			fmt.Sprintf(intFmt, a.CommitCount),
			fmt.Sprintf(intFmt, a.Churn()),
			fmt.Sprintf(intFmt, a.FilesTouched),
			fmt.Sprintf(intFmt, a.PRCount),
			fmt.Sprintf(intFmt, a.PRMergedCount),
			fmtNullable(a.MeanReviewLatencyHours),
			fmtNullable(a.MeanCycleTimeHours),
			fmtNullable(a.CIFailureRate),
			severityLabel(worstSeverity(payload.AnomalyFlags, a.Author), cfg.UseColors),
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeRepoSummary renders the repo-wide roll-up and DORA block.
func writeRepoSummary(payload *schema.ReportPayload, fmtNullable func(*float64) string, writer io.Writer) error {
	r := payload.RepoAggregate
	if _, err := fmt.Fprintf(writer, "Repo totals: %d authors, %d commits, %d churn, %d PRs (%d merged), CI failure rate %s\n",
		r.AuthorCount, r.CommitCount, r.Churn(), r.PRCount, r.PRMergedCount, fmtNullable(r.CIFailureRate)); err != nil {
		return err
	}
	d := r.DORA
	_, err := fmt.Fprintf(writer, "DORA: lead time %s h, deploys %s, change failure rate %s, MTTR %s h\n",
		fmtNullable(d.LeadTimeHours), fmtNullable(d.DeployFrequency), fmtNullable(d.ChangeFailureRate), fmtNullable(d.MTTRHours))
	return err
}

// writeFlagTable renders the anomaly flags produced by the run.
func writeFlagTable(payload *schema.ReportPayload, cfg *contract.Config, fmtFloat func(float64) string, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Scope", "Metric", "Observed", "Baseline", "Stddev", "Z", "Label"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, f := range payload.AnomalyFlags {
		data = append(data, []string{
			f.Scope(),
			string(f.Metric),
			fmtFloat(f.Observed),
			fmtFloat(f.BaselineMean),
			fmtFloat(f.BaselineStddev),
			fmtFloat(f.ZScore),
			severityLabel(f.Severity, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeCSVResultsForReport writes the per-author metrics in CSV format.
func writeCSVResultsForReport(w *csv.Writer, payload *schema.ReportPayload, fmtNullable func(*float64) string, intFmt string) error {
	// CSV header
	header := []string{
		"rank",
		"repo",
		"author",
		"grain",
		"period_start",
		"commits",
		"lines_added",
		"lines_deleted",
		"files_touched",
		"pr_count",
		"pr_merged",
		"review_latency_hours",
		"cycle_time_hours",
		"ci_failure_rate",
		"flags",
		"label",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	flagCounts := flagCountsByAuthor(payload.AnomalyFlags)
	for i, a := range payload.AuthorAggregates {
		rec := []string{
			strconv.Itoa(i + 1),
			a.Repo,
			a.Author,
			string(a.Period.Grain),
			a.Period.Start.Format(contract.DateTimeFormat),
			fmt.Sprintf(intFmt, a.CommitCount),
			fmt.Sprintf(intFmt, a.LinesAdded),
			fmt.Sprintf(intFmt, a.LinesDeleted),
			fmt.Sprintf(intFmt, a.FilesTouched),
			fmt.Sprintf(intFmt, a.PRCount),
			fmt.Sprintf(intFmt, a.PRMergedCount),
			fmtNullable(a.MeanReviewLatencyHours),
			fmtNullable(a.MeanCycleTimeHours),
			fmtNullable(a.CIFailureRate),
			fmt.Sprintf(intFmt, flagCounts[a.Author]),
			contract.GetPlainLabel(worstSeverity(payload.AnomalyFlags, a.Author)),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

func samplePayload(t *testing.T) *schema.ReportPayload {
	t.Helper()
	at := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	period, err := schema.PeriodFor(at, schema.WeeklyGrain, time.Monday)
	require.NoError(t, err)

	return &schema.ReportPayload{
		Repo:   "acme/app",
		Period: period,
		RepoAggregate: schema.RepoAggregate{
			Repo:          "acme/app",
			Period:        period,
			AuthorCount:   2,
			CommitCount:   12,
			LinesAdded:    500,
			LinesDeleted:  120,
			FilesTouched:  9,
			PRCount:       4,
			PRMergedCount: 3,
			CIFailureRate: schema.Float(0.25),
			DORA: schema.DORAMetrics{
				LeadTimeHours:     schema.Float(36),
				DeployFrequency:   schema.Float(3),
				ChangeFailureRate: schema.Float(0.33),
				MTTRHours:         schema.Float(4),
			},
		},
		AuthorAggregates: []schema.AuthorAggregate{
			{
				Repo: "acme/app", Author: "alice", Period: period,
				CommitCount: 8, LinesAdded: 400, LinesDeleted: 100, FilesTouched: 6,
				PRCount: 3, PRMergedCount: 2,
				MeanCycleTimeHours: schema.Float(40),
				CIFailureRate:      schema.Float(0.25),
			},
			{
				Repo: "acme/app", Author: "bob", Period: period,
				CommitCount: 4, LinesAdded: 100, LinesDeleted: 20, FilesTouched: 3,
				PRCount: 1, PRMergedCount: 1,
			},
		},
		AnomalyFlags: []schema.AnomalyFlag{
			{
				Repo: "acme/app", Author: "alice", Period: period,
				Metric: schema.MetricChurn, Observed: 500, BaselineMean: 110,
				BaselineStddev: 12, ZScore: 32.5, Samples: 4,
				Severity: schema.SeverityHigh,
			},
		},
	}
}

func sampleConfig(outputFile string, mode schema.OutputMode) *contract.Config {
	return &contract.Config{
		Repo:         "acme/app",
		Workers:      2,
		StoreBackend: schema.SQLiteBackend,
		Output:       mode,
		OutputFile:   outputFile,
		Precision:    1,
		Width:        120,
	}
}

// TestWriteReportJSON verifies the payload round-trips through JSON output.
func TestWriteReportJSON(t *testing.T) {
	payload := samplePayload(t)
	outFile := filepath.Join(t.TempDir(), "report.json")

	err := WriteReportResults(payload, sampleConfig(outFile, schema.JSONOut), time.Second)
	require.NoError(t, err)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var got schema.ReportPayload
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, payload.Repo, got.Repo)
	assert.Len(t, got.AuthorAggregates, 2)
	assert.Len(t, got.AnomalyFlags, 1)
	require.NotNil(t, got.RepoAggregate.DORA.LeadTimeHours)
	assert.InDelta(t, 36, *got.RepoAggregate.DORA.LeadTimeHours, 1e-9)

	// Undefined metrics stay null, not zero
	assert.Nil(t, got.AuthorAggregates[1].CIFailureRate)
}

// TestWriteReportCSV verifies the per-author CSV rows.
func TestWriteReportCSV(t *testing.T) {
	payload := samplePayload(t)
	outFile := filepath.Join(t.TempDir(), "report.csv")

	err := WriteReportResults(payload, sampleConfig(outFile, schema.CSVOut), time.Second)
	require.NoError(t, err)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)
	got := string(raw)

	assert.Contains(t, got, "rank,repo,author")
	assert.Contains(t, got, "1,acme/app,alice")
	assert.Contains(t, got, "2,acme/app,bob")
	// Alice has one flag and a high label; bob has neither
	assert.Contains(t, got, contract.HighValue)
	assert.Contains(t, got, contract.NormalValue)
	// Undefined metrics render as n/a
	assert.Contains(t, got, "n/a")
}

// TestWriteReportText verifies the human-readable tables and summary lines.
func TestWriteReportText(t *testing.T) {
	payload := samplePayload(t)
	outFile := filepath.Join(t.TempDir(), "report.txt")

	err := WriteReportResults(payload, sampleConfig(outFile, schema.TextOut), time.Second)
	require.NoError(t, err)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)
	got := string(raw)

	assert.Contains(t, got, "alice")
	assert.Contains(t, got, "bob")
	assert.Contains(t, got, "Repo totals: 2 authors, 12 commits")
	assert.Contains(t, got, "DORA: lead time 36.0 h")
	assert.Contains(t, got, string(schema.MetricChurn))
	assert.Contains(t, got, "Store backend: sqlite")
}

// TestWriteReportParquet verifies the flattened columnar export.
func TestWriteReportParquet(t *testing.T) {
	payload := samplePayload(t)
	outFile := filepath.Join(t.TempDir(), "report.parquet")

	err := WriteReportResults(payload, sampleConfig(outFile, schema.ParquetOut), time.Second)
	require.NoError(t, err)

	info, err := os.Stat(outFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// TestWriteReportParquetRequiresFile verifies parquet output is file-only.
func TestWriteReportParquetRequiresFile(t *testing.T) {
	err := WriteReportResults(samplePayload(t), sampleConfig("", schema.ParquetOut), time.Second)
	assert.Error(t, err)
}

// TestTruncateLabel tests label truncation for narrow terminals.
func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		width int
		want  string
	}{
		{name: "fits", label: "alice", width: 10, want: "alice"},
		{name: "exact", label: "alice", width: 5, want: "alice"},
		{name: "truncated", label: "a-very-long-login", width: 8, want: "…g-login"},
		{name: "tiny width", label: "alice", width: 1, want: "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateLabel(tt.label, tt.width))
		})
	}
}

// TestWorstSeverity tests flag-to-label resolution per scope.
func TestWorstSeverity(t *testing.T) {
	flags := []schema.AnomalyFlag{
		{Author: "alice", Severity: schema.SeverityModerate},
		{Author: "alice", Severity: schema.SeverityHigh},
		{Author: "", Severity: schema.SeverityModerate},
	}

	assert.Equal(t, schema.SeverityHigh, worstSeverity(flags, "alice"))
	assert.Equal(t, schema.SeverityModerate, worstSeverity(flags, ""))
	assert.Empty(t, worstSeverity(flags, "bob"))
}

// TestMetricDefinitions pins the printed definitions to what the report
// actually computes, lead_time in particular.
func TestMetricDefinitions(t *testing.T) {
	cfg := sampleConfig("", schema.TextOut)
	cfg.LookbackPeriods = 8
	cfg.MinSamples = 4
	cfg.ZThreshold = 2.0

	var buf bytes.Buffer
	require.NoError(t, writeMetricDefinitions(&buf, cfg))
	got := buf.String()

	// lead_time uses the PR creation clock, same as cycle_time
	assert.Contains(t, got, "lead_time            = mean hours from PR creation to merge")
	assert.NotContains(t, got, "first commit")
	assert.Contains(t, got, "cycle_time       = mean hours from PR creation to merge")
	assert.Contains(t, got, "up to 8 prior periods")
	assert.Contains(t, got, "|z| >= 2.00")
	assert.Contains(t, got, "reported as n/a, not 0")
}

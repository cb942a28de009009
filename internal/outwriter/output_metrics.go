package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
)

// PrintMetricDefinitions prints the formal definitions of every metric the
// report computes, plus the active anomaly detection parameters.
// No pipeline run is performed.
func PrintMetricDefinitions(cfg *contract.Config) error {
	return writeMetricDefinitions(os.Stdout, cfg)
}

func writeMetricDefinitions(w io.Writer, cfg *contract.Config) error {
	fmt.Fprintln(w, "📊 Report Metrics")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)

	groups := []struct {
		name    string
		metrics []string
	}{
		{
			name: "Per-author (and repo totals)",
			metrics: []string{
				"commits          = commit count in the period",
				"churn            = lines added + lines deleted",
				"files_touched    = distinct files across commits (PR diffs as fallback)",
				"pr_count         = pull requests opened in the period",
				"pr_merged        = pull requests merged in the period",
				"review_latency   = mean hours from PR creation to first review",
				"cycle_time       = mean hours from PR creation to merge",
				"ci_failure_rate  = failed CI runs / finished CI runs",
			},
		},
		{
			name: "DORA four keys (repo-wide)",
			metrics: []string{
				"lead_time            = mean hours from PR creation to merge",
				"deploy_frequency     = successful deployment runs in the period",
				"change_failure_rate  = failed deployments / attempted deployments",
				"mttr                 = mean hours from failed deployment to next success",
			},
		},
	}

	for _, group := range groups {
		fmt.Fprintf(w, "%s:\n", group.name)
		for _, m := range group.metrics {
			fmt.Fprintf(w, "  %s\n", m)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Anomaly detection:")
	fmt.Fprintf(w, "  baseline  = rolling mean over up to %d prior periods (same grain)\n", cfg.LookbackPeriods)
	fmt.Fprintf(w, "  z-score   = (observed - mean) / sample stddev, needs >= %d samples\n", cfg.MinSamples)
	fmt.Fprintf(w, "  flagged   = |z| >= %.2f (high severity at |z| >= 3)\n", cfg.ZThreshold)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Means over zero eligible PRs or CI runs are reported as n/a, not 0.")

	return nil
}

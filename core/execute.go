package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/outwriter"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/seeddata"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// ExecuteReport runs the pipeline for the configured repo and period and
// writes the report to stdout or the configured output file.
// It serves as the main entry point for the 'report' command.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	reg := NewRegistry(NewPipeline(seeddata.NewGenerator(cfg.Seed), mgr, cfg))

	// Text output to stdout can carry a header; json/csv piped to
	// stdout must stay machine-parseable.
	if cfg.Output == schema.TextOut || cfg.OutputFile != "" {
		outwriter.LogReportHeader(cfg)
	}

	result, err := reg.Run(ctx, cfg.Repo, cfg.Period)
	if err != nil {
		return err
	}
	if result.Stage == schema.StageFailed {
		return fmt.Errorf("run failed at %s: %s", result.FailedStage, result.Reason)
	}

	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteReport(result.Payload, cfg, duration)
}

// ExecuteBackfill runs the pipeline for the configured period and the
// LookbackPeriods periods before it, oldest first, so that each newer
// period finds baseline history already persisted when it is analyzed.
// It serves as the main entry point for the 'seed' command.
func ExecuteBackfill(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	reg := NewRegistry(NewPipeline(seeddata.NewGenerator(cfg.Seed), mgr, cfg))

	// --- 1. Collect the target period plus its lookback window ---
	periods := make([]schema.Period, 0, cfg.LookbackPeriods+1)
	p := cfg.Period
	for range cfg.LookbackPeriods + 1 {
		periods = append(periods, p)
		p = p.Prev()
	}

	// --- 2. Run oldest first; newer periods read older baselines ---
	var failed int
	for i := len(periods) - 1; i >= 0; i-- {
		period := periods[i]
		result, err := reg.Run(ctx, cfg.Repo, period)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", period.Key(), err)
		}
		if result.Stage == schema.StageFailed {
			failed++
			fmt.Printf("  %s  FAILED at %s: %s\n", period.Key(), result.FailedStage, result.Reason)
			continue
		}
		flags := 0
		if result.Payload != nil {
			flags = len(result.Payload.AnomalyFlags)
		}
		fmt.Printf("  %s  %s (%d flags)\n", period.Key(), result.Stage, flags)
	}

	fmt.Printf("Backfilled %d periods for %s in %v (%d failed). Store backend: %s\n",
		len(periods), cfg.Repo, time.Since(start).Round(time.Millisecond), failed, cfg.StoreBackend)
	if failed > 0 {
		return fmt.Errorf("%d of %d backfill periods failed", failed, len(periods))
	}
	return nil
}

// ExecuteMetricsInfo prints the definitions of all report metrics.
// It serves as the main entry point for the 'metrics' command.
func ExecuteMetricsInfo(_ context.Context, cfg *contract.Config) error {
	return outwriter.PrintMetricDefinitions(cfg)
}

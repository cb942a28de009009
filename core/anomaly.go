package core

import (
	"math"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/stats"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Snapshot is the aggregate set of one prior period, the unit of baseline
// history fed to the anomaly detector. Snapshots are ordered oldest first.
type Snapshot struct {
	Period  schema.Period            `json:"period"`
	Authors []schema.AuthorAggregate `json:"authors"`
	Repo    schema.RepoAggregate     `json:"repo"`
}

// DetectAnomalies compares the current aggregates against the rolling
// baseline built from history and returns one flag per metric whose z-score
// magnitude reaches zThreshold. Metrics with fewer than minSamples defined
// baseline values are skipped rather than flagged. A flat baseline with a
// deviating observation is always high severity; its z-score is reported as
// zero because the statistic is undefined there. Output order is repo-wide
// flags first, then authors in their given order, metrics in a fixed order.
func DetectAnomalies(current []schema.AuthorAggregate, repoCur schema.RepoAggregate, history []Snapshot, minSamples int, zThreshold float64) []schema.AnomalyFlag {
	var flags []schema.AnomalyFlag

	// 1. Repo-wide flags
	for _, metric := range schema.AuthorMetrics {
		observed, ok := repoCur.Metric(metric)
		if !ok {
			continue
		}
		series := make([]float64, 0, len(history))
		for _, snap := range history {
			if v, defined := snap.Repo.Metric(metric); defined {
				series = append(series, v)
			}
		}
		if flag, ok := judge(observed, series, minSamples, zThreshold); ok {
			flag.Repo = repoCur.Repo
			flag.Period = repoCur.Period
			flag.Metric = metric
			flags = append(flags, flag)
		}
	}

	// 2. Per-author flags, against that author's own history only
	for _, agg := range current {
		for _, metric := range schema.AuthorMetrics {
			observed, ok := agg.Metric(metric)
			if !ok {
				continue
			}
			series := make([]float64, 0, len(history))
			for _, snap := range history {
				for _, prior := range snap.Authors {
					if prior.Author != agg.Author {
						continue
					}
					if v, defined := prior.Metric(metric); defined {
						series = append(series, v)
					}
					break
				}
			}
			if flag, ok := judge(observed, series, minSamples, zThreshold); ok {
				flag.Repo = agg.Repo
				flag.Author = agg.Author
				flag.Period = agg.Period
				flag.Metric = metric
				flags = append(flags, flag)
			}
		}
	}
	return flags
}

// judge applies the baseline statistics to one observation and reports
// whether it deserves a flag. Identity fields are left for the caller.
func judge(observed float64, series []float64, minSamples int, zThreshold float64) (schema.AnomalyFlag, bool) {
	if len(series) < minSamples {
		return schema.AnomalyFlag{}, false
	}
	mean := stats.Mean(series)
	stddev := stats.SampleStddev(series)
	if stddev == 0 {
		if observed == mean {
			return schema.AnomalyFlag{}, false
		}
		return schema.AnomalyFlag{
			Observed:       observed,
			BaselineMean:   mean,
			BaselineStddev: 0,
			ZScore:         0,
			Samples:        len(series),
			Severity:       schema.SeverityHigh,
		}, true
	}
	z := stats.ZScore(observed, mean, stddev)
	if math.Abs(z) < zThreshold {
		return schema.AnomalyFlag{}, false
	}
	severity := schema.SeverityModerate
	if math.Abs(z) >= 3 {
		severity = schema.SeverityHigh
	}
	return schema.AnomalyFlag{
		Observed:       observed,
		BaselineMean:   mean,
		BaselineStddev: stddev,
		ZScore:         z,
		Samples:        len(series),
		Severity:       severity,
	}, true
}

package core

import (
	"sort"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/normalize"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/stats"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// MapDORA derives the four delivery metrics for one repo period from the
// same canonical records the aggregator consumes. Lead time covers PRs
// merged in the period, not created in it. Deployment classification comes
// from the ingestion side and is never inferred here; a repo with no
// deployment-class runs gets a nil frequency and failure rate, not zeros.
func MapDORA(recs *normalize.Output, repo string, period schema.Period) schema.DORAMetrics {
	var dora schema.DORAMetrics

	// 1. Lead time: mean merge cycle time over PRs merged in the period
	var cycles []float64
	for _, pr := range recs.PullRequests {
		if pr.Repo != repo || pr.MergedAt == nil || !period.Contains(*pr.MergedAt) {
			continue
		}
		cycles = append(cycles, pr.MergedAt.Sub(pr.CreatedAt).Hours())
	}
	if len(cycles) > 0 {
		dora.LeadTimeHours = schema.Float(stats.Mean(cycles))
	}

	// 2. Deploy frequency and change-failure rate over deployment-class runs
	deploys, deploySuccess, deployFailed := 0, 0, 0
	byPipeline := make(map[string][]schema.CIRunRecord)
	for _, run := range recs.CIRuns {
		if run.Repo != repo || !period.Contains(run.StartedAt) {
			continue
		}
		byPipeline[run.Pipeline] = append(byPipeline[run.Pipeline], run)
		if !run.Deployment {
			continue
		}
		deploys++
		switch run.Outcome {
		case schema.CISuccess:
			deploySuccess++
		case schema.CIFailure:
			deployFailed++
		}
	}
	if deploys > 0 {
		dora.DeployFrequency = schema.Float(float64(deploySuccess))
		dora.ChangeFailureRate = schema.Float(float64(deployFailed) / float64(deploys))
	}

	// 3. MTTR: failure-to-next-success gap per pipeline, open incidents excluded
	var restores []float64
	for _, runs := range byPipeline {
		sort.Slice(runs, func(i, j int) bool {
			if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
				return runs[i].StartedAt.Before(runs[j].StartedAt)
			}
			return runs[i].RunID < runs[j].RunID
		})
		for i, run := range runs {
			if run.Outcome != schema.CIFailure {
				continue
			}
			for _, next := range runs[i+1:] {
				if next.Outcome != schema.CISuccess {
					continue
				}
				gap := runEnd(next).Sub(runEnd(run)).Hours()
				if gap >= 0 {
					restores = append(restores, gap)
				}
				break
			}
		}
	}
	if len(restores) > 0 {
		dora.MTTRHours = schema.Float(stats.Mean(restores))
	}
	return dora
}

// runEnd is the instant a run stopped, falling back to its start while the
// finish time is unknown.
func runEnd(run schema.CIRunRecord) time.Time {
	if run.FinishedAt != nil {
		return *run.FinishedAt
	}
	return run.StartedAt
}

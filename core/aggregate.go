// Package core runs the insight pipeline: aggregation, anomaly detection,
// DORA mapping, and the stage machine that ties them together.
package core

import (
	"sort"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/normalize"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/stats"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// authorAcc collects raw tallies for one author before means are taken.
type authorAcc struct {
	commitCount  int
	linesAdded   int
	linesDeleted int
	files        map[string]struct{}
	filesNoPath  int // Summed changed_files for commits without path data

	prCount       int
	prMergedCount int

	reviewLatencies []float64
	cycleTimes      []float64

	ciTotal  int
	ciFailed int
}

// Aggregate folds canonical records into one AuthorAggregate per active author
// plus the repo-wide roll-up, all scoped to the given repo and period. Commits
// and CI runs are partitioned by their timestamp, pull requests by creation
// time. The result is fully recomputed on every call and authors are sorted,
// so identical inputs always produce identical output. The DORA block of the
// repo aggregate is left zero; MapDORA fills it.
func Aggregate(recs *normalize.Output, repo string, period schema.Period) ([]schema.AuthorAggregate, schema.RepoAggregate) {
	// 1. Index first review times and CI attribution keys across all records
	firstReview := make(map[int]schema.ReviewRecord)
	for _, rv := range recs.Reviews {
		if rv.Repo != repo {
			continue
		}
		if cur, ok := firstReview[rv.PRNumber]; !ok || rv.SubmittedAt.Before(cur.SubmittedAt) {
			firstReview[rv.PRNumber] = rv
		}
	}
	shaAuthor := make(map[string]string)
	for _, c := range recs.Commits {
		if c.Repo == repo {
			shaAuthor[c.SHA] = c.Author
		}
	}
	prAuthor := make(map[int]string)
	for _, pr := range recs.PullRequests {
		if pr.Repo == repo {
			prAuthor[pr.Number] = pr.Author
		}
	}

	accs := make(map[string]*authorAcc)
	acc := func(author string) *authorAcc {
		a, ok := accs[author]
		if !ok {
			a = &authorAcc{files: make(map[string]struct{})}
			accs[author] = a
		}
		return a
	}

	repoFiles := make(map[string]struct{})
	repoFilesNoPath := 0

	// 2. Fold commits that fall inside the period
	for _, c := range recs.Commits {
		if c.Repo != repo || !period.Contains(c.Timestamp) {
			continue
		}
		a := acc(c.Author)
		a.commitCount++
		a.linesAdded += c.Additions
		a.linesDeleted += c.Deletions
		if len(c.Files) > 0 {
			for _, f := range c.Files {
				a.files[f] = struct{}{}
				repoFiles[f] = struct{}{}
			}
		} else {
			a.filesNoPath += c.ChangedFiles
			repoFilesNoPath += c.ChangedFiles
		}
	}

	// 3. Fold pull requests created inside the period
	for _, pr := range recs.PullRequests {
		if pr.Repo != repo || !period.Contains(pr.CreatedAt) {
			continue
		}
		a := acc(pr.Author)
		a.prCount++
		for _, f := range pr.Files {
			a.files[f.Path] = struct{}{}
			repoFiles[f.Path] = struct{}{}
		}
		if pr.MergedAt != nil {
			a.prMergedCount++
			a.cycleTimes = append(a.cycleTimes, pr.MergedAt.Sub(pr.CreatedAt).Hours())
		}
		reviewedAt := pr.FirstReviewAt
		if reviewedAt == nil {
			if rv, ok := firstReview[pr.Number]; ok {
				t := rv.SubmittedAt
				reviewedAt = &t
			}
		}
		if reviewedAt != nil && !reviewedAt.Before(pr.CreatedAt) {
			a.reviewLatencies = append(a.reviewLatencies, reviewedAt.Sub(pr.CreatedAt).Hours())
		}
	}

	// 4. Fold CI runs started inside the period, attributing by SHA then PR
	repoCITotal, repoCIFailed := 0, 0
	for _, run := range recs.CIRuns {
		if run.Repo != repo || !period.Contains(run.StartedAt) {
			continue
		}
		repoCITotal++
		failed := run.Outcome == schema.CIFailure
		if failed {
			repoCIFailed++
		}
		author, ok := shaAuthor[run.SHA]
		if !ok {
			author, ok = prAuthor[run.PRNumber]
		}
		if !ok {
			continue // Unattributed runs count repo-wide only
		}
		a := acc(author)
		a.ciTotal++
		if failed {
			a.ciFailed++
		}
	}

	// 5. Materialize per-author aggregates in deterministic author order
	authors := make([]string, 0, len(accs))
	for author := range accs {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	repoAgg := schema.RepoAggregate{Repo: repo, Period: period, AuthorCount: len(authors)}
	var repoLatencies, repoCycles []float64

	out := make([]schema.AuthorAggregate, 0, len(authors))
	for _, author := range authors {
		a := accs[author]
		agg := schema.AuthorAggregate{
			Repo:                   repo,
			Author:                 author,
			Period:                 period,
			CommitCount:            a.commitCount,
			LinesAdded:             a.linesAdded,
			LinesDeleted:           a.linesDeleted,
			FilesTouched:           len(a.files) + a.filesNoPath,
			PRCount:                a.prCount,
			PRMergedCount:          a.prMergedCount,
			MeanReviewLatencyHours: meanOrNil(a.reviewLatencies),
			MeanCycleTimeHours:     meanOrNil(a.cycleTimes),
		}
		if a.ciTotal > 0 {
			agg.CIFailureRate = schema.Float(float64(a.ciFailed) / float64(a.ciTotal))
		}
		out = append(out, agg)

		repoAgg.CommitCount += a.commitCount
		repoAgg.LinesAdded += a.linesAdded
		repoAgg.LinesDeleted += a.linesDeleted
		repoAgg.PRCount += a.prCount
		repoAgg.PRMergedCount += a.prMergedCount
		repoLatencies = append(repoLatencies, a.reviewLatencies...)
		repoCycles = append(repoCycles, a.cycleTimes...)
	}

	// 6. Repo means run over the pooled samples, not over per-author means
	repoAgg.FilesTouched = len(repoFiles) + repoFilesNoPath
	repoAgg.MeanReviewLatencyHours = meanOrNil(repoLatencies)
	repoAgg.MeanCycleTimeHours = meanOrNil(repoCycles)
	if repoCITotal > 0 {
		repoAgg.CIFailureRate = schema.Float(float64(repoCIFailed) / float64(repoCITotal))
	}
	return out, repoAgg
}

// meanOrNil returns the mean of the samples, or nil when none exist.
func meanOrNil(samples []float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	return schema.Float(stats.Mean(samples))
}

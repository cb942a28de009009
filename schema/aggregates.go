package schema

// AuthorAggregate holds the metric set for one (repo, author, period) key.
// It is always recomputed in full from canonical records, never patched
// incrementally, so re-running over the same inputs yields byte-identical
// output. Mean and rate fields are nil when no defined samples exist;
// consumers must read nil as "insufficient data", never as zero.
type AuthorAggregate struct {
	Repo   string `json:"repo"`
	Author string `json:"author"`
	Period Period `json:"period"`

	CommitCount  int `json:"commit_count"`
	LinesAdded   int `json:"lines_added"`
	LinesDeleted int `json:"lines_deleted"`
	FilesTouched int `json:"files_touched"` // Distinct file count across commits and PR diffs

	PRCount       int `json:"pr_count"`
	PRMergedCount int `json:"pr_merged_count"`

	MeanReviewLatencyHours *float64 `json:"mean_review_latency_hours"` // PR creation to first review
	MeanCycleTimeHours     *float64 `json:"mean_cycle_time_hours"`     // PR creation to merge, merged PRs only
	CIFailureRate          *float64 `json:"ci_failure_rate"`           // Nil for periods with zero CI runs
}

// Churn is the total lines added plus deleted for the aggregate.
func (a AuthorAggregate) Churn() int { return a.LinesAdded + a.LinesDeleted }

// Metric returns the named metric value and whether it is defined.
// Count metrics are always defined; mean and rate metrics are defined
// only when at least one sample existed.
func (a AuthorAggregate) Metric(name MetricName) (float64, bool) {
	switch name {
	case MetricChurn:
		return float64(a.Churn()), true
	case MetricCommitCount:
		return float64(a.CommitCount), true
	case MetricFilesTouched:
		return float64(a.FilesTouched), true
	case MetricPRCount:
		return float64(a.PRCount), true
	case MetricPRMergedCount:
		return float64(a.PRMergedCount), true
	case MetricReviewLatency:
		return deref(a.MeanReviewLatencyHours)
	case MetricCycleTime:
		return deref(a.MeanCycleTimeHours)
	case MetricCIFailureRate:
		return deref(a.CIFailureRate)
	default:
		return 0, false
	}
}

// RepoAggregate is the repo-wide roll-up across all authors for a period,
// plus the four DORA delivery metrics.
type RepoAggregate struct {
	Repo   string `json:"repo"`
	Period Period `json:"period"`

	AuthorCount  int `json:"author_count"`
	CommitCount  int `json:"commit_count"`
	LinesAdded   int `json:"lines_added"`
	LinesDeleted int `json:"lines_deleted"`
	FilesTouched int `json:"files_touched"`

	PRCount       int `json:"pr_count"`
	PRMergedCount int `json:"pr_merged_count"`

	MeanReviewLatencyHours *float64 `json:"mean_review_latency_hours"`
	MeanCycleTimeHours     *float64 `json:"mean_cycle_time_hours"`
	CIFailureRate          *float64 `json:"ci_failure_rate"`

	DORA DORAMetrics `json:"dora"`
}

// Churn is the total lines added plus deleted for the aggregate.
func (r RepoAggregate) Churn() int { return r.LinesAdded + r.LinesDeleted }

// Metric returns the named metric value and whether it is defined.
func (r RepoAggregate) Metric(name MetricName) (float64, bool) {
	switch name {
	case MetricChurn:
		return float64(r.Churn()), true
	case MetricCommitCount:
		return float64(r.CommitCount), true
	case MetricFilesTouched:
		return float64(r.FilesTouched), true
	case MetricPRCount:
		return float64(r.PRCount), true
	case MetricPRMergedCount:
		return float64(r.PRMergedCount), true
	case MetricReviewLatency:
		return deref(r.MeanReviewLatencyHours)
	case MetricCycleTime:
		return deref(r.MeanCycleTimeHours)
	case MetricCIFailureRate:
		return deref(r.CIFailureRate)
	default:
		return 0, false
	}
}

// DORAMetrics holds the four standard delivery metrics for a repo period.
// Fields are nil when the period carries no data to measure them from,
// matching the "null means insufficient data" convention; deploy frequency
// is a plain count and is always defined.
type DORAMetrics struct {
	LeadTimeHours     *float64 `json:"lead_time_hours"`     // Mean cycle time of PRs merged in the period
	DeployFrequency   *float64 `json:"deploy_frequency"`    // Successful deployment runs in the period
	ChangeFailureRate *float64 `json:"change_failure_rate"` // Failed deployment runs / total deployment runs
	MTTRHours         *float64 `json:"mttr_hours"`          // Mean failure-to-next-success gap per pipeline
}

// Float returns a pointer to v, for building nullable metric fields.
func Float(v float64) *float64 { return &v }

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

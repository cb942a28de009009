package schema

// Custom string types for type safety.
type (
	// EventType discriminates raw events from the ingestion collaborator.
	EventType string

	// Grain represents the time bucket size for aggregation periods.
	Grain string

	// PRState represents the lifecycle state of a pull request.
	PRState string

	// CIOutcome represents the outcome of a CI run.
	CIOutcome string

	// MetricName identifies a numeric aggregate metric.
	MetricName string

	// Severity represents how far outside the baseline an observation is.
	Severity string

	// Stage represents a pipeline processing stage.
	Stage string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the store.
	DatabaseBackend string
)

// All raw event types supported.
const (
	CommitEvent      EventType = "commit"
	PullRequestEvent EventType = "pull_request"
	ReviewEvent      EventType = "review"
	CIRunEvent       EventType = "ci_run"
)

// All aggregation grains supported.
const (
	DailyGrain   Grain = "daily"
	WeeklyGrain  Grain = "weekly" // default
	MonthlyGrain Grain = "monthly"
)

// All pull request states supported.
const (
	PROpen   PRState = "open"
	PRMerged PRState = "merged"
	PRClosed PRState = "closed"
)

// All CI run outcomes supported.
const (
	CISuccess   CIOutcome = "success"
	CIFailure   CIOutcome = "failure"
	CIPending   CIOutcome = "pending"
	CICancelled CIOutcome = "cancelled"
)

// Metric names examined by the anomaly detector and rendered in reports.
const (
	MetricChurn         MetricName = "churn"
	MetricCommitCount   MetricName = "commit_count"
	MetricFilesTouched  MetricName = "files_touched"
	MetricPRCount       MetricName = "pr_count"
	MetricPRMergedCount MetricName = "pr_merged_count"
	MetricReviewLatency MetricName = "mean_review_latency_hours"
	MetricCycleTime     MetricName = "mean_cycle_time_hours"
	MetricCIFailureRate MetricName = "ci_failure_rate"
)

// Anomaly severities. Moderate covers |z| in [2,3), high covers [3,inf).
const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Pipeline stages. A run walks PENDING through DONE in order; FAILED is
// terminal and reachable from any non-terminal stage.
const (
	StagePending     Stage = "PENDING"
	StageNormalizing Stage = "NORMALIZING"
	StageAggregating Stage = "AGGREGATING"
	StageAnalyzing   Stage = "ANALYZING"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllGrains returns a list of all supported grains.
var AllGrains = []Grain{DailyGrain, WeeklyGrain, MonthlyGrain}

// ValidGrains lists all valid grains.
var ValidGrains = map[Grain]struct{}{
	DailyGrain:   {},
	WeeklyGrain:  {},
	MonthlyGrain: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	ParquetOut: {},
}

// ValidStoreBackends lists all valid store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// AuthorMetrics lists the metrics the anomaly detector examines per author.
var AuthorMetrics = []MetricName{
	MetricChurn,
	MetricCommitCount,
	MetricFilesTouched,
	MetricPRCount,
	MetricCIFailureRate,
	MetricReviewLatency,
	MetricCycleTime,
}

package schema

// AnomalyFlag records a metric whose current value sits outside its rolling
// historical baseline. Flags exist only when a threshold is crossed; the
// absence of a flag is the default state, not an entity.
type AnomalyFlag struct {
	Repo   string `json:"repo"`
	Author string `json:"author,omitempty"` // Empty for repo-wide flags
	Period Period `json:"period"`

	Metric         MetricName `json:"metric"`
	Observed       float64    `json:"observed"`
	BaselineMean   float64    `json:"baseline_mean"`
	BaselineStddev float64    `json:"baseline_stddev"`
	ZScore         float64    `json:"z_score"`
	Samples        int        `json:"samples"` // Defined baseline samples behind the statistics
	Severity       Severity   `json:"severity"`
}

// Scope describes the flag target for rendering: the author login for
// author-level flags, or "repo-wide" otherwise.
func (f AnomalyFlag) Scope() string {
	if f.Author != "" {
		return f.Author
	}
	return "repo-wide"
}

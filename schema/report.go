package schema

// ChartPoint is a single (label, value) pair in a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries carries enough data for the chat front-end to render a chart
// without recomputing anything: one named series of points per tracked line.
type ChartSeries struct {
	Name   string       `json:"name"`
	Metric MetricName   `json:"metric"`
	Points []ChartPoint `json:"points"`
}

// ReportPayload is the structured summary handed to the narrator and the
// chat front-end. It is the sole input the narrator receives; this core
// never constructs prose.
type ReportPayload struct {
	Repo             string            `json:"repo"`
	Period           Period            `json:"period"`
	RepoAggregate    RepoAggregate     `json:"repo_aggregate"`
	AuthorAggregates []AuthorAggregate `json:"author_aggregates"`
	AnomalyFlags     []AnomalyFlag     `json:"anomaly_flags"`
	DORA             DORAMetrics       `json:"dora_metrics"`
	ChartSeries      []ChartSeries     `json:"chart_series,omitempty"`
}

// PipelineResult is the terminal outcome of one pipeline run.
// Payload is set only for DONE runs; FailedStage and Reason only for
// FAILED runs.
type PipelineResult struct {
	Repo        string         `json:"repo"`
	Period      Period         `json:"period"`
	Stage       Stage          `json:"stage"`
	Payload     *ReportPayload `json:"payload,omitempty"`
	FailedStage Stage          `json:"failed_stage,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// Done reports whether the run completed successfully.
func (r *PipelineResult) Done() bool { return r.Stage == StageDone }

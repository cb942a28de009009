package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/normalize"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// storeVersion tags persisted values so future layout changes can migrate.
const storeVersion = 1

// Store key suffixes under one run key namespace. Each stage writes a full
// replacement of its suffix, never a partial merge, which is what keeps
// retries and recomputation safe.
const (
	keyStage      = "|stage"
	keyRecords    = "|records"
	keyAggregates = "|aggregates"
	keyReport     = "|report"
)

// runKey is the store namespace for one (repo, grain, period start) key.
func runKey(repo string, period schema.Period) string {
	return repo + "|" + period.Key()
}

// stageMark is the durable progress marker for a run key. Stage holds the
// last completed stage, StageDone, or StageFailed; FailedStage and Reason
// are set only for failures so a later invocation can resume there.
type stageMark struct {
	Stage       schema.Stage `json:"stage"`
	FailedStage schema.Stage `json:"failed_stage,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// Pipeline sequences normalize, aggregate, and analyze for one run key at a
// time, persisting each stage's output before the next one starts. A crash
// or failure therefore resumes from the last completed stage instead of
// refetching everything.
type Pipeline struct {
	source contract.EventSource
	store  contract.Store
	runlog contract.RunHistoryStore
	cfg    *contract.Config
}

// NewPipeline wires a pipeline from its collaborators. The run history
// store may be nil when auditing is disabled.
func NewPipeline(source contract.EventSource, stores contract.StoreManager, cfg *contract.Config) *Pipeline {
	return &Pipeline{
		source: source,
		store:  stores.GetPipelineStore(),
		runlog: stores.GetRunHistoryStore(),
		cfg:    cfg,
	}
}

// Run executes the stage machine for one (repo, period) key and returns the
// terminal result. A key already in StageDone returns the stored result
// without writing anything unless the force flag demands recomputation.
// Stage failures are reported inside the result, not as a Go error; the
// error return covers cancellation and marker bookkeeping only.
func (p *Pipeline) Run(ctx context.Context, repo string, period schema.Period) (*schema.PipelineResult, error) {
	base := runKey(repo, period)
	mark, err := p.loadMark(base)
	if err != nil {
		return nil, fmt.Errorf("load stage marker: %w", err)
	}

	// 1. A finished key is a no-op unless force asks for a fresh run
	if mark.Stage == schema.StageDone && !p.cfg.Force {
		var payload schema.ReportPayload
		if err := p.loadJSON(base+keyReport, &payload); err != nil {
			return nil, fmt.Errorf("load stored report: %w", err)
		}
		return &schema.PipelineResult{Repo: repo, Period: period, Stage: schema.StageDone, Payload: &payload}, nil
	}

	stage := p.firstStage(mark)
	result := &schema.PipelineResult{Repo: repo, Period: period}
	logID := p.beginRunLog(repo, period)
	flagCount := 0

	// Stage outputs flow in memory within one invocation; the store writes
	// are a durability side effect. Resumed runs start with nil values and
	// the later stages reload what they need from the store. This is what
	// lets the none backend, which persists nothing, still finish a run.
	var recs *normalize.Output
	var snap *Snapshot

	// 2. Walk the stage machine, persisting progress at every transition
	for {
		// Cancellation is honored between stages, never mid-stage
		if err := ctx.Err(); err != nil {
			last := mark.Stage
			if last == "" {
				last = schema.StagePending
			}
			p.endRunLog(logID, last, flagCount)
			return nil, err
		}

		var payload *schema.ReportPayload
		var stageErr error
		switch stage {
		case schema.StageNormalizing:
			recs, stageErr = p.normalizeStage(ctx, repo, period, base)
		case schema.StageAggregating:
			snap, stageErr = p.aggregateStage(repo, period, base, recs)
		case schema.StageAnalyzing:
			payload, stageErr = p.analyzeStage(repo, period, base, recs, snap)
		default:
			stageErr = fmt.Errorf("unknown stage %s", stage)
		}

		if stageErr != nil {
			fail := stageMark{Stage: schema.StageFailed, FailedStage: stage, Reason: stageErr.Error()}
			if err := p.saveMark(base, fail); err != nil {
				return nil, fmt.Errorf("record failure marker: %w", err)
			}
			result.Stage = schema.StageFailed
			result.FailedStage = stage
			result.Reason = stageErr.Error()
			p.endRunLog(logID, schema.StageFailed, 0)
			return result, nil
		}

		if stage == schema.StageAnalyzing {
			if err := p.saveMark(base, stageMark{Stage: schema.StageDone}); err != nil {
				return nil, fmt.Errorf("record done marker: %w", err)
			}
			result.Stage = schema.StageDone
			result.Payload = payload
			flagCount = len(payload.AnomalyFlags)
			p.endRunLog(logID, schema.StageDone, flagCount)
			return result, nil
		}

		mark = stageMark{Stage: stage}
		if err := p.saveMark(base, mark); err != nil {
			return nil, fmt.Errorf("record stage marker: %w", err)
		}
		stage = following(stage)
	}
}

// Peek reports the persisted state of a key without executing anything.
// Fresh keys show up as PENDING; DONE keys carry the stored report.
func (p *Pipeline) Peek(repo string, period schema.Period) (*schema.PipelineResult, error) {
	base := runKey(repo, period)
	mark, err := p.loadMark(base)
	if err != nil {
		return nil, fmt.Errorf("load stage marker: %w", err)
	}

	result := &schema.PipelineResult{Repo: repo, Period: period, Stage: mark.Stage}
	switch mark.Stage {
	case "":
		result.Stage = schema.StagePending
	case schema.StageDone:
		var payload schema.ReportPayload
		if err := p.loadJSON(base+keyReport, &payload); err != nil {
			return nil, fmt.Errorf("load stored report: %w", err)
		}
		result.Payload = &payload
	case schema.StageFailed:
		result.FailedStage = mark.FailedStage
		result.Reason = mark.Reason
	}
	return result, nil
}

// firstStage picks where a run starts given the stored marker: fresh keys
// and forced runs start at the top, failed keys resume at the failed stage,
// interrupted keys resume after their last completed stage.
func (p *Pipeline) firstStage(mark stageMark) schema.Stage {
	if p.cfg.Force {
		return schema.StageNormalizing
	}
	switch mark.Stage {
	case schema.StageNormalizing, schema.StageAggregating:
		return following(mark.Stage)
	case schema.StageFailed:
		if mark.FailedStage != "" {
			return mark.FailedStage
		}
		return schema.StageNormalizing
	default:
		return schema.StageNormalizing
	}
}

func following(stage schema.Stage) schema.Stage {
	switch stage {
	case schema.StageNormalizing:
		return schema.StageAggregating
	case schema.StageAggregating:
		return schema.StageAnalyzing
	default:
		return schema.StageDone
	}
}

// normalizeStage fetches raw events with retry, normalizes them, and
// persists the canonical batch. Malformed events are dropped with a warning
// but never fail the batch.
func (p *Pipeline) normalizeStage(ctx context.Context, repo string, period schema.Period, base string) (*normalize.Output, error) {
	var raw []schema.RawEvent
	err := retryExternal(ctx, "fetch events", func() error {
		var ferr error
		raw, ferr = p.source.Fetch(ctx, repo, period)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", repo, err)
	}

	recs, verrs := normalize.Normalize(raw)
	for _, verr := range verrs {
		contract.LogWarn("dropped event", verr)
	}
	if err := p.saveJSON(base+keyRecords, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// aggregateStage rebuilds the period's aggregates in full from the canonical
// batch. A nil batch means the run resumed here, so it is reloaded from the
// store.
func (p *Pipeline) aggregateStage(repo string, period schema.Period, base string, recs *normalize.Output) (*Snapshot, error) {
	if recs == nil {
		recs = &normalize.Output{}
		if err := p.loadJSON(base+keyRecords, recs); err != nil {
			return nil, fmt.Errorf("load canonical records: %w", err)
		}
	}
	authors, repoAgg := Aggregate(recs, repo, period)
	snap := &Snapshot{Period: period, Authors: authors, Repo: repoAgg}
	if err := p.saveJSON(base+keyAggregates, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// analyzeStage runs anomaly detection against the stored lookback history,
// maps the DORA metrics, and persists the final report payload. Nil inputs
// are reloaded from the store for resumed runs.
func (p *Pipeline) analyzeStage(repo string, period schema.Period, base string, recs *normalize.Output, snap *Snapshot) (*schema.ReportPayload, error) {
	if recs == nil {
		recs = &normalize.Output{}
		if err := p.loadJSON(base+keyRecords, recs); err != nil {
			return nil, fmt.Errorf("load canonical records: %w", err)
		}
	}
	if snap == nil {
		snap = &Snapshot{}
		if err := p.loadJSON(base+keyAggregates, snap); err != nil {
			return nil, fmt.Errorf("load aggregates: %w", err)
		}
	}

	history := p.loadHistory(repo, period)
	flags := DetectAnomalies(snap.Authors, snap.Repo, history, p.cfg.MinSamples, p.cfg.ZThreshold)
	snap.Repo.DORA = MapDORA(recs, repo, period)

	payload := &schema.ReportPayload{
		Repo:             repo,
		Period:           period,
		RepoAggregate:    snap.Repo,
		AuthorAggregates: snap.Authors,
		AnomalyFlags:     flags,
		DORA:             snap.Repo.DORA,
		ChartSeries:      buildChartSeries(history, *snap),
	}
	if err := p.saveJSON(base+keyReport, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// loadHistory collects up to LookbackPeriods prior snapshots for the key,
// oldest first. Periods that were never computed are skipped, not invented.
func (p *Pipeline) loadHistory(repo string, period schema.Period) []Snapshot {
	var newestFirst []Snapshot
	prev := period
	for i := 0; i < p.cfg.LookbackPeriods; i++ {
		prev = prev.Prev()
		var snap Snapshot
		if err := p.loadJSON(runKey(repo, prev)+keyAggregates, &snap); err != nil {
			continue
		}
		newestFirst = append(newestFirst, snap)
	}
	history := make([]Snapshot, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		history = append(history, newestFirst[i])
	}
	return history
}

// chartMetrics are the repo-level lines the chat front-end renders.
var chartMetrics = []struct {
	name   string
	metric schema.MetricName
}{
	{"Code churn", schema.MetricChurn},
	{"Commits", schema.MetricCommitCount},
	{"Pull requests", schema.MetricPRCount},
	{"CI failure rate", schema.MetricCIFailureRate},
}

// buildChartSeries turns the lookback history plus the current snapshot
// into ready-to-render series so the chat layer never recomputes metrics.
func buildChartSeries(history []Snapshot, current Snapshot) []schema.ChartSeries {
	snaps := append(append([]Snapshot{}, history...), current)
	series := make([]schema.ChartSeries, 0, len(chartMetrics))
	for _, cm := range chartMetrics {
		s := schema.ChartSeries{Name: cm.name, Metric: cm.metric}
		for _, snap := range snaps {
			v, ok := snap.Repo.Metric(cm.metric)
			if !ok {
				continue
			}
			s.Points = append(s.Points, schema.ChartPoint{
				Label: snap.Period.Start.Format("2006-01-02"),
				Value: v,
			})
		}
		if len(s.Points) > 0 {
			series = append(series, s)
		}
	}
	return series
}

func (p *Pipeline) loadMark(base string) (stageMark, error) {
	var mark stageMark
	raw, _, _, err := p.store.Get(base + keyStage)
	if err != nil || len(raw) == 0 {
		return stageMark{}, nil // Unknown key means a fresh PENDING run
	}
	if err := json.Unmarshal(raw, &mark); err != nil {
		return stageMark{}, err
	}
	return mark, nil
}

func (p *Pipeline) saveMark(base string, mark stageMark) error {
	return p.saveJSON(base+keyStage, &mark)
}

func (p *Pipeline) loadJSON(key string, v any) error {
	raw, _, _, err := p.store.Get(key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no value stored for %s", key)
	}
	return json.Unmarshal(raw, v)
}

func (p *Pipeline) saveJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.store.Set(key, raw, storeVersion, time.Now().Unix())
}

func (p *Pipeline) beginRunLog(repo string, period schema.Period) int64 {
	if p.runlog == nil {
		return 0
	}
	id, err := p.runlog.BeginRun(time.Now(), map[string]any{
		"repo":   repo,
		"grain":  string(period.Grain),
		"period": period.Start.UTC().Format(time.RFC3339),
	})
	if err != nil {
		contract.LogWarn("run history begin", err)
		return 0
	}
	return id
}

func (p *Pipeline) endRunLog(id int64, stage schema.Stage, flagCount int) {
	if p.runlog == nil || id == 0 {
		return
	}
	if err := p.runlog.EndRun(id, time.Now(), stage, flagCount); err != nil {
		contract.LogWarn("run history end", err)
	}
}

// retryExternal wraps a call to an external collaborator with the shared
// backoff policy. Only ingestion and narration cross this boundary; local
// store writes do not.
func retryExternal(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(contract.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(contract.RetryInitialDelay),
		retry.MaxDelay(contract.RetryMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			contract.LogWarn(fmt.Sprintf("retrying %s after attempt %d", operation, n+1), err)
		}),
		retry.LastErrorOnly(true),
	)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// memStore is an in-memory Store that counts writes so tests can observe
// the no-op and full-replace guarantees.
type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
	sets   int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (s *memStore) Get(key string) ([]byte, int, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, 0, 0, fmt.Errorf("no entry for %s", key)
	}
	return v, 1, 0, nil
}

func (s *memStore) Set(key string, value []byte, _ int, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.sets++
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string][]byte)
	return nil
}

func (s *memStore) GetStatus() (schema.StoreStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.StoreStatus{Backend: "memory", Connected: true, TotalEntries: int64(len(s.values))}, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *memStore) value(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.values[key]...)
}

type memManager struct {
	store contract.Store
}

func (m *memManager) GetPipelineStore() contract.Store { return m.store }

func (m *memManager) GetRunHistoryStore() contract.RunHistoryStore { return nil }

// fakeSource serves canned events per fetch and counts calls. It can fail a
// set number of times first, or block on a gate for coalescing tests.
type fakeSource struct {
	mu       sync.Mutex
	events   func(repo string, window schema.Period) []schema.RawEvent
	failures int
	gate     chan struct{}
	fetches  int
}

func (f *fakeSource) Fetch(_ context.Context, repo string, window schema.Period) ([]schema.RawEvent, error) {
	f.mu.Lock()
	f.fetches++
	failing := f.failures > 0
	if failing {
		f.failures--
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if failing {
		return nil, &contract.SourceUnavailableError{Op: "fetch", Err: errors.New("connection refused")}
	}
	if f.events == nil {
		return nil, nil
	}
	return f.events(repo, window), nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func weekEvents(t *testing.T, churn int) func(string, schema.Period) []schema.RawEvent {
	t.Helper()
	return func(repo string, window schema.Period) []schema.RawEvent {
		ts := window.Start.Add(10 * time.Hour)
		return []schema.RawEvent{
			commitEventAt(t, repo, "sha-"+window.Key(), "alice", ts, churn),
		}
	}
}

func commitEventAt(t *testing.T, repo, sha, author string, ts time.Time, additions int) schema.RawEvent {
	t.Helper()
	payload := fmt.Sprintf(
		`{"sha":%q,"author":%q,"timestamp":%q,"additions":%d,"deletions":0,"changed_files":1}`,
		sha, author, ts.Format(time.RFC3339), additions)
	return schema.RawEvent{
		ID: sha, Type: schema.CommitEvent, Repo: repo,
		Timestamp: ts, Payload: []byte(payload),
	}
}

func testConfig() *contract.Config {
	return &contract.Config{
		LookbackPeriods: contract.DefaultLookbackPeriods,
		MinSamples:      contract.DefaultMinSamples,
		ZThreshold:      contract.DefaultZThreshold,
		Workers:         2,
	}
}

// TestPipelineRunToDone drives one key through every stage and checks the
// terminal result and persisted report.
func TestPipelineRunToDone(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	result, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, result.Done())
	assert.Equal(t, schema.StageDone, result.Stage)

	require.NotNil(t, result.Payload)
	require.Len(t, result.Payload.AuthorAggregates, 1)
	assert.Equal(t, 120, result.Payload.AuthorAggregates[0].LinesAdded)
	assert.Equal(t, 1, result.Payload.RepoAggregate.AuthorCount)
	assert.NotEmpty(t, result.Payload.ChartSeries)

	// Every stage output is durably stored under the key's namespace
	base := runKey("acme/app", period)
	for _, suffix := range []string{keyStage, keyRecords, keyAggregates, keyReport} {
		assert.NotEmpty(t, store.value(base+suffix), suffix)
	}
}

// TestPipelineDoneIsNoOp re-invokes a finished key and demands zero new
// fetches and zero new writes.
func TestPipelineDoneIsNoOp(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	first, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	require.True(t, first.Done())
	writes := store.setCount()

	second, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, second.Done())
	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, 1, source.fetchCount())
	assert.Equal(t, writes, store.setCount())
}

// TestPipelineForceRecompute recomputes a DONE key when forced and, with
// unchanged inputs, stores a byte-identical report.
func TestPipelineForceRecompute(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	cfg := testConfig()
	pipe := NewPipeline(source, &memManager{store: store}, cfg)
	period := weekOf(t, tm(11, 0))

	_, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	before := store.value(runKey("acme/app", period) + keyReport)

	cfg.Force = true
	result, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, result.Done())
	assert.Equal(t, 2, source.fetchCount())

	after := store.value(runKey("acme/app", period) + keyReport)
	assert.Equal(t, before, after)
}

// TestPipelineFailureRecorded exhausts fetch retries and checks the FAILED
// result carries the offending stage and reason.
func TestPipelineFailureRecorded(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{failures: int(contract.RetryAttempts)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	result, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.Equal(t, schema.StageFailed, result.Stage)
	assert.Equal(t, schema.StageNormalizing, result.FailedStage)
	assert.Contains(t, result.Reason, "connection refused")
	assert.Equal(t, int(contract.RetryAttempts), source.fetchCount())

	// The next invocation resumes at the failed stage and succeeds
	source.events = weekEvents(t, 120)
	result, err = pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, result.Done())
}

// TestPipelineResumesAfterCompletedStage seeds the store as if a crash hit
// after normalization; the rerun must not refetch.
func TestPipelineResumesAfterCompletedStage(t *testing.T) {
	store := newMemStore()
	seedSource := &fakeSource{events: weekEvents(t, 120)}
	cfg := testConfig()
	period := weekOf(t, tm(11, 0))
	base := runKey("acme/app", period)

	// 1. Run normalization only, then roll the marker back to simulate a
	// crash before aggregation
	seedPipe := NewPipeline(seedSource, &memManager{store: store}, cfg)
	_, err := seedPipe.normalizeStage(context.Background(), "acme/app", period, base)
	require.NoError(t, err)
	require.NoError(t, seedPipe.saveMark(base, stageMark{Stage: schema.StageNormalizing}))

	// 2. Resume with a source that would fail if consulted
	deadSource := &fakeSource{failures: 1000}
	pipe := NewPipeline(deadSource, &memManager{store: store}, cfg)
	result, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, result.Done())
	assert.Zero(t, deadSource.fetchCount())
}

// TestPipelineCancelledBeforeStage returns the context error and leaves no
// terminal marker behind.
func TestPipelineCancelledBeforeStage(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := pipe.Run(ctx, "acme/app", period)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

// TestPipelineBaselineAcrossRuns backfills weekly periods oldest first and
// expects the final spike to be flagged against the accumulated history.
func TestPipelineBaselineAcrossRuns(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())

	last := weekOf(t, tm(11, 0))
	periods := []schema.Period{last.Prev().Prev().Prev().Prev(), last.Prev().Prev().Prev(), last.Prev().Prev(), last.Prev(), last}
	churns := []int{100, 110, 95, 105, 200}

	var final *schema.PipelineResult
	for i, period := range periods {
		source.events = weekEvents(t, churns[i])
		result, err := pipe.Run(context.Background(), "acme/app", period)
		require.NoError(t, err)
		require.True(t, result.Done())
		final = result
	}

	got := flagsFor(final.Payload.AnomalyFlags, "alice", schema.MetricChurn)
	require.Len(t, got, 1)
	assert.Equal(t, schema.SeverityHigh, got[0].Severity)
	assert.InDelta(t, 102.5, got[0].BaselineMean, 1e-9)

	// Chart series cover the lookback window plus the current period
	require.NotEmpty(t, final.Payload.ChartSeries)
	assert.Len(t, final.Payload.ChartSeries[0].Points, len(periods))
}

// TestRegistryCoalesces attaches a second caller to an in-flight run so
// only one fetch ever happens for the key.
func TestRegistryCoalesces(t *testing.T) {
	store := newMemStore()
	gate := make(chan struct{})
	source := &fakeSource{events: weekEvents(t, 120), gate: gate}
	registry := NewRegistry(NewPipeline(source, &memManager{store: store}, testConfig()))
	period := weekOf(t, tm(11, 0))

	results := make([]*schema.PipelineResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Go(func() {
			results[i], errs[i] = registry.Run(context.Background(), "acme/app", period)
		})
	}

	// Let both callers arrive before the fetch is released
	require.Eventually(t, func() bool { return source.fetchCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, results[0].Done())
	assert.Same(t, results[0], results[1])
	assert.Equal(t, 1, source.fetchCount())
}

// TestRegistryRunMany fans independent periods across the worker pool and
// preserves input order.
func TestRegistryRunMany(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	registry := NewRegistry(NewPipeline(source, &memManager{store: store}, testConfig()))

	last := weekOf(t, tm(11, 0))
	periods := []schema.Period{last.Prev().Prev(), last.Prev(), last}

	results, err := registry.RunMany(context.Background(), "acme/app", periods, 2)
	require.NoError(t, err)
	require.Len(t, results, len(periods))
	for i, result := range results {
		require.NotNil(t, result)
		assert.True(t, result.Done())
		assert.Equal(t, periods[i].Start, result.Period.Start)
	}
	assert.Equal(t, len(periods), source.fetchCount())
}

// TestPipelineEphemeralStore completes a run against the none backend, which
// persists nothing. Stage outputs must flow through the invocation itself,
// with the store writes reduced to a no-op side effect.
func TestPipelineEphemeralStore(t *testing.T) {
	store, err := iostore.NewPipelineStore("fika_pipeline_store", schema.NoneBackend, "")
	require.NoError(t, err)
	source := &fakeSource{events: weekEvents(t, 120)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	result, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, result.Done())
	require.NotNil(t, result.Payload)
	require.Len(t, result.Payload.AuthorAggregates, 1)
	assert.Equal(t, 120, result.Payload.AuthorAggregates[0].LinesAdded)

	// Nothing survives the invocation: a peek sees a fresh key and a rerun
	// fetches again instead of replaying a stored report
	peeked, err := pipe.Peek("acme/app", period)
	require.NoError(t, err)
	assert.Equal(t, schema.StagePending, peeked.Stage)

	again, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	assert.True(t, again.Done())
	assert.Equal(t, 2, source.fetchCount())
}

// TestPipelinePeek reads persisted state without ever starting a run.
func TestPipelinePeek(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{events: weekEvents(t, 120)}
	registry := NewRegistry(NewPipeline(source, &memManager{store: store}, testConfig()))
	period := weekOf(t, tm(11, 0))

	// Fresh key: pending, no payload, no fetch triggered
	peeked, err := registry.Peek("acme/app", period)
	require.NoError(t, err)
	assert.Equal(t, schema.StagePending, peeked.Stage)
	assert.Nil(t, peeked.Payload)
	assert.Equal(t, 0, source.fetchCount())

	ran, err := registry.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	require.True(t, ran.Done())

	// Completed key: peek replays the stored payload
	peeked, err = registry.Peek("acme/app", period)
	require.NoError(t, err)
	assert.Equal(t, schema.StageDone, peeked.Stage)
	require.NotNil(t, peeked.Payload)
	assert.Equal(t, ran.Payload.RepoAggregate, peeked.Payload.RepoAggregate)
	assert.Equal(t, 1, source.fetchCount())
}

// TestPipelinePeekFailed surfaces the failed stage and reason from storage.
func TestPipelinePeekFailed(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{failures: int(contract.RetryAttempts)}
	pipe := NewPipeline(source, &memManager{store: store}, testConfig())
	period := weekOf(t, tm(11, 0))

	ran, err := pipe.Run(context.Background(), "acme/app", period)
	require.NoError(t, err)
	require.Equal(t, schema.StageFailed, ran.Stage)

	peeked, err := pipe.Peek("acme/app", period)
	require.NoError(t, err)
	assert.Equal(t, schema.StageFailed, peeked.Stage)
	assert.Equal(t, ran.FailedStage, peeked.FailedStage)
	assert.Equal(t, ran.Reason, peeked.Reason)
}

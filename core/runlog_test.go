package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// TestPipelineRecordsRunHistory verifies a completed run is audited with
// its configuration params and terminal stage.
func TestPipelineRecordsRunHistory(t *testing.T) {
	store := newMemStore()
	runlog := &iostore.MockRunHistoryStore{}
	manager := &iostore.MockStoreManager{}
	manager.On("GetPipelineStore").Return(store)
	manager.On("GetRunHistoryStore").Return(runlog)

	runlog.On("BeginRun", mock.Anything, mock.MatchedBy(func(params map[string]any) bool {
		return params["repo"] == "acme/app" && params["grain"] == "weekly"
	})).Return(int64(7), nil)
	runlog.On("EndRun", int64(7), mock.Anything, schema.StageDone, mock.Anything).Return(nil)

	source := &fakeSource{events: weekEvents(t, 120)}
	pipe := NewPipeline(source, manager, testConfig())

	result, err := pipe.Run(context.Background(), "acme/app", weekOf(t, tm(11, 0)))
	require.NoError(t, err)
	assert.True(t, result.Done())

	manager.AssertExpectations(t)
	runlog.AssertExpectations(t)
}

// TestPipelineRunHistoryFailure audits the failed stage when ingestion
// exhausts its retries.
func TestPipelineRunHistoryFailure(t *testing.T) {
	store := newMemStore()
	runlog := &iostore.MockRunHistoryStore{}
	manager := &iostore.MockStoreManager{}
	manager.On("GetPipelineStore").Return(store)
	manager.On("GetRunHistoryStore").Return(runlog)

	runlog.On("BeginRun", mock.Anything, mock.Anything).Return(int64(8), nil)
	runlog.On("EndRun", int64(8), mock.Anything, schema.StageFailed, 0).Return(nil)

	source := &fakeSource{failures: int(contract.RetryAttempts)}
	pipe := NewPipeline(source, manager, testConfig())

	result, err := pipe.Run(context.Background(), "acme/app", weekOf(t, tm(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, schema.StageFailed, result.Stage)

	runlog.AssertExpectations(t)
}

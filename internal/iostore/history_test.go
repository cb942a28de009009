package iostore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// TestRunHistoryRoundTrip records two runs against SQLite and reads them back.
func TestRunHistoryRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	history, err := NewRunHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	start := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	params := map[string]any{"repo": "acme/app", "grain": "weekly"}

	runID, err := history.BeginRun(start, params)
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, history.EndRun(runID, start.Add(1500*time.Millisecond), schema.StageDone, 3))

	secondID, err := history.BeginRun(start.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Greater(t, secondID, runID)

	runs, err := history.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, runID, first.RunID)
	assert.True(t, first.StartTime.Equal(start))
	require.NotNil(t, first.EndTime)
	require.NotNil(t, first.RunDurationMs)
	assert.Equal(t, int64(1500), *first.RunDurationMs)
	assert.Equal(t, schema.StageDone, first.Stage)
	assert.Equal(t, 3, first.FlagCount)
	require.NotNil(t, first.ConfigParams)
	assert.Contains(t, *first.ConfigParams, "acme/app")

	// Second run is still open
	second := runs[1]
	assert.Nil(t, second.EndTime)
	assert.Nil(t, second.RunDurationMs)

	status, err := history.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(2), status.TotalRuns)
	assert.Equal(t, secondID, status.LastRunID)
	assert.True(t, status.OldestRunTime.Equal(start))
	assert.Equal(t, int64(3), status.TotalFlags)
}

// TestRunHistoryNone verifies the no-op history store for disabled tracking.
func TestRunHistoryNone(t *testing.T) {
	history, err := NewRunHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := history.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, runID)

	assert.NoError(t, history.EndRun(runID, time.Now(), schema.StageDone, 0))

	runs, err := history.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	status, err := history.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, history.Close())
}

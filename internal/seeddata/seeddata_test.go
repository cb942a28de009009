package seeddata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core/normalize"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

func testWindow(t *testing.T) schema.Period {
	t.Helper()
	at := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	period, err := schema.PeriodFor(at, schema.WeeklyGrain, time.Monday)
	require.NoError(t, err)
	return period
}

// TestGeneratorDeterministic verifies that the same seed, repo and window
// always produce an identical batch.
func TestGeneratorDeterministic(t *testing.T) {
	window := testWindow(t)

	first, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)
	second, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestGeneratorSeedChangesBatch verifies a different seed yields different events.
func TestGeneratorSeedChangesBatch(t *testing.T) {
	window := testWindow(t)

	first, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)
	other, err := NewGenerator(7).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)

	assert.NotEqual(t, first, other)
}

// TestGeneratorWindowChangesBatch verifies consecutive periods produce
// different events, which anomaly baselines depend on.
func TestGeneratorWindowChangesBatch(t *testing.T) {
	window := testWindow(t)

	current, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)
	previous, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window.Prev())
	require.NoError(t, err)

	assert.NotEqual(t, current, previous)
}

// TestGeneratorEventsNormalize runs the batch through normalization and
// verifies nothing is dropped.
func TestGeneratorEventsNormalize(t *testing.T) {
	window := testWindow(t)

	events, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
	require.NoError(t, err)

	recs, verrs := normalize.Normalize(events)
	assert.Empty(t, verrs)
	assert.Len(t, recs.Commits, defaultCommits)
	assert.Len(t, recs.PullRequests, defaultPullRequests)
	assert.Len(t, recs.Reviews, defaultPullRequests)
	assert.NotEmpty(t, recs.CIRuns)

	// Both merged and open PRs, and both build and deployment runs
	merged, open, deployments := 0, 0, 0
	for _, pr := range recs.PullRequests {
		if pr.State == schema.PRMerged {
			merged++
		} else {
			open++
		}
	}
	for _, run := range recs.CIRuns {
		if run.Deployment {
			deployments++
		}
	}
	assert.Positive(t, merged)
	assert.Positive(t, open)
	assert.Positive(t, deployments)
}

// TestGeneratorEventsInWindow verifies every generated timestamp lands
// inside the requested window.
func TestGeneratorEventsInWindow(t *testing.T) {
	for _, grain := range []schema.Grain{schema.DailyGrain, schema.WeeklyGrain, schema.MonthlyGrain} {
		t.Run(string(grain), func(t *testing.T) {
			at := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
			window, err := schema.PeriodFor(at, grain, time.Monday)
			require.NoError(t, err)

			events, err := NewGenerator(42).Fetch(context.Background(), "acme/app", window)
			require.NoError(t, err)
			require.NotEmpty(t, events)

			for _, ev := range events {
				assert.True(t, window.Contains(ev.Timestamp), "event %s at %s outside %s", ev.ID, ev.Timestamp, window)
			}
		})
	}
}

// TestGeneratorCancelled verifies a cancelled context aborts generation.
func TestGeneratorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(42).Fetch(ctx, "acme/app", testWindow(t))
	assert.ErrorIs(t, err, context.Canceled)
}

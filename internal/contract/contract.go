// Package contract provides interfaces and shared utilities for the fika pipeline's internal architecture.
package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// EventSource delivers raw events for a repo and time window. Implementations
// include the GitHub ingestion client, the local seed-data generator, and
// store-backed replay of previously persisted batches.
type EventSource interface {
	Fetch(ctx context.Context, repo string, window schema.Period) ([]schema.RawEvent, error)
}

// Store defines the durable key-value contract the pipeline persists through.
// Set is a full replace of the key's value; Get returns the latest fully
// committed write only. This allows the store to be mocked for testing.
type Store interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Clear() error
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

// RunHistoryStore records pipeline run audit rows for tracking and export.
// This allows the history layer to be mocked for testing.
type RunHistoryStore interface {
	BeginRun(startTime time.Time, params map[string]any) (int64, error)
	EndRun(runID int64, endTime time.Time, stage schema.Stage, flagCount int) error
	GetStatus() (schema.HistoryStatus, error)
	GetAllRuns() ([]schema.RunRecord, error)
	Close() error
}

// StoreManager defines the interface for accessing the store instances.
type StoreManager interface {
	GetPipelineStore() Store
	GetRunHistoryStore() RunHistoryStore
}

// Narrator converts a structured report payload into prose. The narrator is
// an external collaborator; the pipeline only hands the payload over and
// never constructs prose itself.
type Narrator interface {
	Narrate(ctx context.Context, payload *schema.ReportPayload) (string, error)
}

// SourceUnavailableError indicates an ingestion or storage collaborator could
// not be reached. Callers retry with backoff before treating it as fatal.
type SourceUnavailableError struct {
	Op  string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable during %s: %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

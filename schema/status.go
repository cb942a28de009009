package schema

import "time"

// StoreStatus holds status information about the pipeline store.
type StoreStatus struct {
	Backend         string
	Connected       bool
	TotalEntries    int64
	LastEntryTime   time.Time
	OldestEntryTime time.Time
	TableSizeBytes  int64
}

// HistoryStatus holds status information about the run history store.
type HistoryStatus struct {
	Backend       string
	Connected     bool
	TotalRuns     int64
	LastRunID     int64
	LastRunTime   time.Time
	OldestRunTime time.Time
	TotalFlags    int64
}

// RunRecord is one pipeline run audit row as stored in the history store.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	Stage         Stage
	FlagCount     int
	ConfigParams  *string
}

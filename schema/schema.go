// Package schema has records, aggregates and shared constants for all parts of fika.
package schema

import (
	"encoding/json"
	"time"
)

// RawEvent is a single event as delivered by an ingestion collaborator.
// The Type discriminant decides how Payload is interpreted; everything
// else about the event lives in the source-specific payload.
type RawEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Repo      string          `json:"repo"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// CommitRecord is the canonical form of a single commit. Immutable once ingested.
type CommitRecord struct {
	Repo         string    `json:"repo"`          // Repository full name, e.g. "acme/app"
	SHA          string    `json:"sha"`           // Commit hash, unique within a repo
	Author       string    `json:"author"`        // Author login
	Timestamp    time.Time `json:"timestamp"`     // Author timestamp
	Additions    int       `json:"additions"`     // Lines added, >= 0
	Deletions    int       `json:"deletions"`     // Lines deleted, >= 0
	ChangedFiles int       `json:"changed_files"` // Number of files touched, >= 0
	Files        []string  `json:"files,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
}

// Churn is the total number of lines added and deleted by the commit.
// A pure rename with a 0/0 diff contributes zero.
func (c CommitRecord) Churn() int { return c.Additions + c.Deletions }

// FileDiff holds per-file diff stats attached to a pull request.
type FileDiff struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// PullRequestRecord is the canonical form of a pull request lifecycle.
// FirstReviewAt, MergedAt and ClosedAt are nil until the corresponding
// event has happened; a PR without MergedAt has no cycle time.
type PullRequestRecord struct {
	Repo          string     `json:"repo"`
	Number        int        `json:"number"` // Unique within a repo
	Author        string     `json:"author"`
	CreatedAt     time.Time  `json:"created_at"`
	FirstReviewAt *time.Time `json:"first_review_at,omitempty"`
	MergedAt      *time.Time `json:"merged_at,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	State         PRState    `json:"state"`
	Files         []FileDiff `json:"files,omitempty"`
}

// Churn sums additions and deletions across the PR's file diffs.
func (p PullRequestRecord) Churn() int {
	total := 0
	for _, f := range p.Files {
		total += f.Additions + f.Deletions
	}
	return total
}

// ReviewRecord is the canonical form of a single pull request review.
type ReviewRecord struct {
	Repo        string    `json:"repo"`
	PRNumber    int       `json:"pr_number"`
	Author      string    `json:"author"`
	SubmittedAt time.Time `json:"submitted_at"`
	State       string    `json:"state,omitempty"` // approved, changes_requested, commented
}

// CIRunRecord is the canonical form of a CI run. Deployment classification
// is supplied by the ingestion collaborator, never inferred here.
type CIRunRecord struct {
	Repo       string     `json:"repo"`
	RunID      string     `json:"run_id"` // Unique within a repo
	SHA        string     `json:"sha,omitempty"`
	PRNumber   int        `json:"pr_number,omitempty"`
	Pipeline   string     `json:"pipeline"` // Workflow or pipeline key, used for MTTR pairing
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"` // Nil while the run is in flight
	Outcome    CIOutcome  `json:"outcome"`
	Deployment bool       `json:"deployment"` // True for deployment-class runs
}

package normalize

import (
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Source-specific payload shapes, as delivered by the ingestion collaborator.
// Required numeric fields use pointers so that "missing" and "zero" can be
// told apart during validation.

type commitPayload struct {
	SHA          string    `json:"sha"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Additions    *int      `json:"additions"`
	Deletions    *int      `json:"deletions"`
	ChangedFiles *int      `json:"changed_files"`
	Files        []string  `json:"files"`
	Parents      []string  `json:"parents"`
}

type pullRequestPayload struct {
	Number        int               `json:"number"`
	Author        string            `json:"author"`
	CreatedAt     time.Time         `json:"created_at"`
	FirstReviewAt *time.Time        `json:"first_review_at"`
	MergedAt      *time.Time        `json:"merged_at"`
	ClosedAt      *time.Time        `json:"closed_at"`
	State         string            `json:"state"`
	Files         []schema.FileDiff `json:"files"`
}

type reviewPayload struct {
	PRNumber    int       `json:"pr_number"`
	Author      string    `json:"author"`
	SubmittedAt time.Time `json:"submitted_at"`
	State       string    `json:"state"`
}

type ciRunPayload struct {
	RunID      string     `json:"run_id"`
	SHA        string     `json:"sha"`
	PRNumber   int        `json:"pr_number"`
	Pipeline   string     `json:"pipeline"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Outcome    string     `json:"outcome"`
	Deployment bool       `json:"deployment"`
}

// parseCommit validates a commit event and returns the canonical record.
// A non-empty reason means the event must be dropped.
func parseCommit(ev schema.RawEvent) (schema.CommitRecord, string) {
	var p commitPayload
	if reason := decodePayload(ev, &p); reason != "" {
		return schema.CommitRecord{}, reason
	}
	if p.SHA == "" {
		return schema.CommitRecord{}, "missing sha"
	}
	if p.Author == "" {
		return schema.CommitRecord{}, "missing author"
	}
	if reason := requireTime(p.Timestamp, "timestamp"); reason != "" {
		return schema.CommitRecord{}, reason
	}
	if p.Additions == nil || p.Deletions == nil || p.ChangedFiles == nil {
		return schema.CommitRecord{}, "missing required diff stats"
	}
	if *p.Additions < 0 || *p.Deletions < 0 || *p.ChangedFiles < 0 {
		return schema.CommitRecord{}, "negative diff stats"
	}

	return schema.CommitRecord{
		Repo:         ev.Repo,
		SHA:          p.SHA,
		Author:       p.Author,
		Timestamp:    p.Timestamp,
		Additions:    *p.Additions,
		Deletions:    *p.Deletions,
		ChangedFiles: *p.ChangedFiles,
		Files:        p.Files,
		Parents:      p.Parents,
	}, ""
}

// parsePullRequest validates a pull request event and returns the canonical record.
func parsePullRequest(ev schema.RawEvent) (schema.PullRequestRecord, string) {
	var p pullRequestPayload
	if reason := decodePayload(ev, &p); reason != "" {
		return schema.PullRequestRecord{}, reason
	}
	if p.Number <= 0 {
		return schema.PullRequestRecord{}, "missing pr number"
	}
	if p.Author == "" {
		return schema.PullRequestRecord{}, "missing author"
	}
	if reason := requireTime(p.CreatedAt, "created_at"); reason != "" {
		return schema.PullRequestRecord{}, reason
	}

	state := schema.PRState(p.State)
	switch state {
	case schema.PROpen, schema.PRMerged, schema.PRClosed:
	case "":
		state = schema.PROpen
	default:
		return schema.PullRequestRecord{}, "invalid state " + p.State
	}
	if state == schema.PRMerged && p.MergedAt == nil {
		return schema.PullRequestRecord{}, "merged state without merged_at"
	}
	if p.MergedAt != nil && p.MergedAt.Before(p.CreatedAt) {
		return schema.PullRequestRecord{}, "merged_at before created_at"
	}
	if p.FirstReviewAt != nil && p.MergedAt != nil && p.FirstReviewAt.After(*p.MergedAt) {
		return schema.PullRequestRecord{}, "first_review_at after merged_at"
	}
	for _, f := range p.Files {
		if f.Additions < 0 || f.Deletions < 0 {
			return schema.PullRequestRecord{}, "negative diff stats for " + f.Path
		}
	}

	return schema.PullRequestRecord{
		Repo:          ev.Repo,
		Number:        p.Number,
		Author:        p.Author,
		CreatedAt:     p.CreatedAt,
		FirstReviewAt: p.FirstReviewAt,
		MergedAt:      p.MergedAt,
		ClosedAt:      p.ClosedAt,
		State:         state,
		Files:         p.Files,
	}, ""
}

// parseReview validates a review event and returns the canonical record.
func parseReview(ev schema.RawEvent) (schema.ReviewRecord, string) {
	var p reviewPayload
	if reason := decodePayload(ev, &p); reason != "" {
		return schema.ReviewRecord{}, reason
	}
	if p.PRNumber <= 0 {
		return schema.ReviewRecord{}, "missing pr number"
	}
	if p.Author == "" {
		return schema.ReviewRecord{}, "missing author"
	}
	if reason := requireTime(p.SubmittedAt, "submitted_at"); reason != "" {
		return schema.ReviewRecord{}, reason
	}

	return schema.ReviewRecord{
		Repo:        ev.Repo,
		PRNumber:    p.PRNumber,
		Author:      p.Author,
		SubmittedAt: p.SubmittedAt,
		State:       p.State,
	}, ""
}

// parseCIRun validates a CI run event and returns the canonical record.
func parseCIRun(ev schema.RawEvent) (schema.CIRunRecord, string) {
	var p ciRunPayload
	if reason := decodePayload(ev, &p); reason != "" {
		return schema.CIRunRecord{}, reason
	}
	if p.RunID == "" {
		return schema.CIRunRecord{}, "missing run_id"
	}
	if reason := requireTime(p.StartedAt, "started_at"); reason != "" {
		return schema.CIRunRecord{}, reason
	}

	outcome := schema.CIOutcome(p.Outcome)
	switch outcome {
	case schema.CISuccess, schema.CIFailure, schema.CIPending, schema.CICancelled:
	default:
		return schema.CIRunRecord{}, "invalid outcome " + p.Outcome
	}
	if p.FinishedAt != nil && p.FinishedAt.Before(p.StartedAt) {
		return schema.CIRunRecord{}, "finished_at before started_at"
	}

	pipeline := p.Pipeline
	if pipeline == "" {
		pipeline = "default"
	}

	return schema.CIRunRecord{
		Repo:       ev.Repo,
		RunID:      p.RunID,
		SHA:        p.SHA,
		PRNumber:   p.PRNumber,
		Pipeline:   pipeline,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Outcome:    outcome,
		Deployment: p.Deployment,
	}, ""
}

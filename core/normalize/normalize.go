// Package normalize converts heterogeneous raw events into canonical records.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Output holds the canonical records produced from one raw event batch,
// deduplicated and in deterministic order.
type Output struct {
	Commits      []schema.CommitRecord      `json:"commits"`
	PullRequests []schema.PullRequestRecord `json:"pull_requests"`
	Reviews      []schema.ReviewRecord      `json:"reviews"`
	CIRuns       []schema.CIRunRecord       `json:"ci_runs"`
}

// Len returns the total number of canonical records in the output.
func (o *Output) Len() int {
	return len(o.Commits) + len(o.PullRequests) + len(o.Reviews) + len(o.CIRuns)
}

// ValidationError reports a single malformed raw event that was dropped.
// A batch never fails because of one bad record; the error list travels
// alongside the valid output instead.
type ValidationError struct {
	EventID string           `json:"event_id"`
	Type    schema.EventType `json:"type"`
	Reason  string           `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("event %s (%s): %s", e.EventID, e.Type, e.Reason)
}

// Normalize maps each raw event to exactly one canonical record based on its
// type discriminant. It is a pure function with no I/O. Malformed events are
// dropped and reported; duplicates are resolved so that a later arrival wins
// only when it is newer or carries strictly more information.
func Normalize(raw []schema.RawEvent) (*Output, []ValidationError) {
	// 1. Initialize dedup maps keyed by (repo, natural key)
	commits := make(map[string]schema.CommitRecord)
	prs := make(map[string]schema.PullRequestRecord)
	reviews := make(map[string]schema.ReviewRecord)
	runs := make(map[string]schema.CIRunRecord)

	var errs []ValidationError
	reject := func(ev schema.RawEvent, reason string) {
		errs = append(errs, ValidationError{EventID: ev.ID, Type: ev.Type, Reason: reason})
	}

	// 2. Parse, validate, and deduplicate each event
	for _, ev := range raw {
		if ev.Repo == "" {
			reject(ev, "missing repo")
			continue
		}

		switch ev.Type {
		case schema.CommitEvent:
			rec, reason := parseCommit(ev)
			if reason != "" {
				reject(ev, reason)
				continue
			}
			mergeCommit(commits, rec)

		case schema.PullRequestEvent:
			rec, reason := parsePullRequest(ev)
			if reason != "" {
				reject(ev, reason)
				continue
			}
			mergePullRequest(prs, rec)

		case schema.ReviewEvent:
			rec, reason := parseReview(ev)
			if reason != "" {
				reject(ev, reason)
				continue
			}
			key := fmt.Sprintf("%s|%d|%s|%d", rec.Repo, rec.PRNumber, rec.Author, rec.SubmittedAt.UnixNano())
			if _, ok := reviews[key]; !ok {
				reviews[key] = rec
			}

		case schema.CIRunEvent:
			rec, reason := parseCIRun(ev)
			if reason != "" {
				reject(ev, reason)
				continue
			}
			mergeCIRun(runs, rec)

		default:
			reject(ev, fmt.Sprintf("unknown event type %q", ev.Type))
		}
	}

	// 3. Flatten maps into deterministically ordered slices
	return buildOutput(commits, prs, reviews, runs), errs
}

// mergeCommit applies the dedup rule for commits: a later duplicate wins
// only with a newer timestamp.
func mergeCommit(commits map[string]schema.CommitRecord, rec schema.CommitRecord) {
	key := rec.Repo + "|" + rec.SHA
	existing, ok := commits[key]
	if !ok || rec.Timestamp.After(existing.Timestamp) {
		commits[key] = rec
	}
}

// mergePullRequest applies the dedup rule for PRs: a later duplicate wins
// when it carries additional lifecycle fields (e.g. open transitioning to
// merged) or a newer creation timestamp.
func mergePullRequest(prs map[string]schema.PullRequestRecord, rec schema.PullRequestRecord) {
	key := fmt.Sprintf("%s|%d", rec.Repo, rec.Number)
	existing, ok := prs[key]
	if !ok {
		prs[key] = rec
		return
	}
	if prFieldCount(rec) > prFieldCount(existing) || rec.CreatedAt.After(existing.CreatedAt) {
		prs[key] = rec
	}
}

// mergeCIRun applies the dedup rule for CI runs: a later duplicate wins when
// it has finished while the stored one was still pending, or started later.
func mergeCIRun(runs map[string]schema.CIRunRecord, rec schema.CIRunRecord) {
	key := rec.Repo + "|" + rec.RunID
	existing, ok := runs[key]
	if !ok {
		runs[key] = rec
		return
	}
	if (rec.FinishedAt != nil && existing.FinishedAt == nil) || rec.StartedAt.After(existing.StartedAt) {
		runs[key] = rec
	}
}

// prFieldCount counts the optional lifecycle fields present on a PR record,
// used to decide whether a duplicate carries additional information.
func prFieldCount(pr schema.PullRequestRecord) int {
	n := 0
	if pr.FirstReviewAt != nil {
		n++
	}
	if pr.MergedAt != nil {
		n++
	}
	if pr.ClosedAt != nil {
		n++
	}
	if len(pr.Files) > 0 {
		n++
	}
	return n
}

// buildOutput flattens the dedup maps into sorted slices so repeated runs
// produce identical output for identical input.
func buildOutput(
	commits map[string]schema.CommitRecord,
	prs map[string]schema.PullRequestRecord,
	reviews map[string]schema.ReviewRecord,
	runs map[string]schema.CIRunRecord,
) *Output {
	out := &Output{
		Commits:      make([]schema.CommitRecord, 0, len(commits)),
		PullRequests: make([]schema.PullRequestRecord, 0, len(prs)),
		Reviews:      make([]schema.ReviewRecord, 0, len(reviews)),
		CIRuns:       make([]schema.CIRunRecord, 0, len(runs)),
	}

	for _, c := range commits {
		out.Commits = append(out.Commits, c)
	}
	sort.Slice(out.Commits, func(i, j int) bool {
		if !out.Commits[i].Timestamp.Equal(out.Commits[j].Timestamp) {
			return out.Commits[i].Timestamp.Before(out.Commits[j].Timestamp)
		}
		return out.Commits[i].SHA < out.Commits[j].SHA
	})

	for _, p := range prs {
		out.PullRequests = append(out.PullRequests, p)
	}
	sort.Slice(out.PullRequests, func(i, j int) bool {
		if out.PullRequests[i].Repo != out.PullRequests[j].Repo {
			return out.PullRequests[i].Repo < out.PullRequests[j].Repo
		}
		return out.PullRequests[i].Number < out.PullRequests[j].Number
	})

	for _, r := range reviews {
		out.Reviews = append(out.Reviews, r)
	}
	sort.Slice(out.Reviews, func(i, j int) bool {
		if !out.Reviews[i].SubmittedAt.Equal(out.Reviews[j].SubmittedAt) {
			return out.Reviews[i].SubmittedAt.Before(out.Reviews[j].SubmittedAt)
		}
		return out.Reviews[i].Author < out.Reviews[j].Author
	})

	for _, r := range runs {
		out.CIRuns = append(out.CIRuns, r)
	}
	sort.Slice(out.CIRuns, func(i, j int) bool {
		if !out.CIRuns[i].StartedAt.Equal(out.CIRuns[j].StartedAt) {
			return out.CIRuns[i].StartedAt.Before(out.CIRuns[j].StartedAt)
		}
		return out.CIRuns[i].RunID < out.CIRuns[j].RunID
	})

	return out
}

// decodePayload unmarshals the event payload into the target struct.
func decodePayload(ev schema.RawEvent, target any) string {
	if len(ev.Payload) == 0 {
		return "empty payload"
	}
	if err := json.Unmarshal(ev.Payload, target); err != nil {
		return fmt.Sprintf("malformed payload: %v", err)
	}
	return ""
}

// requireTime validates a required timestamp field.
func requireTime(t time.Time, field string) string {
	if t.IsZero() {
		return "missing or unparsable " + field
	}
	return ""
}

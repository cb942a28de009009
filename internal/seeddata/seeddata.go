// Package seeddata generates deterministic sample events for demos and
// offline pipeline runs. The same seed, repo and window always produce
// the same batch, so seeded runs are byte-for-byte reproducible.
package seeddata

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Default batch shape per window.
const (
	defaultCommits      = 20
	defaultPullRequests = 10
)

// defaultAuthors are the synthetic team members events rotate through.
var defaultAuthors = []string{"developer_0", "developer_1", "developer_2"}

// filePool is the set of paths seeded commits and pull requests touch.
var filePool = []string{
	"cmd/api/main.go",
	"internal/auth/session.go",
	"internal/auth/token.go",
	"internal/billing/invoice.go",
	"internal/billing/ledger.go",
	"internal/storage/postgres.go",
	"internal/storage/migrations.go",
	"internal/web/handlers.go",
	"internal/web/middleware.go",
	"pkg/client/client.go",
	"docs/api.md",
	"Makefile",
}

// Generator is a deterministic EventSource for seeded pipeline runs.
type Generator struct {
	seed         int64
	commits      int
	pullRequests int
	authors      []string
}

var _ contract.EventSource = &Generator{} // Compile-time check

// NewGenerator returns a Generator producing the default batch shape.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:         seed,
		commits:      defaultCommits,
		pullRequests: defaultPullRequests,
		authors:      defaultAuthors,
	}
}

// Wire payload shapes for the generated events.

type commitSeed struct {
	SHA          string    `json:"sha"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	ChangedFiles int       `json:"changed_files"`
	Files        []string  `json:"files"`
}

type pullRequestSeed struct {
	Number        int               `json:"number"`
	Author        string            `json:"author"`
	CreatedAt     time.Time         `json:"created_at"`
	FirstReviewAt *time.Time        `json:"first_review_at,omitempty"`
	MergedAt      *time.Time        `json:"merged_at,omitempty"`
	ClosedAt      *time.Time        `json:"closed_at,omitempty"`
	State         string            `json:"state"`
	Files         []schema.FileDiff `json:"files"`
}

type reviewSeed struct {
	PRNumber    int       `json:"pr_number"`
	Author      string    `json:"author"`
	SubmittedAt time.Time `json:"submitted_at"`
	State       string    `json:"state"`
}

type ciRunSeed struct {
	RunID      string     `json:"run_id"`
	SHA        string     `json:"sha,omitempty"`
	PRNumber   int        `json:"pr_number,omitempty"`
	Pipeline   string     `json:"pipeline"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome"`
	Deployment bool       `json:"deployment"`
}

// Fetch generates the full event batch for one repo and window.
func (g *Generator) Fetch(ctx context.Context, repo string, window schema.Period) ([]schema.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.windowSeed(repo, window)))
	span := window.End.Sub(window.Start)

	var events []schema.RawEvent

	// --- 1. Commits, spread evenly across the window ---
	type commitRef struct {
		sha    string
		author string
		at     time.Time
	}
	commits := make([]commitRef, 0, g.commits)
	for i := 0; i < g.commits; i++ {
		at := window.Start.Add(time.Duration(i+1) * span / time.Duration(g.commits+2))
		author := g.authors[i%len(g.authors)]
		sha := fmt.Sprintf("%08x%08x", rng.Uint32(), rng.Uint32())
		files := pickFiles(rng, 2+i%5)

		payload := commitSeed{
			SHA:          sha,
			Author:       author,
			Timestamp:    at,
			Additions:    50 + i*10 + rng.Intn(20),
			Deletions:    20 + i*5 + rng.Intn(10),
			ChangedFiles: len(files),
			Files:        files,
		}
		events = append(events, g.event(fmt.Sprintf("seed_commit_%d", i), schema.CommitEvent, repo, at, payload))
		commits = append(commits, commitRef{sha: sha, author: author, at: at})
	}

	// --- 2. Pull requests, alternating merged and open ---
	type prRef struct {
		number int
		author string
		merged *time.Time
	}
	// Lifecycle offsets scale with the window so merges and deployments
	// land inside the period at every grain.
	prs := make([]prRef, 0, g.pullRequests)
	tick := span / 48
	for i := 0; i < g.pullRequests; i++ {
		created := window.Start.Add(time.Duration(i+1) * span / time.Duration(2*(g.pullRequests+2)))
		author := g.authors[i%len(g.authors)]
		number := prNumberBase(window) + i

		payload := pullRequestSeed{
			Number:    number,
			Author:    author,
			CreatedAt: created,
			State:     string(schema.PROpen),
			Files:     pickDiffs(rng, 1+i%4),
		}

		review := created.Add(time.Duration(1+rng.Intn(5)) * tick)
		payload.FirstReviewAt = &review

		ref := prRef{number: number, author: author}
		if i%2 == 0 {
			merged := review.Add(time.Duration(1+rng.Intn(8)) * tick)
			payload.MergedAt = &merged
			payload.ClosedAt = &merged
			payload.State = string(schema.PRMerged)
			ref.merged = &merged
		}
		prs = append(prs, ref)
		events = append(events, g.event(fmt.Sprintf("seed_pr_%d", i), schema.PullRequestEvent, repo, created, payload))

		// Standalone review from the next author in the rotation
		reviewer := g.authors[(i+1)%len(g.authors)]
		reviewPayload := reviewSeed{
			PRNumber:    number,
			Author:      reviewer,
			SubmittedAt: review,
			State:       "approved",
		}
		events = append(events, g.event(fmt.Sprintf("seed_review_%d", i), schema.ReviewEvent, repo, review, reviewPayload))
	}

	// --- 3. CI runs: one build per commit, occasional failures ---
	for i, c := range commits {
		started := c.at.Add(5 * time.Minute)
		finished := started.Add(time.Duration(3+rng.Intn(10)) * time.Minute)
		outcome := schema.CISuccess
		if i%7 == 3 {
			outcome = schema.CIFailure
		}
		payload := ciRunSeed{
			RunID:      fmt.Sprintf("build-%d", i),
			SHA:        c.sha,
			Pipeline:   "build-and-test",
			StartedAt:  started,
			FinishedAt: &finished,
			Outcome:    string(outcome),
		}
		events = append(events, g.event(fmt.Sprintf("seed_ci_%d", i), schema.CIRunEvent, repo, started, payload))
	}

	// --- 4. Deployments: one per merged PR, every third fails then recovers ---
	deploys := 0
	for _, pr := range prs {
		if pr.merged == nil {
			continue
		}
		started := pr.merged.Add(30 * time.Minute)
		finished := started.Add(time.Duration(5+rng.Intn(10)) * time.Minute)
		outcome := schema.CISuccess
		if deploys%3 == 2 {
			outcome = schema.CIFailure
		}
		payload := ciRunSeed{
			RunID:      fmt.Sprintf("deploy-%d", deploys),
			PRNumber:   pr.number,
			Pipeline:   "deploy-production",
			StartedAt:  started,
			FinishedAt: &finished,
			Outcome:    string(outcome),
			Deployment: true,
		}
		events = append(events, g.event(fmt.Sprintf("seed_deploy_%d", deploys), schema.CIRunEvent, repo, started, payload))

		if outcome == schema.CIFailure {
			// Recovery run so the failure window closes inside the period
			retryStart := finished.Add(2 * time.Hour)
			retryEnd := retryStart.Add(time.Duration(5+rng.Intn(10)) * time.Minute)
			retry := ciRunSeed{
				RunID:      fmt.Sprintf("deploy-%d-retry", deploys),
				PRNumber:   pr.number,
				Pipeline:   "deploy-production",
				StartedAt:  retryStart,
				FinishedAt: &retryEnd,
				Outcome:    string(schema.CISuccess),
				Deployment: true,
			}
			events = append(events, g.event(fmt.Sprintf("seed_deploy_%d_retry", deploys), schema.CIRunEvent, repo, retryStart, retry))
		}
		deploys++
	}

	return events, nil
}

// event wraps a payload into a RawEvent. Marshalling a seed payload
// cannot fail, so errors are ignored.
func (g *Generator) event(id string, eventType schema.EventType, repo string, at time.Time, payload any) schema.RawEvent {
	raw, _ := json.Marshal(payload)
	return schema.RawEvent{
		ID:        id,
		Type:      eventType,
		Repo:      repo,
		Timestamp: at,
		Payload:   raw,
	}
}

// windowSeed derives the RNG seed for one repo and window. Folding the
// window start in keeps adjacent periods distinct while staying stable
// across invocations.
func (g *Generator) windowSeed(repo string, window schema.Period) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(repo))
	_, _ = h.Write([]byte(window.Key()))
	return g.seed ^ int64(h.Sum64())
}

// prNumberBase spaces PR numbers out per window so backfills over
// consecutive periods never collide.
func prNumberBase(window schema.Period) int {
	return int(window.Start.Unix()/86400)*100 + 1
}

// pickFiles draws n distinct paths from the file pool.
func pickFiles(rng *rand.Rand, n int) []string {
	if n > len(filePool) {
		n = len(filePool)
	}
	perm := rng.Perm(len(filePool))
	files := make([]string, n)
	for i := 0; i < n; i++ {
		files[i] = filePool[perm[i]]
	}
	return files
}

// pickDiffs draws n distinct per-file diffs from the file pool.
func pickDiffs(rng *rand.Rand, n int) []schema.FileDiff {
	diffs := make([]schema.FileDiff, 0, n)
	for _, path := range pickFiles(rng, n) {
		diffs = append(diffs, schema.FileDiff{
			Path:      path,
			Additions: 10 + rng.Intn(90),
			Deletions: rng.Intn(40),
		})
	}
	return diffs
}

package core

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// Registry serializes pipeline runs per (repo, grain, period start) key and
// coalesces concurrent requests for the same key onto one in-flight run, so
// at most one run per key ever executes and duplicate chat commands never
// cause duplicate writes.
type Registry struct {
	group singleflight.Group
	pipe  *Pipeline
}

// NewRegistry wraps a pipeline with per-key run coalescing.
func NewRegistry(pipe *Pipeline) *Registry {
	return &Registry{pipe: pipe}
}

// Run executes the pipeline for one key, or attaches to the in-flight run
// for that key if one exists. Attached callers share the first caller's
// context; cancelling an attached request does not cancel the shared run.
func (r *Registry) Run(ctx context.Context, repo string, period schema.Period) (*schema.PipelineResult, error) {
	v, err, _ := r.group.Do(runKey(repo, period), func() (any, error) {
		return r.pipe.Run(ctx, repo, period)
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.PipelineResult), nil
}

// Peek reports the persisted state of a key without starting a run.
func (r *Registry) Peek(repo string, period schema.Period) (*schema.PipelineResult, error) {
	return r.pipe.Peek(repo, period)
}

// RunMany processes several independent keys through a fixed worker pool
// and returns results in input order. Keys must not depend on each other's
// output; backfills that build baseline history run oldest-first through
// Run instead. The joined error covers keys whose run could not execute at
// all; per-stage failures live inside the results.
func (r *Registry) RunMany(ctx context.Context, repo string, periods []schema.Period, workers int) ([]*schema.PipelineResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*schema.PipelineResult, len(periods))
	errs := make([]error, len(periods))

	jobCh := make(chan int, len(periods))
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for i := range jobCh {
				// Each worker writes to a unique index, which is safe
				results[i], errs[i] = r.Run(ctx, repo, periods[i])
			}
		})
	}
	for i := range periods {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	return results, errors.Join(errs...)
}

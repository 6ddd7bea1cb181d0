// Package scheduler drives the job graph's execution groups through the
// runner, strictly in dependency order between groups and concurrently
// (bounded by max_concurrent) within a group.
package scheduler

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/plasticdigits/worksplit/pkg/graph"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/jobsmgr"
	"github.com/plasticdigits/worksplit/pkg/runner"
	"github.com/plasticdigits/worksplit/pkg/status"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

var log = logrus.WithField("component", "scheduler")

// Scheduler runs a set of discovered jobs against a shared Runner,
// respecting the dependency graph and the stuck-job and stop-on-fail
// policies.
type Scheduler struct {
	Jobs   *jobsmgr.Manager
	Store  *status.Store
	Runner *runner.Runner
}

// RunSummary aggregates the outcome of a run_all/run_batch pass.
type RunSummary struct {
	Processed int
	Passed    int
	Failed    int
	Skipped   int
	Results   []runner.Result
}

// RunSingle runs exactly one job by id, bypassing the graph entirely.
func (s *Scheduler) RunSingle(ctx context.Context, id string) (runner.Result, error) {
	jobs, err := s.Jobs.Discover()
	if err != nil {
		return runner.Result{}, err
	}

	for _, j := range jobs {
		if j.ID != id {
			continue
		}
		if err := s.Store.SyncWithJobs([]string{id}); err != nil {
			return runner.Result{}, err
		}
		return s.Runner.Run(ctx, j)
	}

	return runner.Result{}, &wkerr.JobNotFound{JobID: id}
}

// RunAll runs every discovered job strictly one at a time, in dependency
// order. It is run_batch with max_concurrent pinned to 1.
func (s *Scheduler) RunAll(ctx context.Context, resumeStuck, stopOnFail bool) (*RunSummary, error) {
	return s.RunBatch(ctx, resumeStuck, stopOnFail, 1)
}

// RunBatch discovers jobs, builds the dependency graph, and executes its
// groups strictly in order; within a group, up to maxConcurrent jobs run
// concurrently (0 means unbounded). A job left in an intermediate status
// or Partial from a previous run is "stuck": it is skipped unless
// resumeStuck re-queues it as ready. If stopOnFail is set, the first
// failing or partial outcome in a group still lets that group's other
// in-flight jobs finish, but no further group is started.
func (s *Scheduler) RunBatch(ctx context.Context, resumeStuck, stopOnFail bool, maxConcurrent int) (*RunSummary, error) {
	jobs, err := s.Jobs.Discover()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*job.Job, len(jobs))
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		byID[j.ID] = j
		ids[i] = j.ID
	}

	if err := s.Store.SyncWithJobs(ids); err != nil {
		return nil, err
	}

	g, err := graph.Build(jobs)
	if err != nil {
		return nil, err
	}
	groups, err := g.ExecutionGroups()
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{}
	stopped := false

	for _, group := range groups {
		if stopped {
			summary.Skipped += len(group)
			continue
		}

		eligible, err := s.eligibleJobs(group, resumeStuck, summary)
		if err != nil {
			return nil, err
		}
		if len(eligible) == 0 {
			continue
		}

		results, err := s.runGroup(ctx, eligible, byID, maxConcurrent)
		if err != nil {
			return nil, err
		}

		failedInGroup := false
		for _, r := range results {
			summary.Processed++
			summary.Results = append(summary.Results, r)
			switch r.Status {
			case status.Pass:
				summary.Passed++
			case status.Fail, status.Partial:
				summary.Failed++
				failedInGroup = true
			}
		}

		if stopOnFail && failedInGroup {
			stopped = true
		}
	}

	return summary, nil
}

// eligibleJobs partitions a group into the ids that should run this pass,
// counting everything else (Pass, Fail already recorded, or stuck without
// resumeStuck) toward summary.Skipped.
func (s *Scheduler) eligibleJobs(group graph.Group, resumeStuck bool, summary *RunSummary) ([]string, error) {
	var eligible []string
	for _, id := range group {
		entry, err := s.Store.GetEntry(id)
		if err != nil {
			return nil, err
		}
		switch {
		case entry.Status.IsReady():
			eligible = append(eligible, id)
		case entry.Status.IsStuck() && resumeStuck:
			log.WithField("job_id", id).Info("resuming stuck job")
			eligible = append(eligible, id)
		default:
			summary.Skipped++
		}
	}
	return eligible, nil
}

// runGroup runs every id in the group through the runner, bounded by
// maxConcurrent concurrent goroutines. An error returned by the runner
// itself (not a job Fail/Partial result) is an infrastructure failure and
// aborts the whole batch.
func (s *Scheduler) runGroup(ctx context.Context, ids []string, byID map[string]*job.Job, maxConcurrent int) ([]runner.Result, error) {
	results := make([]runner.Result, len(ids))

	eg, egCtx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		eg.SetLimit(maxConcurrent)
	}

	for i, id := range ids {
		i, id := i, id
		eg.Go(func() error {
			result, err := s.Runner.Run(egCtx, byID[id])
			results[i] = result
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

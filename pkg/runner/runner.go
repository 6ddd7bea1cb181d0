// Package runner executes the per-job state machine: generation, write,
// verification, optional build verification, and finalization, branching
// on a job's mode, sequential flag, and whether it follows the TDD path.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/plasticdigits/worksplit/pkg/buildrun"
	"github.com/plasticdigits/worksplit/pkg/config"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/jobsmgr"
	"github.com/plasticdigits/worksplit/pkg/llm"
	"github.com/plasticdigits/worksplit/pkg/status"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

var log = logrus.WithField("component", "runner")

// defaultLLMRetries bounds the scheduler-level automatic retry on
// transport-level LLM errors; verification-driven retries are separate
// and capped at exactly one per job regardless of this value.
const defaultLLMRetries = 2

// Runner executes jobs against a shared set of collaborators: the status
// store, an LLM client, an optional build runner, and the jobs manager
// that resolves file contents and system prompts.
type Runner struct {
	Jobs    *jobsmgr.Manager
	Store   *status.Store
	LLM     llm.Client
	Build   buildrun.BuildRunner
	Config  *config.Config
	Prompts *jobsmgr.SystemPrompts

	// DenyList names additional paths safe_write must refuse, beyond the
	// jobs directory tree and any "_jobstatus.json" path component.
	DenyList []string

	// JobTimeout overrides Config.JobTimeout when set (e.g. a CLI flag).
	JobTimeout time.Duration
}

// Result is the per-job outcome the scheduler records into a RunSummary.
type Result struct {
	JobID          string
	Status         status.JobStatus
	Reason         string
	OutputPaths    []string
	RetryAttempted bool
}

func (r *Runner) jobTimeout() time.Duration {
	if r.JobTimeout > 0 {
		return r.JobTimeout
	}
	if r.Config != nil && r.Config.JobTimeout > 0 {
		return r.Config.JobTimeout
	}
	return 5 * time.Minute
}

// Run executes the full phase sequence for one job and returns its
// terminal Result. Dry runs go through RunDryRun instead, which returns a
// Plan without any status mutation or disk write.
func (r *Runner) Run(ctx context.Context, j *job.Job) (Result, error) {
	jx, err := r.preamble(ctx, j)
	if err != nil {
		return r.fail(j.ID, err), err
	}

	pid := os.Getpid()
	r.Store.RegisterRunning(j.ID, pid)
	defer r.Store.ClearRunning(j.ID)

	if err := r.Store.UpdateStatus(j.ID, status.PendingWork); err != nil {
		return r.fail(j.ID, err), err
	}

	if j.IsTDD() {
		if err := r.Store.UpdateStatus(j.ID, status.PendingTest); err != nil {
			return r.fail(j.ID, err), err
		}
		if err := testGeneration(ctx, jx); err != nil {
			return r.finalizeError(jx, err)
		}
		if err := r.Store.UpdateStatus(j.ID, status.PendingWork); err != nil {
			return r.fail(j.ID, err), err
		}
	}

	gen := pickGenerator(j)
	if err := gen(ctx, jx); err != nil {
		return r.finalizeError(jx, err)
	}

	if jx.terminalPartial {
		if err := r.Store.SetPartial(j.ID, status.PartialEditState{
			SuccessfulEdits: jx.SuccessfulEdits,
			FailedEdits:     jx.FailedEdits,
		}); err != nil {
			return r.fail(j.ID, err), err
		}
		writeErr := r.writeAll(jx)
		paths := jx.writtenPaths()
		if writeErr == nil {
			r.Store.SetOutputPaths(j.ID, paths)
		}
		return Result{JobID: j.ID, Status: status.Partial, Reason: "some edits failed", OutputPaths: paths}, nil
	}

	if err := r.writeAll(jx); err != nil {
		return r.finalizeError(jx, err)
	}

	if err := r.Store.UpdateStatus(j.ID, status.PendingVerification); err != nil {
		return r.fail(j.ID, err), err
	}

	if j.VerifyEnabled() {
		if err := runVerification(ctx, jx); err != nil {
			return r.finalizeError(jx, err)
		}
	}

	if j.IsTDD() {
		if err := r.Store.UpdateStatus(j.ID, status.PendingTestRun); err != nil {
			return r.fail(j.ID, err), err
		}
		log.WithFields(logrus.Fields{"job_id": j.ID, "run_id": jx.RunID}).Info("TDD test execution deferred; verification stood in for it")
	}

	if err := runBuildVerification(ctx, jx); err != nil {
		return r.finalizeError(jx, err)
	}

	paths := jx.writtenPaths()
	if err := r.Store.SetOutputPaths(j.ID, paths); err != nil {
		return r.fail(j.ID, err), err
	}
	if err := r.Store.SetRetry(j.ID, jx.Retried, jx.RetryReason); err != nil {
		return r.fail(j.ID, err), err
	}
	if err := r.Store.UpdateStatus(j.ID, status.Pass); err != nil {
		return r.fail(j.ID, err), err
	}

	log.WithFields(logrus.Fields{"job_id": j.ID, "run_id": jx.RunID}).Info("job passed; remember to integrate the generated code into its callers")

	return Result{
		JobID:          j.ID,
		Status:         status.Pass,
		OutputPaths:    paths,
		RetryAttempted: jx.Retried,
	}, nil
}

func (r *Runner) fail(id string, err error) Result {
	return Result{JobID: id, Status: status.Fail, Reason: err.Error()}
}

// finalizeError classifies err, persists the Fail status with its reason,
// and returns the matching Result. A Cancelled error is recorded with its
// own fixed reason rather than the wrapped error text.
func (r *Runner) finalizeError(jx *JobExec, err error) (Result, error) {
	reason := err.Error()

	var cancelled *wkerr.Cancelled
	if errors.As(err, &cancelled) {
		reason = cancelled.Reason
	}

	if setErr := r.Store.SetFailed(jx.Job.ID, reason); setErr != nil {
		log.WithError(setErr).WithFields(logrus.Fields{"job_id": jx.Job.ID, "run_id": jx.RunID}).Error("failed to persist Fail status")
	}
	if setErr := r.Store.SetRetry(jx.Job.ID, jx.Retried, jx.RetryReason); setErr != nil {
		log.WithError(setErr).WithFields(logrus.Fields{"job_id": jx.Job.ID, "run_id": jx.RunID}).Error("failed to persist retry state")
	}

	return Result{JobID: jx.Job.ID, Status: status.Fail, Reason: reason, RetryAttempted: jx.Retried}, nil
}

// preamble validates file sizes, loads context/target file contents, and
// builds the JobExec shared across every phase.
func (r *Runner) preamble(ctx context.Context, j *job.Job) (*JobExec, error) {
	if r.Prompts == nil {
		prompts, err := r.Jobs.LoadSystemPrompts()
		if err != nil {
			return nil, err
		}
		r.Prompts = prompts
	}

	contextPaths := r.Jobs.ResolveContext(j)
	contextFiles, err := r.Jobs.LoadFiles(r.Jobs.Dir(), contextPaths)
	if err != nil {
		return nil, err
	}

	var targetFiles []jobsmgr.FileContent
	switch j.Mode {
	case job.ModeEdit, job.ModeReplacePattern, job.ModeUpdateFixtures:
		targetFiles, err = r.Jobs.LoadFiles(r.Jobs.Dir(), j.TargetPaths)
		if err != nil {
			return nil, err
		}
	}

	jx := &JobExec{
		Job:     j,
		Runner:  r,
		RunID:   "run-" + uuid.New().String()[:8],
		Context: toPromptFiles(contextFiles),
		Targets: toPromptFiles(targetFiles),
	}
	return jx, nil
}

func (r *Runner) writeAll(jx *JobExec) error {
	for _, f := range jx.Generated {
		if err := jx.safeWrite(f.Path, f.Content); err != nil {
			return err
		}
	}
	return nil
}

// llmGenerate wraps one LLM call with the per-job deadline and translates
// a deadline or outer cancellation into the matching wkerr type.
func (jx *JobExec) llmGenerate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, jx.Runner.jobTimeout())
	defer cancel()

	stream := jx.Runner.Config != nil && jx.Runner.Config.Behavior.StreamOutput
	reply, err := jx.Runner.LLM.GenerateWithRetry(callCtx, systemPrompt, userPrompt, stream, defaultLLMRetries)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", &wkerr.Cancelled{JobID: jx.Job.ID, Reason: "Cancelled by user"}
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &wkerr.Timeout{JobID: jx.Job.ID, After: jx.Runner.jobTimeout().String()}
		}
		return "", fmt.Errorf("generating for job %s: %w", jx.Job.ID, err)
	}
	return reply, nil
}

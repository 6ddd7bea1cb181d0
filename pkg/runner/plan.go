package runner

import (
	"context"

	"github.com/plasticdigits/worksplit/pkg/job"
)

// PlanStatus classifies one dry-run plan entry.
type PlanStatus string

const (
	WillApply      PlanStatus = "WillApply"
	WillApplyFuzzy PlanStatus = "WillApplyFuzzy"
	WillFail       PlanStatus = "WillFail"
)

// PlanEntry is one file's projected outcome under a dry run.
type PlanEntry struct {
	File      string
	Status    PlanStatus
	FuzzyHint string
}

// Plan is what RunDryRun returns instead of mutating status or writing
// files: the projected per-file outcome of running a job for real.
type Plan struct {
	JobID   string
	Entries []PlanEntry
}

// RunDryRun performs the preamble and generation phase — including edit
// parsing and application against in-memory content — but never calls
// safe_write and never mutates the status store. For Edit-mode jobs each
// FIND instruction's projected outcome is reported individually; for
// every other mode, ReplacePattern included, each generated file is
// reported as WillApply.
func (r *Runner) RunDryRun(ctx context.Context, j *job.Job) (*Plan, error) {
	jx, err := r.preamble(ctx, j)
	if err != nil {
		return nil, err
	}

	gen := pickGenerator(j)
	genErr := gen(ctx, jx)

	hasEditOutcome := len(jx.SuccessfulEdits) > 0 || len(jx.FailedEdits) > 0
	if genErr != nil && !(j.Mode == job.ModeEdit && hasEditOutcome) {
		return nil, genErr
	}

	return buildPlan(jx), nil
}

func buildPlan(jx *JobExec) *Plan {
	p := &Plan{JobID: jx.Job.ID}

	if jx.Job.Mode == job.ModeEdit {
		for _, e := range jx.SuccessfulEdits {
			p.Entries = append(p.Entries, PlanEntry{File: e.File, Status: WillApply})
		}
		for _, f := range jx.FailedEdits {
			st := WillFail
			if f.SuggestedLine != nil {
				st = WillApplyFuzzy
			}
			p.Entries = append(p.Entries, PlanEntry{File: f.File, Status: st, FuzzyHint: f.Reason})
		}
		return p
	}

	for _, f := range jx.Generated {
		p.Entries = append(p.Entries, PlanEntry{File: f.Path, Status: WillApply})
	}
	return p
}

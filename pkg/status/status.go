// Package status implements the durable per-job status store: a single
// JSON document at jobs/_jobstatus.json, written atomically via
// temp-file-then-rename, guarded by a shared in-process lock.
package status

import "time"

// JobStatus is one of the lifecycle states a job can be in.
type JobStatus string

const (
	Created             JobStatus = "created"
	PendingTest         JobStatus = "pending_test"
	PendingWork         JobStatus = "pending_work"
	PendingVerification JobStatus = "pending_verification"
	PendingTestRun      JobStatus = "pending_test_run"
	Pass                JobStatus = "pass"
	Fail                JobStatus = "fail"
	Partial             JobStatus = "partial"
)

// IsReady reports whether a job in this status can be dispatched fresh.
func (s JobStatus) IsReady() bool { return s == Created }

// IsComplete reports whether this status is terminal (Pass or Fail).
func (s JobStatus) IsComplete() bool { return s == Pass || s == Fail }

// IsPartial reports whether this status is the Partial terminal outcome.
func (s JobStatus) IsPartial() bool { return s == Partial }

// IsStuck reports whether a job in this status is neither ready nor
// complete: an intermediate state or Partial, left over from a prior run.
func (s JobStatus) IsStuck() bool {
	return !s.IsReady() && !s.IsComplete()
}

// EditPreview is a (file, FIND-text preview) pair, truncated to 50 chars.
type EditPreview struct {
	File    string `json:"file"`
	Preview string `json:"preview"`
}

// FailedEdit additionally carries the failure reason and an optional
// suggested line number drawn from fuzzy diagnostics.
type FailedEdit struct {
	File          string `json:"file"`
	Preview       string `json:"preview"`
	Reason        string `json:"reason"`
	SuggestedLine *int   `json:"suggested_line,omitempty"`
}

// PartialEditState is populated only when at least one edit in a job
// succeeded and at least one failed.
type PartialEditState struct {
	SuccessfulEdits []EditPreview `json:"successful_edits"`
	FailedEdits     []FailedEdit  `json:"failed_edits"`
}

// JobStatusEntry is the mutable, persisted record for one job id.
type JobStatusEntry struct {
	Status         JobStatus         `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Error          string            `json:"error,omitempty"`
	OutputPaths    []string          `json:"output_paths,omitempty"`
	RetryAttempted bool              `json:"retry_attempted,omitempty"`
	RetryReason    string            `json:"retry_reason,omitempty"`
	PartialState   *PartialEditState `json:"partial_state,omitempty"`

	// RunningPID is transient: never persisted, only meaningful within the
	// current process's running-PID registry (see Store.RegisterRunning).
	RunningPID int `json:"-"`
}

// Summary aggregates per-status counts over every tracked job.
type Summary struct {
	Counts   map[JobStatus]int `json:"counts"`
	Pending  int               `json:"pending"`
	Failures []string          `json:"failures"`
}

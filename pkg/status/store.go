package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

var log = logrus.WithField("component", "status")

// Store is the shared, durable, atomically-mutable status map: a single
// owner object behind a reader-writer lock, persistence through
// temp-file + rename. Safe for concurrent use from multiple cooperating
// goroutines within one process; not for cross-process use.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*JobStatusEntry
	running map[string]int // job id -> pid, in-memory only
}

// Open loads the status document at path if it exists, or starts empty.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]*JobStatusEntry),
		running: make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &wkerr.Io{Path: path, Err: err}
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, &wkerr.Io{Path: path, Err: err}
	}
	return s, nil
}

// save persists the whole document via write-to-temp-file then atomic
// rename. Callers must hold s.mu for writing.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &wkerr.Io{Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &wkerr.Io{Path: s.path, Err: err}
	}
	success = true
	return nil
}

// SyncWithJobs creates Created entries for any id not already tracked.
// Existing entries are left untouched.
func (s *Store) SyncWithJobs(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	changed := false
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			continue
		}
		s.entries[id] = &JobStatusEntry{
			Status:    Created,
			CreatedAt: now,
			UpdatedAt: now,
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return s.save()
}

func (s *Store) get(id string) (*JobStatusEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, &wkerr.JobNotFound{JobID: id}
	}
	return e, nil
}

// GetEntry returns a copy of the entry for id.
func (s *Store) GetEntry(id string) (JobStatusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return JobStatusEntry{}, err
	}
	return *e, nil
}

// UpdateStatus transitions a job's status and persists the change.
//
// Status monotonicity: once a job reaches Pass, this refuses further
// mutation except via ResetJob.
func (s *Store) UpdateStatus(id string, newStatus JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	if e.Status == Pass {
		log.WithFields(logrus.Fields{"job_id": id, "attempted": newStatus}).
			Warn("ignoring status transition out of terminal Pass state")
		return nil
	}
	e.Status = newStatus
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// SetOutputPaths records the files a job produced, without changing status.
func (s *Store) SetOutputPaths(id string, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	e.OutputPaths = paths
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// SetRetry records whether a verification-driven retry was attempted.
func (s *Store) SetRetry(id string, attempted bool, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	e.RetryAttempted = attempted
	e.RetryReason = reason
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// SetFailed marks a job Fail with a recorded error message.
func (s *Store) SetFailed(id string, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	if e.Status == Pass {
		return nil
	}
	e.Status = Fail
	e.Error = msg
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// SetPartial marks a job Partial and stores its PartialEditState.
func (s *Store) SetPartial(id string, state PartialEditState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	if e.Status == Pass {
		return nil
	}
	e.Status = Partial
	e.PartialState = &state
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// ClearPartialState removes a job's PartialEditState, used when a
// continuation retry succeeds outright.
func (s *Store) ClearPartialState(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	e.PartialState = nil
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// ResetJob moves a job back to Created, clearing error and partial state
// while preserving CreatedAt. This is the only way to move a Pass entry
// to another status.
func (s *Store) ResetJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(id)
	if err != nil {
		return err
	}
	e.Status = Created
	e.Error = ""
	e.PartialState = nil
	e.RetryAttempted = false
	e.RetryReason = ""
	e.OutputPaths = nil
	e.UpdatedAt = time.Now().UTC()
	return s.save()
}

// StatusUpdate is one entry in a batched mutation via UpdateStatusesBatch.
type StatusUpdate struct {
	JobID  string
	Status JobStatus
}

// UpdateStatusesBatch applies many status transitions with a single write.
func (s *Store) UpdateStatusesBatch(updates []StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, u := range updates {
		e, ok := s.entries[u.JobID]
		if !ok {
			return &wkerr.JobNotFound{JobID: u.JobID}
		}
		if e.Status == Pass {
			continue
		}
		e.Status = u.Status
		e.UpdatedAt = now
	}
	return s.save()
}

// AllEntries returns a snapshot of every tracked job id to its entry.
func (s *Store) AllEntries() map[string]JobStatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]JobStatusEntry, len(s.entries))
	for id, e := range s.entries {
		out[id] = *e
	}
	return out
}

// GetReadyJobs returns ids whose entries are in a Created state.
func (s *Store) GetReadyJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsWhere(func(e *JobStatusEntry) bool { return e.Status.IsReady() })
}

// GetStuckJobs returns ids in an intermediate or Partial state.
func (s *Store) GetStuckJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsWhere(func(e *JobStatusEntry) bool { return e.Status.IsStuck() })
}

// GetPartialJobs returns ids currently in the Partial state.
func (s *Store) GetPartialJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsWhere(func(e *JobStatusEntry) bool { return e.Status.IsPartial() })
}

func (s *Store) idsWhere(pred func(*JobStatusEntry) bool) []string {
	var ids []string
	for id, e := range s.entries {
		if pred(e) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetSummary returns counts per status, the aggregate pending count, and
// the ids of every job currently Fail.
func (s *Store) GetSummary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Counts: make(map[JobStatus]int)}
	for id, e := range s.entries {
		sum.Counts[e.Status]++
		switch e.Status {
		case PendingWork, PendingVerification, PendingTest, PendingTestRun:
			sum.Pending++
		case Fail:
			sum.Failures = append(sum.Failures, id)
		}
	}
	sort.Strings(sum.Failures)
	return sum
}

// RegisterRunning records the PID executing a job, for external cancel.
// This registry is in-memory only and never implies liveness across
// process restarts.
func (s *Store) RegisterRunning(id string, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[id] = pid
}

// ClearRunning removes a job's PID from the running registry.
func (s *Store) ClearRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// RunningJobs returns a snapshot of job id -> PID for every job currently
// registered as running in this process.
func (s *Store) RunningJobs() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.running))
	for id, pid := range s.running {
		out[id] = pid
	}
	return out
}

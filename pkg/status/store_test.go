package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "_jobstatus.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestSyncWithJobs_CreatesOnlyNew(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.SyncWithJobs([]string{"a", "b"}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := s.UpdateStatus("a", PendingWork); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.SyncWithJobs([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("sync2: %v", err)
	}

	entries := s.AllEntries()
	if entries["a"].Status != PendingWork {
		t.Errorf("existing entry a was overwritten: %v", entries["a"].Status)
	}
	if entries["c"].Status != Created {
		t.Errorf("new entry c = %v, want Created", entries["c"].Status)
	}
}

func TestUpdateStatus_Monotonicity(t *testing.T) {
	s, _ := newTestStore(t)
	s.SyncWithJobs([]string{"a"})
	if err := s.UpdateStatus("a", Pass); err != nil {
		t.Fatalf("update to pass: %v", err)
	}
	if err := s.UpdateStatus("a", PendingWork); err != nil {
		t.Fatalf("update after pass should not error: %v", err)
	}
	e, _ := s.GetEntry("a")
	if e.Status != Pass {
		t.Errorf("status changed after Pass: %v", e.Status)
	}
}

func TestResetJob_PreservesCreatedAt(t *testing.T) {
	s, _ := newTestStore(t)
	s.SyncWithJobs([]string{"a"})
	before, _ := s.GetEntry("a")
	s.SetFailed("a", "boom")
	if err := s.ResetJob("a"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	after, _ := s.GetEntry("a")
	if after.Status != Created {
		t.Errorf("status = %v, want Created", after.Status)
	}
	if after.Error != "" {
		t.Errorf("error not cleared: %q", after.Error)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed: %v vs %v", after.CreatedAt, before.CreatedAt)
	}
}

func TestAtomicPersistence_NeverTruncatedOrInvalid(t *testing.T) {
	s, path := newTestStore(t)
	s.SyncWithJobs([]string{"a", "b", "c"})
	for i := 0; i < 20; i++ {
		s.UpdateStatus("a", PendingWork)
		s.UpdateStatus("a", Created)

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var doc map[string]JobStatusEntry
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("on-disk document invalid JSON at iteration %d: %v", i, err)
		}
	}
}

func TestGetSummary(t *testing.T) {
	s, _ := newTestStore(t)
	s.SyncWithJobs([]string{"a", "b", "c", "d"})
	s.UpdateStatus("a", PendingWork)
	s.UpdateStatus("b", PendingVerification)
	s.SetFailed("c", "nope")
	s.UpdateStatus("d", Pass)

	sum := s.GetSummary()
	if sum.Pending != 2 {
		t.Errorf("pending = %d, want 2", sum.Pending)
	}
	if len(sum.Failures) != 1 || sum.Failures[0] != "c" {
		t.Errorf("failures = %v, want [c]", sum.Failures)
	}
}

func TestGetStuckAndPartialJobs(t *testing.T) {
	s, _ := newTestStore(t)
	s.SyncWithJobs([]string{"a", "b", "c"})
	s.UpdateStatus("a", PendingWork)
	s.SetPartial("b", PartialEditState{
		SuccessfulEdits: []EditPreview{{File: "x.go", Preview: "func foo"}},
		FailedEdits:     []FailedEdit{{File: "x.go", Preview: "func bar", Reason: "no match"}},
	})

	stuck := s.GetStuckJobs()
	if len(stuck) != 2 {
		t.Fatalf("stuck = %v, want 2 entries", stuck)
	}
	partial := s.GetPartialJobs()
	if len(partial) != 1 || partial[0] != "b" {
		t.Fatalf("partial = %v, want [b]", partial)
	}
}

func TestUpdateStatusesBatch_SingleWrite(t *testing.T) {
	s, _ := newTestStore(t)
	s.SyncWithJobs([]string{"a", "b"})
	err := s.UpdateStatusesBatch([]StatusUpdate{
		{JobID: "a", Status: PendingWork},
		{JobID: "b", Status: PendingVerification},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	entries := s.AllEntries()
	if entries["a"].Status != PendingWork || entries["b"].Status != PendingVerification {
		t.Errorf("batch update did not apply: %+v", entries)
	}
}

func TestRunningRegistry_NotPersisted(t *testing.T) {
	s, path := newTestStore(t)
	s.SyncWithJobs([]string{"a"})
	s.RegisterRunning("a", 12345)

	if got := s.RunningJobs(); got["a"] != 12345 {
		t.Fatalf("running registry = %v", got)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]map[string]any
	json.Unmarshal(data, &raw)
	if _, ok := raw["a"]["RunningPID"]; ok {
		t.Error("running pid leaked into persisted document")
	}

	s.ClearRunning("a")
	if got := s.RunningJobs(); len(got) != 0 {
		t.Errorf("expected empty running registry after clear, got %v", got)
	}
}

func TestConcurrentBatchWrites(t *testing.T) {
	s, _ := newTestStore(t)
	ids := []string{"a", "b", "c", "d", "e"}
	s.SyncWithJobs(ids)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				s.UpdateStatus(id, PendingWork)
				s.UpdateStatus(id, Created)
			}
		}(id)
	}
	wg.Wait()

	entries := s.AllEntries()
	if len(entries) != len(ids) {
		t.Fatalf("entries = %d, want %d", len(entries), len(ids))
	}
}

func TestGetEntry_UnknownJob(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetEntry("nope")
	if err == nil {
		t.Fatal("expected JobNotFound error")
	}
}

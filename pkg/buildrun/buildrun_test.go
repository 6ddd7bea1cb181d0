package buildrun

import (
	"context"
	"strings"
	"testing"
)

func TestShellRunner_VerifyBuild_Success(t *testing.T) {
	r := NewShellRunner()
	ok, output, err := r.VerifyBuild(context.Background(), "echo hello", ".")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !ok {
		t.Fatal("expected ok = true")
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("output = %q", output)
	}
}

func TestShellRunner_VerifyBuild_NonZeroExitIsNotError(t *testing.T) {
	r := NewShellRunner()
	ok, output, err := r.VerifyBuild(context.Background(), "echo failing >&2; exit 1", ".")
	if err != nil {
		t.Fatalf("err = %v, want nil (nonzero exit is reported via ok)", err)
	}
	if ok {
		t.Fatal("expected ok = false")
	}
	if !strings.Contains(output, "failing") {
		t.Errorf("output = %q", output)
	}
}

func TestShellRunner_VerifyBuild_RunsInCwd(t *testing.T) {
	r := NewShellRunner()
	ok, output, err := r.VerifyBuild(context.Background(), "pwd", "/tmp")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !strings.Contains(strings.TrimSpace(output), "tmp") {
		t.Errorf("output = %q, want to contain tmp", output)
	}
}

func TestMockRunner_RecordsCallsAndScriptedResults(t *testing.T) {
	m := &MockRunner{Results: map[string]Result{
		"go test ./...": {OK: false, Output: "FAIL"},
	}}
	ok, output, err := m.VerifyBuild(context.Background(), "go test ./...", "/repo")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if ok || output != "FAIL" {
		t.Errorf("ok=%v output=%q", ok, output)
	}
	if len(m.Calls) != 1 || m.Calls[0].Command != "go test ./..." || m.Calls[0].Cwd != "/repo" {
		t.Errorf("Calls = %+v", m.Calls)
	}
}

func TestMockRunner_DefaultsToOKWhenUnscripted(t *testing.T) {
	m := &MockRunner{}
	ok, _, err := m.VerifyBuild(context.Background(), "anything", ".")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

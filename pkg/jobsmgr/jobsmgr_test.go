package jobsmgr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plasticdigits/worksplit/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestDiscover_ExcludesUnderscoreAndNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "job-one.md", "---\noutput_dir: .\noutput_file: one.go\n---\nDo the thing.\n")
	writeFile(t, dir, "_systemprompt_create.md", "system prompt")
	writeFile(t, dir, "notes.txt", "not a job")

	m := New(dir, config.Default())
	jobs, err := m.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-one" {
		t.Fatalf("jobs = %v, want [job-one]", jobs)
	}
}

func TestDiscover_SortedByID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.md", "---\noutput_dir: .\noutput_file: z.go\n---\nbody\n")
	writeFile(t, dir, "alpha.md", "---\noutput_dir: .\noutput_file: a.go\n---\nbody\n")

	m := New(dir, config.Default())
	jobs, err := m.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "alpha" || jobs[1].ID != "zeta" {
		t.Fatalf("jobs = %v, want sorted [alpha zeta]", jobs)
	}
}

func TestDiscover_MissingDirReturnsJobsFolderNotFound(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "missing"), config.Default())
	_, err := m.Discover()
	if err == nil {
		t.Fatal("expected error for missing jobs directory")
	}
}

func TestLoadSystemPrompts_RequiredAndOptional(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, promptCreate, "create prompt")
	writeFile(t, dir, promptVerify, "verify prompt")
	writeFile(t, dir, promptEdit, "edit prompt")
	writeFile(t, dir, promptTest, "test prompt")

	m := New(dir, config.Default())
	sp, err := m.LoadSystemPrompts()
	if err != nil {
		t.Fatalf("LoadSystemPrompts: %v", err)
	}
	if sp.Create != "create prompt" || sp.Verify != "verify prompt" || sp.Edit != "edit prompt" {
		t.Fatalf("sp = %+v", sp)
	}
	if sp.Test != "test prompt" {
		t.Errorf("Test = %q, want loaded optional prompt", sp.Test)
	}
	if sp.Split != "" {
		t.Errorf("Split = %q, want empty (not present)", sp.Split)
	}
}

func TestLoadSystemPrompts_MissingRequiredErrors(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, config.Default())
	_, err := m.LoadSystemPrompts()
	if err == nil {
		t.Fatal("expected error for missing required system prompts")
	}
}

func TestLoadFiles_EnforcesSizeBudget(t *testing.T) {
	dir := t.TempDir()
	var big strings.Builder
	for i := 0; i < 950; i++ {
		big.WriteString("line\n")
	}
	writeFile(t, dir, "big.go", big.String())

	cfg := config.Default()
	m := New(dir, cfg)
	_, err := m.LoadFiles(dir, []string{"big.go"})
	if err == nil {
		t.Fatal("expected FileTooLarge error")
	}
}

func TestLoadFiles_WithinBudget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.go", "package small\n")

	m := New(dir, config.Default())
	files, err := m.LoadFiles(dir, []string{"small.go"})
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(files) != 1 || files[0].Content != "package small\n" {
		t.Fatalf("files = %+v", files)
	}
}

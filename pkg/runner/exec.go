package runner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/plasticdigits/worksplit/pkg/extract"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/jobsmgr"
	"github.com/plasticdigits/worksplit/pkg/prompt"
	"github.com/plasticdigits/worksplit/pkg/status"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// JobExec is the small mutable context threaded through every phase
// function for one job's execution.
type JobExec struct {
	Job    *job.Job
	Runner *Runner

	// RunID correlates every log line emitted for this execution, so
	// concurrent job runs in a batch don't interleave indistinguishably.
	RunID string

	Context []prompt.File
	Targets []prompt.File

	// Generated holds the staged output of the generation phase: full
	// file contents ready for safe_write.
	Generated []extract.File

	// TestGenerated holds the TDD test file staged by testGeneration.
	TestGenerated *extract.File

	Retried     bool
	RetryReason string

	SuccessfulEdits []status.EditPreview
	FailedEdits     []status.FailedEdit
	terminalPartial bool

	written []string
}

func toPromptFiles(files []jobsmgr.FileContent) []prompt.File {
	out := make([]prompt.File, len(files))
	for i, f := range files {
		out[i] = prompt.File{Path: f.Path, Content: f.Content}
	}
	return out
}

func extractToPromptFiles(files []extract.File) []prompt.File {
	out := make([]prompt.File, len(files))
	for i, f := range files {
		out[i] = prompt.File{Path: f.Path, Content: f.Content}
	}
	return out
}

// primaryOutputPath returns output_file resolved against output_dir.
func primaryOutputPath(j *job.Job) string {
	return filepath.Join(j.OutputDir, j.OutputFile)
}

// testOutputPath returns the TDD test file's path, resolved against
// output_dir exactly as the primary output is.
func testOutputPath(j *job.Job) string {
	return filepath.Join(j.OutputDir, j.TestFile)
}

func (jx *JobExec) writtenPaths() []string {
	return jx.written
}

// safeWrite refuses to touch the jobs directory tree, any path whose
// final component is "_jobstatus.json", or an entry in the runner's deny
// list, and refuses content exceeding the configured output-line budget.
// It creates parent directories on demand only when configured to.
func (jx *JobExec) safeWrite(path, content string) error {
	if err := jx.checkProtected(path); err != nil {
		return err
	}
	if err := jx.checkOutputBudget(path, content); err != nil {
		return err
	}
	return jx.writeFile(path, content)
}

// checkOutputBudget enforces the same max_output_lines limit jobsmgr
// applies to loaded context/target files, but against generated content
// about to be written to disk.
func (jx *JobExec) checkOutputBudget(path, content string) error {
	cfg := jx.Runner.Config
	if cfg == nil || cfg.Limits.MaxOutputLines <= 0 {
		return nil
	}
	limit := cfg.Limits.MaxOutputLines
	lines := strings.Count(content, "\n") + 1
	if lines > limit {
		return &wkerr.OutputTooLarge{Path: path, Lines: lines, Limit: limit}
	}
	return nil
}

func (jx *JobExec) checkProtected(path string) error {
	clean := filepath.Clean(path)

	if jx.Runner.Jobs != nil {
		jobsDir := filepath.Clean(jx.Runner.Jobs.Dir())
		if clean == jobsDir || strings.HasPrefix(clean, jobsDir+string(filepath.Separator)) {
			return &wkerr.ProtectedPathWrite{Path: path}
		}
	}
	if filepath.Base(clean) == "_jobstatus.json" {
		return &wkerr.ProtectedPathWrite{Path: path}
	}
	for _, deny := range jx.Runner.DenyList {
		if clean == filepath.Clean(deny) {
			return &wkerr.ProtectedPathWrite{Path: path}
		}
	}
	return nil
}

func (jx *JobExec) writeFile(path, content string) error {
	createDirs := jx.Runner.Config == nil || jx.Runner.Config.Behavior.CreateOutputDirs
	if createDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return &wkerr.Io{Path: filepath.Dir(path), Err: err}
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &wkerr.Io{Path: path, Err: err}
	}
	jx.written = append(jx.written, path)
	return nil
}

// Package jobsmgr discovers job files on disk, loads the system prompts
// that accompany them, and materializes context/target file contents
// under the configured size budget.
package jobsmgr

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/plasticdigits/worksplit/pkg/config"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

var log = logrus.WithField("component", "jobsmgr")

// Manager discovers and loads jobs from a single jobs directory.
type Manager struct {
	dir string
	cfg *config.Config
}

// New returns a Manager rooted at dir, applying cfg's size limits.
func New(dir string, cfg *config.Config) *Manager {
	return &Manager{dir: dir, cfg: cfg}
}

// Dir returns the jobs directory this manager was constructed with.
func (m *Manager) Dir() string { return m.dir }

// Discover enumerates job files in the jobs directory: every ".md" file
// not prefixed with "_" and not under an "archive/" subdirectory. It
// aborts on the first file that fails to read, parse, or validate,
// discarding any jobs already parsed and returning that one error —
// callers get a single, attributable failure rather than a partial job
// list.
func (m *Manager) Discover() ([]*job.Job, error) {
	if _, err := os.Stat(m.dir); err != nil {
		return nil, &wkerr.JobsFolderNotFound{Path: m.dir}
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, &wkerr.Io{Path: m.dir, Err: err}
	}

	var jobs []*job.Job
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || !strings.HasSuffix(name, ".md") {
			continue
		}

		path := filepath.Join(m.dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &wkerr.Io{Path: path, Err: err}
		}

		j, err := job.Parse(path, content)
		if err != nil {
			return nil, &wkerr.JobParseError{Path: path, Err: err}
		}

		if err := j.Validate(m.maxContextFiles()); err != nil {
			return nil, err
		}

		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs, nil
}

func (m *Manager) maxContextFiles() int {
	if m.cfg == nil {
		return 0
	}
	return m.cfg.Limits.MaxContextFiles
}

// SystemPrompts names the prompt files a job's mode may require, loaded
// relative to the jobs directory.
type SystemPrompts struct {
	Create     string
	Verify     string
	Edit       string
	VerifyEdit string // optional
	Test       string // optional
	Split      string // optional
}

const (
	promptCreate     = "_systemprompt_create.md"
	promptVerify     = "_systemprompt_verify.md"
	promptEdit       = "_systemprompt_edit.md"
	promptVerifyEdit = "_systemprompt_verify_edit.md"
	promptTest       = "_systemprompt_test.md"
	promptSplit      = "_systemprompt_split.md"
)

// LoadSystemPrompts reads the standardized prompt files from the jobs
// directory. Create, Verify, and Edit are required; the rest are loaded
// only if present and left empty otherwise.
func (m *Manager) LoadSystemPrompts() (*SystemPrompts, error) {
	sp := &SystemPrompts{}

	required := map[string]*string{
		promptCreate: &sp.Create,
		promptVerify: &sp.Verify,
		promptEdit:   &sp.Edit,
	}
	for name, dest := range required {
		content, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return nil, &wkerr.Io{Path: filepath.Join(m.dir, name), Err: err}
		}
		*dest = string(content)
	}

	optional := map[string]*string{
		promptVerifyEdit: &sp.VerifyEdit,
		promptTest:       &sp.Test,
		promptSplit:      &sp.Split,
	}
	for name, dest := range optional {
		content, err := os.ReadFile(filepath.Join(m.dir, name))
		if err == nil {
			*dest = string(content)
		}
	}

	return sp, nil
}

// FileContent is one loaded context or target file.
type FileContent struct {
	Path    string
	Content string
}

// LoadFiles reads each path (resolved relative to base when not absolute)
// and enforces the configured max_output_lines budget, returning a
// FileTooLarge error carrying a suggestion to split the file instead of
// generating against it wholesale.
func (m *Manager) LoadFiles(base string, paths []string) ([]FileContent, error) {
	limit := 900
	if m.cfg != nil && m.cfg.Limits.MaxOutputLines > 0 {
		limit = m.cfg.Limits.MaxOutputLines
	}

	var out []FileContent
	for _, p := range paths {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(base, p)
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, &wkerr.Io{Path: full, Err: err}
		}

		lines := strings.Count(string(content), "\n") + 1
		if lines > limit {
			return nil, &wkerr.FileTooLarge{
				Path:       p,
				Lines:      lines,
				Limit:      limit,
				Suggestion: "split this file into smaller pieces with a Split job before using it as context",
			}
		}

		out = append(out, FileContent{Path: p, Content: string(content)})
	}
	return out, nil
}

// ResolveContext returns the context files to load for j: its declared
// context_paths, plus — for Replace mode only, when it declares none
// explicitly and its primary output already exists on disk — that
// existing file as implicit context so a replace-style job can see what
// it is replacing.
func (m *Manager) ResolveContext(j *job.Job) []string {
	if len(j.ContextPaths) > 0 {
		return j.ContextPaths
	}
	if j.Mode != job.ModeReplace {
		return nil
	}

	existingPath := filepath.Join(j.OutputDir, j.OutputFile)
	if _, err := os.Stat(existingPath); err != nil {
		return nil
	}
	log.WithField("job_id", j.ID).Debug("adding existing output file as implicit context")
	return []string{existingPath}
}

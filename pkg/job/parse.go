package job

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

var log = logrus.WithField("component", "job")

// knownKeys lists every recognized front-matter key. Anything
// else is logged and ignored, never rejected.
var knownKeys = map[string]bool{
	"context_files": true, "output_dir": true, "output_file": true,
	"output_files": true, "target_files": true, "target_file": true,
	"test_file": true, "mode": true, "sequential": true, "depends_on": true,
	"struct_name": true, "new_field": true, "verify": true,
}

// IDFromFilename derives a job's stable id from its file name stem.
func IDFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse reads a job file's bytes and returns a validated Job, or a
// *wkerr.JobParseError / *wkerr.JobValidationError describing why it
// could not be used.
func Parse(path string, content []byte) (*Job, error) {
	front, body, err := ParseFrontMatter(content)
	if err != nil {
		return nil, &wkerr.JobParseError{Path: path, Err: err}
	}

	for key := range front {
		if !knownKeys[key] {
			log.WithFields(logrus.Fields{"path": path, "key": key}).
				Warn("ignoring unknown front-matter key")
		}
	}

	j := &Job{
		ID:              IDFromFilename(path),
		FilePath:        path,
		InstructionBody: strings.TrimSpace(string(body)),
		RawFrontMatter:  front,
		Mode:            ModeReplace,
	}

	yamlBytes, err := yaml.Marshal(front)
	if err != nil {
		return nil, &wkerr.JobParseError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(yamlBytes, j); err != nil {
		return nil, &wkerr.JobParseError{Path: path, Err: err}
	}
	if j.Mode == "" {
		j.Mode = ModeReplace
	}
	if j.Verify == nil {
		t := true
		j.Verify = &t
	}

	if err := j.Validate(0); err != nil {
		return nil, err
	}

	return j, nil
}

// Validate enforces the mode invariants. maxContextFiles of 0
// disables the context-file budget check (callers that have not yet loaded
// config pass 0 and re-validate later via the Jobs Manager).
func (j *Job) Validate(maxContextFiles int) error {
	if strings.TrimSpace(j.OutputFile) == "" {
		return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.EmptyOutputFile}
	}

	if j.Sequential && len(j.OutputPaths) == 0 {
		return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.SequentialWithoutOutputs}
	}

	if j.Mode == ModeEdit && j.Sequential {
		return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.EditModeWithSequential}
	}

	switch j.Mode {
	case ModeEdit, ModeReplacePattern, ModeUpdateFixtures:
		if len(j.TargetPaths) == 0 {
			return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.EmptyTargetFiles}
		}
		for _, p := range j.TargetPaths {
			if strings.TrimSpace(p) == "" {
				return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.EmptyTargetFilePath}
			}
		}
	}

	if j.Mode == ModeUpdateFixtures {
		if strings.TrimSpace(j.StructName) == "" || strings.TrimSpace(j.NewField) == "" {
			return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.UpdateFixturesMissingField}
		}
	}

	if j.TestFile != "" && strings.TrimSpace(j.TestFile) == "" {
		return &wkerr.JobValidationError{JobID: j.ID, Kind: wkerr.EmptyTestFile}
	}

	if maxContextFiles > 0 && len(j.ContextPaths) > maxContextFiles {
		return &wkerr.ContextBudgetExceeded{JobID: j.ID, Count: len(j.ContextPaths), Limit: maxContextFiles}
	}

	return nil
}

// String implements fmt.Stringer for convenient logging.
func (j *Job) String() string {
	return fmt.Sprintf("Job{id=%s mode=%s seq=%v}", j.ID, j.Mode, j.Sequential)
}

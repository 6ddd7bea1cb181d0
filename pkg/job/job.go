// Package job defines the Job record and its parser: splitting job-file
// front matter from its markdown body, decoding into a Job, and validating
// the mode invariants.
package job

// Mode is the generation strategy a job declares in its front matter.
type Mode string

const (
	ModeReplace        Mode = "replace"
	ModeEdit           Mode = "edit"
	ModeSplit          Mode = "split"
	ModeReplacePattern Mode = "replace_pattern"
	ModeUpdateFixtures Mode = "update_fixtures"
)

// Job is immutable after Parse/Validate succeed.
type Job struct {
	ID string `yaml:"-"`

	ContextPaths []string `yaml:"context_files"`
	OutputDir    string   `yaml:"output_dir"`
	OutputFile   string   `yaml:"output_file"`
	OutputPaths  []string `yaml:"output_files"`
	TargetPaths  []string `yaml:"target_files"`
	TargetFile   string   `yaml:"target_file"`
	TestFile     string   `yaml:"test_file"`
	DependsOn    []string `yaml:"depends_on"`

	Mode       Mode `yaml:"mode"`
	Sequential bool `yaml:"sequential"`

	StructName string `yaml:"struct_name"`
	NewField   string `yaml:"new_field"`

	Verify *bool `yaml:"verify"`

	// InstructionBody is the free-form markdown below the front matter.
	InstructionBody string `yaml:"-"`

	// RawFrontMatter is the decoded-but-unvalidated map, kept so unknown
	// keys can be logged without re-parsing the file.
	RawFrontMatter map[string]any `yaml:"-"`

	// FilePath is the absolute or repo-relative path to the source file.
	FilePath string `yaml:"-"`
}

// VerifyEnabled reports whether verification runs for this job (default true).
func (j *Job) VerifyEnabled() bool {
	return j.Verify == nil || *j.Verify
}

// IsTDD reports whether this job follows the TDD execution path.
func (j *Job) IsTDD() bool {
	return j.TestFile != ""
}

// OutputPathsOrPrimary returns OutputPaths if set (sequential/split), else
// a single-element slice containing the primary output_file.
func (j *Job) OutputPathsOrPrimary() []string {
	if len(j.OutputPaths) > 0 {
		return j.OutputPaths
	}
	return []string{j.OutputFile}
}

package buildrun

import "context"

// Call records one invocation made against a MockRunner.
type Call struct {
	Command string
	Cwd     string
}

// MockRunner is a test double for BuildRunner: it records every call and
// returns scripted results by command, falling back to OK/"" when a
// command has no scripted result.
type MockRunner struct {
	Calls   []Call
	Results map[string]Result
	Err     error
}

// Result is a scripted VerifyBuild outcome.
type Result struct {
	OK     bool
	Output string
}

// VerifyBuild implements BuildRunner.
func (m *MockRunner) VerifyBuild(ctx context.Context, command, cwd string) (bool, string, error) {
	m.Calls = append(m.Calls, Call{Command: command, Cwd: cwd})
	if m.Err != nil {
		return false, "", m.Err
	}
	if r, ok := m.Results[command]; ok {
		return r.OK, r.Output, nil
	}
	return true, "", nil
}

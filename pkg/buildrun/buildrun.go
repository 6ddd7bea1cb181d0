// Package buildrun shells out to a job's configured build/test command and
// reports whether it succeeded, along with its combined output.
package buildrun

import (
	"context"
	"os/exec"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "buildrun")

// BuildRunner verifies a job's output by running a build or test command.
type BuildRunner interface {
	VerifyBuild(ctx context.Context, command, cwd string) (ok bool, combinedOutput string, err error)
}

// ShellRunner runs the command through "sh -c" in the given working
// directory. It is the default BuildRunner.
type ShellRunner struct{}

// NewShellRunner returns a ShellRunner.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// VerifyBuild runs command via "sh -c" with cwd as its working directory.
// ok reports whether the command exited zero; combinedOutput holds
// stdout and stderr interleaved in the order the process wrote them. err
// is non-nil only when the command could not be started or the context
// was cancelled before it finished — a nonzero exit is reported through
// ok, not err.
func (r *ShellRunner) VerifyBuild(ctx context.Context, command, cwd string) (bool, string, error) {
	log.WithFields(logrus.Fields{"command": command, "cwd": cwd}).Debug("running build/test command")

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cwd

	out, runErr := cmd.CombinedOutput()

	if runErr != nil {
		if ctx.Err() != nil {
			return false, string(out), ctx.Err()
		}
		if _, isExit := runErr.(*exec.ExitError); isExit {
			log.WithFields(logrus.Fields{"command": command, "exit_code": cmd.ProcessState.ExitCode()}).Info("build/test command failed")
			return false, string(out), nil
		}
		return false, string(out), runErr
	}

	log.WithField("command", command).Debug("build/test command succeeded")
	return true, string(out), nil
}

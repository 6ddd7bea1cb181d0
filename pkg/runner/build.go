package runner

import (
	"context"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// runBuildVerification invokes the configured build and test commands, if
// enabled, and reports a non-zero exit from either as a job failure. A
// build/test failure is never retried.
func runBuildVerification(ctx context.Context, jx *JobExec) error {
	cfg := jx.Runner.Config
	if cfg == nil || jx.Runner.Build == nil {
		return nil
	}

	if cfg.Build.VerifyBuild && cfg.Build.BuildCommand != "" {
		if err := verifyCommand(ctx, jx, cfg.Build.BuildCommand); err != nil {
			return err
		}
	}
	if cfg.Build.VerifyTests && cfg.Build.TestCommand != "" {
		if err := verifyCommand(ctx, jx, cfg.Build.TestCommand); err != nil {
			return err
		}
	}
	return nil
}

func verifyCommand(ctx context.Context, jx *JobExec, command string) error {
	ok, output, err := jx.Runner.Build.VerifyBuild(ctx, command, ".")
	if err != nil {
		return err
	}
	if !ok {
		return &wkerr.BuildFailed{Command: command, Output: output}
	}
	return nil
}

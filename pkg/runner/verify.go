package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/plasticdigits/worksplit/pkg/extract"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/prompt"
)

// testGeneration assembles the TDD test prompt, extracts the reply, and
// writes the test file immediately — it is not subject to the
// verification retry loop, which applies only to the implementation.
func testGeneration(ctx context.Context, jx *JobExec) error {
	systemPrompt := jx.Runner.Prompts.Test
	if systemPrompt == "" {
		systemPrompt = jx.Runner.Prompts.Create
	}

	userPrompt := prompt.TestGeneration(systemPrompt, jx.Context, jx.Job.InstructionBody)
	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return err
	}

	files := extract.Extract(reply, testOutputPath(jx.Job))
	if len(files) == 0 {
		return fmt.Errorf("no test file extracted for job %s", jx.Job.ID)
	}
	for _, f := range files {
		if err := jx.safeWrite(f.Path, f.Content); err != nil {
			return err
		}
	}
	jx.TestGenerated = &files[0]
	return nil
}

func verifySystemPrompt(jx *JobExec) string {
	if isEditFamily(jx.Job.Mode) && jx.Runner.Prompts.VerifyEdit != "" {
		return jx.Runner.Prompts.VerifyEdit
	}
	return jx.Runner.Prompts.Verify
}

func isEditFamily(m job.Mode) bool {
	return m == job.ModeEdit || m == job.ModeReplacePattern
}

// runVerification assembles the verification prompt and classifies the
// reply. A FailSoft/FailHard verdict triggers exactly one retry-with-
// feedback; the second verdict is final either way.
func runVerification(ctx context.Context, jx *JobExec) error {
	systemPrompt := verifySystemPrompt(jx)

	result, reason, err := askVerifier(ctx, jx, systemPrompt)
	if err != nil {
		return err
	}
	if result.IsPass() {
		return nil
	}

	feedback := fmt.Sprintf("%s: %s", result, reason)
	if err := doRetry(ctx, jx, feedback); err != nil {
		return err
	}
	jx.Retried = true
	jx.RetryReason = feedback

	result2, reason2, err := askVerifier(ctx, jx, systemPrompt)
	if err != nil {
		return err
	}
	if result2.IsPass() {
		return nil
	}
	return fmt.Errorf("verification failed for job %s (%s): %s", jx.Job.ID, result2, reason2)
}

func askVerifier(ctx context.Context, jx *JobExec, systemPrompt string) (extract.VerifyResult, string, error) {
	userPrompt := prompt.Verification(systemPrompt, jx.Job.InstructionBody, extractToPromptFiles(jx.Generated))
	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return "", "", err
	}
	result, reason := extract.ParseVerifyReply(reply)
	if reason == "" {
		reason = strings.TrimSpace(reply)
	}
	return result, reason, nil
}

// doRetry re-runs generation with the previous attempt and the verifier's
// feedback injected into the prompt, replacing jx.Generated and
// rewriting the affected files.
func doRetry(ctx context.Context, jx *JobExec, feedback string) error {
	userPrompt := prompt.Retry(jx.Runner.Prompts.Create, jx.Context, jx.Job.InstructionBody,
		extractToPromptFiles(jx.Generated), feedback)

	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return err
	}

	files := extract.Extract(reply, primaryOutputPath(jx.Job))
	if len(files) == 0 {
		return fmt.Errorf("retry produced no files for job %s", jx.Job.ID)
	}
	jx.Generated = files

	for _, f := range files {
		if err := jx.safeWrite(f.Path, f.Content); err != nil {
			return err
		}
	}
	return nil
}

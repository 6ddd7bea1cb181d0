package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plasticdigits/worksplit/pkg/extract"
	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/prompt"
	"github.com/plasticdigits/worksplit/pkg/status"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// editModeNote describes the FILE/FIND/REPLACE/END syntax an edit-mode
// reply must follow, injected into the [EDIT MODE] prompt section.
const editModeNote = `Reply using FILE:/FIND:/REPLACE:/END blocks, one per change.
FILE: names the file a block applies to and stays in force until the next FILE: line.
FIND: is followed by the exact text to locate; REPLACE: by its exact replacement; END closes the block.
An empty REPLACE: block means delete the FIND text. Multiple FIND/REPLACE blocks per file are allowed and applied in order.`

// patternModeNote describes the FILE/AFTER/SCOPE/INSERT/END syntax.
const patternModeNote = `Reply using FILE:/AFTER:/INSERT:/END blocks, with an optional SCOPE: line between AFTER and INSERT.
AFTER: is followed by exact text to anchor on; INSERT: by the text to add immediately after every occurrence.
SCOPE:, if present, names a marker whose brace-balanced block restricts which AFTER occurrences count.`

// pickGenerator selects the generation-phase function for a job's mode,
// branching additionally on the sequential flag for Replace.
func pickGenerator(j *job.Job) func(ctx context.Context, jx *JobExec) error {
	switch j.Mode {
	case job.ModeEdit:
		return generateEdit
	case job.ModeReplacePattern:
		return generateReplacePattern
	case job.ModeUpdateFixtures:
		return generateUpdateFixtures
	case job.ModeSplit:
		return generateSplit
	default: // ModeReplace
		if j.Sequential {
			return generateSequential
		}
		return generateReplaceSingle
	}
}

func generateReplaceSingle(ctx context.Context, jx *JobExec) error {
	userPrompt := prompt.Generation(jx.Runner.Prompts.Create, jx.Context, jx.Job.InstructionBody)
	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return err
	}

	files := extract.Extract(reply, primaryOutputPath(jx.Job))
	if len(files) == 0 {
		return fmt.Errorf("no files extracted from reply for job %s", jx.Job.ID)
	}
	jx.Generated = files
	return nil
}

// generateSequential runs one LLM call per declared output, in order,
// carrying forward the files generated so far.
func generateSequential(ctx context.Context, jx *JobExec) error {
	outputs := jx.Job.OutputPathsOrPrimary()
	for i, out := range outputs {
		remaining := append([]string{}, outputs[i+1:]...)
		userPrompt := prompt.Sequential(jx.Runner.Prompts.Create, jx.Context, jx.Job.InstructionBody,
			extractToPromptFiles(jx.Generated), out, remaining)

		reply, err := jx.llmGenerate(ctx, "", userPrompt)
		if err != nil {
			return err
		}

		files := extract.Extract(reply, out)
		if len(files) == 0 {
			return fmt.Errorf("no file extracted for output %s in job %s", out, jx.Job.ID)
		}
		jx.Generated = append(jx.Generated, files...)
	}
	return nil
}

// generateSplit reads the oversized target_file once as primary context,
// then generates each declared output exactly as generateSequential does.
// The file is read directly, without the max_output_lines check that
// LoadFiles applies.
func generateSplit(ctx context.Context, jx *JobExec) error {
	full := jx.Job.TargetFile
	if !filepath.IsAbs(full) {
		full = filepath.Join(jx.Runner.Jobs.Dir(), full)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return &wkerr.Io{Path: full, Err: err}
	}
	jx.Context = append([]prompt.File{{Path: jx.Job.TargetFile, Content: string(content)}}, jx.Context...)
	return generateSequential(ctx, jx)
}

// generateEdit assembles the edit prompt, parses the reply's FIND/REPLACE
// instructions, and applies them per file. Any failed edit is collected
// rather than aborting the whole job; the final classification (all
// succeeded, some succeeded, none succeeded) is decided after dispatch.
func generateEdit(ctx context.Context, jx *JobExec) error {
	userPrompt := prompt.Edit(jx.Runner.Prompts.Edit, jx.Context, jx.Targets, jx.Job.InstructionBody, editModeNote)
	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return err
	}

	edits, err := extract.ParseEdits(reply)
	if err != nil {
		return fmt.Errorf("parsing edit instructions for job %s: %w", jx.Job.ID, err)
	}

	targetContent := make(map[string]string, len(jx.Targets))
	for _, t := range jx.Targets {
		targetContent[t.Path] = t.Content
	}

	results, err := extract.ApplyEditsPerFile(func(path string) (string, error) {
		if c, ok := targetContent[path]; ok {
			return c, nil
		}
		return "", fmt.Errorf("no loaded content for target file %s", path)
	}, edits)
	if err != nil {
		return err
	}

	totalApplied, totalFailed := 0, 0
	for _, file := range jx.Job.TargetPaths {
		res, ok := results[file]
		if !ok {
			continue
		}
		totalApplied += res.Applied
		totalFailed += len(res.Failures)

		if res.Applied > 0 {
			jx.Generated = append(jx.Generated, extract.File{Path: res.File, Content: res.NewContent})

			failed := make(map[extract.Edit]bool, len(res.Failures))
			for _, f := range res.Failures {
				failed[f.Edit] = true
			}
			for _, e := range edits {
				if e.File != file || failed[e] {
					continue
				}
				jx.SuccessfulEdits = append(jx.SuccessfulEdits, status.EditPreview{
					File:    res.File,
					Preview: extract.Preview(e.Find, 50),
				})
			}
		}
		for _, f := range res.Failures {
			failure := status.FailedEdit{
				File:    res.File,
				Preview: extract.Preview(f.Edit.Find, 50),
				Reason:  f.Reason,
			}
			if len(f.Fuzzy) > 0 {
				line := f.Fuzzy[0].LineNumber
				failure.SuggestedLine = &line
			}
			jx.FailedEdits = append(jx.FailedEdits, failure)
		}
	}

	if totalFailed == 0 {
		return nil
	}
	if totalApplied == 0 {
		return fmt.Errorf("all edits failed for job %s", jx.Job.ID)
	}
	jx.terminalPartial = true
	return nil
}

func generateReplacePattern(ctx context.Context, jx *JobExec) error {
	userPrompt := prompt.ReplacePattern(jx.Runner.Prompts.Edit, jx.Context, jx.Targets, jx.Job.InstructionBody, patternModeNote)
	reply, err := jx.llmGenerate(ctx, "", userPrompt)
	if err != nil {
		return err
	}

	insts, err := extract.ParsePatternInstructions(reply)
	if err != nil {
		return fmt.Errorf("parsing replace-pattern instructions for job %s: %w", jx.Job.ID, err)
	}

	targetContent := make(map[string]string, len(jx.Targets))
	for _, t := range jx.Targets {
		targetContent[t.Path] = t.Content
	}

	results, err := extract.ApplyPatternInstructions(func(path string) (string, error) {
		if c, ok := targetContent[path]; ok {
			return c, nil
		}
		return "", fmt.Errorf("no loaded content for target file %s", path)
	}, insts)
	if err != nil {
		return err
	}

	for path, content := range results {
		jx.Generated = append(jx.Generated, extract.File{Path: path, Content: content})
	}
	return nil
}

// generateUpdateFixtures is deterministic: no LLM call, just a struct-
// literal insertion applied to every declared target file.
func generateUpdateFixtures(ctx context.Context, jx *JobExec) error {
	for _, t := range jx.Targets {
		newContent, _, err := extract.UpdateFixtures(t.Content, jx.Job.StructName, jx.Job.NewField)
		if err != nil {
			return fmt.Errorf("updating fixtures in %s for job %s: %w", t.Path, jx.Job.ID, err)
		}
		jx.Generated = append(jx.Generated, extract.File{Path: t.Path, Content: newContent})
	}
	return nil
}

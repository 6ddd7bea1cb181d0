// Package prompt assembles deterministic LLM prompts from bracketed
// sections. Every function here is pure: given the same inputs it
// produces the same string, with no I/O and no randomness.
package prompt

import (
	"fmt"
	"strings"
)

// File is one named file to render into a prompt section.
type File struct {
	Path    string
	Content string
}

// Builder accumulates bracketed sections in the order they're added.
type Builder struct {
	sb strings.Builder
}

// NewBuilder returns an empty prompt builder.
func NewBuilder() *Builder { return &Builder{} }

// Section appends a `[HEADER]` line followed by body, separated from any
// prior section by a single blank line.
func (b *Builder) Section(header, body string) *Builder {
	if b.sb.Len() > 0 {
		b.sb.WriteString("\n\n")
	}
	b.sb.WriteString("[" + header + "]\n")
	b.sb.WriteString(body)
	return b
}

// FileSection appends a `[HEADER]` section containing every file in
// files, each rendered as a path heading followed by a fenced block.
func (b *Builder) FileSection(header string, files []File) *Builder {
	if len(files) == 0 {
		return b
	}
	var body strings.Builder
	for i, f := range files {
		if i > 0 {
			body.WriteString("\n\n")
		}
		body.WriteString(renderFile(f))
	}
	return b.Section(header, body.String())
}

func renderFile(f File) string {
	return fmt.Sprintf("%s\n```\n%s\n```", f.Path, f.Content)
}

// String returns the assembled prompt text.
func (b *Builder) String() string { return b.sb.String() }

// Generation assembles the standard generation prompt: system prompt,
// context files, and the job's instruction body.
func Generation(systemPrompt string, context []File, instructions string) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		Section("INSTRUCTIONS", instructions).
		String()
}

// Edit assembles the edit-mode generation prompt: system prompt, context,
// the current target file contents, instructions, and an [EDIT MODE]
// marker describing the FILE/FIND/REPLACE/END syntax expected in reply.
func Edit(systemPrompt string, context []File, targets []File, instructions, editModeNote string) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		FileSection("TARGET FILES", targets).
		Section("INSTRUCTIONS", instructions).
		Section("EDIT MODE", editModeNote).
		String()
}

// ReplacePattern assembles the replace-pattern generation prompt.
func ReplacePattern(systemPrompt string, context []File, targets []File, instructions, patternModeNote string) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		FileSection("TARGET FILES", targets).
		Section("INSTRUCTIONS", instructions).
		Section("REPLACE PATTERN MODE", patternModeNote).
		String()
}

// Sequential assembles one per-file prompt in sequential/split mode: the
// files already generated in this job, the current output file being
// requested, and the files still remaining after it.
func Sequential(systemPrompt string, context []File, instructions string, generatedSoFar []File, currentOutputFile string, remaining []string) string {
	b := NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		Section("INSTRUCTIONS", instructions).
		FileSection("PREVIOUSLY GENERATED IN THIS JOB", generatedSoFar).
		Section("CURRENT OUTPUT FILE", currentOutputFile)

	if len(remaining) > 0 {
		b.Section("REMAINING FILES", strings.Join(remaining, "\n"))
	}
	return b.String()
}

// TestGeneration assembles the TDD test-generation prompt.
func TestGeneration(systemPrompt string, context []File, instructions string) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		Section("INSTRUCTIONS", instructions).
		String()
}

// Verification assembles the verification prompt: instructions and the
// files generated for this job.
func Verification(systemPrompt string, instructions string, generated []File) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		Section("INSTRUCTIONS", instructions).
		FileSection("TARGET FILES", generated).
		String()
}

// Retry assembles the single retry-with-feedback prompt: the original
// context, the previously generated (failing) output, and the
// verification feedback that triggered the retry.
func Retry(systemPrompt string, context []File, instructions string, previousAttempt []File, verificationFeedback string) string {
	return NewBuilder().
		Section("SYSTEM", systemPrompt).
		FileSection("CONTEXT", context).
		Section("INSTRUCTIONS", instructions).
		FileSection("PREVIOUS ATTEMPT", previousAttempt).
		Section("VERIFICATION FEEDBACK", verificationFeedback).
		String()
}

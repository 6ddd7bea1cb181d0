// Package extract turns an LLM reply into file contents or edit/pattern/
// fixture instructions, and applies those instructions with fuzzy
// diagnostics. Extract dispatches to the first probe that yields a
// non-empty result: explicit fences win, then path-as-heading blocks,
// then any fenced block as a last resort.
package extract

import (
	"regexp"
	"strings"
)

// File is one extracted output: a path and its full content.
type File struct {
	Path    string
	Content string
}

var pathHeadingRe = regexp.MustCompile(`^[A-Za-z0-9_./-]+\.[A-Za-z]+$`)

// worksplitFenceRe matches ~~~worksplit[:path]\n...\n~~~worksplit blocks.
var worksplitFenceRe = regexp.MustCompile(`(?ms)^~~~worksplit(?::([^\n]+))?\s*\n(.*?)\n~~~worksplit\s*$`)

// genericFenceRe matches any ``` fenced block, optional language tag.
var genericFenceRe = regexp.MustCompile("(?ms)^```[A-Za-z0-9_+-]*\\s*\\n(.*?)\\n```\\s*$")

// Extract probes the reply in priority order — explicit worksplit fences,
// then path-as-heading blocks, then the generic fenced-block fallback —
// and stops at the first probe that yields at least one non-empty file.
// A fence without an explicit path falls back to primaryOutputFile.
func Extract(reply string, primaryOutputFile string) []File {
	if files := extractWorksplitFences(reply, primaryOutputFile); len(files) > 0 {
		return files
	}
	if files := extractPathHeadings(reply); len(files) > 0 {
		return files
	}
	return extractGenericFences(reply, primaryOutputFile)
}

func extractWorksplitFences(reply, primaryOutputFile string) []File {
	matches := worksplitFenceRe.FindAllStringSubmatch(reply, -1)
	var out []File
	for _, m := range matches {
		path := strings.TrimSpace(m[1])
		if path == "" {
			path = primaryOutputFile
		}
		content := m[2]
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, File{Path: path, Content: content})
	}
	return out
}

func extractPathHeadings(reply string) []File {
	lines := strings.Split(reply, "\n")
	var out []File

	i := 0
	for i < len(lines) {
		candidate := strings.TrimSpace(lines[i])
		if !pathHeadingRe.MatchString(candidate) {
			i++
			continue
		}
		// Look ahead for the next non-blank line to be a fence opener.
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
			i++
			continue
		}
		// Find the closing fence.
		k := j + 1
		for k < len(lines) && strings.TrimSpace(lines[k]) != "```" {
			k++
		}
		if k >= len(lines) {
			i++
			continue
		}
		content := strings.Join(lines[j+1:k], "\n")
		if strings.TrimSpace(content) != "" {
			out = append(out, File{Path: candidate, Content: content})
		}
		i = k + 1
	}
	return out
}

func extractGenericFences(reply, primaryOutputFile string) []File {
	matches := genericFenceRe.FindAllStringSubmatch(reply, -1)
	var blocks []string
	for _, m := range matches {
		if strings.TrimSpace(m[1]) != "" {
			blocks = append(blocks, m[1])
		}
	}
	if len(blocks) == 0 {
		return nil
	}
	return []File{{Path: primaryOutputFile, Content: strings.Join(blocks, "\n\n")}}
}

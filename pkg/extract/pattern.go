package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternInstruction is one AFTER/INSERT replace-pattern instruction,
// optionally scoped to the block opened by a SCOPE marker.
type PatternInstruction struct {
	File   string
	After  string
	Insert string
	Scope  string // empty means unscoped
}

var (
	patternFileRe   = regexp.MustCompile(`(?i)^\s*FILE:\s*(.+?)\s*$`)
	patternAfterRe  = regexp.MustCompile(`(?i)^\s*AFTER:\s*$`)
	patternInsertRe = regexp.MustCompile(`(?i)^\s*INSERT:\s*$`)
	patternScopeRe  = regexp.MustCompile(`(?i)^\s*SCOPE:\s*(.+?)\s*$`)
	patternEndRe    = regexp.MustCompile(`(?i)^\s*END\s*$`)
)

// ParsePatternInstructions parses FILE:/AFTER:/INSERT:/END blocks, with an
// optional SCOPE: line between AFTER and INSERT restricting the match to
// the block opened by the named scope marker.
func ParsePatternInstructions(text string) ([]PatternInstruction, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var insts []PatternInstruction
	currentFile := ""
	i := 0

	for i < len(lines) {
		line := lines[i]

		if m := patternFileRe.FindStringSubmatch(line); m != nil {
			currentFile = strings.TrimSpace(m[1])
			i++
			continue
		}

		if patternAfterRe.MatchString(line) {
			if currentFile == "" {
				return nil, fmt.Errorf("AFTER block with no preceding FILE: at line %d", i+1)
			}
			i++
			afterLines, nextI, err := collectUntil(lines, i, regexp.MustCompile(`(?i)^\s*(SCOPE:.*|INSERT:)\s*$`))
			if err != nil {
				return nil, fmt.Errorf("AFTER block starting at line %d: %w", i, err)
			}
			i = nextI

			scope := ""
			if m := patternScopeRe.FindStringSubmatch(lines[i]); m != nil {
				scope = strings.TrimSpace(m[1])
				i++
				if !patternInsertRe.MatchString(lines[i]) {
					return nil, fmt.Errorf("expected INSERT: after SCOPE: at line %d", i+1)
				}
			} else if !patternInsertRe.MatchString(lines[i]) {
				return nil, fmt.Errorf("expected INSERT: after AFTER: at line %d", i+1)
			}
			i++

			insertLines, nextI2, err := collectUntil(lines, i, patternEndRe)
			if err != nil {
				return nil, fmt.Errorf("INSERT block starting at line %d: %w", i, err)
			}
			i = nextI2
			i++ // consume END

			after := trimBlock(afterLines)
			insert := trimBlock(insertLines)
			if strings.TrimSpace(after) == "" {
				return nil, fmt.Errorf("empty AFTER text for file %s", currentFile)
			}

			insts = append(insts, PatternInstruction{File: currentFile, After: after, Insert: insert, Scope: scope})
			continue
		}

		i++
	}

	return insts, nil
}

// scopeSpan is a brace-balanced region [Start, End) opened by a scope
// marker occurrence, inclusive of the braces.
type scopeSpan struct {
	Start, End int
}

// scopeSpans finds every occurrence of marker in content and the
// brace-balanced span it opens (from the first '{' after the marker to
// its matching close).
func scopeSpans(content, marker string) []scopeSpan {
	var spans []scopeSpan
	searchFrom := 0
	for {
		idx := strings.Index(content[searchFrom:], marker)
		if idx < 0 {
			break
		}
		markerEnd := searchFrom + idx + len(marker)

		// If the marker text already ends at its own opening brace, depth
		// tracking starts there; otherwise find the next '{' after it.
		var open int
		if strings.HasSuffix(marker, "{") {
			open = markerEnd - 1
		} else {
			openIdx := strings.IndexByte(content[markerEnd:], '{')
			if openIdx < 0 {
				searchFrom = markerEnd
				continue
			}
			open = markerEnd + openIdx
		}
		depth := 0
		end := -1
		for p := open; p < len(content); p++ {
			switch content[p] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = p + 1
				}
			}
			if end != -1 {
				break
			}
		}
		if end == -1 {
			end = len(content)
		}
		spans = append(spans, scopeSpan{Start: open, End: end})
		searchFrom = open
		if searchFrom >= len(content) {
			break
		}
	}
	return spans
}

// inAnySpan reports whether pos falls within one of spans.
func inAnySpan(pos int, spans []scopeSpan) bool {
	for _, s := range spans {
		if pos >= s.Start && pos < s.End {
			return true
		}
	}
	return false
}

// ApplyPatternInstruction inserts inst.Insert immediately after every
// valid, non-overlapping occurrence of inst.After in content. If a scope
// is set, only occurrences inside a brace-balanced region opened by the
// scope marker count. Occurrences are consumed in a single left-to-right
// pass so an insertion point cannot be matched again by the same pattern.
// Returns the new content and the number of insertions made.
func ApplyPatternInstruction(content string, inst PatternInstruction) (string, int, error) {
	var spans []scopeSpan
	if inst.Scope != "" {
		spans = scopeSpans(content, inst.Scope)
	}

	var b strings.Builder
	pos := 0
	count := 0

	for pos <= len(content) {
		rel := strings.Index(content[pos:], inst.After)
		if rel < 0 {
			b.WriteString(content[pos:])
			pos = len(content) + 1
			break
		}
		matchStart := pos + rel
		matchEnd := matchStart + len(inst.After)

		if inst.Scope != "" && !inAnySpan(matchStart, spans) {
			b.WriteString(content[pos:matchEnd])
			pos = matchEnd
			continue
		}

		b.WriteString(content[pos:matchEnd])
		b.WriteString(inst.Insert)
		count++
		pos = matchEnd
	}

	if count == 0 {
		return content, 0, fmt.Errorf("pattern AFTER text matched nowhere%s", scopeSuffix(inst.Scope))
	}
	return b.String(), count, nil
}

func scopeSuffix(scope string) string {
	if scope == "" {
		return ""
	}
	return fmt.Sprintf(" within scope %q", scope)
}

// ApplyPatternInstructions applies each instruction's edits against the
// content supplied by loadContent, grouped by file. The first pattern
// that matches nowhere in its file aborts with an error naming it; other
// files already processed are unaffected.
func ApplyPatternInstructions(loadContent func(path string) (string, error), insts []PatternInstruction) (map[string]string, error) {
	order := []string{}
	grouped := map[string][]PatternInstruction{}
	for _, inst := range insts {
		if _, ok := grouped[inst.File]; !ok {
			order = append(order, inst.File)
		}
		grouped[inst.File] = append(grouped[inst.File], inst)
	}

	results := make(map[string]string, len(order))
	for _, file := range order {
		content, err := loadContent(file)
		if err != nil {
			return nil, err
		}
		for _, inst := range grouped[file] {
			next, _, err := ApplyPatternInstruction(content, inst)
			if err != nil {
				return nil, fmt.Errorf("file %s, AFTER %q: %w", file, Preview(inst.After, 50), err)
			}
			content = next
		}
		results[file] = content
	}
	return results, nil
}

package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Edit is a single FIND/REPLACE instruction scoped to one file. Order
// within a file matters: earlier edits may alter the text a later edit
// matches against.
type Edit struct {
	File    string
	Find    string
	Replace string
}

var (
	fileRe    = regexp.MustCompile(`(?i)^\s*FILE:\s*(.+?)\s*$`)
	findRe    = regexp.MustCompile(`(?i)^\s*FIND:\s*$`)
	replaceRe = regexp.MustCompile(`(?i)^\s*REPLACE:\s*$`)
	endRe     = regexp.MustCompile(`(?i)^\s*END\s*$`)
)

// ParseEdits parses the FILE:/FIND:/REPLACE:/END edit instruction syntax.
// Keywords are recognized case-insensitively; FILE: remains in force until
// the next FILE: line. Empty REPLACE means deletion; empty FIND is
// rejected. Leading/trailing blank lines inside each block are trimmed,
// but internal whitespace is preserved verbatim.
func ParseEdits(text string) ([]Edit, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var edits []Edit
	currentFile := ""
	i := 0

	for i < len(lines) {
		line := lines[i]

		if m := fileRe.FindStringSubmatch(line); m != nil {
			currentFile = strings.TrimSpace(m[1])
			i++
			continue
		}

		if findRe.MatchString(line) {
			if currentFile == "" {
				return nil, fmt.Errorf("FIND block with no preceding FILE: at line %d", i+1)
			}
			i++
			findLines, nextI, err := collectUntil(lines, i, replaceRe)
			if err != nil {
				return nil, fmt.Errorf("FIND block starting at line %d: %w", i, err)
			}
			i = nextI

			if !replaceRe.MatchString(lines[i]) {
				return nil, fmt.Errorf("expected REPLACE: after FIND: at line %d", i+1)
			}
			i++
			replaceLines, nextI2, err := collectUntil(lines, i, endRe)
			if err != nil {
				return nil, fmt.Errorf("REPLACE block starting at line %d: %w", i, err)
			}
			i = nextI2
			i++ // consume END

			find := trimBlock(findLines)
			replace := trimBlock(replaceLines)

			if strings.TrimSpace(find) == "" {
				return nil, fmt.Errorf("empty FIND text for file %s", currentFile)
			}

			edits = append(edits, Edit{File: currentFile, Find: find, Replace: replace})
			continue
		}

		i++
	}

	return edits, nil
}

// collectUntil gathers lines from start until one matches stopRe, and
// returns the index of the stopping line.
func collectUntil(lines []string, start int, stopRe *regexp.Regexp) ([]string, int, error) {
	for i := start; i < len(lines); i++ {
		if stopRe.MatchString(lines[i]) {
			return lines[start:i], i, nil
		}
	}
	return nil, 0, fmt.Errorf("unterminated block")
}

// trimBlock trims leading/trailing blank lines while preserving internal
// whitespace verbatim.
func trimBlock(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

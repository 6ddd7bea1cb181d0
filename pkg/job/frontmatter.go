package job

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFrontMatter splits a job file into its decoded front-matter map and
// the raw markdown body below it. A file with no leading "---" delimiter,
// or no closing delimiter, returns ErrMissingFrontMatter.
func ParseFrontMatter(content []byte) (map[string]any, []byte, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, nil, ErrMissingFrontMatter{}
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return nil, nil, ErrMissingFrontMatter{}
	}

	yamlText := strings.Join(lines[1:closeIdx], "\n")
	var front map[string]any
	if strings.TrimSpace(yamlText) != "" {
		if err := yaml.Unmarshal([]byte(yamlText), &front); err != nil {
			return nil, nil, fmt.Errorf("invalid front matter yaml: %w", err)
		}
	}
	if front == nil {
		front = map[string]any{}
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	body = strings.TrimPrefix(body, "\n")

	return front, []byte(body), nil
}

// ErrMissingFrontMatter is returned when a job file has no "---"-delimited
// front-matter block.
type ErrMissingFrontMatter struct{}

func (ErrMissingFrontMatter) Error() string { return "missing front matter block" }

package extract

import (
	"strings"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// Preview truncates s to at most n characters, for diagnostics previews.
func Preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ApplyEdit applies a single edit to content: exact search for edit.Find,
// replacing the first occurrence only. On miss, it runs fuzzy diagnostics
// and returns a *wkerr.EditFailedWithSuggestions — application never
// silently succeeds on a fuzzy match.
func ApplyEdit(content string, e Edit) (string, error) {
	idx := strings.Index(content, e.Find)
	if idx < 0 {
		matches := FuzzyDiagnose(content, e.Find)
		var suggestions []string
		for _, m := range matches {
			suggestions = append(suggestions, m.DifferenceHint)
		}
		return content, &wkerr.EditFailedWithSuggestions{
			Msg:         "no exact match for FIND text in " + e.File,
			Suggestions: suggestions,
			Fuzzy:       toWkerrFuzzy(matches),
		}
	}
	return content[:idx] + e.Replace + content[idx+len(e.Find):], nil
}

func toWkerrFuzzy(matches []FuzzyMatch) []wkerr.FuzzyMatch {
	out := make([]wkerr.FuzzyMatch, len(matches))
	for i, m := range matches {
		out[i] = wkerr.FuzzyMatch{
			LineNumber:     m.LineNumber,
			Similarity:     m.Similarity,
			Preview:        m.Preview,
			DifferenceHint: m.DifferenceHint,
		}
	}
	return out
}

// ApplyEdits applies edits to one file's content in input order, feeding
// the output of edit i as input to edit i+1. A failure on any edit aborts
// further edits to that file; the caller receives the content as it stood
// immediately before the failing edit, plus the error.
func ApplyEdits(content string, edits []Edit) (string, error) {
	cur := content
	for _, e := range edits {
		next, err := ApplyEdit(cur, e)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	return cur, nil
}

// EditResult is ApplyEditsPerFile's outcome for one file: its content
// after every edit that applied, the number of edits applied, and the
// per-edit failures the caller uses to build a PartialEditState for Edit
// mode. A result exists for every file named by an edit, even when none
// of its edits applied.
type EditResult struct {
	File        string
	NewContent  string
	Applied     int
	Failures    []EditFailure
}

// EditFailure records one edit that could not be applied to its file.
type EditFailure struct {
	Edit   Edit
	Reason string
	Fuzzy  []FuzzyMatch
}

// ApplyEditsPerFile applies a sequence of edits (possibly touching several
// files) in order, grouping them by file in first-seen file order. Within
// a file, edits are chained as ApplyEdits does, except that a failed edit
// does not stop the file's later edits: each one is still tried against
// the content as it stands. Files are processed independently.
func ApplyEditsPerFile(loadContent func(path string) (string, error), edits []Edit) (map[string]*EditResult, error) {
	order := []string{}
	grouped := map[string][]Edit{}
	for _, e := range edits {
		if _, ok := grouped[e.File]; !ok {
			order = append(order, e.File)
		}
		grouped[e.File] = append(grouped[e.File], e)
	}

	results := make(map[string]*EditResult, len(order))
	for _, file := range order {
		content, err := loadContent(file)
		if err != nil {
			return nil, err
		}
		res := &EditResult{File: file, NewContent: content}

		for _, e := range grouped[file] {
			next, err := ApplyEdit(res.NewContent, e)
			if err != nil {
				var fuzzy []FuzzyMatch
				var reason string
				if ews, ok := err.(*wkerr.EditFailedWithSuggestions); ok {
					reason = ews.Msg
					for _, f := range ews.Fuzzy {
						fuzzy = append(fuzzy, FuzzyMatch{
							LineNumber:     f.LineNumber,
							Similarity:     f.Similarity,
							Preview:        f.Preview,
							DifferenceHint: f.DifferenceHint,
						})
					}
				} else {
					reason = err.Error()
				}
				res.Failures = append(res.Failures, EditFailure{Edit: e, Reason: reason, Fuzzy: fuzzy})
				continue
			}
			res.NewContent = next
			res.Applied++
		}

		results[file] = res
	}

	return results, nil
}

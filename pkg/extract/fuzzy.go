package extract

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// FuzzyMatch is one candidate region offered as a diagnostic alongside a
// failed edit. It is never applied automatically.
type FuzzyMatch struct {
	LineNumber     int
	Similarity     int // 0-100
	Preview        string
	DifferenceHint string
}

const (
	fuzzyTopK          = 5
	fuzzyMinSimilarity = 50
)

// FuzzyDiagnose scores line windows of content against find and returns
// up to fuzzyTopK candidates scoring at least fuzzyMinSimilarity, ranked
// best first. sahilm/fuzzy shortlists the windows by a fast subsequence
// pre-rank and only the shortlist is scored; every window is scored only
// when the shortlist is empty. The integer percentage of findLines with an
// exact normalized match at the same position in the window is the score
// actually reported to the caller.
func FuzzyDiagnose(content, find string) []FuzzyMatch {
	findLines := strings.Split(strings.TrimRight(find, "\n"), "\n")
	windowSize := len(findLines)
	if windowSize < 1 {
		windowSize = 1
	}

	contentLines := strings.Split(content, "\n")
	if len(contentLines) == 0 {
		return nil
	}

	windows := make([]string, 0, len(contentLines))
	starts := make([]int, 0, len(contentLines))
	for i := 0; i+windowSize <= len(contentLines); i++ {
		windows = append(windows, strings.Join(contentLines[i:i+windowSize], "\n"))
		starts = append(starts, i)
	}
	if len(windows) == 0 {
		windows = append(windows, strings.Join(contentLines, "\n"))
		starts = append(starts, 0)
	}

	// Pre-rank with a fast subsequence match against a normalized needle,
	// to avoid scoring every window at full cost when content is large.
	normalizedFind := normalizeForFuzzy(find)
	normalizedWindows := make([]string, len(windows))
	for i, w := range windows {
		normalizedWindows[i] = normalizeForFuzzy(w)
	}
	ranked := fuzzy.Find(normalizedFind, normalizedWindows)

	candidates := ranked
	if len(candidates) == 0 {
		// No subsequence overlap at all; fall back to scoring every window
		// directly so callers still get a best-effort diagnostic.
		for i := range windows {
			candidates = append(candidates, fuzzy.Match{Index: i})
		}
	}

	var all []scoredWindow
	for _, c := range candidates {
		score := lineMatchProportion(findLines, strings.Split(windows[c.Index], "\n"))
		all = append(all, scoredWindow{idx: c.Index, score: score})
	}

	sortScoredDesc(all)

	var out []FuzzyMatch
	for _, s := range all {
		if s.score < fuzzyMinSimilarity {
			continue
		}
		out = append(out, FuzzyMatch{
			LineNumber:     starts[s.idx] + 1,
			Similarity:     s.score,
			Preview:        Preview(windows[s.idx], 100),
			DifferenceHint: differenceHint(find, windows[s.idx]),
		})
		if len(out) >= fuzzyTopK {
			break
		}
	}
	return out
}

// scoredWindow pairs a candidate window index with its similarity score.
type scoredWindow struct {
	idx   int
	score int
}

func sortScoredDesc(s []scoredWindow) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// normalizeForFuzzy collapses whitespace runs and lowercases, so the
// pre-rank pass is insensitive to indentation and case differences.
func normalizeForFuzzy(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// lineMatchProportion scores findLines against candidateLines as the
// integer percentage of findLines that have an exact normalized match at
// the same position in candidateLines. A candidate shorter than
// findLines simply can't match the missing positions. This is the score
// actually reported to callers; Levenshtein distance is used only to
// classify the dominant kind of difference (differenceHint), never to
// compute the reported similarity.
func lineMatchProportion(findLines, candidateLines []string) int {
	total := len(findLines)
	if total == 0 {
		return 100
	}
	matches := 0
	for i, fl := range findLines {
		if i >= len(candidateLines) {
			break
		}
		if normalizeForFuzzy(fl) == normalizeForFuzzy(candidateLines[i]) {
			matches++
		}
	}
	return 100 * matches / total
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			cur[j] = min
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// differenceHint classifies the dominant kind of difference between the
// FIND text and a candidate window, to help a human or a retrying LLM
// correct the instruction without guessing.
func differenceHint(find, candidate string) string {
	if strings.EqualFold(strings.TrimSpace(find), strings.TrimSpace(candidate)) {
		return "differs only by letter case"
	}
	if collapseWhitespace(find) == collapseWhitespace(candidate) {
		return "differs only by whitespace/indentation"
	}
	findLines := strings.Count(find, "\n") + 1
	candLines := strings.Count(candidate, "\n") + 1
	if findLines != candLines {
		return fmt.Sprintf("line count differs: FIND has %d, candidate has %d", findLines, candLines)
	}

	nf, nc := collapseWhitespace(find), collapseWhitespace(candidate)
	maxLen := len(nf)
	if len(nc) > maxLen {
		maxLen = len(nc)
	}
	if maxLen > 0 {
		dist := levenshtein(nf, nc)
		if dist*4 <= maxLen {
			return "similar structure, minor content differences"
		}
	}
	return "similar structure, content differs substantially"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

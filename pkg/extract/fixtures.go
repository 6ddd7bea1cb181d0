package extract

import (
	"fmt"
	"strings"
)

// UpdateFixtures inserts newField into every struct literal site named
// structName in content: `<structName> {`, brace-balanced to its closing
// brace, with a leading comma inserted only when the preceding non-
// whitespace character isn't already `,` or `{`. Insertions are applied
// in reverse position order so earlier offsets stay valid. Detection is
// purely textual but brace-balances correctly through nested literals.
func UpdateFixtures(content, structName, newField string) (string, int, error) {
	sites := findStructLiteralSites(content, structName)
	if len(sites) == 0 {
		return content, 0, fmt.Errorf("no struct literal sites found for %q", structName)
	}

	out := content
	for i := len(sites) - 1; i >= 0; i-- {
		out = insertFieldAt(out, sites[i], newField)
	}
	return out, len(sites), nil
}

// structLiteralSite is the brace-balanced span of one `<structName> {`
// literal, with CloseBrace the index of its closing '}'.
type structLiteralSite struct {
	CloseBrace int
}

func findStructLiteralSites(content, structName string) []structLiteralSite {
	marker := structName + " {"
	var sites []structLiteralSite
	searchFrom := 0

	for {
		idx := strings.Index(content[searchFrom:], marker)
		if idx < 0 {
			break
		}
		openIdx := searchFrom + idx + len(marker) - 1 // index of the '{'
		depth := 0
		close := -1
		for p := openIdx; p < len(content); p++ {
			switch content[p] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					close = p
				}
			}
			if close != -1 {
				break
			}
		}
		if close == -1 {
			// Unbalanced; stop scanning rather than misreport a site.
			break
		}
		sites = append(sites, structLiteralSite{CloseBrace: close})
		searchFrom = close + 1
		if searchFrom >= len(content) {
			break
		}
	}
	return sites
}

// insertFieldAt inserts field immediately before the closing brace at
// site.CloseBrace, adding a leading comma unless the last non-whitespace
// character before the brace is already ',' or '{'.
func insertFieldAt(content string, site structLiteralSite, field string) string {
	before := content[:site.CloseBrace]
	trimmed := strings.TrimRight(before, " \t\n\r")

	needsComma := true
	if len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1]
		if last == ',' || last == '{' {
			needsComma = false
		}
	} else {
		needsComma = false
	}

	var insertion strings.Builder
	if needsComma {
		insertion.WriteByte(',')
	}
	insertion.WriteByte('\n')
	insertion.WriteString(field)
	insertion.WriteByte('\n')

	return before + insertion.String() + content[site.CloseBrace:]
}

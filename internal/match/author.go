package match

import "strings"

// Author is the comparable core of a person name: lowercase family name
// plus the first given initial when one is known.
type Author struct {
	Family  string
	Initial string // first rune of the given name, lowercase; empty when unknown
}

// commonSurnames are frequent enough that a family-name match alone says
// little; for these the given initial must agree too.
var commonSurnames = map[string]bool{
	"wang": true, "chen": true, "lee": true, "li": true,
	"zhang": true, "liu": true, "lin": true, "yang": true,
	"huang": true, "wu": true, "smith": true, "jones": true,
}

// ParseAuthor extracts the comparable form from the usual citation
// shapes:
//   - "Zhang, X."  → family "zhang", initial "x"
//   - "X. Zhang"   → family "zhang", initial "x"
//   - "Xin Zhang"  → family "zhang", initial "x"
//   - "Zhang"      → family "zhang", no initial
func ParseAuthor(s string) Author {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Author{}
	}

	if idx := strings.Index(s, ","); idx > 0 {
		a := Author{Family: strings.TrimSpace(s[:idx])}
		if given := strings.TrimSpace(s[idx+1:]); given != "" {
			a.Initial = string([]rune(given)[0])
		}
		return a
	}

	parts := strings.Fields(s)
	if len(parts) == 0 {
		return Author{}
	}
	a := Author{Family: parts[len(parts)-1]}
	if len(parts) > 1 {
		a.Initial = string([]rune(parts[0])[0])
	}
	return a
}

// AuthorsMatch reports whether any candidate name plausibly names the
// queried author. A query too short to mean anything matches vacuously:
// the author check narrows title matches, it never vetoes on no data.
func AuthorsMatch(query string, candidates []string) bool {
	if len(strings.TrimSpace(query)) < 2 {
		return true
	}
	q := ParseAuthor(query)

	for _, cand := range candidates {
		full := strings.ToLower(strings.TrimSpace(cand))
		if full == "" {
			continue
		}
		r := ParseAuthor(full)
		if q.Family != r.Family && !strings.Contains(full, q.Family) {
			continue
		}
		if commonSurnames[q.Family] && q.Initial != "" && r.Initial != "" && q.Initial != r.Initial {
			continue
		}
		return true
	}
	return false
}

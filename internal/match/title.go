// Package match decides whether two bibliographic strings name the same
// work or person. Comparisons tolerate the noise real citations carry:
// encoding variants, dash styles, casing, stray years, and boilerplate
// words like "preprint" or "online".
package match

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// matchThreshold is the minimum similarity ratio for two cleaned titles
// to count as the same work.
const matchThreshold = 0.65

// dashReplacer drops every dash variant before comparison, so
// "self-attention" and "self attention" and "self‐attention" collapse
// to the same form once punctuation is removed.
var dashReplacer = strings.NewReplacer("-", "", "–", "", "—", "", "−", "", "‐", "")

var yearToken = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// noiseWords are bibliographic boilerplate with no identifying power.
var noiseWords = map[string]bool{
	"arxiv":     true,
	"biorxiv":   true,
	"medrxiv":   true,
	"preprint":  true,
	"available": true,
	"online":    true,
	"access":    true,
}

// stopWords never count as missing when comparing word sets.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true,
	"for": true, "with": true, "on": true, "at": true, "by": true,
	"and": true, "from": true, "to": true,
}

// CleanTitle folds a title to its comparable core: NFKC-normalized,
// dashes removed, only letters, digits, and spaces kept, lowercased,
// whitespace collapsed.
func CleanTitle(s string) string {
	s = norm.NFKC.String(s)
	s = dashReplacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitlesMatch reports whether query and result plausibly name the same
// work. The query side is the locally parsed title, the result side
// comes from a search API; the test is deliberately asymmetric because
// parsed titles often drag along extra bibliographic text.
func TitlesMatch(query, result string) bool {
	q := removeNoise(CleanTitle(query))
	r := removeNoise(CleanTitle(result))
	if q == "" || r == "" {
		return false
	}
	if q == r {
		return true
	}

	// A much longer query usually swallowed the venue or author text;
	// containment of the result settles it.
	if float64(len(q)) > float64(len(r))*1.5 && strings.Contains(q, r) {
		return true
	}

	if similarity(q, r) >= matchThreshold {
		return true
	}

	// Word-set fallback for heavy reorderings: nearly all significant
	// query words must appear in the result.
	qSet := wordSet(q)
	rSet := wordSet(r)
	missing := 0
	for w := range qSet {
		if stopWords[w] || rSet[w] {
			continue
		}
		missing++
	}
	if missing <= 1 && len(qSet) >= 5 {
		return true
	}
	if missing == 0 && float64(len(q)) > float64(len(r))*0.3 {
		return true
	}
	return false
}

// removeNoise strips year tokens and boilerplate words from a cleaned
// title.
func removeNoise(s string) string {
	s = yearToken.ReplaceAllString(s, "")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if noiseWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// similarity is a normalized edit-distance ratio in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

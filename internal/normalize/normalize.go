// Package normalize converts labeled field spans into canonical citation
// records. Normalization never fails: a record with missing optional fields
// is more useful to the caller than a hard error.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/segment"
	"github.com/citemill/citemill/internal/span"
	"github.com/citemill/citemill/internal/tagger"
)

// cleanCutset is trimmed from both ends of every span text. Periods stay:
// they are meaningful in initials, abbreviations, and titles.
const cleanCutset = " \t\n,;:()[]{}<>\"'“”‘’"

// identifierTrail is additionally trimmed from the end of DOI and URL
// values, where a sentence-final period is never part of the identifier.
const identifierTrail = " ,.;)]}>"

var (
	yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

	// titleLeadYear strips a stray "2020. " prefix left by mis-tagged
	// year tokens; titleArxivTail strips trailing arXiv annotations.
	titleLeadYear  = regexp.MustCompile(`^\s*\d{4}[.\s]+`)
	titleArxivTail = regexp.MustCompile(`(?i)\.?\s*arXiv.*$`)

	authorSeparator = regexp.MustCompile(`\s*;\s*|\s+and\s+|\s*&\s*`)
)

// Record builds one citation record from a candidate's spans. Rules apply
// in order, each independent: strip punctuation, split authors, parse the
// year, concatenate repeated labels in token order, and preserve the raw
// text verbatim.
func Record(cand segment.Candidate, spans []span.Span) citation.Record {
	fields := make(map[tagger.Label][]string)
	for _, s := range spans {
		if s.Label == tagger.LabelOther || s.Label == tagger.LabelCitNum {
			continue
		}
		text := Clean(s.Text)
		if text == "" {
			continue
		}
		fields[s.Label] = append(fields[s.Label], text)
	}

	joined := func(l tagger.Label) string {
		return strings.Join(fields[l], " ")
	}

	rec := citation.Record{
		Raw:       cand.Raw,
		Title:     CleanTitle(joined(tagger.LabelTitle)),
		Venue:     joined(tagger.LabelVenue),
		Volume:    joined(tagger.LabelVolume),
		Issue:     joined(tagger.LabelIssue),
		Pages:     joined(tagger.LabelPages),
		Publisher: joined(tagger.LabelPublisher),
		Authors:   SplitAuthors(joined(tagger.LabelAuthor)),
		Editors:   SplitAuthors(joined(tagger.LabelEditor)),
		Year:      ParseYear(joined(tagger.LabelYear)),
	}
	rec.DOI = citation.NormalizeDOI(strings.TrimRight(joined(tagger.LabelDOI), identifierTrail))
	rec.URL = cleanURL(joined(tagger.LabelURL))
	if rec.DOI == "" && strings.Contains(strings.ToLower(rec.URL), "doi.org/") {
		rec.DOI = citation.NormalizeDOI(rec.URL)
	}
	if rec.Year == 0 {
		// Years tagged as part of another field still count as metadata.
		rec.Year = ParseYear(rec.Venue)
	}
	return rec
}

// Clean strips surrounding whitespace and punctuation from span text.
func Clean(s string) string {
	return strings.Trim(s, cleanCutset)
}

// CleanTitle applies Clean plus title-specific repairs: a stray leading
// year and trailing arXiv annotations are removed.
func CleanTitle(s string) string {
	s = Clean(s)
	s = titleLeadYear.ReplaceAllString(s, "")
	s = titleArxivTail.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func cleanURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, " ([<\"'“‘")
	return strings.TrimRight(s, identifierTrail)
}

// ParseYear returns the first plausible 4-digit year in 1500-2099, or 0
// when the text has none. A missing year is metadata absence, not an error.
func ParseYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	year := 0
	for _, r := range m {
		year = year*10 + int(r-'0')
	}
	return year
}

// SplitAuthors splits an author span into individual names, preserving
// citation order. Separators are ";", " and ", and "&"; comma-separated
// segments re-pair when they alternate surname and initials, so
// "Smith, J., Doe, A. B." yields two authors while "J. Smith, A. Doe"
// yields two as well.
func SplitAuthors(s string) []string {
	s = Clean(s)
	if s == "" {
		return nil
	}

	var names []string
	for _, chunk := range authorSeparator.Split(s, -1) {
		chunk = strings.Trim(chunk, " ,;")
		if chunk == "" {
			continue
		}
		names = append(names, splitCommaGroup(chunk)...)
	}

	out := names[:0]
	for _, name := range names {
		name = trimAuthorPeriod(name)
		if name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitCommaGroup resolves the comma ambiguity inside one separator-free
// chunk: "Smith, J." is one inverted name, "Smith, J., Doe, A." is two,
// "Smith, John" is one, and "J. Smith, A. Doe" is a plain comma list.
func splitCommaGroup(chunk string) []string {
	if !strings.Contains(chunk, ",") {
		return []string{chunk}
	}

	parts := strings.Split(chunk, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Inverted names pair a surname with following initials.
	if len(parts) >= 2 && !initialsLike(parts[0]) && initialsLike(parts[1]) {
		var names []string
		i := 0
		for i < len(parts) {
			p := parts[i]
			if p == "" {
				i++
				continue
			}
			if i+1 < len(parts) && initialsLike(parts[i+1]) {
				names = append(names, p+", "+parts[i+1])
				i += 2
				continue
			}
			names = append(names, p)
			i++
		}
		return names
	}

	// "Surname, Given" with a spelled-out given name is still one author.
	if len(parts) == 2 && !strings.Contains(parts[0], " ") && givenNameLike(parts[1]) {
		return []string{parts[0] + ", " + parts[1]}
	}

	// Plain list: every part is a full name.
	var names []string
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// givenNameLike matches one or two capitalized words ("John", "Mary Ann").
func givenNameLike(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// initialsLike reports whether text looks like given-name initials:
// every word reduces to at most two letters once periods and hyphens
// are dropped ("J.", "A. B.", "J.-P.").
func initialsLike(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		letters := 0
		for _, r := range w {
			switch r {
			case '.', '-':
				continue
			default:
				letters++
			}
		}
		if letters == 0 || letters > 2 {
			return false
		}
	}
	return true
}

// trimAuthorPeriod drops a trailing period unless it closes an initial,
// so "A. Doe." becomes "A. Doe" while "Smith, J." is untouched.
func trimAuthorPeriod(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(name, ".") {
		return name
	}
	base := strings.TrimSuffix(name, ".")
	idx := strings.LastIndexAny(base, " .-")
	lastWord := base
	if idx >= 0 {
		lastWord = base[idx+1:]
	}
	if utf8.RuneCountInString(lastWord) > 1 {
		return strings.TrimSpace(base)
	}
	return name
}

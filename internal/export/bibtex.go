// Package export renders catalog entries and verification reports to
// interchange formats: BibTeX, CSV, and JSON Lines.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/citemill/citemill/internal/citation"
)

var arxivID = regexp.MustCompile(`(?i)arxiv[:\s]*([0-9]{4}\.[0-9]{4,5})`)

// ToBibTeX converts a record to a BibTeX entry.
func ToBibTeX(rec citation.Record) string {
	entryType := determineEntryType(rec)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CiteKey(rec)))

	if len(rec.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatNames(rec.Authors)))
	}
	if len(rec.Editors) > 0 {
		b.WriteString(fmt.Sprintf("  editor = {%s},\n", formatNames(rec.Editors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(rec.Title)))

	if rec.Venue != "" {
		switch entryType {
		case "inproceedings":
			b.WriteString(fmt.Sprintf("  booktitle = {%s},\n", escapeLatex(rec.Venue)))
		case "phdthesis":
			b.WriteString(fmt.Sprintf("  school = {%s},\n", escapeLatex(rec.Venue)))
		case "article":
			b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(rec.Venue)))
		}
	}

	if rec.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", rec.Year))
	}
	if rec.Volume != "" {
		b.WriteString(fmt.Sprintf("  volume = {%s},\n", escapeLatex(rec.Volume)))
	}
	if rec.Issue != "" {
		b.WriteString(fmt.Sprintf("  number = {%s},\n", escapeLatex(rec.Issue)))
	}
	if rec.Pages != "" {
		b.WriteString(fmt.Sprintf("  pages = {%s},\n", escapeLatex(rec.Pages)))
	}
	if rec.Publisher != "" {
		b.WriteString(fmt.Sprintf("  publisher = {%s},\n", escapeLatex(rec.Publisher)))
	}

	if entryType == "misc" {
		if id := findArxivID(rec); id != "" {
			b.WriteString(fmt.Sprintf("  eprint = {%s},\n", id))
			b.WriteString("  archivePrefix = {arXiv},\n")
		}
	}

	if rec.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", rec.DOI))
	} else if rec.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", rec.URL))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple records to BibTeX format.
func ToBibTeXList(recs []citation.Record) string {
	var entries []string
	for _, rec := range recs {
		entries = append(entries, ToBibTeX(rec))
	}
	return strings.Join(entries, "\n")
}

// determineEntryType maps a record's venue to a BibTeX entry type.
func determineEntryType(rec citation.Record) string {
	venue := strings.ToLower(rec.Venue)

	// Preprint servers get @misc with an eprint field; there is no
	// journal to cite.
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "misc"
	}

	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	if strings.Contains(venue, "thesis") || strings.Contains(venue, "dissertation") {
		return "phdthesis"
	}

	if strings.Contains(venue, "book") {
		return "book"
	}

	return "article"
}

// CiteKey generates a citation key from record metadata.
// Format: LastName + Year + suffix (e.g., "Zhang2018-vi").
// Note: Not guaranteed globally unique - callers should check a KeyIndex
// before appending to an existing file.
func CiteKey(rec citation.Record) string {
	lastName := "Unknown"
	if first := rec.FirstAuthor(); first != "" {
		if name := sanitizeForCiteKey(familyName(first)); name != "" {
			lastName = name
		}
	}

	year := rec.Year
	if year == 0 {
		year = 9999
	}

	return fmt.Sprintf("%s%d-%s", lastName, year, titleSuffix(rec.Title))
}

// familyName extracts the family name from a citation-style author,
// preserving its casing.
func familyName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.Index(name, ","); idx > 0 {
		return strings.TrimSpace(name[:idx])
	}
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// sanitizeForCiteKey removes non-alphanumeric characters.
func sanitizeForCiteKey(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// titleSuffix creates a 2-letter suffix from the title's first
// significant words.
func titleSuffix(title string) string {
	words := strings.Fields(strings.ToLower(title))
	stopWords := map[string]bool{"a": true, "an": true, "the": true, "of": true, "and": true, "in": true, "on": true, "for": true, "to": true, "with": true}

	var suffix strings.Builder
	for _, word := range words {
		if !stopWords[word] && len(word) > 0 {
			suffix.WriteByte(word[0])
			if suffix.Len() >= 2 {
				break
			}
		}
	}

	// Pad if needed
	for suffix.Len() < 2 {
		suffix.WriteByte('x')
	}

	return suffix.String()
}

// findArxivID pulls an arXiv identifier out of the venue or URL.
func findArxivID(rec citation.Record) string {
	for _, field := range []string{rec.Venue, rec.URL} {
		if m := arxivID.FindStringSubmatch(field); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// formatNames joins names in BibTeX style: "Smith, J. and Doe, A."
func formatNames(names []string) string {
	var formatted []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			formatted = append(formatted, escapeLatex(name))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}

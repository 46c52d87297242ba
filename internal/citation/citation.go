// Package citation defines the core domain types for parsed citation records.
package citation

import "strings"

// Record represents one normalized citation extracted from a reference string.
// A Record is always valid even when most fields are empty: partial extraction
// is more useful to callers than a hard failure.
type Record struct {
	// Raw is the original reference text, preserved verbatim for auditability.
	Raw string `json:"raw"`

	// Metadata
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"` // Citation order, never re-sorted
	Editors []string `json:"editors,omitempty"`
	Year    int      `json:"year,omitempty"`  // 0 if unknown
	Venue   string   `json:"venue,omitempty"` // Journal, conference, or preprint server

	// Locator details
	Volume    string `json:"volume,omitempty"`
	Issue     string `json:"issue,omitempty"`
	Pages     string `json:"pages,omitempty"`
	Publisher string `json:"publisher,omitempty"`

	// External identifiers
	DOI string `json:"doi,omitempty"`
	URL string `json:"url,omitempty"`
}

// HasIdentifier reports whether the record carries a resolvable external
// identifier (DOI or URL).
func (r Record) HasIdentifier() bool {
	return r.DOI != "" || r.URL != ""
}

// FirstAuthor returns the first author in citation order, or "" if none.
func (r Record) FirstAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, doi:) and converts to lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	lower := strings.ToLower(doi)
	if strings.HasPrefix(lower, "doi:") {
		doi = doi[len("doi:"):]
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/citemill/citemill/internal/citation"
)

var (
	// Matches an entry start: @type{key,
	bibEntryStart = regexp.MustCompile(`@\w+\{([^,]+),`)
	// Matches a DOI field: doi = {value} or doi = "value"
	bibDOIField = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// KeyIndex tracks the citation keys and DOIs already present in a .bib
// file, so repeated exports append only entries the file does not have.
type KeyIndex struct {
	keys map[string]bool
	dois map[string]bool
}

// NewKeyIndex creates an empty index.
func NewKeyIndex() *KeyIndex {
	return &KeyIndex{
		keys: make(map[string]bool),
		dois: make(map[string]bool),
	}
}

// LoadKeyIndex builds an index from an existing .bib file.
// A missing file yields an empty index.
func LoadKeyIndex(path string) (*KeyIndex, error) {
	idx := NewKeyIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if m := bibEntryStart.FindStringSubmatch(line); len(m) > 1 {
			idx.keys[strings.TrimSpace(m[1])] = true
		}
		if m := bibDOIField.FindStringSubmatch(line); len(m) > 1 {
			if doi := citation.NormalizeDOI(m[1]); doi != "" {
				idx.dois[doi] = true
			}
		}
	}
	return idx, scanner.Err()
}

// Has reports whether an entry with this key or DOI is already present.
// DOI is the primary identity; the citation key is the fallback when the
// record carries none.
func (idx *KeyIndex) Has(key, doi string) bool {
	if doi != "" && idx.dois[citation.NormalizeDOI(doi)] {
		return true
	}
	return idx.keys[key]
}

// Add marks an entry as present, so a single export run also dedupes
// against itself.
func (idx *KeyIndex) Add(key, doi string) {
	idx.keys[key] = true
	if doi := citation.NormalizeDOI(doi); doi != "" {
		idx.dois[doi] = true
	}
}

// AppendBib appends BibTeX content to a file, creating it if needed.
func AppendBib(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}

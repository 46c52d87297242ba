// Package catalog persists parsed citation records. The JSONL file is
// the durable, git-friendly source of truth; the SQLite index under the
// cache directory is derived state, rebuilt from the JSONL whenever it
// is missing or stale.
package catalog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/match"
)

// MaxLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line).
const MaxLineCapacity = 1024 * 1024

// Entry is one cataloged record: the parsed citation plus catalog
// bookkeeping. Record fields flatten into the same JSON object.
type Entry struct {
	ID      string    `json:"id"`
	AddedAt time.Time `json:"added_at"`
	citation.Record
}

// ReadAll reads all entries from a JSONL file. A missing file is an
// empty catalog, not an error.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	return entries, nil
}

// Append adds an entry to the end of a JSONL file.
func Append(path string, entry Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening catalog file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// WriteAll writes all entries to a JSONL file, replacing existing
// content.
func WriteAll(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating catalog file: %w", err)
	}
	defer f.Close()

	for i, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}

		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	return nil
}

// FindByDOI searches entries by DOI; both sides are normalized first.
func FindByDOI(entries []Entry, doi string) (int, bool) {
	doi = citation.NormalizeDOI(doi)
	if doi == "" {
		return -1, false
	}
	for i, entry := range entries {
		if citation.NormalizeDOI(entry.DOI) == doi {
			return i, true
		}
	}
	return -1, false
}

// FindByID searches entries by catalog ID.
func FindByID(entries []Entry, id string) (int, bool) {
	for i, entry := range entries {
		if entry.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByCleanTitle searches entries by exact match on the cleaned title
// form.
func FindByCleanTitle(entries []Entry, title string) (int, bool) {
	clean := match.CleanTitle(title)
	if clean == "" {
		return -1, false
	}
	for i, entry := range entries {
		if match.CleanTitle(entry.Title) == clean {
			return i, true
		}
	}
	return -1, false
}

// MakeID builds the base catalog ID for a record: first author family
// name plus year, lowercased ("smith2020").
func MakeID(rec citation.Record) string {
	family := "ref"
	if first := rec.FirstAuthor(); first != "" {
		if a := match.ParseAuthor(first); a.Family != "" {
			family = sanitizeID(a.Family)
		}
	}
	if rec.Year > 0 {
		return family + strconv.Itoa(rec.Year)
	}
	return family
}

// GenerateUniqueID returns an ID that doesn't conflict with existing
// entries. If the base ID exists, appends -2, -3, etc.
func GenerateUniqueID(entries []Entry, baseID string) string {
	if _, found := FindByID(entries, baseID); !found {
		return baseID
	}

	// Start at 2: baseID is taken, so first duplicate becomes baseID-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if _, found := FindByID(entries, candidate); !found {
			return candidate
		}
	}
}

// sanitizeID keeps only letters and digits, lowercased, so IDs stay
// shell- and filename-safe.
func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	if b.Len() == 0 {
		return "ref"
	}
	return b.String()
}

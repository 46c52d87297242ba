package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/normalize"
)

// flexString unmarshals from either a string or a number. Reference
// manager exports disagree on whether years and volumes are quoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*f = flexString(strconv.Itoa(i))
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into string", string(data))
}

func (f flexString) String() string {
	return string(f)
}

// paperpileEntry is one entry of a Paperpile JSON export. Only the
// fields the catalog keeps are declared; the export carries many more.
type paperpileEntry struct {
	ID        string     `json:"_id"`
	Citekey   string     `json:"citekey"`
	DOI       string     `json:"doi"`
	Title     string     `json:"title"`
	Journal   string     `json:"journal"`
	Volume    flexString `json:"volume"`
	Issue     flexString `json:"issue"`
	Pages     string     `json:"pagination"`
	Publisher string     `json:"publisher"`
	Published struct {
		Year flexString `json:"year"`
	} `json:"published"`
	Author []struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"author"`
}

// ParsePaperpile parses a Paperpile JSON export into citation records.
// Bad entries collect one error each; a single malformed entry never
// aborts the file.
func ParsePaperpile(data []byte) ([]citation.Record, []error) {
	var entries []paperpileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("parsing Paperpile JSON: %w", err)}
	}

	var recs []citation.Record
	var errs []error
	for i, entry := range entries {
		rec, err := paperpileEntryToRecord(entry)
		if err != nil {
			label := fmt.Sprintf("entry %d", i+1)
			if entry.Citekey != "" {
				label += " (" + entry.Citekey + ")"
			}
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
			continue
		}
		recs = append(recs, rec)
	}

	return recs, errs
}

// paperpileEntryToRecord converts one export entry. Title is the only
// required field, matching the CSV importer.
func paperpileEntryToRecord(entry paperpileEntry) (citation.Record, error) {
	if entry.Title == "" {
		return citation.Record{}, fmt.Errorf("missing required field 'title'")
	}

	var authors []string
	for _, a := range entry.Author {
		switch {
		case a.Last != "" && a.First != "":
			authors = append(authors, a.Last+", "+a.First)
		case a.Last != "":
			authors = append(authors, a.Last)
		case a.First != "":
			authors = append(authors, a.First)
		}
	}

	return citation.Record{
		Title:     entry.Title,
		Authors:   authors,
		Year:      normalize.ParseYear(entry.Published.Year.String()),
		Venue:     entry.Journal,
		Volume:    entry.Volume.String(),
		Issue:     entry.Issue.String(),
		Pages:     entry.Pages,
		Publisher: entry.Publisher,
		DOI:       citation.NormalizeDOI(entry.DOI),
	}, nil
}

package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/normalize"
)

// headerAliases maps column names seen in reference-manager exports to
// record fields, matched case-insensitively.
var headerAliases = map[string]string{
	"title":            "title",
	"item title":       "title",
	"article title":    "title",
	"author":           "authors",
	"authors":          "authors",
	"creator":          "authors",
	"year":             "year",
	"publication year": "year",
	"date":             "year",
	"venue":            "venue",
	"journal":          "venue",
	"publication":      "venue",
	"source title":     "venue",
	"volume":           "volume",
	"issue":            "issue",
	"number":           "issue",
	"pages":            "pages",
	"publisher":        "publisher",
	"doi":              "doi",
	"url":              "url",
	"link":             "url",
}

// ParseCSV reads records from a CSV export. Header names are matched
// against common aliases and unknown columns are ignored. Bad rows
// collect one error each; a single malformed row never aborts the file.
func ParseCSV(r io.Reader) ([]citation.Record, []error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // exports disagree on trailing columns

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("reading CSV header: %w", err)}
	}

	fields := make(map[int]string)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if f, ok := headerAliases[name]; ok {
			fields[i] = f
		}
	}
	if len(fields) == 0 {
		return nil, []error{fmt.Errorf("no recognized columns in CSV header: %v", header)}
	}

	var recs []citation.Record
	var errs []error
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}

		rec, err := rowToRecord(fields, row)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		recs = append(recs, rec)
	}

	return recs, errs
}

func rowToRecord(fields map[int]string, row []string) (citation.Record, error) {
	var rec citation.Record
	for i, field := range fields {
		if i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		switch field {
		case "title":
			rec.Title = value
		case "authors":
			rec.Authors = normalize.SplitAuthors(value)
		case "year":
			rec.Year = normalize.ParseYear(value)
		case "venue":
			rec.Venue = value
		case "volume":
			rec.Volume = value
		case "issue":
			rec.Issue = value
		case "pages":
			rec.Pages = value
		case "publisher":
			rec.Publisher = value
		case "doi":
			rec.DOI = citation.NormalizeDOI(value)
		case "url":
			rec.URL = value
		}
	}

	if rec.Title == "" {
		return citation.Record{}, fmt.Errorf("missing required field 'title'")
	}
	return rec, nil
}

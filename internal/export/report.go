package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/citemill/citemill/internal/verify"
)

// reportHeader is the review-spreadsheet layout: one row per reference
// with its outcome and the original text for eyeballing.
var reportHeader = []string{"ID", "Status", "Title", "Source", "Original"}

// WriteReportCSV writes a verification report as CSV. The results slice
// is the parse output the report was built from; it supplies the raw
// reference text and the failure kind for rows the verifier skipped.
func WriteReportCSV(w io.Writer, report *verify.Report, results []pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, ver := range report.Results {
		var res pipeline.Result
		if i < len(results) {
			res = results[i]
		}

		status := string(ver.Status)
		title := ver.Title
		original := ""

		if res.Record != nil {
			original = res.Record.Raw
			if title == "" {
				title = res.Record.Title
			}
		}
		if res.Failure != nil {
			status = string(res.Failure.Kind)
			original = res.Failure.Raw
			if title == "" {
				title = "Parse Error"
			}
		}

		row := []string{strconv.Itoa(i + 1), status, title, ver.Source, original}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteReportJSON writes the full report as indented JSON.
func WriteReportJSON(w io.Writer, report *verify.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// recordHeader uses the column names the catalog importer recognizes,
// so an exported file re-imports cleanly.
var recordHeader = []string{"title", "authors", "year", "venue", "volume", "issue", "pages", "publisher", "doi", "url"}

// WriteRecordsCSV writes one row per record. Authors join on "; ", the
// separator the importer splits on.
func WriteRecordsCSV(w io.Writer, recs []citation.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range recs {
		year := ""
		if rec.Year > 0 {
			year = strconv.Itoa(rec.Year)
		}
		row := []string{
			rec.Title,
			strings.Join(rec.Authors, "; "),
			year,
			rec.Venue,
			rec.Volume,
			rec.Issue,
			rec.Pages,
			rec.Publisher,
			rec.DOI,
			rec.URL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRecordsJSONL streams records as one JSON object per line, the
// same shape the catalog stores.
func WriteRecordsJSONL(w io.Writer, recs []citation.Record) error {
	enc := json.NewEncoder(w)
	for i, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return nil
}

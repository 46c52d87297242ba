package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string year", `"2026"`, "2026"},
		{"number year", `2026`, "2026"},
		{"null value", `null`, ""},
		{"float number", `2026.0`, "2026.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if f.String() != tt.want {
				t.Errorf("got %q, want %q", f.String(), tt.want)
			}
		})
	}
}

func TestFlexString_InvalidInput(t *testing.T) {
	var f flexString
	if err := json.Unmarshal([]byte(`{"nested": "object"}`), &f); err == nil {
		t.Error("expected error for object input")
	}
}

func TestParsePaperpile_ValidEntry(t *testing.T) {
	data := `[{
		"_id": "abc123",
		"citekey": "Smith2020-st",
		"doi": "https://doi.org/10.1000/xyz",
		"title": "A Study of Things",
		"journal": "Journal of Examples",
		"volume": 12,
		"issue": "3",
		"pagination": "1-10",
		"published": {"year": "2020"},
		"author": [{"first": "Jane", "last": "Smith"}]
	}]`

	recs, errs := ParsePaperpile([]byte(data))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Title != "A Study of Things" {
		t.Errorf("title = %q", rec.Title)
	}
	if len(rec.Authors) != 1 || rec.Authors[0] != "Smith, Jane" {
		t.Errorf("authors = %v", rec.Authors)
	}
	if rec.Year != 2020 {
		t.Errorf("year = %d", rec.Year)
	}
	if rec.Venue != "Journal of Examples" {
		t.Errorf("venue = %q", rec.Venue)
	}
	// Numeric volume unmarshals like the quoted issue
	if rec.Volume != "12" || rec.Issue != "3" || rec.Pages != "1-10" {
		t.Errorf("volume/issue/pages = %q/%q/%q", rec.Volume, rec.Issue, rec.Pages)
	}
	// DOI URLs normalize to the bare form
	if rec.DOI != "10.1000/xyz" {
		t.Errorf("doi = %q", rec.DOI)
	}
}

func TestParsePaperpile_MissingTitle(t *testing.T) {
	data := `[
		{"citekey": "NoTitle2020", "published": {"year": "2020"}, "author": [{"last": "Smith"}]},
		{"title": "Kept Anyway", "published": {"year": 2021}, "author": [{"last": "Doe"}]}
	]`

	recs, errs := ParsePaperpile([]byte(data))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Title != "Kept Anyway" {
		t.Errorf("kept the wrong record: %+v", recs[0])
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	// The citekey locates the bad entry
	if !strings.Contains(errs[0].Error(), "NoTitle2020") {
		t.Errorf("error does not name the entry: %v", errs[0])
	}
	if !strings.Contains(errs[0].Error(), "title") {
		t.Errorf("error does not name the missing field: %v", errs[0])
	}
}

func TestParsePaperpile_SparseEntry(t *testing.T) {
	// Title is the only required field, matching the CSV importer
	recs, errs := ParsePaperpile([]byte(`[{"title": "Untitled Notes"}]`))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(recs) != 1 || recs[0].Title != "Untitled Notes" {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if recs[0].Year != 0 || len(recs[0].Authors) != 0 {
		t.Errorf("expected zero-valued optional fields, got %+v", recs[0])
	}
}

func TestParsePaperpile_AuthorForms(t *testing.T) {
	data := `[{
		"title": "Many Hands",
		"author": [
			{"first": "Jane", "last": "Smith"},
			{"last": "Doe"},
			{"first": "Madonna"}
		]
	}]`

	recs, errs := ParsePaperpile([]byte(data))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"Smith, Jane", "Doe", "Madonna"}
	got := recs[0].Authors
	if len(got) != len(want) {
		t.Fatalf("authors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("author %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePaperpile_InvalidJSON(t *testing.T) {
	recs, errs := ParsePaperpile([]byte(`{not json`))
	if recs != nil {
		t.Errorf("expected no records, got %v", recs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
}

func TestParsePaperpile_EmptyArray(t *testing.T) {
	recs, errs := ParsePaperpile([]byte(`[]`))
	if len(recs) != 0 || len(errs) != 0 {
		t.Errorf("expected empty result, got %v / %v", recs, errs)
	}
}

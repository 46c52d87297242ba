package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/citemill/citemill/internal/citation"
)

func sampleEntry(id, title, doi string) Entry {
	return Entry{
		ID:      id,
		AddedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Record: citation.Record{
			Raw:     title + ".",
			Title:   title,
			Authors: []string{"Smith, J."},
			Year:    2020,
			Venue:   "Journal of Examples",
			DOI:     doi,
		},
	}
}

func TestReadAllMissingFile(t *testing.T) {
	entries, err := ReadAll(filepath.Join(t.TempDir(), "catalog.jsonl"))
	if err != nil {
		t.Fatalf("ReadAll on missing file: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")

	first := sampleEntry("smith2020", "A Study of Things", "10.1000/xyz123")
	second := sampleEntry("doe2021", "Another Study", "")
	second.Authors = []string{"Doe, A."}
	second.Year = 2021

	if err := Append(path, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "smith2020" || entries[1].ID != "doe2021" {
		t.Errorf("IDs = %q, %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].Title != "A Study of Things" {
		t.Errorf("Title = %q", entries[0].Title)
	}
	if entries[0].Year != 2020 || entries[1].Year != 2021 {
		t.Errorf("years = %d, %d", entries[0].Year, entries[1].Year)
	}
	if !entries[0].AddedAt.Equal(first.AddedAt) {
		t.Errorf("AddedAt = %v, want %v", entries[0].AddedAt, first.AddedAt)
	}
}

func TestReadAllSkipsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	content := `{"id":"a","added_at":"2025-06-01T12:00:00Z","raw":"x"}` + "\n\n" +
		`{"id":"b","added_at":"2025-06-01T12:00:00Z","raw":"y"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestReadAllBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadAll(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestWriteAllReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")

	both := []Entry{
		sampleEntry("smith2020", "A Study of Things", ""),
		sampleEntry("doe2021", "Another Study", ""),
	}
	if err := WriteAll(path, both); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	one := []Entry{sampleEntry("roe2022", "A Third Study", "")}
	if err := WriteAll(path, one); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "roe2022" {
		t.Errorf("entries = %v, want only roe2022", entries)
	}
}

func TestFindByDOI(t *testing.T) {
	entries := []Entry{
		sampleEntry("smith2020", "A Study of Things", "10.1000/xyz123"),
		sampleEntry("doe2021", "Another Study", "10.5555/abc"),
	}

	tests := []struct {
		name    string
		doi     string
		wantIdx int
		wantOK  bool
	}{
		{name: "exact", doi: "10.5555/abc", wantIdx: 1, wantOK: true},
		{name: "url form normalizes", doi: "https://doi.org/10.1000/XYZ123", wantIdx: 0, wantOK: true},
		{name: "absent", doi: "10.9999/nope", wantIdx: -1, wantOK: false},
		{name: "empty", doi: "", wantIdx: -1, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := FindByDOI(entries, tt.doi)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("FindByDOI(%q) = %d, %v; want %d, %v", tt.doi, idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestFindByCleanTitle(t *testing.T) {
	entries := []Entry{
		sampleEntry("smith2020", "A Study of Things", ""),
		sampleEntry("doe2021", "Self-Attention Networks", ""),
	}

	if idx, ok := FindByCleanTitle(entries, "a study of THINGS."); !ok || idx != 0 {
		t.Errorf("case/punctuation variant not found: idx=%d ok=%v", idx, ok)
	}
	if idx, ok := FindByCleanTitle(entries, "Self–Attention Networks"); !ok || idx != 1 {
		t.Errorf("dash variant not found: idx=%d ok=%v", idx, ok)
	}
	if _, ok := FindByCleanTitle(entries, "An Unrelated Work"); ok {
		t.Error("unrelated title should not match")
	}
	if _, ok := FindByCleanTitle(entries, ""); ok {
		t.Error("empty title should not match")
	}
}

func TestMakeID(t *testing.T) {
	tests := []struct {
		name string
		rec  citation.Record
		want string
	}{
		{
			name: "author and year",
			rec:  citation.Record{Authors: []string{"Smith, J."}, Year: 2020},
			want: "smith2020",
		},
		{
			name: "no year",
			rec:  citation.Record{Authors: []string{"Smith, J."}},
			want: "smith",
		},
		{
			name: "no author",
			rec:  citation.Record{Year: 2020},
			want: "ref2020",
		},
		{
			name: "non-ascii letters dropped",
			rec:  citation.Record{Authors: []string{"Müller, A."}, Year: 2021},
			want: "mller2021",
		},
		{
			name: "empty record",
			rec:  citation.Record{},
			want: "ref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeID(tt.rec); got != tt.want {
				t.Errorf("MakeID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateUniqueID(t *testing.T) {
	entries := []Entry{
		{ID: "smith2020"},
		{ID: "smith2020-2"},
	}

	if got := GenerateUniqueID(entries, "doe2021"); got != "doe2021" {
		t.Errorf("fresh ID = %q, want doe2021", got)
	}
	if got := GenerateUniqueID(entries, "smith2020"); got != "smith2020-3" {
		t.Errorf("conflicting ID = %q, want smith2020-3", got)
	}
}

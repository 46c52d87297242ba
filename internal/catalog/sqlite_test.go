package catalog

import (
	"path/filepath"
	"testing"
)

// newTestDB creates an index database and a populated catalog JSONL in a
// temp dir, returning the open DB.
func newTestDB(t *testing.T, entries []Entry) *DB {
	t.Helper()
	dir := t.TempDir()

	jsonlPath := filepath.Join(dir, "catalog.jsonl")
	if err := WriteAll(jsonlPath, entries); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	db, err := OpenDB(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("rebuilding index: %v", err)
	}
	if n != len(entries) {
		t.Fatalf("indexed %d entries, want %d", n, len(entries))
	}
	return db
}

func testEntries() []Entry {
	smith := sampleEntry("smith2020", "A Study of Things", "10.1000/xyz123")
	doe := sampleEntry("doe2021", "Deep Learning for Citation Parsing", "")
	doe.Authors = []string{"Doe, A.", "Roe, B."}
	doe.Year = 2021
	doe.Venue = "Proceedings of Examples"
	return []Entry{smith, doe}
}

func TestOpenDBEmpty(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}
}

func TestRebuildFromJSONL(t *testing.T) {
	db := newTestDB(t, testEntries())

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}

	all, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll returned %d, want 2", len(all))
	}
	// ORDER BY id puts doe2021 first.
	if all[0].ID != "doe2021" || all[1].ID != "smith2020" {
		t.Errorf("IDs = %q, %q", all[0].ID, all[1].ID)
	}
	if len(all[0].Authors) != 2 || all[0].Authors[0] != "Doe, A." {
		t.Errorf("Authors roundtrip failed: %v", all[0].Authors)
	}
	if all[1].Year != 2020 || all[1].Venue != "Journal of Examples" {
		t.Errorf("fields roundtrip failed: %+v", all[1])
	}
}

func TestRebuildReplacesIndex(t *testing.T) {
	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "catalog.jsonl")

	if err := WriteAll(jsonlPath, testEntries()); err != nil {
		t.Fatal(err)
	}
	db, err := OpenDB(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.RebuildFromJSONL(jsonlPath); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}

	if err := WriteAll(jsonlPath, testEntries()[:1]); err != nil {
		t.Fatal(err)
	}
	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if n != 1 {
		t.Errorf("second rebuild indexed %d, want 1", n)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count = %d after rebuild, want 1", count)
	}
}

func TestSearchTitle(t *testing.T) {
	db := newTestDB(t, testEntries())

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "single word", query: "study", wantIDs: []string{"smith2020"}},
		{name: "prefix", query: "stud", wantIDs: []string{"smith2020"}},
		{name: "case insensitive", query: "DEEP learning", wantIDs: []string{"doe2021"}},
		{name: "no match", query: "zebra", wantIDs: nil},
		{name: "venue words do not match titles", query: "proceedings", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SearchTitle(tt.query, 10)
			if err != nil {
				t.Fatalf("SearchTitle(%q): %v", tt.query, err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("SearchTitle(%q) returned %d entries, want %d", tt.query, len(got), len(tt.wantIDs))
			}
			for i, entry := range got {
				if entry.ID != tt.wantIDs[i] {
					t.Errorf("result %d = %q, want %q", i, entry.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestSearchAllColumns(t *testing.T) {
	db := newTestDB(t, testEntries())

	// Author name matches via the authors_text column.
	got, err := db.Search("roe", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doe2021" {
		t.Errorf("Search(roe) = %v, want doe2021", got)
	}

	// Venue words match too.
	got, err = db.Search("proceedings", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doe2021" {
		t.Errorf("Search(proceedings) = %v, want doe2021", got)
	}

	// Empty query is no results, not an FTS syntax error.
	got, err = db.Search("   ", 10)
	if err != nil {
		t.Fatalf("Search blank: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search blank returned %v", got)
	}
}

func TestDBFindByDOI(t *testing.T) {
	db := newTestDB(t, testEntries())

	entry, err := db.FindByDOI("https://doi.org/10.1000/XYZ123")
	if err != nil {
		t.Fatalf("FindByDOI: %v", err)
	}
	if entry == nil || entry.ID != "smith2020" {
		t.Errorf("FindByDOI = %v, want smith2020", entry)
	}

	entry, err = db.FindByDOI("10.9999/absent")
	if err != nil {
		t.Fatalf("FindByDOI: %v", err)
	}
	if entry != nil {
		t.Errorf("absent DOI returned %v", entry)
	}

	entry, err = db.FindByDOI("")
	if err != nil || entry != nil {
		t.Errorf("empty DOI = %v, %v; want nil, nil", entry, err)
	}
}

func TestDBFindByCleanTitle(t *testing.T) {
	db := newTestDB(t, testEntries())

	entry, err := db.FindByCleanTitle("a study of THINGS!")
	if err != nil {
		t.Fatalf("FindByCleanTitle: %v", err)
	}
	if entry == nil || entry.ID != "smith2020" {
		t.Errorf("FindByCleanTitle = %v, want smith2020", entry)
	}

	entry, err = db.FindByCleanTitle("Unknown Work")
	if err != nil {
		t.Fatalf("FindByCleanTitle: %v", err)
	}
	if entry != nil {
		t.Errorf("unknown title returned %v", entry)
	}
}

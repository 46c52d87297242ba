package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/match"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite search index. Everything in it derives from the
// catalog JSONL; deleting the file loses nothing.
type DB struct {
	db *sql.DB
}

// selectEntryFields contains the standard field list for SELECT queries.
const selectEntryFields = `id, added_at, raw, title,
	authors_json, editors_json, year, venue,
	volume, issue, pages, publisher, doi, url`

// OpenDB opens or creates the index database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		-- Main records table
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL,
			raw TEXT NOT NULL,
			title TEXT,
			clean_title TEXT,
			authors_json TEXT NOT NULL,
			editors_json TEXT,
			year INTEGER,
			venue TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			publisher TEXT,
			doi TEXT,
			url TEXT
		);

		-- Index for DOI lookups
		CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Index for cleaned-title lookups
		CREATE INDEX IF NOT EXISTS idx_records_clean_title ON records(clean_title);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			id,
			title,
			authors_text,
			venue
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the index and rebuilds it from the catalog
// JSONL file. Returns the number of entries indexed.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	entries, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	if _, err := d.db.Exec("DELETE FROM records"); err != nil {
		return 0, fmt.Errorf("clearing records table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM records_fts"); err != nil {
		return 0, fmt.Errorf("clearing records_fts table: %w", err)
	}

	recStmt, err := d.db.Prepare(`
		INSERT INTO records (
			id, added_at, raw, title, clean_title,
			authors_json, editors_json, year, venue,
			volume, issue, pages, publisher, doi, url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing records insert: %w", err)
	}
	defer recStmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO records_fts (id, title, authors_text, venue)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, entry := range entries {
		authorsJSON, err := json.Marshal(entry.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", entry.ID, err)
		}
		var editorsJSON []byte
		if len(entry.Editors) > 0 {
			editorsJSON, err = json.Marshal(entry.Editors)
			if err != nil {
				return 0, fmt.Errorf("marshaling editors for %s: %w", entry.ID, err)
			}
		}

		_, err = recStmt.Exec(
			entry.ID, entry.AddedAt.Unix(), entry.Raw,
			nullableStringValue(entry.Title), nullableStringValue(match.CleanTitle(entry.Title)),
			string(authorsJSON), nullableString(editorsJSON),
			entry.Year, nullableStringValue(entry.Venue),
			nullableStringValue(entry.Volume), nullableStringValue(entry.Issue),
			nullableStringValue(entry.Pages), nullableStringValue(entry.Publisher),
			nullableStringValue(citation.NormalizeDOI(entry.DOI)), nullableStringValue(entry.URL),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", entry.ID, err)
		}

		_, err = ftsStmt.Exec(entry.ID, entry.Title, strings.Join(entry.Authors, ", "), entry.Venue)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", entry.ID, err)
		}
	}

	return len(entries), nil
}

// Search performs a full-text search across title, authors, and venue.
func (d *DB) Search(query string, limit int) ([]Entry, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectEntryFields+`
		FROM records
		WHERE id IN (SELECT id FROM records_fts WHERE records_fts MATCH ?)
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// SearchTitle performs a full-text search restricted to the title
// column.
func (d *DB) SearchTitle(query string, limit int) ([]Entry, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectEntryFields+`
		FROM records
		WHERE id IN (SELECT id FROM records_fts WHERE records_fts MATCH ?)
		LIMIT ?`, "title:"+ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching title: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindByDOI retrieves the entry with the given DOI, or nil when absent.
func (d *DB) FindByDOI(doi string) (*Entry, error) {
	doi = citation.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectEntryFields+` FROM records WHERE doi = ?`, doi)
	return scanEntry(row)
}

// FindByCleanTitle retrieves the entry whose cleaned title exactly
// matches the cleaned form of the given title, or nil when absent.
func (d *DB) FindByCleanTitle(title string) (*Entry, error) {
	clean := match.CleanTitle(title)
	if clean == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectEntryFields+` FROM records WHERE clean_title = ?`, clean)
	return scanEntry(row)
}

// ListAll returns all entries, optionally limited.
func (d *DB) ListAll(limit int) ([]Entry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM records ORDER BY id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of indexed records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var entry Entry
	var addedAt int64
	var authorsJSON, editorsJSON sql.NullString
	var title, venue, volume, issue, pages, publisher, doi, url sql.NullString
	var year sql.NullInt64

	err := s.Scan(
		&entry.ID, &addedAt, &entry.Raw, &title,
		&authorsJSON, &editorsJSON, &year, &venue,
		&volume, &issue, &pages, &publisher, &doi, &url,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	entry.AddedAt = time.Unix(addedAt, 0).UTC()
	entry.Title = title.String
	entry.Venue = venue.String
	entry.Volume = volume.String
	entry.Issue = issue.String
	entry.Pages = pages.String
	entry.Publisher = publisher.String
	entry.DOI = doi.String
	entry.URL = url.String
	if year.Valid {
		entry.Year = int(year.Int64)
	}

	if authorsJSON.Valid {
		if err := json.Unmarshal([]byte(authorsJSON.String), &entry.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors JSON for %s: %w", entry.ID, err)
		}
	}
	if editorsJSON.Valid && editorsJSON.String != "" {
		if err := json.Unmarshal([]byte(editorsJSON.String), &entry.Editors); err != nil {
			return nil, fmt.Errorf("parsing editors JSON for %s: %w", entry.ID, err)
		}
	}

	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating
// empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns user input into an FTS5 query: each word is
// quoted (escaping embedded quotes) and prefix-starred, so "deep learn"
// matches "Deep Learning".
func prepareFTSQuery(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}

	var terms []string
	for _, w := range words {
		escaped := strings.ReplaceAll(w, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

package verify

import (
	"context"
	"strings"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/match"
)

// Local verifies records against the local catalog. It is the first rung
// of the default ladder, so anything already collected never costs a
// network round trip.
type Local struct {
	entries []catalog.Entry
	index   *catalog.DB
}

// LocalOption configures a Local source.
type LocalOption func(*Local)

// WithIndex lets Local prefilter fuzzy title lookups through the SQLite
// full-text index instead of scanning every entry.
func WithIndex(db *catalog.DB) LocalOption {
	return func(l *Local) {
		l.index = db
	}
}

// NewLocal creates a catalog-backed source over the given entries.
func NewLocal(entries []catalog.Entry, opts ...LocalOption) *Local {
	l := &Local{entries: entries}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the source name.
func (l *Local) Name() string {
	return "catalog"
}

// Verify looks the record up by DOI, then by exact clean title, then by
// fuzzy title match with an author cross-check.
func (l *Local) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	if rec.DOI != "" {
		if i, ok := catalog.FindByDOI(l.entries, rec.DOI); ok {
			return confirmEntry(l.entries[i]), nil
		}
	}
	if rec.Title == "" {
		return nil, nil
	}

	if i, ok := catalog.FindByCleanTitle(l.entries, rec.Title); ok {
		if authorsAgree(rec, l.entries[i]) {
			return confirmEntry(l.entries[i]), nil
		}
	}

	for _, entry := range l.candidates(rec.Title) {
		if entry.Title == "" {
			continue
		}
		if match.TitlesMatch(rec.Title, entry.Title) && authorsAgree(rec, entry) {
			return confirmEntry(entry), nil
		}
	}
	return nil, nil
}

// candidates narrows the fuzzy scan through the full-text index when one
// is attached. A broken or empty index degrades to scanning everything.
func (l *Local) candidates(title string) []catalog.Entry {
	if l.index == nil {
		return l.entries
	}
	word := longestWord(match.CleanTitle(title))
	if word == "" {
		return l.entries
	}
	hits, err := l.index.SearchTitle(word, 50)
	if err != nil || len(hits) == 0 {
		return l.entries
	}
	return hits
}

func authorsAgree(rec *citation.Record, entry catalog.Entry) bool {
	if len(rec.Authors) == 0 {
		return true
	}
	return match.AuthorsMatch(rec.Authors[0], entry.Authors)
}

func confirmEntry(entry catalog.Entry) *Confirmation {
	return &Confirmation{
		Title: entry.Title,
		DOI:   entry.DOI,
		URL:   entry.URL,
	}
}

var _ Source = (*Local)(nil)

// longestWord picks the most selective token for a prefilter query.
// Short words are skipped: they are usually stopwords and match half the
// catalog.
func longestWord(s string) string {
	var best string
	for _, word := range strings.Fields(s) {
		if len(word) > 3 && len(word) > len(best) {
			best = word
		}
	}
	return best
}

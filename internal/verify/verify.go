// Package verify checks parsed citation records against bibliographic
// sources. A Verifier walks an ordered ladder of sources (local catalog,
// Crossref, Semantic Scholar, OpenAlex, a plain URL probe) and stops at
// the first one that confirms the record. Source errors are recorded on
// the result but never abort the ladder: a flaky API downgrades a record
// to unverified, it does not fail the run.
package verify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/pipeline"
)

const (
	// DefaultWorkers is the number of records verified concurrently.
	DefaultWorkers = 5

	// DefaultTimeout bounds each request made by the HTTP sources.
	DefaultTimeout = 15 * time.Second
)

// Status describes the outcome of verifying one record.
type Status string

const (
	// StatusVerified means a source confirmed the record.
	StatusVerified Status = "verified"

	// StatusUnverified means no source confirmed the record.
	StatusUnverified Status = "unverified"

	// StatusSkipped means the record was never checked, because the
	// parser failed on its candidate.
	StatusSkipped Status = "skipped"
)

// Confirmation is a positive answer from a source: the matched work as
// the source knows it.
type Confirmation struct {
	Title string
	DOI   string
	URL   string
}

// Source is one rung of the verification ladder. Verify returns a
// confirmation when the source recognizes the record, (nil, nil) when it
// does not, and an error only for operational failures (network, auth,
// malformed responses).
type Source interface {
	Name() string
	Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error)
}

// Verification is the outcome for a single record.
type Verification struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
	DOI    string `json:"doi,omitempty"`
	URL    string `json:"url,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Report collects the verifications for one run, in input order.
type Report struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Results   []Verification `json:"results"`

	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	Skipped    int `json:"skipped"`
}

// Verifier runs records through the source ladder.
type Verifier struct {
	sources []Source
	workers int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.workers = n
		}
	}
}

// DefaultLadder builds the standard source order: the local catalog
// first, then DOI resolution, bibliographic search engines in order of
// coverage, and the bare URL probe last. Nil sources are left out.
func DefaultLadder(local *Local, crossref *Crossref, s2 *S2, openAlex *OpenAlex, probe *URLProbe) []Source {
	var sources []Source
	if local != nil {
		sources = append(sources, local)
	}
	if crossref != nil {
		sources = append(sources, crossref.DOISource(), crossref.SearchSource())
	}
	if s2 != nil {
		sources = append(sources, s2.Source())
	}
	if openAlex != nil {
		sources = append(sources, openAlex.Source())
	}
	if probe != nil {
		sources = append(sources, probe)
	}
	return sources
}

// New creates a Verifier over the given sources. Sources are tried in
// the order given.
func New(sources []Source, opts ...Option) *Verifier {
	v := &Verifier{
		sources: sources,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run verifies the records carried by results. Every result produces
// exactly one Verification, at the same index: parse failures become
// skipped verifications, everything else goes down the ladder.
func (v *Verifier) Run(ctx context.Context, results []pipeline.Result) *Report {
	report := &Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Results:   make([]Verification, len(results)),
	}
	if len(results) == 0 {
		return report
	}

	jobs := make(chan pipeline.Result, v.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < v.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				report.Results[res.Index] = v.verifyOne(ctx, res)
			}
		}()
	}

	for _, res := range results {
		jobs <- res
	}
	close(jobs)
	wg.Wait()

	for _, ver := range report.Results {
		switch ver.Status {
		case StatusVerified:
			report.Verified++
		case StatusSkipped:
			report.Skipped++
		default:
			report.Unverified++
		}
	}
	return report
}

// verifyOne walks the ladder for a single record.
func (v *Verifier) verifyOne(ctx context.Context, res pipeline.Result) Verification {
	ver := Verification{Index: res.Index}

	if res.Record == nil {
		ver.Status = StatusSkipped
		if res.Failure != nil {
			ver.Detail = "parse failure: " + res.Failure.Detail
		}
		return ver
	}

	var notes []string
	for _, src := range v.sources {
		if err := ctx.Err(); err != nil {
			notes = append(notes, src.Name()+": "+err.Error())
			break
		}
		conf, err := src.Verify(ctx, res.Record)
		if err != nil {
			notes = append(notes, src.Name()+": "+err.Error())
			continue
		}
		if conf != nil {
			ver.Status = StatusVerified
			ver.Source = src.Name()
			ver.Title = conf.Title
			ver.DOI = citation.NormalizeDOI(conf.DOI)
			ver.URL = conf.URL
			ver.Detail = strings.Join(notes, "; ")
			return ver
		}
	}

	ver.Status = StatusUnverified
	ver.Detail = strings.Join(notes, "; ")
	return ver
}

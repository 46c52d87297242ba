// Package pipeline runs the full parsing sequence over a block of input
// text: segmentation, feature extraction, tagging, span assembly, and
// normalization. Candidates are processed concurrently but results come
// back in input order, one per candidate, with failures recorded inline
// rather than aborting the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/feature"
	"github.com/citemill/citemill/internal/normalize"
	"github.com/citemill/citemill/internal/segment"
	"github.com/citemill/citemill/internal/span"
	"github.com/citemill/citemill/internal/tagger"
)

const (
	// DefaultWorkers is the number of candidates tagged concurrently.
	DefaultWorkers = 5

	// DefaultTagTimeout bounds a single tagging call. Backends talk to
	// external processes or services and must not stall the batch.
	DefaultTagTimeout = 10 * time.Second
)

// FailureKind classifies why a candidate produced no record.
type FailureKind string

const (
	// KindMalformedCandidate means the candidate had no tokens to tag.
	KindMalformedCandidate FailureKind = "malformed_candidate"

	// KindTaggingUnavailable means the tagging backend failed, timed
	// out, or returned labels that do not line up with the tokens.
	KindTaggingUnavailable FailureKind = "tagging_unavailable"
)

// Failure describes one candidate that could not be parsed.
type Failure struct {
	Kind      FailureKind `json:"kind"`
	Raw       string      `json:"raw"`
	StartLine int         `json:"start_line,omitempty"`
	EndLine   int         `json:"end_line,omitempty"`
	Detail    string      `json:"detail"`

	err error
}

// Result is the outcome for one candidate: either a record or a failure,
// never both, never neither.
type Result struct {
	Index   int              `json:"index"`
	Record  *citation.Record `json:"record,omitempty"`
	Failure *Failure         `json:"failure,omitempty"`
}

// Pipeline wires a tagging backend into the parsing stages.
type Pipeline struct {
	tagger        tagger.Tagger
	workers       int
	tagTimeout    time.Duration
	stopOnFailure bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithTagTimeout sets the per-candidate tagging deadline.
func WithTagTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.tagTimeout = d
		}
	}
}

// WithStopOnFailure makes Parse cancel outstanding work on the first
// failure and return an error wrapping it. The default is to continue:
// one bad candidate never costs the rest of the batch.
func WithStopOnFailure() Option {
	return func(p *Pipeline) {
		p.stopOnFailure = true
	}
}

// New creates a Pipeline around the given tagging backend.
func New(t tagger.Tagger, opts ...Option) *Pipeline {
	p := &Pipeline{
		tagger:     t,
		workers:    DefaultWorkers,
		tagTimeout: DefaultTagTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse segments raw into candidates and runs every candidate through
// the stages. The returned slice has exactly one Result per candidate,
// in input order. Empty input yields an empty slice and no error.
//
// Without stop-on-failure the returned error is nil unless ctx was
// canceled; per-candidate problems are reported in Result.Failure only.
func (p *Pipeline) Parse(ctx context.Context, raw string) ([]Result, error) {
	candidates := segment.Segment(raw)
	results := make([]Result, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Every index is written by exactly one worker, so the slice needs
	// no locking; order falls out of indexing rather than reassembly.
	jobs := make(chan segment.Candidate, p.workers*2)
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			for cand := range jobs {
				res := p.process(ctx, cand)
				results[cand.Index] = res
				if p.stopOnFailure && res.Failure != nil {
					cancel()
				}
			}
		}()
	}

	// All candidates are fed even after cancellation: canceled work
	// fails fast inside process, which keeps the result list parallel
	// to the candidate list.
	for _, cand := range candidates {
		jobs <- cand
	}
	close(jobs)
	wg.Wait()

	if p.stopOnFailure {
		for i := range results {
			if f := results[i].Failure; f != nil {
				return results, fmt.Errorf("parsing candidate %d (lines %d-%d): %w", i, f.StartLine, f.EndLine, f.err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// process runs one candidate through tokenize, extract, tag, assemble,
// and normalize. Stage errors become a Failure; they never escape.
func (p *Pipeline) process(ctx context.Context, cand segment.Candidate) Result {
	res := Result{Index: cand.Index}

	tokens := segment.Tokenize(cand.Raw)
	vectors, err := feature.Extract(tokens)
	if err != nil {
		res.Failure = failureFor(cand, err)
		return res
	}

	tagCtx, cancel := context.WithTimeout(ctx, p.tagTimeout)
	labels, err := tagger.Labels(tagCtx, p.tagger, vectors)
	cancel()
	if err != nil {
		res.Failure = failureFor(cand, err)
		return res
	}

	rec := normalize.Record(cand, span.Assemble(cand.Raw, tokens, labels))
	res.Record = &rec
	return res
}

func failureFor(cand segment.Candidate, err error) *Failure {
	kind := KindTaggingUnavailable
	if errors.Is(err, feature.ErrMalformedCandidate) {
		kind = KindMalformedCandidate
	}
	return &Failure{
		Kind:      kind,
		Raw:       cand.Raw,
		StartLine: cand.StartLine,
		EndLine:   cand.EndLine,
		Detail:    err.Error(),
		err:       err,
	}
}

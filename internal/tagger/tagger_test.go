package tagger

import (
	"context"
	"errors"
	"testing"

	"github.com/citemill/citemill/internal/feature"
	"github.com/citemill/citemill/internal/segment"
)

// Compile-time checks that all backends implement Tagger.
var (
	_ Tagger = (*Rule)(nil)
	_ Tagger = (*Exec)(nil)
	_ Tagger = (*HTTP)(nil)
	_ Tagger = (*stubTagger)(nil)
)

type stubTagger struct {
	labels []Label
	err    error
}

func (s *stubTagger) Name() string { return "stub" }

func (s *stubTagger) Tag(ctx context.Context, vectors []feature.Vector) ([]Label, error) {
	return s.labels, s.err
}

func vectorsFor(t *testing.T, text string) []feature.Vector {
	t.Helper()
	vecs, err := feature.Extract(segment.Tokenize(text))
	if err != nil {
		t.Fatalf("extracting features for %q: %v", text, err)
	}
	return vecs
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input Label
		want  Label
	}{
		{name: "known label", input: "author", want: LabelAuthor},
		{name: "uppercase", input: "TITLE", want: LabelTitle},
		{name: "whitespace", input: " year ", want: LabelYear},
		{name: "alias date", input: "date", want: LabelYear},
		{name: "alias journal", input: "journal", want: LabelVenue},
		{name: "alias container-title", input: "container-title", want: LabelVenue},
		{name: "alias citation-number", input: "citation-number", want: LabelCitNum},
		{name: "unknown becomes other", input: "genre", want: LabelOther},
		{name: "empty becomes other", input: "", want: LabelOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelsLengthMismatch(t *testing.T) {
	vecs := vectorsFor(t, "Smith 2020")
	stub := &stubTagger{labels: []Label{LabelAuthor}} // one label, two tokens

	_, err := Labels(context.Background(), stub, vecs)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Labels() error = %v, want ErrUnavailable", err)
	}
}

func TestLabelsBackendError(t *testing.T) {
	vecs := vectorsFor(t, "Smith 2020")
	stub := &stubTagger{err: errors.New("model crashed")}

	_, err := Labels(context.Background(), stub, vecs)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Labels() error = %v, want ErrUnavailable", err)
	}
	if !IsUnavailable(err) {
		t.Error("IsUnavailable() = false for backend error")
	}
}

func TestLabelsCanonicalizes(t *testing.T) {
	vecs := vectorsFor(t, "Smith 2020")
	stub := &stubTagger{labels: []Label{"AUTHOR", "date"}}

	got, err := Labels(context.Background(), stub, vecs)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	want := []Label{LabelAuthor, LabelYear}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLabelsPreservesUnavailable(t *testing.T) {
	vecs := vectorsFor(t, "Smith")
	stub := &stubTagger{err: ErrUnavailable}

	_, err := Labels(context.Background(), stub, vecs)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Labels() error = %v, want ErrUnavailable", err)
	}
}

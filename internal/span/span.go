// Package span merges contiguous same-label tokens into labeled field
// spans. Spans partition the token sequence exactly: no gaps, no overlaps,
// and adjacent spans never share a label.
package span

import (
	"github.com/citemill/citemill/internal/segment"
	"github.com/citemill/citemill/internal/tagger"
)

// Span is a maximal run of tokens sharing one label.
type Span struct {
	Label tagger.Label `json:"label"`
	Start int          `json:"start"` // first token index, inclusive
	End   int          `json:"end"`   // last token index, exclusive
	Text  string       `json:"text"`  // exact candidate substring the span covers
}

// Assemble scans left to right, starting a new span whenever the label
// changes, and closes the last span at input end. Identical adjacent labels
// always merge. Span text is the raw substring between the first and last
// token's byte offsets, so interior spacing survives intact. Returns nil
// when tokens and labels disagree in length.
func Assemble(raw string, tokens []segment.Token, labels []tagger.Label) []Span {
	if len(tokens) == 0 || len(tokens) != len(labels) {
		return nil
	}

	var spans []Span
	start := 0
	for i := 1; i <= len(tokens); i++ {
		if i < len(tokens) && labels[i] == labels[start] {
			continue
		}
		spans = append(spans, Span{
			Label: labels[start],
			Start: start,
			End:   i,
			Text:  raw[tokens[start].Start:tokens[i-1].End],
		})
		start = i
	}
	return spans
}

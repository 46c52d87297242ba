// Package tagger is the sole boundary to the external sequence-labeling
// capability. A Tagger backend receives one feature vector per token and
// returns one field label per token; the Labels adapter enforces that
// contract and maps every backend failure mode onto ErrUnavailable so the
// pipeline can isolate the failure to a single candidate.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/citemill/citemill/internal/feature"
)

// Label is a per-token field tag.
type Label string

// Known field labels. Backends may emit any of these; unknown labels
// normalize to LabelOther.
const (
	LabelAuthor    Label = "author"
	LabelEditor    Label = "editor"
	LabelTitle     Label = "title"
	LabelYear      Label = "year"
	LabelVenue     Label = "venue"
	LabelVolume    Label = "volume"
	LabelIssue     Label = "issue"
	LabelPages     Label = "pages"
	LabelPublisher Label = "publisher"
	LabelDOI       Label = "doi"
	LabelURL       Label = "url"
	LabelCitNum    Label = "citnum" // leading list markers like "[3]" or "7."
	LabelOther     Label = "other"
)

var knownLabels = map[Label]bool{
	LabelAuthor:    true,
	LabelEditor:    true,
	LabelTitle:     true,
	LabelYear:      true,
	LabelVenue:     true,
	LabelVolume:    true,
	LabelIssue:     true,
	LabelPages:     true,
	LabelPublisher: true,
	LabelDOI:       true,
	LabelURL:       true,
	LabelCitNum:    true,
	LabelOther:     true,
}

// labelAliases maps labels from common citation labeling schemes onto the
// canonical vocabulary.
var labelAliases = map[Label]Label{
	"date":             LabelYear,
	"journal":          LabelVenue,
	"container-title":  LabelVenue,
	"collection-title": LabelVenue,
	"booktitle":        LabelVenue,
	"location":         LabelOther,
	"note":             LabelOther,
	"citation-number":  LabelCitNum,
	"number":           LabelIssue,
	"page":             LabelPages,
}

// Canonical maps an arbitrary backend label onto the known vocabulary.
func Canonical(l Label) Label {
	l = Label(strings.ToLower(strings.TrimSpace(string(l))))
	if mapped, ok := labelAliases[l]; ok {
		return mapped
	}
	if knownLabels[l] {
		return l
	}
	return LabelOther
}

// Tagger labels one candidate's token features. Implementations are
// substitutable model backends: rule-based, external command, or HTTP
// service.
type Tagger interface {
	// Name identifies the backend for reporting and error messages.
	Name() string

	// Tag returns one label per input vector, in order.
	Tag(ctx context.Context, vectors []feature.Vector) ([]Label, error)
}

// Labels invokes the backend and enforces the adapter contract: a backend
// error, a context timeout, or a label sequence whose length differs from
// the token count all become errors wrapping ErrUnavailable. Labels are
// canonicalized before return.
func Labels(ctx context.Context, t Tagger, vectors []feature.Vector) ([]Label, error) {
	labels, err := t.Tag(ctx, vectors)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(labels) != len(vectors) {
		return nil, fmt.Errorf("%w: backend %s returned %d labels for %d tokens",
			ErrUnavailable, t.Name(), len(labels), len(vectors))
	}

	out := make([]Label, len(labels))
	for i, l := range labels {
		out[i] = Canonical(l)
	}
	return out, nil
}

// tagRequest is the wire request shared by the exec and http backends.
type tagRequest struct {
	Model  string           `json:"model,omitempty"`
	Tokens []feature.Vector `json:"tokens"`
}

// tagResponse is the wire reply shared by the exec and http backends.
type tagResponse struct {
	Labels []Label `json:"labels"`
}

package tagger

import (
	"context"

	"github.com/citemill/citemill/internal/feature"
)

// venueCues are lowercase tokens that signal a publication venue.
var venueCues = map[string]bool{
	"journal":      true,
	"proceedings":  true,
	"proc":         true,
	"conference":   true,
	"conf":         true,
	"transactions": true,
	"trans":        true,
	"symposium":    true,
	"workshop":     true,
	"press":        true,
	"review":       true,
	"letters":      true,
	"annals":       true,
	"bulletin":     true,
	"arxiv":        true,
	"biorxiv":      true,
	"medrxiv":      true,
	"thesis":       true,
	"dissertation": true,
	"university":   true,
}

// volumeMarkers, issueMarkers, and pageMarkers are abbreviations that bind
// the number that follows them. The marker token itself is not part of the
// field.
var (
	volumeMarkers = map[string]bool{"vol": true, "volume": true}
	issueMarkers  = map[string]bool{"no": true, "issue": true, "number": true}
	pageMarkers   = map[string]bool{"pp": true, "p": true, "pages": true}
)

// Rule is a deterministic heuristic labeler. It is the default backend when
// no external model is configured and the fixture backend for tests: a
// statistical model beats it on hard references, but it needs no external
// process and always terminates.
type Rule struct{}

// NewRule returns the built-in heuristic backend.
func NewRule() *Rule {
	return &Rule{}
}

// Name identifies the backend.
func (r *Rule) Name() string {
	return "rule"
}

// Tag labels tokens with a fixed cue ladder: leading list markers, URLs,
// DOIs, volume/issue/pages patterns, years, then an author region, a title
// region, and a venue region over what remains. Unmatched tokens are
// labeled other.
func (r *Rule) Tag(ctx context.Context, vectors []feature.Vector) ([]Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(vectors)
	labels := make([]Label, n) // zero value "" means unassigned

	adjacent := func(i, j int) bool {
		return vectors[i].End == vectors[j].Start
	}

	markListNumber(vectors, labels, adjacent)
	markURLs(vectors, labels, adjacent)
	markDOIs(vectors, labels, adjacent)
	markLocators(vectors, labels, adjacent)
	markYears(vectors, labels)
	markRegions(vectors, labels)

	for i := range labels {
		if labels[i] == "" {
			labels[i] = LabelOther
		}
	}
	return labels, nil
}

// markListNumber labels a leading "[12]", "12.", "12)" or bullet marker.
func markListNumber(vectors []feature.Vector, labels []Label, adjacent func(i, j int) bool) {
	n := len(vectors)
	if n == 0 {
		return
	}
	switch {
	case vectors[0].Text == "[" && n >= 3 &&
		vectors[1].Class == feature.ClassNumber && vectors[2].Text == "]":
		labels[0], labels[1], labels[2] = LabelCitNum, LabelCitNum, LabelCitNum
	case vectors[0].Class == feature.ClassNumber && !vectors[0].YearLike && n >= 2 &&
		(vectors[1].Text == "." || vectors[1].Text == ")") && adjacent(0, 1) &&
		!doiStart(vectors, 0, adjacent):
		labels[0], labels[1] = LabelCitNum, LabelCitNum
	case vectors[0].Text == "-" || vectors[0].Text == "*" || vectors[0].Text == "•":
		labels[0] = LabelCitNum
	}
}

// doiStart reports whether the token at i begins a 10.NNNN/suffix run.
func doiStart(vectors []feature.Vector, i int, adjacent func(i, j int) bool) bool {
	return vectors[i].Text == "10" && i+3 < len(vectors) &&
		vectors[i+1].Text == "." && vectors[i+2].Class == feature.ClassNumber &&
		vectors[i+3].Text == "/" &&
		adjacent(i, i+1) && adjacent(i+1, i+2) && adjacent(i+2, i+3)
}

// markURLs labels contiguous runs starting at http/https.
func markURLs(vectors []feature.Vector, labels []Label, adjacent func(i, j int) bool) {
	for i := 0; i < len(vectors); i++ {
		if labels[i] != "" {
			continue
		}
		if vectors[i].Lower != "http" && vectors[i].Lower != "https" {
			continue
		}
		if i+1 >= len(vectors) || vectors[i+1].Text != ":" || !adjacent(i, i+1) {
			continue
		}
		labels[i] = LabelURL
		for j := i + 1; j < len(vectors) && adjacent(j-1, j); j++ {
			labels[j] = LabelURL
			i = j
		}
	}
}

// markDOIs labels contiguous runs shaped like 10.NNNN/suffix, with or
// without a leading doi: prefix.
func markDOIs(vectors []feature.Vector, labels []Label, adjacent func(i, j int) bool) {
	n := len(vectors)
	for i := 0; i < n; i++ {
		if labels[i] != "" {
			continue
		}
		start := i
		j := i
		if vectors[j].Lower == "doi" && j+1 < n && vectors[j+1].Text == ":" {
			j += 2
		}
		if j >= n || !doiStart(vectors, j, adjacent) {
			continue
		}
		for k := start; k <= j+3; k++ {
			labels[k] = LabelDOI
		}
		end := j + 3
		for k := j + 4; k < n && adjacent(k-1, k); k++ {
			labels[k] = LabelDOI
			end = k
		}
		i = end
	}
}

// markLocators labels volume/issue/pages via the 12(3) pattern, explicit
// vol./no./pp. markers, and bare number ranges.
func markLocators(vectors []feature.Vector, labels []Label, adjacent func(i, j int) bool) {
	n := len(vectors)

	// "12(3)" → volume 12, issue 3.
	for i := 0; i+3 < n; i++ {
		if labels[i] != "" || vectors[i].Class != feature.ClassNumber || vectors[i].YearLike {
			continue
		}
		if vectors[i+1].Text == "(" && vectors[i+2].Class == feature.ClassNumber &&
			vectors[i+3].Text == ")" && adjacent(i, i+1) && adjacent(i+1, i+2) && adjacent(i+2, i+3) {
			labels[i] = LabelVolume
			labels[i+1] = LabelOther
			labels[i+2] = LabelIssue
			labels[i+3] = LabelOther
		}
	}

	// Marker-bound numbers: the marker and its period stay out of the field.
	for i := 0; i < n; i++ {
		if labels[i] != "" {
			continue
		}
		var kind Label
		switch {
		case volumeMarkers[vectors[i].Lower]:
			kind = LabelVolume
		case issueMarkers[vectors[i].Lower]:
			kind = LabelIssue
		case pageMarkers[vectors[i].Lower]:
			kind = LabelPages
		default:
			continue
		}
		// Uppercase single "P" is an initial, never a page marker.
		if kind == LabelPages && vectors[i].Length == 1 && vectors[i].Text != vectors[i].Lower {
			continue
		}
		num := -1
		for j := i + 1; j < n && j <= i+2; j++ {
			if vectors[j].Text == "." {
				continue
			}
			if vectors[j].Class == feature.ClassNumber && labels[j] == "" {
				num = j
			}
			break
		}
		if num < 0 {
			continue
		}
		// A year after a marker only binds when it opens a page range.
		if vectors[num].YearLike {
			if !(num+2 < n && vectors[num+1].Text == "-" &&
				vectors[num+2].Class == feature.ClassNumber &&
				adjacent(num, num+1) && adjacent(num+1, num+2)) {
				continue
			}
		}
		labels[i] = LabelOther
		for j := i + 1; j < num; j++ {
			labels[j] = LabelOther
		}
		labels[num] = kind
		if kind == LabelPages && num+2 < n && vectors[num+1].Text == "-" &&
			vectors[num+2].Class == feature.ClassNumber &&
			adjacent(num, num+1) && adjacent(num+1, num+2) {
			labels[num+1] = LabelPages
			labels[num+2] = LabelPages
		}
	}

	// Bare adjacent ranges like "1-10" → pages.
	for i := 0; i+2 < n; i++ {
		if labels[i] != "" || labels[i+1] != "" || labels[i+2] != "" {
			continue
		}
		if vectors[i].Class == feature.ClassNumber && vectors[i+1].Text == "-" &&
			vectors[i+2].Class == feature.ClassNumber &&
			adjacent(i, i+1) && adjacent(i+1, i+2) {
			labels[i] = LabelPages
			labels[i+1] = LabelPages
			labels[i+2] = LabelPages
		}
	}
}

// markYears labels remaining year-like numbers.
func markYears(vectors []feature.Vector, labels []Label) {
	for i := range vectors {
		if labels[i] == "" && vectors[i].YearLike {
			labels[i] = LabelYear
		}
	}
}

// markRegions assigns the author, title, and venue regions over tokens the
// cue passes left unassigned.
func markRegions(vectors []feature.Vector, labels []Label) {
	n := len(vectors)

	firstUnassigned := 0
	for firstUnassigned < n && labels[firstUnassigned] != "" {
		firstUnassigned++
	}
	if firstUnassigned == n {
		return
	}

	q1, q2 := quotedRange(vectors)

	// Author region: from the first unassigned token to the opening quote,
	// the parenthesized year, or the first sentence-ending period.
	authorEnd := -1
	switch {
	case q1 >= 0:
		authorEnd = q1
	default:
		for i, l := range labels {
			if l != LabelYear {
				continue
			}
			authorEnd = i
			if i > 0 && vectors[i-1].Text == "(" {
				authorEnd = i - 1
			}
			break
		}
	}
	if authorEnd < 0 {
		for i := 1; i < n; i++ {
			if labels[i] == "" && vectors[i].Text == "." &&
				vectors[i-1].Class == feature.ClassWord && vectors[i-1].Length > 1 {
				authorEnd = i
				break
			}
		}
	}
	if authorEnd < 0 {
		authorEnd = firstUnassigned
	}

	authorsFound := plausibleAuthorRegion(vectors, labels, firstUnassigned, authorEnd)
	if authorsFound {
		for i := firstUnassigned; i < authorEnd; i++ {
			if labels[i] == "" {
				labels[i] = LabelAuthor
			}
		}
	} else {
		authorEnd = firstUnassigned
	}

	// Title region: quoted when quotes exist, else up to the next sentence
	// boundary, venue cue, or already-labeled token.
	titleStart := authorEnd
	titleEnd := titleStart
	if q1 >= 0 && q2 > q1 {
		titleStart, titleEnd = q1, q2+1
		for i := titleStart; i < titleEnd; i++ {
			if labels[i] == "" {
				labels[i] = LabelTitle
			}
		}
	} else {
		for titleStart < n && (labels[titleStart] != "" || vectors[titleStart].Class == feature.ClassPunct) {
			titleStart++
		}
		titleEnd = titleStart
		for titleEnd < n {
			if labels[titleEnd] != "" || venueCues[vectors[titleEnd].Lower] {
				break
			}
			if vectors[titleEnd].Text == "." && titleEnd > titleStart && vectors[titleEnd-1].Length > 1 {
				break
			}
			titleEnd++
		}
		for i := titleStart; i < titleEnd; i++ {
			if labels[i] == "" {
				labels[i] = LabelTitle
			}
		}
	}

	// Venue region: from after the title to the next strongly labeled
	// token. Without authors the region needs a venue cue, so a bare
	// fragment is not promoted to a venue.
	venueStart := titleEnd
	for venueStart < n && (labels[venueStart] != "" || vectors[venueStart].Class == feature.ClassPunct) {
		venueStart++
	}
	venueEnd := venueStart
	cueSeen := false
	for venueEnd < n && labels[venueEnd] == "" {
		if venueCues[vectors[venueEnd].Lower] {
			cueSeen = true
		}
		venueEnd++
	}
	if authorsFound || cueSeen {
		for i := venueStart; i < venueEnd; i++ {
			labels[i] = LabelVenue
		}
	}
}

// quotedRange returns the indices of the first opening and closing double
// quote tokens, or (-1, -1) when the candidate has no quoted run.
func quotedRange(vectors []feature.Vector) (int, int) {
	q1 := -1
	for i, v := range vectors {
		if !isQuoteToken(v.Text) {
			continue
		}
		if q1 < 0 {
			q1 = i
			continue
		}
		return q1, i
	}
	return -1, -1
}

func isQuoteToken(text string) bool {
	switch text {
	case `"`, "“", "”":
		return true
	}
	return false
}

// plausibleAuthorRegion requires a comma or a dotted initial before
// treating leading tokens as authors, so a bare title is not mislabeled.
// A capitalized single letter only counts when its own period follows
// ("J."), which keeps the article "A" out.
func plausibleAuthorRegion(vectors []feature.Vector, labels []Label, start, end int) bool {
	if end <= start {
		return false
	}
	for i := start; i < end; i++ {
		if labels[i] != "" {
			continue
		}
		if vectors[i].Text == "," {
			return true
		}
		if vectors[i].InitialLike && vectors[i].Next == "." {
			return true
		}
	}
	return false
}

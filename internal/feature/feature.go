// Package feature derives per-token feature vectors consumed by the
// sequence-tagging backends. Features are deterministic pure functions of
// the token sequence — no external state, no randomness — so a run can be
// reproduced exactly.
package feature

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/citemill/citemill/internal/segment"
)

// ErrMalformedCandidate indicates a candidate that produced no tokens.
// Callers record the failure and continue with the rest of the batch.
var ErrMalformedCandidate = errors.New("malformed candidate: no tokens")

// Token lexical classes.
const (
	ClassWord   = "word"
	ClassNumber = "number"
	ClassPunct  = "punct"
	ClassMixed  = "mixed"
)

// Vector is the feature set for one token. Field names double as the wire
// format for the exec and http tagging backends.
type Vector struct {
	Text  string `json:"text"`
	Lower string `json:"lower"`
	Shape string `json:"shape"` // X=upper, x=lower, d=digit, else verbatim
	Class string `json:"class"` // word, number, punct, mixed

	Index    int     `json:"index"`
	Start    int     `json:"start"`    // byte offset in the candidate text
	End      int     `json:"end"`      // byte offset, exclusive
	Relative float64 `json:"relative"` // Index/(n-1), 0 for a single token
	Length   int     `json:"length"`   // rune count

	Capitalized  bool    `json:"capitalized"`
	AllCaps      bool    `json:"all_caps"`
	HasDigit     bool    `json:"has_digit"`
	DigitDensity float64 `json:"digit_density"`
	YearLike     bool    `json:"year_like"`    // 4-digit number in 1500-2099
	InitialLike  bool    `json:"initial_like"` // single uppercase letter

	Prev string `json:"prev"` // previous token text, "" at sequence start
	Next string `json:"next"` // next token text, "" at sequence end
}

// Extract converts a token sequence into one Vector per token.
// Returns ErrMalformedCandidate when the sequence is empty.
func Extract(tokens []segment.Token) ([]Vector, error) {
	if len(tokens) == 0 {
		return nil, ErrMalformedCandidate
	}

	vecs := make([]Vector, len(tokens))
	for i, tok := range tokens {
		v := Vector{
			Text:         tok.Text,
			Lower:        strings.ToLower(tok.Text),
			Shape:        shapeOf(tok.Text),
			Class:        classOf(tok.Text),
			Index:        i,
			Start:        tok.Start,
			End:          tok.End,
			Length:       utf8.RuneCountInString(tok.Text),
			Capitalized:  isCapitalized(tok.Text),
			AllCaps:      isAllCaps(tok.Text),
			DigitDensity: digitDensity(tok.Text),
			YearLike:     IsYearLike(tok.Text),
			InitialLike:  isInitialLike(tok.Text),
		}
		v.HasDigit = v.DigitDensity > 0
		if len(tokens) > 1 {
			v.Relative = float64(i) / float64(len(tokens)-1)
		}
		if i > 0 {
			v.Prev = tokens[i-1].Text
		}
		if i < len(tokens)-1 {
			v.Next = tokens[i+1].Text
		}
		vecs[i] = v
	}
	return vecs, nil
}

// shapeOf maps uppercase letters to X, lowercase to x, digits to d, and
// keeps other runes verbatim: "Smith" -> "Xxxxx", "2020" -> "dddd".
func shapeOf(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			b.WriteRune('X')
		case unicode.IsLower(r):
			b.WriteRune('x')
		case unicode.IsDigit(r):
			b.WriteRune('d')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func classOf(text string) string {
	letters, digits, other := 0, 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		default:
			other++
		}
	}
	switch {
	case letters > 0 && digits == 0 && other == 0:
		return ClassWord
	case digits > 0 && letters == 0 && other == 0:
		return ClassNumber
	case letters == 0 && digits == 0:
		return ClassPunct
	default:
		return ClassMixed
	}
}

func isCapitalized(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(r)
}

func isAllCaps(text string) bool {
	seen := false
	for _, r := range text {
		if !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsUpper(r) {
			return false
		}
		seen = true
	}
	return seen
}

func digitDensity(text string) float64 {
	n, digits := 0, 0
	for _, r := range text {
		n++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(digits) / float64(n)
}

// IsYearLike reports whether text is a plausible publication year.
func IsYearLike(text string) bool {
	if len(text) != 4 {
		return false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return false
	}
	return n >= 1500 && n <= 2099
}

func isInitialLike(text string) bool {
	return utf8.RuneCountInString(text) == 1 && isCapitalized(text)
}

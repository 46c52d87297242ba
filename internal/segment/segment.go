// Package segment splits raw reference-list text into individual citation
// candidates and tokenizes candidate text for feature extraction.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Candidate is one segmented chunk of input believed to represent a single
// citation. Candidates are immutable after creation.
type Candidate struct {
	Index     int    `json:"index"`      // Position in the batch, 0-based
	Raw       string `json:"raw"`        // Candidate text with continuation lines joined
	StartLine int    `json:"start_line"` // 1-based first source line
	EndLine   int    `json:"end_line"`   // 1-based last source line, inclusive
}

// Token is a single whitespace/punctuation-aware token with byte offsets
// into the candidate text. Offsets allow exact substring reconstruction
// when spans are assembled.
type Token struct {
	Text  string
	Start int // byte offset, inclusive
	End   int // byte offset, exclusive
}

// markerPattern matches reference-start markers: [12], 12. or 12), and
// common bullet characters.
var markerPattern = regexp.MustCompile(`^\s*(\[\d+\]|\d+[.)]\s|[-*•]\s)`)

// Segment splits raw text into candidates. Boundaries are blank lines and
// reference-start markers; an indented line continues the current candidate;
// otherwise a line starts a new candidate only when the previous line ended
// with terminal punctuation and the new line begins like a citation. A line
// matching no heuristic is appended to the current candidate. Empty input
// yields no candidates; an unterminated candidate at end of input is still
// emitted.
func Segment(raw string) []Candidate {
	lines := strings.Split(raw, "\n")

	var out []Candidate
	var cur []string
	firstLine := 0
	lastLine := 0
	prevTerminated := false

	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, Candidate{
			Index:     len(out),
			Raw:       strings.Join(cur, " "),
			StartLine: firstLine + 1,
			EndLine:   lastLine + 1,
		})
		cur = nil
	}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		text := strings.TrimSpace(line)
		if text == "" {
			flush()
			continue
		}

		startsNew := false
		switch {
		case len(cur) == 0:
			startsNew = true
		case markerPattern.MatchString(line):
			startsNew = true
		case hasIndent(line):
			// Hanging indent: always a continuation.
		case prevTerminated && startsCitation(text):
			startsNew = true
		}

		if startsNew {
			flush()
			firstLine = i
		}
		cur = append(cur, text)
		lastLine = i
		prevTerminated = strings.HasSuffix(text, ".") || strings.HasSuffix(text, ";")
	}
	flush()

	return out
}

// hasIndent reports whether the line begins with whitespace.
func hasIndent(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// startsCitation reports whether text begins the way reference strings do:
// with an uppercase letter, a digit, or an opening quote.
func startsCitation(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '"', '\'', '“', '‘':
		return true
	}
	return false
}

// Tokenize splits candidate text into tokens. Runs of letters and digits
// form one token (so "2nd" and "arXiv" stay intact); every punctuation
// character is its own token; whitespace separates and is never emitted.
func Tokenize(text string) []Token {
	var toks []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r) || !unicode.IsGraphic(r):
			// Control and other non-graphic runes are token noise, not
			// tokens; a candidate made only of them tokenizes to nothing.
			i += size
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			start := i
			for i < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[i:])
				if !unicode.IsLetter(r2) && !unicode.IsDigit(r2) {
					break
				}
				i += s2
			}
			toks = append(toks, Token{Text: text[start:i], Start: start, End: i})
		default:
			toks = append(toks, Token{Text: text[i : i+size], Start: i, End: i + size})
			i += size
		}
	}
	return toks
}

package pdf

import (
	"regexp"
	"strings"
)

// refHeading matches a heading line that introduces the reference list: the
// heading word alone on its line, optionally preceded by a section number
// ("7", "VII.") and optionally followed by a colon.
var refHeading = regexp.MustCompile(`(?i)^\s*(?:\d{1,2}[.)]?\s+|[ivxl]{1,4}[.)]\s+)?(references|bibliography|works cited|literature cited)\s*:?\s*$`)

// ReferencesSection returns the text after the last reference-list heading,
// or "" when no heading is found. The last occurrence wins: body text and
// tables of contents mention "References" too, but the heading that starts
// the list is the final one.
func ReferencesSection(text string) string {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if refHeading.MatchString(line) {
			start = i
		}
	}
	if start == -1 || start == len(lines)-1 {
		return ""
	}

	return strings.Join(lines[start+1:], "\n")
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/pipeline"
)

// Output formatting constants
const (
	DefaultSearchLimit = 50 // Default limit for search results
	SummaryTitleLen    = 70 // Max title length in summary lines
	ImportTitleMaxLen  = 60 // Max title length in import listings
	MaxSummaryAuthors  = 3  // Authors shown before "et al."
)

// outputJSON marshals data to indented JSON and prints it to stdout
func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to encode JSON: %v\n", err)
	}
}

// outputError prints an error message to stderr and returns the exit code
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError prints an error in the appropriate format and exits
func exitWithError(code int, format string, args ...interface{}) {
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	} else {
		outputJSON(ErrorResponse{Error: fmt.Sprintf(format, args...)})
	}
	os.Exit(code)
}

// ErrorResponse is the standard JSON error shape
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports a simple status, optionally with a path
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse reports a configuration update
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// truncateString shortens s to maxLen, appending "..." when truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatAuthors joins author names for display, collapsing long lists
// to "First, Second, Third et al."
func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	if len(authors) <= MaxSummaryAuthors {
		return strings.Join(authors, "; ")
	}
	return strings.Join(authors[:MaxSummaryAuthors], "; ") + " et al."
}

// printRecordSummary writes a one-record human summary to w.
func printRecordSummary(w io.Writer, rec *citation.Record) {
	title := rec.Title
	if title == "" {
		title = "(untitled)"
	}
	line := formatAuthors(rec.Authors)
	if rec.Year > 0 {
		line += fmt.Sprintf(" (%d)", rec.Year)
	}
	line += ". " + truncateString(title, SummaryTitleLen)
	if rec.Venue != "" {
		line += ". " + rec.Venue
		if rec.Volume != "" {
			line += " " + rec.Volume
			if rec.Issue != "" {
				line += "(" + rec.Issue + ")"
			}
		}
		if rec.Pages != "" {
			line += ", " + rec.Pages
		}
	}
	fmt.Fprintln(w, line)
	if rec.DOI != "" {
		fmt.Fprintf(w, "    doi: %s\n", rec.DOI)
	}
}

// printFailureSummary writes a one-failure human summary to w.
func printFailureSummary(w io.Writer, f *pipeline.Failure) {
	fmt.Fprintf(w, "[%s] %s\n", f.Kind, truncateString(f.Raw, SummaryTitleLen))
	if f.Detail != "" {
		fmt.Fprintf(w, "    %s\n", f.Detail)
	}
}

// formatDuration renders a duration as seconds or minutes+seconds
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// formatBytes renders a byte count with binary-prefix units
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

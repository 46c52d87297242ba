package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestVerifyLocalCatalog verifies a reference that is already in the
// catalog. The catalog is the first rung of the ladder, so the run
// confirms the record without touching any remote API.
func TestVerifyLocalCatalog(t *testing.T) {
	dir := newTestRepo(t)
	csvPath := writeImportCSV(t, dir)
	if output, err := runCitemill(t, dir, "catalog", "import", csvPath); err != nil {
		t.Fatalf("import failed: %v\nOutput: %s", err, output)
	}

	output, err := runCitemillInput(t, dir, canonicalRef, "verify", "--skip-url", "--backend", "rule")
	if err != nil {
		t.Fatalf("verify failed: %v\nOutput: %s", err, output)
	}

	var report struct {
		ID      string `json:"id"`
		Results []struct {
			Index  int    `json:"index"`
			Status string `json:"status"`
			Source string `json:"source"`
			DOI    string `json:"doi"`
		} `json:"results"`
		Verified   int    `json:"verified"`
		Unverified int    `json:"unverified"`
		Skipped    int    `json:"skipped"`
		ReportPath string `json:"report_path"`
	}
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("failed to parse verify output: %v\nOutput: %s", err, output)
	}

	if report.Verified != 1 || report.Unverified != 0 || report.Skipped != 0 {
		t.Fatalf("expected 1/0/0, got verified=%d unverified=%d skipped=%d\nOutput: %s",
			report.Verified, report.Unverified, report.Skipped, output)
	}
	ver := report.Results[0]
	if ver.Status != "verified" {
		t.Errorf("expected status verified, got %q", ver.Status)
	}
	if ver.Source != "catalog" {
		t.Errorf("expected source catalog, got %q", ver.Source)
	}
	if ver.DOI != "10.1000/xyz123" {
		t.Errorf("expected catalog DOI, got %q", ver.DOI)
	}

	// Every run leaves a report in the repository
	if report.ReportPath == "" {
		t.Fatal("expected report_path in output")
	}
	if _, err := os.Stat(report.ReportPath); err != nil {
		t.Errorf("report file missing: %v", err)
	}
	data, err := os.ReadFile(report.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), report.ID) {
		t.Error("saved report does not contain the run ID")
	}
}

func TestVerifySaveCSV(t *testing.T) {
	dir := newTestRepo(t)
	csvPath := writeImportCSV(t, dir)
	if output, err := runCitemill(t, dir, "catalog", "import", csvPath); err != nil {
		t.Fatalf("import failed: %v\nOutput: %s", err, output)
	}

	savePath := filepath.Join(dir, "report.csv")
	output, err := runCitemillInput(t, dir, canonicalRef, "verify", "--skip-url", "--backend", "rule", "--save", savePath)
	if err != nil {
		t.Fatalf("verify failed: %v\nOutput: %s", err, output)
	}

	data, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatalf("report CSV not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[1], "verified") {
		t.Errorf("expected verified row, got: %s", lines[1])
	}
}

// TestVerifyEmptyInput checks that an empty reference list is a valid,
// empty report rather than an error.
func TestVerifyEmptyInput(t *testing.T) {
	dir := newTestRepo(t)

	output, err := runCitemillInput(t, dir, "\n", "verify", "--skip-url", "--backend", "rule")
	if err != nil {
		t.Fatalf("verify failed: %v\nOutput: %s", err, output)
	}

	var report struct {
		Results    []json.RawMessage `json:"results"`
		Verified   int               `json:"verified"`
		Unverified int               `json:"unverified"`
	}
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, output)
	}
	if len(report.Results) != 0 || report.Verified != 0 || report.Unverified != 0 {
		t.Errorf("expected an empty report, got: %s", output)
	}
}

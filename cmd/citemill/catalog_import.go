package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/config"
	"github.com/spf13/cobra"
)

var importDryRun bool

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.csv|file.json|file.jsonl>",
	Short: "Import citation records into the catalog",
	Long: `Import citation records from a CSV, Paperpile JSON, or JSONL file.

CSV columns are matched against common header aliases (title, authors,
year, venue, volume, issue, pages, publisher, doi, url). A .json file
is read as a Paperpile-style reference manager export. A JSONL file
holds one record per line, so another repository's catalog imports
directly. Records already in the catalog are skipped: first by
normalized DOI, then by cleaned title. A malformed row is reported and
skipped, never aborting the import.

Each imported record gets a catalog ID from its first author's family
name and year (smith2020, smith2020-2, ...). The search index is
rebuilt afterwards.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCatalogImport(args[0])
	},
}

func init() {
	catalogImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Report what would be imported without writing")
	catalogCmd.AddCommand(catalogImportCmd)
}

// ImportResponse reports an import run
type ImportResponse struct {
	Status   string       `json:"status"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Total    int          `json:"total"`
	Errors   []string     `json:"errors,omitempty"`
	DryRun   bool         `json:"dry_run,omitempty"`
	Added    []AddedEntry `json:"added,omitempty"`
}

// AddedEntry identifies one newly imported record
type AddedEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func runCatalogImport(path string) {
	repoRoot := mustFindRepository()
	catalogPath := config.CatalogPath(repoRoot)

	entries, err := catalog.ReadAll(catalogPath)
	if err != nil {
		exitWithError(ExitDataError, "reading catalog: %v", err)
	}

	recs, parseErrs := readImportFile(path)

	resp := ImportResponse{DryRun: importDryRun}
	for _, err := range parseErrs {
		resp.Errors = append(resp.Errors, err.Error())
	}

	for _, rec := range recs {
		if _, found := catalog.FindByDOI(entries, rec.DOI); found {
			resp.Skipped++
			continue
		}
		if _, found := catalog.FindByCleanTitle(entries, rec.Title); found {
			resp.Skipped++
			continue
		}

		entry := catalog.Entry{
			ID:      catalog.GenerateUniqueID(entries, catalog.MakeID(rec)),
			AddedAt: time.Now().UTC(),
			Record:  rec,
		}
		if !importDryRun {
			if err := catalog.Append(catalogPath, entry); err != nil {
				exitWithError(ExitError, "appending to catalog: %v", err)
			}
		}
		// Appending to the in-memory list keeps later rows deduplicating
		// against earlier ones in the same file.
		entries = append(entries, entry)
		resp.Imported++
		resp.Added = append(resp.Added, AddedEntry{ID: entry.ID, Title: entry.Title})
	}
	resp.Total = len(entries)

	switch {
	case importDryRun:
		resp.Status = "dry-run"
	case resp.Imported == 0:
		resp.Status = "unchanged"
	default:
		resp.Status = "imported"
	}

	if !importDryRun && resp.Imported > 0 {
		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		if _, err := db.RebuildFromJSONL(catalogPath); err != nil {
			exitWithError(ExitError, "rebuilding index: %v", err)
		}
	}

	if humanOutput {
		printImportHuman(resp)
	} else {
		outputJSON(resp)
	}
}

// readImportFile parses the input by extension: CSV through the header
// mapper, JSON as a Paperpile export, anything else as JSONL.
func readImportFile(path string) ([]citation.Record, []error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			exitWithError(ExitError, "opening import file: %v", err)
		}
		defer f.Close()
		return catalog.ParseCSV(f)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			exitWithError(ExitError, "reading import file: %v", err)
		}
		return catalog.ParsePaperpile(data)
	}

	imported, err := catalog.ReadAll(path)
	if err != nil {
		exitWithError(ExitDataError, "reading import file: %v", err)
	}
	recs := make([]citation.Record, 0, len(imported))
	for _, entry := range imported {
		recs = append(recs, entry.Record)
	}
	return recs, nil
}

func printImportHuman(resp ImportResponse) {
	for _, added := range resp.Added {
		fmt.Printf("  %-20s %s\n", added.ID, truncateString(added.Title, ImportTitleMaxLen))
	}
	for _, msg := range resp.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	verb := "Imported"
	if resp.DryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d records (%d skipped, %d errors), catalog now %d\n",
		verb, resp.Imported, resp.Skipped, len(resp.Errors), resp.Total)
}

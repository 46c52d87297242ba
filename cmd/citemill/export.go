package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/config"
	"github.com/citemill/citemill/internal/export"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	exportPDF     string
	exportBackend string
	exportFormat  string
	exportOut     string
	exportAppend  bool
	exportWorkers int
	exportTimeout int
)

var exportCmd = &cobra.Command{
	Use:   "export [file|-]",
	Short: "Parse references and export the records",
	Long: `Parse references and export the successfully parsed records.

Formats:

  bibtex   BibTeX entries with cite keys (Smith2020-st)
  csv      the column layout catalog import reads back
  jsonl    one record per line

Output goes to stdout, or to --out. With --append, new BibTeX entries
are added to the repository's library file instead; entries whose cite
key or DOI is already in the file are skipped, so repeated exports
stay idempotent.

Note: BibTeX is always text output, never JSON.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runExport(args)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPDF, "pdf", "", "Export the reference section of a PDF file")
	exportCmd.Flags().StringVar(&exportBackend, "backend", "", "Tagging backend: rule, http, or exec (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "bibtex", "Output format: bibtex, csv, or jsonl")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write output to this path instead of stdout")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append new BibTeX entries to the repository library")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 0, "Concurrent tagging workers (default from config)")
	exportCmd.Flags().IntVar(&exportTimeout, "timeout", 0, "Per-reference tagging timeout in seconds (default from config)")
	rootCmd.AddCommand(exportCmd)
}

// AppendResponse reports a library append
type AppendResponse struct {
	Status  string `json:"status"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Path    string `json:"path"`
}

func runExport(args []string) {
	raw, err := readInput(args, exportPDF)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	t, err := buildTagger(exportBackend)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	results, err := pipeline.New(t,
		pipeline.WithWorkers(resolveWorkers(exportWorkers)),
		pipeline.WithTagTimeout(resolveTagTimeout(exportTimeout)),
	).Parse(context.Background(), raw)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	var recs []citation.Record
	for _, res := range results {
		if res.Record != nil {
			recs = append(recs, *res.Record)
		}
	}

	if exportAppend {
		appendToLibrary(recs)
		return
	}

	out, closeOut := exportWriter()
	defer closeOut()

	switch exportFormat {
	case "bibtex":
		// BibTeX is always text output, never JSON.
		if _, err := io.WriteString(out, export.ToBibTeXList(recs)); err != nil {
			exitWithError(ExitError, "writing bibtex: %v", err)
		}
	case "csv":
		if err := export.WriteRecordsCSV(out, recs); err != nil {
			exitWithError(ExitError, "writing csv: %v", err)
		}
	case "jsonl":
		if err := export.WriteRecordsJSONL(out, recs); err != nil {
			exitWithError(ExitError, "writing jsonl: %v", err)
		}
	default:
		exitWithError(ExitConfigError, "unknown format: %s (valid: bibtex, csv, jsonl)", exportFormat)
	}
}

// exportWriter returns the output destination and a close function.
func exportWriter() (io.Writer, func()) {
	if exportOut == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(exportOut)
	if err != nil {
		exitWithError(ExitError, "creating output file: %v", err)
	}
	return f, func() { f.Close() }
}

// appendToLibrary adds records to the repository's .bib library,
// skipping entries the file already has by cite key or DOI.
func appendToLibrary(recs []citation.Record) {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	libPath := config.LibraryPath(repoRoot, cfg)

	idx, err := export.LoadKeyIndex(libPath)
	if err != nil {
		exitWithError(ExitError, "reading library: %v", err)
	}

	resp := AppendResponse{Path: libPath}
	var content string
	for _, rec := range recs {
		key := export.CiteKey(rec)
		if idx.Has(key, rec.DOI) {
			resp.Skipped++
			continue
		}
		idx.Add(key, rec.DOI)
		content += export.ToBibTeX(rec) + "\n"
		resp.Added++
	}

	if resp.Added > 0 {
		if err := export.AppendBib(libPath, content); err != nil {
			exitWithError(ExitError, "appending to library: %v", err)
		}
		resp.Status = "appended"
	} else {
		resp.Status = "unchanged"
	}

	if humanOutput {
		fmt.Printf("Added %d entries to %s (%d already present)\n", resp.Added, resp.Path, resp.Skipped)
	} else {
		outputJSON(resp)
	}
}

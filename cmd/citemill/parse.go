package main

import (
	"context"
	"fmt"
	"os"

	"github.com/citemill/citemill/internal/pdf"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	parsePDF           string
	parseBackend       string
	parseWorkers       int
	parseTimeout       int
	parseFailuresOnly  bool
	parseStopOnFailure bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse reference strings into structured records",
	Long: `Parse free-form reference strings into structured citation records.

Input is a reference list: one reference per line, or multi-line
references separated by blank lines (continuation lines are joined).
Reads from a file argument, from stdin when the argument is "-" or
absent, or from a PDF's reference section with --pdf.

Each reference is segmented, tokenized, tagged by the configured
backend, and normalized independently. One malformed reference never
costs the rest of the batch; failures are reported inline. Results
come back in input order.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runParse(args)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parsePDF, "pdf", "", "Parse the reference section of a PDF file")
	parseCmd.Flags().StringVar(&parseBackend, "backend", "", "Tagging backend: rule, http, or exec (default from config)")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "Concurrent tagging workers (default from config)")
	parseCmd.Flags().IntVar(&parseTimeout, "timeout", 0, "Per-reference tagging timeout in seconds (default from config)")
	parseCmd.Flags().BoolVar(&parseFailuresOnly, "failures-only", false, "Output only references that failed to parse")
	parseCmd.Flags().BoolVar(&parseStopOnFailure, "stop-on-failure", false, "Abort the batch on the first failed reference")
	rootCmd.AddCommand(parseCmd)
}

// ParseResponse is the JSON shape of a parse run
type ParseResponse struct {
	Count     int               `json:"count"`
	Parsed    int               `json:"parsed"`
	Failed    int               `json:"failed"`
	SourceDOI string            `json:"source_doi,omitempty"`
	Results   []pipeline.Result `json:"results"`
}

func runParse(args []string) {
	raw, err := readInput(args, parsePDF)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	t, err := buildTagger(parseBackend)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(resolveWorkers(parseWorkers)),
		pipeline.WithTagTimeout(resolveTagTimeout(parseTimeout)),
	}
	if parseStopOnFailure {
		opts = append(opts, pipeline.WithStopOnFailure())
	}

	results, err := pipeline.New(t, opts...).Parse(context.Background(), raw)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	resp := ParseResponse{Count: len(results)}
	for _, res := range results {
		if res.Record != nil {
			resp.Parsed++
		} else {
			resp.Failed++
		}
	}

	// A batch where every reference failed with tagging_unavailable means
	// the backend is down, not that the input is bad.
	backendDown := resp.Count > 0 && resp.Parsed == 0
	for _, res := range results {
		if res.Failure != nil && res.Failure.Kind != pipeline.KindTaggingUnavailable {
			backendDown = false
		}
	}

	// The source document's own DOI helps downstream tools attribute the
	// reference list. Extraction failure is not a parse failure.
	if parsePDF != "" {
		if doi, err := pdf.ExtractDOI(parsePDF); err == nil {
			resp.SourceDOI = doi
		}
	}

	if parseFailuresOnly {
		kept := make([]pipeline.Result, 0, resp.Failed)
		for _, res := range results {
			if res.Failure != nil {
				kept = append(kept, res)
			}
		}
		results = kept
	}
	resp.Results = results

	if humanOutput {
		printParseHuman(resp)
	} else {
		outputJSON(resp)
	}

	if backendDown {
		os.Exit(ExitTaggerUnavailable)
	}
}

func printParseHuman(resp ParseResponse) {
	if resp.SourceDOI != "" {
		fmt.Printf("Source DOI: %s\n\n", resp.SourceDOI)
	}
	for _, res := range resp.Results {
		fmt.Printf("%3d. ", res.Index+1)
		if res.Record != nil {
			printRecordSummary(os.Stdout, res.Record)
		} else {
			printFailureSummary(os.Stdout, res.Failure)
		}
	}
	fmt.Printf("\n%d references: %d parsed, %d failed\n", resp.Count, resp.Parsed, resp.Failed)
}

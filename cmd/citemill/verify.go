package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/config"
	"github.com/citemill/citemill/internal/export"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/citemill/citemill/internal/verify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verifyPDF     string
	verifyBackend string
	verifySave    string
	verifySkipURL bool
	verifyWorkers int
	verifyTimeout int
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file|-]",
	Short: "Parse references and verify them against bibliographic sources",
	Long: `Parse references and verify each record against a ladder of sources:
the local catalog, Crossref (by DOI, then by search), Semantic
Scholar, OpenAlex, and finally a probe of the cited URL itself.

The first source that confirms a record wins; a flaky API downgrades
a record to unverified rather than failing the run. References the
parser rejected are reported as skipped.

Inside a repository, every report is saved to .citemill/reports/ and
the local catalog becomes the first rung of the ladder. Set mailto
and s2_api_key in the global config for polite API access.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runVerify(args)
	},
}

func init() {
	// Load .env file if present (for CITEMILL_S2_API_KEY)
	_ = godotenv.Load()

	verifyCmd.Flags().StringVar(&verifyPDF, "pdf", "", "Verify the reference section of a PDF file")
	verifyCmd.Flags().StringVar(&verifyBackend, "backend", "", "Tagging backend: rule, http, or exec (default from config)")
	verifyCmd.Flags().StringVar(&verifySave, "save", "", "Write the report as CSV to this path")
	verifyCmd.Flags().BoolVar(&verifySkipURL, "skip-url", false, "Skip the URL probe rung of the ladder")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "Concurrent workers (default from config)")
	verifyCmd.Flags().IntVar(&verifyTimeout, "timeout", 0, "Per-reference tagging timeout in seconds (default from config)")
	rootCmd.AddCommand(verifyCmd)
}

// VerifyResponse is a verification report plus where it was saved
type VerifyResponse struct {
	*verify.Report
	ReportPath string `json:"report_path,omitempty"`
}

func runVerify(args []string) {
	raw, err := readInput(args, verifyPDF)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	t, err := buildTagger(verifyBackend)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	start := time.Now()
	ctx := context.Background()

	results, err := pipeline.New(t,
		pipeline.WithWorkers(resolveWorkers(verifyWorkers)),
		pipeline.WithTagTimeout(resolveTagTimeout(verifyTimeout)),
	).Parse(ctx, raw)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	sources, cleanup := buildLadder(verifySkipURL)
	defer cleanup()

	report := verify.New(sources, verify.WithWorkers(resolveWorkers(verifyWorkers))).Run(ctx, results)
	elapsed := time.Since(start)

	resp := VerifyResponse{Report: report}

	// Keep a copy of every run inside the repository. Failing to save
	// never fails the verification.
	if repoRoot := findRepository(); repoRoot != "" {
		if path, err := saveReportJSON(repoRoot, report); err == nil {
			resp.ReportPath = path
		}
	}

	if verifySave != "" {
		if err := writeReportCSV(verifySave, report, results); err != nil {
			exitWithError(ExitError, "writing report: %v", err)
		}
	}

	if humanOutput {
		printVerifyHuman(resp, elapsed)
	} else {
		outputJSON(resp)
	}
}

// buildLadder assembles the verification sources. The returned cleanup
// closes the catalog index when one was opened.
func buildLadder(skipURL bool) ([]verify.Source, func()) {
	cleanup := func() {}

	var local *verify.Local
	if repoRoot := findRepository(); repoRoot != "" {
		entries, err := catalog.ReadAll(config.CatalogPath(repoRoot))
		if err == nil && len(entries) > 0 {
			var opts []verify.LocalOption
			if db, err := catalog.OpenDB(config.DBPath(repoRoot)); err == nil {
				// An index that lags the catalog would hide entries, so
				// only use one that has rows. Rebuild restores it.
				if n, err := db.Count(); err == nil && n > 0 {
					opts = append(opts, verify.WithIndex(db))
					cleanup = func() { db.Close() }
				} else {
					db.Close()
				}
			}
			local = verify.NewLocal(entries, opts...)
		}
	}

	var crossrefOpts []verify.CrossrefOption
	var openAlexOpts []verify.OpenAlexOption
	if mailto := config.GetMailto(); mailto != "" {
		crossrefOpts = append(crossrefOpts, verify.WithCrossrefMailto(mailto))
		openAlexOpts = append(openAlexOpts, verify.WithOpenAlexMailto(mailto))
	}

	var s2Opts []verify.S2Option
	if key := config.GetS2APIKey(); key != "" {
		s2Opts = append(s2Opts, verify.WithS2APIKey(key))
	}

	var probe *verify.URLProbe
	if !skipURL {
		probe = verify.NewURLProbe()
	}

	ladder := verify.DefaultLadder(
		local,
		verify.NewCrossref(crossrefOpts...),
		verify.NewS2(s2Opts...),
		verify.NewOpenAlex(openAlexOpts...),
		probe,
	)
	return ladder, cleanup
}

func saveReportJSON(repoRoot string, report *verify.Report) (string, error) {
	dir := config.ReportsPath(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.ID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return path, export.WriteReportJSON(f, report)
}

func writeReportCSV(path string, report *verify.Report, results []pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteReportCSV(f, report, results)
}

func printVerifyHuman(resp VerifyResponse, elapsed time.Duration) {
	for _, ver := range resp.Results {
		title := ver.Title
		if title == "" && ver.Detail != "" {
			title = "(" + truncateString(ver.Detail, SummaryTitleLen) + ")"
		}
		fmt.Printf("%3d. %-10s %-12s %s\n",
			ver.Index+1, ver.Status, ver.Source, truncateString(title, SummaryTitleLen))
	}

	fmt.Printf("\n%d records: %d verified, %d unverified, %d skipped (%s)\n",
		len(resp.Results), resp.Verified, resp.Unverified, resp.Skipped, formatDuration(elapsed))
	if resp.ReportPath != "" {
		fmt.Printf("Report saved to %s\n", resp.ReportPath)
	}
}

// Package main provides the citemill CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/config"
	"github.com/citemill/citemill/internal/pdf"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citemill",
	Short: "Reference string parser and verifier",
	Long: `citemill parses free-form reference strings into structured citation
records and verifies them against bibliographic sources.

A reference list goes through segmentation, per-token feature
extraction, a pluggable sequence-labeling backend, span assembly, and
normalization. Parsed records can then be checked against a local
catalog, Crossref, Semantic Scholar, OpenAlex, and the cited URL
itself.

The catalog is git-versionable JSONL with an ephemeral SQLite index for
queries. All commands output JSON by default for agent integration.
Use --human for human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a
// repository. Checks the CITEMILL_ROOT environment variable first, then
// the current working directory.
func getStartingDirectory() (string, int) {
	if root := os.Getenv("CITEMILL_ROOT"); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'citemill init' to create one.", err)
	}
	return repoRoot
}

// findRepository is the non-fatal variant: commands that also work
// outside a repository get "" instead of an exit.
func findRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		return ""
	}
	repoRoot, err := config.FindRepository(start)
	if err != nil {
		return ""
	}
	return repoRoot
}

// mustOpenDatabase opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *catalog.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	db, err := catalog.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadConfig loads repository configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// repoConfig loads the repository config when inside a repository,
// nil otherwise. Load errors also yield nil: resolution falls back to
// global values rather than failing commands that may not need a repo.
func repoConfig() *config.Config {
	repoRoot := findRepository()
	if repoRoot == "" {
		return nil
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil
	}
	return cfg
}

// resolveWorkers picks the worker count: flag, then repo config, then
// global config, then the pipeline default.
func resolveWorkers(flag int) int {
	if flag > 0 {
		return flag
	}
	if cfg := repoConfig(); cfg != nil && cfg.Workers > 0 {
		return cfg.Workers
	}
	if n := config.GetWorkers(); n > 0 {
		return n
	}
	return pipeline.DefaultWorkers
}

// resolveTagTimeout picks the per-candidate tagging timeout the same way.
func resolveTagTimeout(flagSeconds int) time.Duration {
	if flagSeconds > 0 {
		return time.Duration(flagSeconds) * time.Second
	}
	if cfg := repoConfig(); cfg != nil && cfg.TagTimeoutSeconds > 0 {
		return time.Duration(cfg.TagTimeoutSeconds) * time.Second
	}
	if s := config.GetTagTimeout(); s > 0 {
		return time.Duration(s) * time.Second
	}
	return pipeline.DefaultTagTimeout
}

// readInput returns the raw reference text for a command: the --pdf
// file's reference section when set, the named file, or stdin for "-"
// or no argument.
func readInput(args []string, pdfPath string) (string, error) {
	if pdfPath != "" {
		text, err := pdf.ExtractText(pdfPath, 0)
		if err != nil {
			return "", fmt.Errorf("extracting pdf text: %w", err)
		}
		if section := pdf.ReferencesSection(text); section != "" {
			return section, nil
		}
		// No heading found: hand the whole text to the segmenter.
		return text, nil
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

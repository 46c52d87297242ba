package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/citemill/citemill/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a citemill repository",
	Long: `Initialize a citemill repository in the current directory.

Creates the following structure:

  .citemill/
  ├── config.json     repository configuration
  ├── catalog.jsonl   citation catalog, one record per line
  ├── cache/          ephemeral SQLite index (safe to delete)
  └── reports/        saved verification reports

The catalog and config are meant to be committed to version control.
The cache is rebuilt on demand with 'citemill catalog rebuild'.

Running init in an existing repository is a no-op.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runInit()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit() {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	citemillDir := config.CitemillPath(cwd)

	if config.IsRepository(cwd) {
		if humanOutput {
			fmt.Printf("Repository already initialized at %s\n", citemillDir)
		} else {
			outputJSON(StatusResponse{Status: "exists", Path: citemillDir})
		}
		return
	}

	for _, dir := range []string{
		citemillDir,
		config.CachePath(cwd),
		config.ReportsPath(cwd),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	catalogPath := config.CatalogPath(cwd)
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		if err := os.WriteFile(catalogPath, nil, 0644); err != nil {
			exitWithError(ExitError, "creating catalog: %v", err)
		}
	}

	// Keep the ephemeral parts out of version control.
	gitignore := filepath.Join(citemillDir, ".gitignore")
	if err := os.WriteFile(gitignore, []byte("cache/\nreports/\n"), 0644); err != nil {
		exitWithError(ExitError, "writing .gitignore: %v", err)
	}

	cfg := &config.Config{}
	if err := cfg.Save(cwd); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized citemill repository at %s\n", citemillDir)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: citemillDir})
	}
}

package main

import (
	"fmt"

	"github.com/citemill/citemill/internal/config"
	"github.com/spf13/cobra"
)

var catalogRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from the catalog",
	Long: `Rebuild the SQLite search index from the catalog JSONL.

The index is derived state: run this after pulling catalog changes,
after deleting .citemill/cache/, or whenever search results look
stale.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runCatalogRebuild()
	},
}

func init() {
	catalogCmd.AddCommand(catalogRebuildCmd)
}

// RebuildResponse reports an index rebuild
type RebuildResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

func runCatalogRebuild() {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.CatalogPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "rebuilding index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt index with %d entries\n", count)
	} else {
		outputJSON(RebuildResponse{Status: "rebuilt", Entries: count})
	}
}

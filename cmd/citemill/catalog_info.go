package main

import (
	"fmt"
	"os"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/config"
	"github.com/spf13/cobra"
)

var catalogInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runCatalogInfo()
	},
}

func init() {
	catalogCmd.AddCommand(catalogInfoCmd)
}

// CatalogInfoResponse reports catalog statistics
type CatalogInfoResponse struct {
	Root         string `json:"root"`
	CatalogPath  string `json:"catalog_path"`
	Entries      int    `json:"entries"`
	WithDOI      int    `json:"with_doi"`
	CatalogBytes int64  `json:"catalog_bytes"`
	IndexEntries int    `json:"index_entries"`
	IndexBytes   int64  `json:"index_bytes"`
}

func runCatalogInfo() {
	repoRoot := mustFindRepository()
	catalogPath := config.CatalogPath(repoRoot)

	entries, err := catalog.ReadAll(catalogPath)
	if err != nil {
		exitWithError(ExitDataError, "reading catalog: %v", err)
	}

	resp := CatalogInfoResponse{
		Root:        repoRoot,
		CatalogPath: catalogPath,
		Entries:     len(entries),
	}
	for _, entry := range entries {
		if entry.DOI != "" {
			resp.WithDOI++
		}
	}
	if info, err := os.Stat(catalogPath); err == nil {
		resp.CatalogBytes = info.Size()
	}

	// Only inspect an index that already exists; opening would create one.
	dbPath := config.DBPath(repoRoot)
	if info, err := os.Stat(dbPath); err == nil {
		resp.IndexBytes = info.Size()
		if db, err := catalog.OpenDB(dbPath); err == nil {
			if n, err := db.Count(); err == nil {
				resp.IndexEntries = n
			}
			db.Close()
		}
	}

	if humanOutput {
		fmt.Printf("Repository:  %s\n", resp.Root)
		fmt.Printf("Catalog:     %d entries (%d with DOI), %s\n",
			resp.Entries, resp.WithDOI, formatBytes(resp.CatalogBytes))
		if resp.IndexEntries > 0 || resp.IndexBytes > 0 {
			fmt.Printf("Index:       %d entries, %s\n", resp.IndexEntries, formatBytes(resp.IndexBytes))
		} else {
			fmt.Println("Index:       not built (run 'citemill catalog rebuild')")
		}
	} else {
		outputJSON(resp)
	}
}

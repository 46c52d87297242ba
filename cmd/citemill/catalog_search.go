package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/citemill/citemill/internal/catalog"
	"github.com/citemill/citemill/internal/config"
	"github.com/spf13/cobra"
)

var searchLimit int

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Long: `Search the catalog's full-text index over titles, authors, venues,
and DOIs. Multi-word queries match records containing every word.

A missing index is built from the catalog on first use.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCatalogSearch(strings.Join(args, " "))
	},
}

func init() {
	catalogSearchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum number of results")
	catalogCmd.AddCommand(catalogSearchCmd)
}

// SearchResponse reports catalog search results
type SearchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []catalog.Entry `json:"results"`
}

func runCatalogSearch(query string) {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	// A fresh clone has a catalog but no cache; build the index on
	// first use rather than demanding an explicit rebuild.
	if n, err := db.Count(); err == nil && n == 0 {
		if _, err := db.RebuildFromJSONL(config.CatalogPath(repoRoot)); err != nil {
			exitWithError(ExitError, "building index: %v", err)
		}
	}

	results, err := db.Search(query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching catalog: %v", err)
	}
	if results == nil {
		results = []catalog.Entry{}
	}

	resp := SearchResponse{Query: query, Count: len(results), Results: results}

	if humanOutput {
		for _, entry := range resp.Results {
			fmt.Printf("%-20s ", entry.ID)
			printRecordSummary(os.Stdout, &entry.Record)
		}
		fmt.Printf("\n%d results for %q\n", resp.Count, resp.Query)
	} else {
		outputJSON(resp)
	}
}

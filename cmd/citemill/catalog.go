package main

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the citation catalog",
	Long: `Manage the repository's citation catalog.

The catalog is a JSONL file under .citemill/: one citation record per
line, readable in any editor and friendly to version control. Queries
go through a derived SQLite full-text index under .citemill/cache/,
which can be rebuilt from the JSONL at any time.`,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

// citov finds overlapping citations across literature database exports.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "citov",
	Short: "Find overlapping citations across literature databases",
	Long: `citov deduplicates bibliographic citation records exported from
several literature databases (Medline, Embase, Scopus, or any source
with a schema), identifying records that describe the same publication
within and across sources and grouping them for review.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

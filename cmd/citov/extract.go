package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stephansanders/citation-overlap/internal/extract"
	"github.com/stephansanders/citation-overlap/internal/overlap"
	"github.com/stephansanders/citation-overlap/internal/tabular"
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] <source-file-or-dir>",
	Short: "Extract one source export into a cleaned table",
	Long: `Extract a single source export and write its cleaned table:
canonical ids and keys plus within-source duplicate candidates.

The schema is detected from the file name, or forced with --schema.

Examples:
  citov extract medline_result.csv
  citov extract --schema mysource.yml --output clean.tsv export.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("schema", "", "schema YAML file (default: detect from file name)")
	extractCmd.Flags().StringP("output", "o", "", "output path (default: <input>_clean.<ext>)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	schemaPath, _ := cmd.Flags().GetString("schema")
	output, _ := cmd.Flags().GetString("output")

	var schema *extract.Schema
	var err error
	if schemaPath != "" {
		schema, err = extract.Load(schemaPath)
	} else {
		schema, err = extract.ForFile(args[0])
	}
	if err != nil {
		return err
	}

	table, err := tabular.ReadMerged(args[0])
	if err != nil {
		return err
	}
	records, err := extract.New(schema).Extract(table)
	if err != nil {
		return err
	}

	cfg, err := overlap.ConfigFromEnv()
	if err != nil {
		return err
	}
	det, err := overlap.New(cfg)
	if err != nil {
		return err
	}
	if err := det.Ingest(schema.Source, records); err != nil {
		return err
	}
	clean, err := det.CleanTable(schema.Source, table.Columns)
	if err != nil {
		return err
	}

	if output == "" {
		ext := filepath.Ext(args[0])
		if ext == "" {
			ext = ".csv"
		}
		output = fmt.Sprintf("%s_clean%s", strings.TrimSuffix(args[0], filepath.Ext(args[0])), ext)
	}
	if err := tabular.Write(clean, output); err != nil {
		return err
	}
	color.Green("Saved cleaned %s table (%d records) to %s", schema.Source, len(records), output)
	return nil
}

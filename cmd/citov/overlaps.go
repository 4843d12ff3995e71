package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stephansanders/citation-overlap/internal/extract"
	"github.com/stephansanders/citation-overlap/internal/overlap"
	"github.com/stephansanders/citation-overlap/internal/storage"
	"github.com/stephansanders/citation-overlap/internal/storage/sqlite"
	"github.com/stephansanders/citation-overlap/internal/tabular"
	"github.com/stephansanders/citation-overlap/internal/types"
)

var overlapsCmd = &cobra.Command{
	Use:   "overlaps [flags] <source-file-or-dir>...",
	Short: "Find overlapping citations across source exports",
	Long: `Extract each source export, find records describing the same
publication within and across sources, and write the combined overlaps
table.

Sources are processed in argument order, which is significant: it drives
group numbering and the MainRecord flag. Each argument may be a CSV/TSV
file or a directory of files to concatenate. The schema is detected from
the file name (medline_result.csv uses the built-in medline schema);
pass --schema to add custom schema files to the pool.

Examples:
  citov overlaps medline_result.csv embase_noTitle.csv scopus_all.csv
  citov overlaps --clean --output combo.tsv medline.csv embase.csv
  citov overlaps --schema mysource.yml mysource_export.csv medline.csv
  citov overlaps --db overlaps.db medline.csv embase.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOverlaps,
}

func init() {
	overlapsCmd.Flags().StringSlice("schema", nil, "custom schema YAML files added to the built-in pool")
	overlapsCmd.Flags().StringP("output", "o", "overlaps.csv", "overlaps table output path (.csv or .tsv)")
	overlapsCmd.Flags().Bool("clean", false, "also export each source's cleaned table next to the output")
	overlapsCmd.Flags().String("db", "", "also save the run to a SQLite database file")
	overlapsCmd.Flags().Float64("threshold", 0, "override the subgroup score threshold (0 uses config)")
	rootCmd.AddCommand(overlapsCmd)
}

// timeRounding keeps the summary duration readable.
const timeRounding = time.Millisecond

// loadedSource is one extracted source, kept in argument order.
type loadedSource struct {
	schema  *extract.Schema
	table   *types.Table
	records []*types.Record
}

// resolveSchema picks the schema for a path: a custom schema whose
// source name prefixes the file name wins over the built-ins.
func resolveSchema(path string, custom []*extract.Schema) (*extract.Schema, error) {
	base := strings.ToLower(filepath.Base(path))
	for _, s := range custom {
		if strings.HasPrefix(base, strings.ToLower(s.Source)) {
			return s, nil
		}
	}
	return extract.ForFile(path)
}

func runOverlaps(cmd *cobra.Command, args []string) error {
	schemaPaths, _ := cmd.Flags().GetStringSlice("schema")
	output, _ := cmd.Flags().GetString("output")
	exportClean, _ := cmd.Flags().GetBool("clean")
	dbPath, _ := cmd.Flags().GetString("db")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	cfg, err := overlap.ConfigFromEnv()
	if err != nil {
		return err
	}
	if threshold > 0 {
		cfg.SubgroupThreshold = threshold
	}

	custom := make([]*extract.Schema, 0, len(schemaPaths))
	for _, p := range schemaPaths {
		s, err := extract.Load(p)
		if err != nil {
			return err
		}
		custom = append(custom, s)
	}

	// Read and extract the sources in parallel; ingestion order still
	// follows the argument order.
	sources := make([]*loadedSource, len(args))
	var g errgroup.Group
	for i, arg := range args {
		g.Go(func() error {
			schema, err := resolveSchema(arg, custom)
			if err != nil {
				return err
			}
			table, err := tabular.ReadMerged(arg)
			if err != nil {
				return err
			}
			records, err := extract.New(schema).Extract(table)
			if err != nil {
				return err
			}
			sources[i] = &loadedSource{schema: schema, table: table, records: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	det, err := overlap.New(cfg)
	if err != nil {
		return err
	}
	for i, src := range sources {
		if err := det.Ingest(src.schema.Source, src.records); err != nil {
			return fmt.Errorf("ingesting %s: %w", args[i], err)
		}
		color.Cyan("Processed %d %s records from %s", len(src.records), src.schema.Source, args[i])
	}

	if exportClean {
		for _, src := range sources {
			clean, err := det.CleanTable(src.schema.Source, src.table.Columns)
			if err != nil {
				return err
			}
			path := cleanPath(output, src.schema.Source)
			if err := tabular.Write(clean, path); err != nil {
				return err
			}
			color.Green("Saved cleaned %s table to %s", src.schema.Source, path)
		}
	}

	result, err := det.Resolve()
	if err != nil {
		return err
	}
	if err := tabular.Write(result.Table, output); err != nil {
		return err
	}
	color.Green("Saved overlaps table to %s", output)

	if dbPath != "" {
		var store storage.Store
		store, err = sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveResult(context.Background(), result); err != nil {
			return err
		}
		color.Green("Saved run %s to %s", result.Stats.RunID, dbPath)
	}

	rows := make([][]string, 0, len(sources)+4)
	for _, src := range sources {
		rows = append(rows, []string{src.schema.Source, strconv.Itoa(len(src.records))})
	}
	rows = append(rows,
		[]string{"Groups", strconv.Itoa(result.Stats.Groups)},
		[]string{"Subgroups", strconv.Itoa(result.Stats.Subgroups)},
		[]string{"Ungrouped", strconv.Itoa(result.Stats.Ungrouped)},
		[]string{"Duration", result.Stats.Duration.Round(timeRounding).String()},
	)
	fmt.Println(renderSummary([]string{"Source / Stat", "Count"}, rows))
	return nil
}

// cleanPath derives a per-source clean-table path from the overlaps
// output path, e.g. overlaps.csv -> overlaps_medline_clean.csv.
func cleanPath(output, source string) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	return fmt.Sprintf("%s_%s_clean%s", base, strings.ToLower(source), ext)
}

// Package tabular reads and writes the CSV/TSV tables the tool consumes
// and produces. The delimiter is keyed on the file extension, with a
// fallback to the opposite delimiter when parsing fails, since exported
// search results are often misnamed.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// Delimiter returns the cell delimiter for a path: tab for .tsv,
// comma otherwise.
func Delimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

func readFrom(in io.Reader, sep rune) (*types.Table, error) {
	r := csv.NewReader(in)
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	table := types.NewTable(rows[0])
	for _, row := range rows[1:] {
		// Pad short rows so every row is rectangular.
		for len(row) < len(table.Columns) {
			row = append(row, "")
		}
		if len(row) > len(table.Columns) {
			row = row[:len(table.Columns)]
		}
		if err := table.Append(row); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func opposite(sep rune) rune {
	if sep == ',' {
		return '\t'
	}
	return ','
}

func readWith(path string, sep rune) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readFrom(f, sep)
}

// retryNeeded reports whether a successful parse still looks wrong:
// a lone header column that contains the opposite delimiter means the
// file is delimited by the other character.
func retryNeeded(table *types.Table, sep rune) bool {
	return len(table.Columns) == 1 && strings.ContainsRune(table.Columns[0], opposite(sep))
}

// Read loads one CSV or TSV file into a table. The first row is the
// header. When the extension-implied delimiter fails, or parses the
// whole header into a single column containing the opposite delimiter,
// the read is retried with that delimiter.
func Read(path string) (*types.Table, error) {
	sep := Delimiter(path)
	table, err := readWith(path, sep)
	if err == nil && !retryNeeded(table, sep) {
		return table, nil
	}
	retry, rerr := readWith(path, opposite(sep))
	if rerr == nil {
		return retry, nil
	}
	if err == nil {
		return table, nil
	}
	return nil, fmt.Errorf("reading %s: %w", path, err)
}

// ReadString parses delimited text held in memory, with the same
// opposite-delimiter fallback as Read.
func ReadString(text string, sep rune) (*types.Table, error) {
	table, err := readFrom(strings.NewReader(text), sep)
	if err == nil && !retryNeeded(table, sep) {
		return table, nil
	}
	retry, rerr := readFrom(strings.NewReader(text), opposite(sep))
	if rerr == nil {
		return retry, nil
	}
	if err == nil {
		return table, nil
	}
	return nil, fmt.Errorf("parsing table text: %w", err)
}

// ReadMerged reads a path that may be a single file or a directory. A
// directory's files are read in sorted name order and concatenated; the
// first file's header wins and later files' cells are matched to it by
// column name.
func ReadMerged(path string) (*types.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return Read(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("directory %s has no files", path)
	}

	var merged *types.Table
	for _, file := range files {
		table, err := Read(file)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = table
			continue
		}
		// Map this file's columns onto the merged header.
		idx := make([]int, len(merged.Columns))
		for i, col := range merged.Columns {
			idx[i] = table.Column(col)
		}
		for _, row := range table.Rows {
			out := make([]string, len(merged.Columns))
			for i, j := range idx {
				if j >= 0 && j < len(row) {
					out[i] = row[j]
				}
			}
			if err := merged.Append(out); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// Write saves a table to path, delimited per the path's extension.
func Write(table *types.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = Delimiter(path)
	werr := w.Write(table.Columns)
	for _, row := range table.Rows {
		if werr != nil {
			break
		}
		werr = w.Write(row)
	}
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	if werr != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, werr)
	}
	return f.Close()
}

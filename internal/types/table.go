package types

import "fmt"

// Table is an ordered, rectangular result table: the cleaned per-source
// exports and the combined overlaps table both use this shape.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates a table with the given column headers.
func NewTable(columns []string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. The row must have one cell per column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, or -1 if absent.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Records converts the table to a list of column→cell maps, the shape the
// HTTP wrapper serializes.
func (t *Table) Records() []map[string]string {
	recs := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

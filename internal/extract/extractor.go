// Package extract turns raw source tables into canonical citation
// records. Each source is described by a declarative YAML schema mapping
// columns to the pmid, author, title, journal and year fields; built-in
// schemas cover the Medline, Embase and Scopus export formats.
package extract

import (
	"fmt"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// Extractor turns a raw source table into canonical records using a
// validated schema.
type Extractor struct {
	schema *Schema
}

// New creates an extractor for the schema. The schema must already be
// validated (Load validates).
func New(schema *Schema) *Extractor {
	return &Extractor{schema: schema}
}

// Source returns the tag records of this extractor carry.
func (e *Extractor) Source() string {
	return e.schema.Source
}

// Extract converts every row of the table into a Record. Ids are
// assigned sequentially as PREFIX_00001 with the uppercased three-letter
// source prefix, matching 1-based row numbering. Missing fields become
// the engine's sentinels, never empty strings.
func (e *Extractor) Extract(table *types.Table) ([]*types.Record, error) {
	if table == nil {
		return nil, fmt.Errorf("no table to extract")
	}
	prefix := types.SourcePrefix(e.schema.Source)
	records := make([]*types.Record, 0, table.Len())
	for i, cells := range table.Rows {
		row := make(map[string]string, len(table.Columns))
		for j, col := range table.Columns {
			if j < len(cells) {
				row[col] = cells[j]
			}
		}

		year := e.schema.Year.apply(row)
		if year == "" {
			year = types.NoYear
		}

		pmid := e.schema.PMID.apply(row)
		if pmid == "" {
			pmid = types.NoPMID
		}

		emid := ""
		if e.schema.EMID != nil {
			emid = e.schema.EMID.apply(row)
		}

		names := e.schema.Authors.apply(row)
		authorNames := names
		if authorNames == "" {
			authorNames = types.NoKey
		}

		title := e.schema.Title.apply(row)
		titleOut := title
		if titleOut == "" {
			titleOut = "noTitle"
		}

		journal := e.schema.Journal.apply(row)

		rec := &types.Record{
			ID:          fmt.Sprintf("%s_%05d", prefix, i+1),
			Source:      e.schema.Source,
			PMID:        pmid,
			EMID:        emid,
			AuthorNames: authorNames,
			AuthorKey:   authorSignature(names, year),
			Title:       titleOut,
			TitleKey:    titleSignature(title),
			Year:        year,
			Journal:     journal,
			JournalKey:  journalSignature(journal),
			Row:         append([]string(nil), cells...),
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+1, e.schema.Source, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

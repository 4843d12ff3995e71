package overlap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// Column names of the combined overlaps table that precede the
// per-source count columns.
var overlapColumns = []string{
	"Paper_ID",
	"PMID",
	"Group",
	"Subgrp",
	"Grp_Size",
	"Author_Names",
	"Year",
	"Author_Year_Key",
	"Title",
	"Title_Key",
	"Journal_Details",
	"Journal_Key",
	"Similar_Records",
	"Similarity",
}

// GroupNone is how an ungrouped record's Group cell is rendered.
const GroupNone = "none"

// splitSubgroup renders a subgroup id into its Group and Subgrp cells.
// The "." sentinel of a size-1 component maps to (GroupNone, "0").
func splitSubgroup(sub string) (group, index string) {
	if sub == types.NoKey {
		return GroupNone, "0"
	}
	dot := strings.LastIndex(sub, ".")
	return sub[:dot], sub[dot+1:]
}

// scoredList renders co-members as "id(score)" entries joined by ";",
// or "." when there are none.
func (d *Detector) scoredList(id string, others []string) string {
	var parts []string
	for _, other := range others {
		if other == id {
			continue
		}
		score, ok := d.dist.get(id, other)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", other, formatScore(score)))
	}
	if len(parts) == 0 {
		return types.NoKey
	}
	return strings.Join(parts, ";")
}

type annotatedRow struct {
	cells    []string
	grouped  bool
	group    int
	subgroup int
}

// annotate builds one output row for a resolved record.
func (d *Detector) annotate(rec *types.Record) (annotatedRow, error) {
	sub, ok := d.subgroupOf[rec.ID]
	if !ok {
		return annotatedRow{}, fmt.Errorf("record %s was never resolved", rec.ID)
	}
	group, subIndex := splitSubgroup(sub)

	subMembers := d.subgroupMembers[sub]
	counts := make(map[string]int, len(d.sources))
	for _, other := range subMembers {
		if other == rec.ID {
			continue
		}
		ro, ok := d.find(other)
		if !ok {
			return annotatedRow{}, fmt.Errorf("subgroup member %s was never ingested", other)
		}
		counts[ro.Source]++
	}
	counts[rec.Source]++
	groupSize := 0
	for _, n := range counts {
		groupSize += n
	}

	// The record leads its subgroup unless a co-member comes from a
	// source ingested before the record's own.
	main := "Y"
	for _, other := range subMembers {
		if other == rec.ID {
			continue
		}
		ro, _ := d.find(other)
		if d.sourceRank[ro.Source] < d.sourceRank[rec.Source] {
			main = "N"
			break
		}
	}

	cells := []string{
		rec.ID,
		rec.PMID,
		group,
		subIndex,
		strconv.Itoa(groupSize),
		rec.AuthorNames,
		rec.Year,
		rec.AuthorKey,
		rec.Title,
		rec.TitleKey,
		rec.Journal,
		rec.JournalKey,
		d.scoredList(rec.ID, d.members[rec.ID]),
		d.scoredList(rec.ID, subMembers),
	}
	for _, tag := range d.sources {
		cells = append(cells, strconv.Itoa(counts[tag]))
	}
	cells = append(cells, main)

	row := annotatedRow{cells: cells}
	if group != GroupNone {
		row.grouped = true
		var err error
		if row.group, err = strconv.Atoi(group); err != nil {
			return annotatedRow{}, fmt.Errorf("malformed group number %q for %s: %w", group, rec.ID, err)
		}
		if row.subgroup, err = strconv.Atoi(subIndex); err != nil {
			return annotatedRow{}, fmt.Errorf("malformed subgroup index %q for %s: %w", subIndex, rec.ID, err)
		}
	}
	return row, nil
}

// sortAnnotated orders rows by group then subgroup, numerically, with
// ungrouped rows after all grouped ones. The sort is stable, so rows
// that compare equal keep ingestion order.
func sortAnnotated(rows []annotatedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.grouped != b.grouped {
			return a.grouped
		}
		if !a.grouped {
			return false
		}
		if a.group != b.group {
			return a.group < b.group
		}
		return a.subgroup < b.subgroup
	})
}

// assemble emits the combined overlaps table: one row per ingested
// record, stably sorted by (Group, Subgrp) with ungrouped rows last.
func (d *Detector) assemble() (*types.Table, error) {
	columns := append([]string(nil), overlapColumns...)
	columns = append(columns, d.sources...)
	columns = append(columns, "MainRecord")

	rows := make([]annotatedRow, 0, d.recordCount())
	for _, tag := range d.sources {
		for _, id := range d.bySource[tag] {
			rec, ok := d.find(id)
			if !ok {
				return nil, fmt.Errorf("ingested record %s disappeared", id)
			}
			row, err := d.annotate(rec)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	sortAnnotated(rows)

	table := types.NewTable(columns)
	for _, row := range rows {
		if err := table.Append(row.cells); err != nil {
			return nil, err
		}
	}
	return table, nil
}

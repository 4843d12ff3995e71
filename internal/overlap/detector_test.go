package overlap

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// rec builds a minimal record for engine tests. The year field is
// copied from the author key's trailing segment.
func rec(id, source, pmid, authorKey, titleKey, journalKey string) *types.Record {
	year := types.NoYear
	if authorKey != types.NoKey {
		parts := strings.Split(authorKey, "|")
		year = parts[len(parts)-1]
	}
	return &types.Record{
		ID:          id,
		Source:      source,
		PMID:        pmid,
		AuthorNames: "Smith J, Jones B",
		AuthorKey:   authorKey,
		Title:       "A title",
		TitleKey:    titleKey,
		Year:        year,
		Journal:     "A Journal",
		JournalKey:  journalKey,
	}
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	det, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return det
}

func ingest(t *testing.T, det *Detector, source string, recs ...*types.Record) {
	t.Helper()
	if err := det.Ingest(source, recs); err != nil {
		t.Fatalf("Ingest(%s) error: %v", source, err)
	}
}

// cell returns the named column's value for the row whose Paper_ID
// matches.
func cell(t *testing.T, table *types.Table, paperID, column string) string {
	t.Helper()
	idCol := table.Column("Paper_ID")
	col := table.Column(column)
	if idCol < 0 || col < 0 {
		t.Fatalf("missing column Paper_ID or %s in %v", column, table.Columns)
	}
	for _, row := range table.Rows {
		if row[idCol] == paperID {
			return row[col]
		}
	}
	t.Fatalf("no row for %s", paperID)
	return ""
}

func TestSharedPMIDAcrossSources(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "12345678", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"))
	ingest(t, det, "Embase",
		rec("EMB_00001", "Embase", "12345678", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Table.Len() != 2 {
		t.Fatalf("got %d rows, want 2", res.Table.Len())
	}

	for _, id := range []string{"MED_00001", "EMB_00001"} {
		if got := cell(t, res.Table, id, "Group"); got != "1" {
			t.Errorf("%s Group = %q, want 1", id, got)
		}
		if got := cell(t, res.Table, id, "Grp_Size"); got != "2" {
			t.Errorf("%s Grp_Size = %q, want 2", id, got)
		}
	}
	if got := cell(t, res.Table, "MED_00001", "Similarity"); got != "EMB_00001(100)" {
		t.Errorf("MED_00001 Similarity = %q, want EMB_00001(100)", got)
	}
	if got := cell(t, res.Table, "MED_00001", "Subgrp"); got != cell(t, res.Table, "EMB_00001", "Subgrp") {
		t.Errorf("records share a PMID but not a subgroup")
	}
	if got := cell(t, res.Table, "MED_00001", "MainRecord"); got != "Y" {
		t.Errorf("MED_00001 MainRecord = %q, want Y", got)
	}
	if got := cell(t, res.Table, "EMB_00001", "MainRecord"); got != "N" {
		t.Errorf("EMB_00001 MainRecord = %q, want N", got)
	}
	if got := cell(t, res.Table, "MED_00001", "Embase"); got != "1" {
		t.Errorf("MED_00001 Embase count = %q, want 1", got)
	}
}

func TestDistinctRecordsStayApart(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00002", "Medline", "22222222", "brown|none|davis|2001", "h_i_j_k_l_m_n", "nat"))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	for _, id := range []string{"MED_00001", "MED_00002"} {
		if got := cell(t, res.Table, id, "Group"); got != GroupNone {
			t.Errorf("%s Group = %q, want %q", id, got, GroupNone)
		}
		if got := cell(t, res.Table, id, "Subgrp"); got != "0" {
			t.Errorf("%s Subgrp = %q, want 0", id, got)
		}
		if got := cell(t, res.Table, id, "Grp_Size"); got != "1" {
			t.Errorf("%s Grp_Size = %q, want 1", id, got)
		}
		if got := cell(t, res.Table, id, "Similarity"); got != types.NoKey {
			t.Errorf("%s Similarity = %q, want %q", id, got, types.NoKey)
		}
	}
}

func TestNearMissAuthorsMerge(t *testing.T) {
	// Same title signature links the records; the heuristic (title 30
	// + journal 20 + year 20 + author 30-3) clears the threshold.
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", types.NoPMID, "smith|jones|lee|2019", "gene_expression_in_autism_spectrum_disorder_a", ""))
	ingest(t, det, "Embase",
		rec("EMB_00001", "Embase", types.NoPMID, "smith|jones|leigh|2019", "gene_expression_in_autism_spectrum_disorder_a", ""))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := cell(t, res.Table, "MED_00001", "Subgrp"); got != cell(t, res.Table, "EMB_00001", "Subgrp") {
		t.Errorf("near-miss authors did not merge: %q vs %q",
			got, cell(t, res.Table, "EMB_00001", "Subgrp"))
	}
	if got := cell(t, res.Table, "MED_00001", "Grp_Size"); got != "2" {
		t.Errorf("Grp_Size = %q, want 2", got)
	}
}

func TestClosureChainsAcrossKeys(t *testing.T) {
	// A and B share a PMID; B and C share a title signature; A and C
	// share nothing directly. Transitive closure puts all three in one
	// component, but differing PMIDs keep C out of A and B's subgroup.
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"))
	ingest(t, det, "Embase",
		rec("EMB_00001", "Embase", "11111111", "brown|none|davis|2005", "shared_title_words_one_two_three_four", "jmed"))
	ingest(t, det, "Scopus",
		rec("SCO_00001", "Scopus", "22222222", "miller|none|wilson|1999", "shared_title_words_one_two_three_four", "nat"))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	groups := map[string]string{}
	for _, id := range []string{"MED_00001", "EMB_00001", "SCO_00001"} {
		groups[id] = cell(t, res.Table, id, "Group")
	}
	if groups["MED_00001"] != groups["EMB_00001"] || groups["EMB_00001"] != groups["SCO_00001"] {
		t.Fatalf("chained records not in one component: %v", groups)
	}
	if groups["MED_00001"] == GroupNone {
		t.Fatalf("chained records reported ungrouped")
	}
	if cell(t, res.Table, "MED_00001", "Subgrp") != cell(t, res.Table, "EMB_00001", "Subgrp") {
		t.Errorf("shared-PMID pair not in one subgroup")
	}
	if cell(t, res.Table, "SCO_00001", "Subgrp") == cell(t, res.Table, "EMB_00001", "Subgrp") {
		t.Errorf("differing-PMID record joined the subgroup")
	}
	if got := cell(t, res.Table, "MED_00001", "Similar_Records"); !strings.Contains(got, "SCO_00001") {
		t.Errorf("Similar_Records %q should list the transitively linked record", got)
	}
}

// subgroupPartition maps each record to the sorted ids of its subgroup
// co-members, extracted from the Similarity column.
func subgroupPartition(t *testing.T, table *types.Table) map[string]string {
	t.Helper()
	out := map[string]string{}
	idCol := table.Column("Paper_ID")
	simCol := table.Column("Similarity")
	for _, row := range table.Rows {
		var ids []string
		if row[simCol] != types.NoKey {
			for _, entry := range strings.Split(row[simCol], ";") {
				ids = append(ids, entry[:strings.Index(entry, "(")])
			}
		}
		sort.Strings(ids)
		out[row[idCol]] = strings.Join(ids, ";")
	}
	return out
}

func TestReversedIngestionKeepsPartitions(t *testing.T) {
	med := func() []*types.Record {
		return []*types.Record{
			rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
			rec("MED_00002", "Medline", types.NoPMID, "brown|none|davis|2001", "h_i_j_k_l_m_n", "nat"),
		}
	}
	emb := func() []*types.Record {
		return []*types.Record{
			rec("EMB_00001", "Embase", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
			rec("EMB_00002", "Embase", types.NoPMID, "brown|none|davis|2001", "h_i_j_k_l_m_n", "nat"),
		}
	}

	forward := newTestDetector(t)
	ingest(t, forward, "Medline", med()...)
	ingest(t, forward, "Embase", emb()...)
	fres, err := forward.Resolve()
	if err != nil {
		t.Fatalf("forward Resolve() error: %v", err)
	}

	reversed := newTestDetector(t)
	ingest(t, reversed, "Embase", emb()...)
	ingest(t, reversed, "Medline", med()...)
	rres, err := reversed.Resolve()
	if err != nil {
		t.Fatalf("reversed Resolve() error: %v", err)
	}

	fpart := subgroupPartition(t, fres.Table)
	rpart := subgroupPartition(t, rres.Table)
	for id, members := range fpart {
		if rpart[id] != members {
			t.Errorf("%s subgroup co-members changed: forward %q, reversed %q", id, members, rpart[id])
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00002", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00003", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""))

	first, err := det.Resolve()
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	second, err := det.Resolve()
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if fmt.Sprint(first.Table.Rows) != fmt.Sprint(second.Table.Rows) {
		t.Errorf("Resolve is not idempotent:\nfirst:  %v\nsecond: %v", first.Table.Rows, second.Table.Rows)
	}
}

func TestSentinelsAreNeverKeyed(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""),
		rec("MED_00002", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""))

	for _, buckets := range det.global.byKind {
		for key := range buckets {
			if key == types.NoPMID || key == types.NoKey || key == "" {
				t.Errorf("sentinel %q was indexed", key)
			}
		}
	}

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	for _, id := range []string{"MED_00001", "MED_00002"} {
		if got := cell(t, res.Table, id, "Group"); got != GroupNone {
			t.Errorf("%s grouped on sentinel keys: Group = %q", id, got)
		}
	}
}

func TestUngroupedRowsSortLast(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""),
		rec("MED_00002", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00003", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	groupCol := res.Table.Column("Group")
	seenUngrouped := false
	for _, row := range res.Table.Rows {
		if row[groupCol] == GroupNone {
			seenUngrouped = true
		} else if seenUngrouped {
			t.Fatalf("grouped row after ungrouped row: %v", res.Table.Rows)
		}
	}
	if !seenUngrouped {
		t.Fatalf("expected an ungrouped row")
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	det := newTestDetector(t)
	good := rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed")
	ingest(t, det, "Medline", good)

	tests := []struct {
		name   string
		source string
		rec    *types.Record
	}{
		{"duplicate source", "Medline", rec("MED_00009", "Medline", "1", "a|b|c|2000", "t", "")},
		{"duplicate id", "Embase", rec("MED_00001", "Embase", "1", "a|b|c|2000", "t", "")},
		{"wrong source tag", "Scopus", rec("EMB_00001", "Embase", "1", "a|b|c|2000", "t", "")},
		{"empty pmid", "Scopus2", &types.Record{ID: "SCO_00001", Source: "Scopus2", AuthorKey: "a|b|c|2000", TitleKey: "t", Year: "2000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := det.Ingest(tt.source, []*types.Record{tt.rec}); err == nil {
				t.Errorf("Ingest accepted %s", tt.name)
			}
		})
	}
}

func TestStatsAndValidate(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00002", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00003", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""))

	res, err := det.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if err := res.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if res.Stats.Records != 3 || res.Stats.Sources != 1 {
		t.Errorf("Stats = %+v, want 3 records from 1 source", res.Stats)
	}
	if res.Stats.Groups != 1 {
		t.Errorf("Groups = %d, want 1", res.Stats.Groups)
	}
	if res.Stats.Ungrouped != 1 {
		t.Errorf("Ungrouped = %d, want 1", res.Stats.Ungrouped)
	}
	if res.Stats.RunID == "" {
		t.Errorf("RunID is empty")
	}
	if len(det.sortedIDs()) != 3 {
		t.Errorf("sortedIDs = %v, want 3 ids", det.sortedIDs())
	}
}

func TestCleanTableSingleStepMatching(t *testing.T) {
	det := newTestDetector(t)
	ingest(t, det, "Medline",
		rec("MED_00001", "Medline", "11111111", "smith|none|jones|2019", "a_b_c_d_e_f_g", "jmed"),
		rec("MED_00002", "Medline", "11111111", "brown|none|davis|2001", "h_i_j_k_l_m_n", "nat"),
		rec("MED_00003", "Medline", types.NoPMID, types.NoKey, types.NoKey, ""))

	clean, err := det.CleanTable("Medline", nil)
	if err != nil {
		t.Fatalf("CleanTable() error: %v", err)
	}
	if clean.Len() != 3 {
		t.Fatalf("got %d rows, want 3", clean.Len())
	}
	idCol := clean.Column("Medline_ID")
	simCol := clean.Column("Similar_Records")
	basisCol := clean.Column("Similarity")
	groupCol := clean.Column("Similar_group")
	if idCol < 0 || simCol < 0 || basisCol < 0 || groupCol < 0 {
		t.Fatalf("missing clean columns in %v", clean.Columns)
	}

	byID := map[string][]string{}
	for _, row := range clean.Rows {
		byID[row[idCol]] = row
	}
	if got := byID["MED_00001"][simCol]; got != "MED_00002" {
		t.Errorf("MED_00001 Similar_Records = %q, want MED_00002", got)
	}
	if got := byID["MED_00001"][basisCol]; got != "pmid" {
		t.Errorf("MED_00001 basis = %q, want pmid", got)
	}
	if byID["MED_00001"][groupCol] != "1" || byID["MED_00002"][groupCol] != "1" {
		t.Errorf("shared-PMID pair not in clean group 1: %q, %q",
			byID["MED_00001"][groupCol], byID["MED_00002"][groupCol])
	}
	if got := byID["MED_00003"][groupCol]; got != types.NoKey {
		t.Errorf("MED_00003 Similar_group = %q, want %q", got, types.NoKey)
	}
}

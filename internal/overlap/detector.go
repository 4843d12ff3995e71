package overlap

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// Detector is the caller-owned engine context. All indexing and
// resolution state lives here; two Detectors never share anything, so
// ingesting the same sources into separate Detectors in different
// orders is safe and cheap.
//
// A Detector is not safe for concurrent use.
type Detector struct {
	cfg Config

	sources    []string
	sourceRank map[string]int
	bySource   map[string][]string
	recs       map[string]*types.Record

	perSource map[string]*keyIndex
	global    *keyIndex

	groups          *groupAssigner
	members         map[string][]string
	subgroupOf      map[string]string
	subgroupMembers map[string][]string
	dist            *distanceCache
}

// New creates a Detector with the given configuration.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Detector{
		cfg:             cfg,
		sourceRank:      make(map[string]int),
		bySource:        make(map[string][]string),
		recs:            make(map[string]*types.Record),
		perSource:       make(map[string]*keyIndex),
		global:          newKeyIndex(),
		groups:          newGroupAssigner(),
		members:         make(map[string][]string),
		subgroupOf:      make(map[string]string),
		subgroupMembers: make(map[string][]string),
		dist:            newDistanceCache(),
	}, nil
}

// find looks a record up by id across every ingested source.
func (d *Detector) find(id string) (*types.Record, bool) {
	r, ok := d.recs[id]
	return r, ok
}

func (d *Detector) recordCount() int {
	return len(d.recs)
}

// Sources returns the ingested source tags in ingestion order.
func (d *Detector) Sources() []string {
	return append([]string(nil), d.sources...)
}

// Ingest adds one source's extracted records to the per-source and
// global key indexes. Sources are ingested in the caller's order, which
// is fixed for the life of the Detector: it drives group-discovery
// numbering and the MainRecord flag.
func (d *Detector) Ingest(sourceTag string, records []*types.Record) error {
	if sourceTag == "" {
		return fmt.Errorf("source tag is required")
	}
	if _, ok := d.sourceRank[sourceTag]; ok {
		return fmt.Errorf("source %q was already ingested", sourceTag)
	}

	idx := newKeyIndex()
	ids := make([]string, 0, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d of source %q: %w", i, sourceTag, err)
		}
		if r.Source != sourceTag {
			return fmt.Errorf("record %s carries source %q, ingested under %q", r.ID, r.Source, sourceTag)
		}
		if _, ok := d.recs[r.ID]; ok {
			return fmt.Errorf("duplicate record id %s", r.ID)
		}
		d.recs[r.ID] = r
		ids = append(ids, r.ID)
		idx.add(r)
		d.global.add(r)
	}

	d.sourceRank[sourceTag] = len(d.sources)
	d.sources = append(d.sources, sourceTag)
	d.bySource[sourceTag] = ids
	d.perSource[sourceTag] = idx
	return nil
}

// Stats summarizes one Resolve run.
type Stats struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Sources is the number of ingested sources.
	Sources int `json:"sources"`

	// Records is the total number of ingested records, which equals the
	// output row count.
	Records int `json:"records"`

	// Groups is the number of distinct match groups assigned.
	Groups int `json:"groups"`

	// Subgroups is the number of subgroups created inside those groups.
	Subgroups int `json:"subgroups"`

	// Ungrouped is the number of records with no duplicate candidate.
	Ungrouped int `json:"ungrouped"`

	// Duration is how long the resolution took.
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of a Resolve run.
type Result struct {
	// Table is the combined overlaps table, one row per ingested record.
	Table *types.Table `json:"table"`

	// Stats summarizes the run.
	Stats Stats `json:"stats"`
}

// Validate checks the result against the output contract.
func (r *Result) Validate() error {
	if r.Table == nil {
		return fmt.Errorf("result has no table")
	}
	if r.Table.Len() != r.Stats.Records {
		return fmt.Errorf("table has %d rows for %d records", r.Table.Len(), r.Stats.Records)
	}
	return nil
}

// Resolve walks every ingested record through match closure, group
// assignment and subgroup refinement, then assembles the annotated,
// sorted overlaps table.
//
// Records whose subgroup was already assigned while refining an earlier
// member's component are skipped, so calling Resolve again without new
// ingests redoes no closure work and returns an identical table.
func (d *Detector) Resolve() (*Result, error) {
	start := time.Now()
	for _, tag := range d.sources {
		for _, id := range d.bySource[tag] {
			if _, done := d.subgroupOf[id]; done {
				continue
			}
			rec, ok := d.find(id)
			if !ok {
				return nil, fmt.Errorf("ingested record %s disappeared", id)
			}
			comp, err := d.closure(rec)
			if err != nil {
				return nil, err
			}
			if len(comp.members) < 2 {
				// No shared key anywhere: size-1 component.
				d.subgroupOf[id] = types.NoKey
				continue
			}
			group := d.groups.assign(comp.members)
			if err := d.refine(comp.members, group); err != nil {
				return nil, err
			}
		}
	}

	table, err := d.assemble()
	if err != nil {
		return nil, err
	}

	ungrouped := 0
	for _, sub := range d.subgroupOf {
		if sub == types.NoKey {
			ungrouped++
		}
	}
	res := &Result{
		Table: table,
		Stats: Stats{
			RunID:     uuid.New().String(),
			Sources:   len(d.sources),
			Records:   d.recordCount(),
			Groups:    d.groups.count(),
			Subgroups: len(d.subgroupMembers),
			Ungrouped: ungrouped,
			Duration:  time.Since(start),
		},
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Column names of a per-source clean table that follow the id columns.
var cleanColumns = []string{
	"Author_Names",
	"Year",
	"Author_Year_Key",
	"Title",
	"Title_Key",
	"Journal_Details",
	"Journal_Key",
	"Similar_Records",
	"Similarity",
	"Similar_group",
}

// CleanTable emits the cleaned table for one ingested source: ids,
// normalized fields and keys, plus within-source duplicate candidates
// found by single-step matching against the per-source index alone.
// rawColumns, when non-empty, names the original input columns and
// enables pass-through of the stored raw row cells; a raw column that
// collides with a clean column is suffixed "_orig".
func (d *Detector) CleanTable(sourceTag string, rawColumns []string) (*types.Table, error) {
	idx, ok := d.perSource[sourceTag]
	if !ok {
		return nil, fmt.Errorf("source %q was never ingested", sourceTag)
	}
	ids := d.bySource[sourceTag]

	hasEMID := false
	if len(ids) > 0 {
		if first, ok := d.find(ids[0]); ok && first.EMID != "" {
			hasEMID = true
		}
	}

	columns := []string{sourceTag + "_ID", "PMID"}
	if hasEMID {
		columns = append(columns, "EMID")
	}
	columns = append(columns, cleanColumns...)
	for _, raw := range rawColumns {
		for _, col := range columns {
			if raw == col {
				raw += "_orig"
				break
			}
		}
		columns = append(columns, raw)
	}

	// Group numbering is local to the table: memoized per component
	// signature, dense from 1 in first-seen order.
	memo := make(map[string]int)
	next := 1

	table := types.NewTable(columns)
	for _, id := range ids {
		rec, ok := d.find(id)
		if !ok {
			return nil, fmt.Errorf("ingested record %s disappeared", id)
		}

		comp := newComponent()
		for _, k := range closureKeys(rec) {
			if !indexable(k.kind, k.value) {
				continue
			}
			bucket, ok := idx.bucket(k.kind, k.value)
			if !ok {
				return nil, fmt.Errorf("index miss for %s %q of record %s", k.kind, k.value, id)
			}
			if len(bucket) <= 1 {
				continue
			}
			for _, match := range bucket {
				comp.add(match)
				if match != id {
					comp.markBasis(k.kind)
				}
			}
		}

		match, basis, group := types.NoKey, types.NoKey, types.NoKey
		if len(comp.members) > 1 {
			var others []string
			for _, m := range comp.members {
				if m != id {
					others = append(others, m)
				}
			}
			match = strings.Join(others, ";")

			kinds := make([]string, len(comp.basis))
			for i, k := range comp.basis {
				kinds[i] = string(k)
			}
			basis = strings.Join(kinds, ";")

			sig := signature(comp.members)
			n, ok := memo[sig]
			if !ok {
				n = next
				memo[sig] = n
				next++
			}
			group = fmt.Sprintf("%d", n)
		}

		cells := []string{id, rec.PMID}
		if hasEMID {
			cells = append(cells, rec.EMID)
		}
		cells = append(cells,
			rec.AuthorNames,
			rec.Year,
			rec.AuthorKey,
			rec.Title,
			rec.TitleKey,
			rec.Journal,
			rec.JournalKey,
			match,
			basis,
			group,
		)
		for i := range rawColumns {
			if i < len(rec.Row) {
				cells = append(cells, rec.Row[i])
			} else {
				cells = append(cells, "")
			}
		}
		if err := table.Append(cells); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// sortedIDs returns all ingested record ids in sorted order. Used by
// diagnostics and tests.
func (d *Detector) sortedIDs() []string {
	ids := make([]string, 0, len(d.recs))
	for id := range d.recs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package overlap

import (
	"github.com/stephansanders/citation-overlap/internal/types"
)

// keyKind names one of the canonical key types. The string values appear
// verbatim in the Similarity basis column of the cleaned per-source
// tables.
type keyKind string

const (
	kindPMID    keyKind = "pmid"
	kindAuthor  keyKind = "authorKey"
	kindTitle   keyKind = "titleMin"
	kindJournal keyKind = "journalKey"
)

// keyIndex maps canonical key values to the ordered list of record ids
// sharing them. Buckets only ever grow: ids are appended in ingestion
// order and never overwritten. Sentinel values are never inserted as
// keys, so every bucket is informative.
type keyIndex struct {
	byKind map[keyKind]map[string][]string
}

func newKeyIndex() *keyIndex {
	return &keyIndex{
		byKind: map[keyKind]map[string][]string{
			kindPMID:    {},
			kindAuthor:  {},
			kindTitle:   {},
			kindJournal: {},
		},
	}
}

// indexable reports whether a key value carries information for the
// given kind. Sentinels and empty values do not.
func indexable(kind keyKind, value string) bool {
	switch value {
	case "", types.NoKey:
		return false
	case types.NoPMID:
		return kind != kindPMID
	}
	return true
}

// add appends the record's id to the bucket of each of its non-sentinel
// key values, creating buckets as needed.
func (x *keyIndex) add(r *types.Record) {
	keys := []struct {
		kind  keyKind
		value string
	}{
		{kindPMID, r.PMID},
		{kindAuthor, r.AuthorKey},
		{kindTitle, r.TitleKey},
		{kindJournal, r.JournalKey},
	}
	for _, k := range keys {
		if !indexable(k.kind, k.value) {
			continue
		}
		x.byKind[k.kind][k.value] = append(x.byKind[k.kind][k.value], r.ID)
	}
}

// bucket returns the id list for a key value. The second return is false
// when no bucket exists, which for a non-sentinel key of an ingested
// record signals a caller contract violation.
func (x *keyIndex) bucket(kind keyKind, value string) ([]string, bool) {
	ids, ok := x.byKind[kind][value]
	return ids, ok
}

// Package overlap implements the record-linkage engine that finds
// duplicate citations within and across literature databases.
//
// # Overview
//
// Sources are ingested one at a time, in a fixed caller-determined order.
// Each record's canonical keys (PMID, author signature, title signature,
// journal signature) are appended to a per-source key index and to a
// running global key index. After ingestion, Resolve walks every record:
//
//  1. Match closure: starting from the record's keys, the engine expands
//     through shared non-sentinel keys to a fixed point, yielding the
//     connected component of records that could describe the same
//     publication. Multiple passes are required because keys chain
//     (A↔B via PMID, B↔C via title).
//  2. Group assignment: the component's signature (sorted ids joined by
//     ";") is memoized to a dense group number, stable across repeated
//     discovery of the same component.
//  3. Subgroup refinement: every pair in the component is scored 0–100
//     by exact PMID comparison or, when PMIDs are uninformative, by a
//     weighted heuristic over title, journal, year and author edit
//     distances. Pairs at or above the threshold are clustered in a
//     single deterministic pass over sorted member ids.
//  4. Assembly: each record is annotated with its group, subgroup,
//     subgroup size, similar-record lists, per-source contribution
//     counts and a representative-record flag, and the rows are sorted
//     by (group, subgroup) with ungrouped rows last.
//
// # Determinism
//
// The engine is single-threaded and all iteration orders are fixed
// (ingestion order for sources and records, sorted ids for pairwise
// passes), so identical inputs ingested in the same order produce
// byte-identical output. Group numbers depend on discovery order and
// therefore on ingestion order; component membership and subgroup
// partitions do not.
//
// The subgroup pass is deliberately not a transitive closure: once a
// record has joined a subgroup it is never re-examined, so a qualifying
// pair whose two sides already belong to different subgroups does not
// merge them. This mirrors the clustering rule the output format was
// built around.
//
// # Usage
//
//	det, err := overlap.New(overlap.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for _, src := range sources {
//	    if err := det.Ingest(src.Tag, src.Records); err != nil {
//	        return err
//	    }
//	}
//	res, err := det.Resolve()
//	if err != nil {
//	    return err
//	}
//	// res.Table has one row per ingested record.
package overlap

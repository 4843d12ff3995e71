package overlap

import (
	"fmt"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// component is the connected component of a seed record under the
// "shares a non-sentinel key" relation, together with the key kinds that
// contributed at least one edge (diagnostic only).
type component struct {
	members []string // discovery order
	seen    map[string]struct{}
	basis   []keyKind
	based   map[keyKind]struct{}
}

func newComponent() *component {
	return &component{
		seen:  make(map[string]struct{}),
		based: make(map[keyKind]struct{}),
	}
}

func (c *component) add(id string) {
	if _, ok := c.seen[id]; ok {
		return
	}
	c.seen[id] = struct{}{}
	c.members = append(c.members, id)
}

func (c *component) markBasis(kind keyKind) {
	if _, ok := c.based[kind]; ok {
		return
	}
	c.based[kind] = struct{}{}
	c.basis = append(c.basis, kind)
}

// closureKeys returns the key values that participate in match closure.
// The journal signature is indexed but deliberately excluded: three-letter
// prefixes collide far too often to assert identity on their own.
func closureKeys(r *types.Record) []struct {
	kind  keyKind
	value string
} {
	return []struct {
		kind  keyKind
		value string
	}{
		{kindPMID, r.PMID},
		{kindAuthor, r.AuthorKey},
		{kindTitle, r.TitleKey},
	}
}

// expand looks up each of the record's non-sentinel keys in the global
// index and, for every bucket holding more than one id, folds the whole
// bucket into the component, recording the key kind whenever the bucket
// names some other record.
func (d *Detector) expand(comp *component, r *types.Record) error {
	for _, k := range closureKeys(r) {
		if !indexable(k.kind, k.value) {
			continue
		}
		ids, ok := d.global.bucket(k.kind, k.value)
		if !ok {
			return fmt.Errorf("global index miss for %s %q of record %s: record was not ingested", k.kind, k.value, r.ID)
		}
		if len(ids) <= 1 {
			continue
		}
		for _, id := range ids {
			comp.add(id)
			if id != r.ID {
				comp.markBasis(k.kind)
			}
		}
	}
	return nil
}

// closure computes the seed's full connected component by repeated
// expansion to a fixed point. A single pass is not enough because keys
// chain: if A and B share a PMID while B and C share a title signature,
// C is discovered only after B has been expanded.
func (d *Detector) closure(seed *types.Record) (*component, error) {
	comp := newComponent()
	if err := d.expand(comp, seed); err != nil {
		return nil, err
	}
	last := len(comp.members)
	for {
		snapshot := append([]string(nil), comp.members...)
		for _, id := range snapshot {
			if id == seed.ID {
				continue
			}
			rec, ok := d.find(id)
			if !ok {
				return nil, fmt.Errorf("record %s is indexed but not ingested", id)
			}
			if err := d.expand(comp, rec); err != nil {
				return nil, err
			}
		}
		if len(comp.members) == last {
			return comp, nil
		}
		last = len(comp.members)
	}
}

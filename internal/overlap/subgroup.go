package overlap

import (
	"fmt"
	"sort"
)

// refine partitions one component into subgroups. All pairwise scores
// are computed (and cached) first; a single left-to-right pass over the
// sorted member ids then unions qualifying pairs. The pass deliberately
// never merges two existing subgroups: once both sides of a pair are
// assigned, the pair is skipped even if it qualifies.
func (d *Detector) refine(members []string, group int) error {
	ids := append([]string(nil), members...)
	sort.Strings(ids)

	// Component membership, kept in discovery order for the
	// Similar_Records column.
	for _, id := range members {
		d.members[id] = members
	}

	for i, a := range ids {
		ra, ok := d.find(a)
		if !ok {
			return fmt.Errorf("component member %s was never ingested", a)
		}
		for _, b := range ids[i+1:] {
			if _, ok := d.dist.get(a, b); ok {
				continue
			}
			rb, ok := d.find(b)
			if !ok {
				return fmt.Errorf("component member %s was never ingested", b)
			}
			d.dist.put(a, b, d.pairScore(ra, rb))
		}
	}

	next := 0
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			_, aAssigned := d.subgroupOf[a]
			_, bAssigned := d.subgroupOf[b]
			if aAssigned && bAssigned {
				continue
			}
			score, ok := d.dist.get(a, b)
			if !ok {
				return fmt.Errorf("no cached score for pair %s/%s", a, b)
			}
			if score < d.cfg.SubgroupThreshold {
				continue
			}
			switch {
			case aAssigned:
				sub := d.subgroupOf[a]
				d.subgroupOf[b] = sub
				d.subgroupMembers[sub] = append(d.subgroupMembers[sub], b)
			case bAssigned:
				sub := d.subgroupOf[b]
				d.subgroupOf[a] = sub
				d.subgroupMembers[sub] = append(d.subgroupMembers[sub], a)
			default:
				sub := fmt.Sprintf("%d.%d", group, next)
				next++
				d.subgroupOf[a] = sub
				d.subgroupOf[b] = sub
				d.subgroupMembers[sub] = []string{a, b}
			}
		}
	}

	// Leftover members become singleton subgroups.
	for _, id := range ids {
		if _, ok := d.subgroupOf[id]; ok {
			continue
		}
		sub := fmt.Sprintf("%d.%d", group, next)
		next++
		d.subgroupOf[id] = sub
		d.subgroupMembers[sub] = []string{id}
	}
	return nil
}

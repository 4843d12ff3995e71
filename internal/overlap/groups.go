package overlap

import (
	"sort"
	"strings"
)

// groupAssigner hands out dense group numbers, starting at 1, keyed by
// component signature. The memo makes numbering a pure function of the
// signature: rediscovering a component from any of its members yields
// the same number.
type groupAssigner struct {
	memo map[string]int
	next int
}

func newGroupAssigner() *groupAssigner {
	return &groupAssigner{memo: make(map[string]int), next: 1}
}

// signature canonicalizes a member set: ids sorted lexicographically,
// joined by ";".
func signature(members []string) string {
	ids := append([]string(nil), members...)
	sort.Strings(ids)
	return strings.Join(ids, ";")
}

// assign returns the group number for the component, allocating the next
// counter value on first sight.
func (g *groupAssigner) assign(members []string) int {
	sig := signature(members)
	if n, ok := g.memo[sig]; ok {
		return n
	}
	n := g.next
	g.memo[sig] = n
	g.next++
	return n
}

// count returns how many distinct groups have been assigned.
func (g *groupAssigner) count() int {
	return g.next - 1
}

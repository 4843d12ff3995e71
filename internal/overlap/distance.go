package overlap

import (
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// distanceCache holds the symmetric pairwise scores computed so far in
// the run. A pair is scored at most once; both orientations resolve to
// the same entry.
type distanceCache struct {
	scores map[string]map[string]float64
}

func newDistanceCache() *distanceCache {
	return &distanceCache{scores: make(map[string]map[string]float64)}
}

func (c *distanceCache) get(a, b string) (float64, bool) {
	s, ok := c.scores[a][b]
	return s, ok
}

func (c *distanceCache) put(a, b string, score float64) {
	if c.scores[a] == nil {
		c.scores[a] = make(map[string]float64)
	}
	if c.scores[b] == nil {
		c.scores[b] = make(map[string]float64)
	}
	c.scores[a][b] = score
	c.scores[b][a] = score
}

// pairScore computes the similarity of two records on the 0-100 scale.
//
// A shared non-sentinel PMID decides the pair outright at 100; two
// differing non-sentinel PMIDs decide it at 0. Only when at least one
// side carries the NoPMID sentinel is the weighted heuristic consulted.
func (d *Detector) pairScore(a, b *types.Record) float64 {
	if a.PMID == b.PMID && a.PMID != types.NoPMID {
		return 100
	}
	if a.PMID != types.NoPMID && b.PMID != types.NoPMID {
		return 0
	}
	score := float64(d.titleScore(a.TitleKey, b.TitleKey))
	score += float64(d.journalScore(a.JournalKey, b.JournalKey))

	s1, y1 := splitAuthorKey(a.AuthorKey)
	s2, y2 := splitAuthorKey(b.AuthorKey)
	score += float64(d.yearScore(y1, y2, a.ID, b.ID))
	score += d.authorScore(s1, s2)
	return score
}

// normWeight scales an edit distance into a 0..weight score:
// weight − trunc(dist/(len1+len2) × weight). A zero denominator scores 0.
func normWeight(dist, len1, len2, weight int) int {
	sum := len1 + len2
	if sum == 0 {
		return 0
	}
	return weight - int(math.Trunc(float64(dist)/float64(sum)*float64(weight)))
}

func (d *Detector) titleScore(t1, t2 string) int {
	dist := matchr.DamerauLevenshtein(t1, t2)
	return normWeight(dist, len(t1), len(t2), d.cfg.TitleWeight)
}

// journalScore treats two absent signatures as non-contradictory (full
// weight) but a single absent one as maximally different (zero).
func (d *Detector) journalScore(j1, j2 string) int {
	switch {
	case j1 != "" && j2 != "":
		dist := matchr.DamerauLevenshtein(j1, j2)
		return normWeight(dist, len(j1), len(j2), d.cfg.JournalWeight)
	case j1 != "" || j2 != "":
		return 0
	}
	return d.cfg.JournalWeight
}

// splitAuthorKey separates an author signature into its surname fields
// and its trailing year field.
func splitAuthorKey(key string) ([]string, string) {
	parts := strings.Split(key, "|")
	year := parts[len(parts)-1]
	return parts[:len(parts)-1], year
}

// yearScore compares the year fields of two author signatures. Equality
// is checked before the sentinel cases, so two records that both lack a
// year still collect the full weight. An unparseable year is logged and
// scored 0 rather than propagated.
func (d *Detector) yearScore(y1, y2, id1, id2 string) int {
	if y1 == y2 {
		return d.cfg.YearWeight
	}
	if y1 == types.NoYear || y2 == types.NoYear || y1 == types.NoKey || y2 == types.NoKey {
		return 0
	}
	n1, err := strconv.Atoi(y1)
	if err != nil {
		log.Printf("could not convert year %q of %s to an integer", y1, id1)
		return 0
	}
	n2, err := strconv.Atoi(y2)
	if err != nil {
		log.Printf("could not convert year %q of %s to an integer", y2, id2)
		return 0
	}
	switch n1 - n2 {
	case 1, -1:
		return d.cfg.YearAdjacentScore
	case 2, -2:
		return d.cfg.YearNearScore
	}
	return 0
}

// authorScore compares two surname lists. When the raw edit distance
// over the concatenated lists is at or below the close cutoff the score
// is simply the weight minus that distance. Otherwise each side-1
// surname is scored against its best-matching side-2 surname and the
// best scores are summed; surnames may be reused across comparisons, so
// this is greedy scoring rather than a bipartite assignment.
func (d *Detector) authorScore(s1, s2 []string) float64 {
	raw := matchr.DamerauLevenshtein(strings.Join(s1, ""), strings.Join(s2, ""))
	if raw <= d.cfg.AuthorCloseCutoff {
		return float64(d.cfg.AuthorWeight - raw)
	}
	factor := float64(d.cfg.AuthorWeight)
	if len(s1) >= 2 {
		factor = float64(d.cfg.AuthorWeight) / float64(len(s1))
	}
	var total float64
	for _, one := range s1 {
		var highest float64
		for _, two := range s2 {
			sum := len(one) + len(two)
			if sum == 0 {
				continue
			}
			dist := matchr.DamerauLevenshtein(one, two)
			w := factor - math.Trunc(float64(dist)/float64(sum)*factor)
			if w > highest {
				highest = w
			}
		}
		total += highest
	}
	return total
}

// formatScore renders a score the way the output tables show it: whole
// values as integers, fractional values with four significant digits.
func formatScore(score float64) string {
	if score == math.Trunc(score) {
		return strconv.Itoa(int(score))
	}
	return strconv.FormatFloat(score, 'g', 4, 64)
}

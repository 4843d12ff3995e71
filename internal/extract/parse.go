package extract

import (
	"regexp"
	"strings"

	"github.com/stephansanders/citation-overlap/internal/types"
)

// asciiPunct is the character set stripped during normalization.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// stripPunct removes ASCII punctuation from a string.
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(asciiPunct, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeName strips punctuation from an author name and replaces
// spaces with underscores, so multi-part surnames stay one token.
func normalizeName(s string) string {
	return strings.ReplaceAll(stripPunct(s), " ", "_")
}

// titleSignature derives the canonical title key: the first seven
// lowercase punctuation-stripped words joined by "_", or the "."
// sentinel for a missing title.
func titleSignature(title string) string {
	if title == "" {
		return types.NoKey
	}
	words := strings.Fields(stripPunct(strings.ToLower(title)))
	if len(words) > 7 {
		words = words[:7]
	}
	if len(words) == 0 {
		return types.NoKey
	}
	return strings.Join(words, "_")
}

var digitRun = regexp.MustCompile(`\d+`)

// journalSignature derives the canonical journal key: the name up to
// its first digit run, lowercased and punctuation-stripped, then the
// first three letters of each word concatenated. Empty when the row has
// no journal.
func journalSignature(journal string) string {
	if journal == "" {
		return ""
	}
	name := journal
	if loc := digitRun.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	var b strings.Builder
	for _, word := range strings.Fields(stripPunct(strings.ToLower(name))) {
		if len(word) > 3 {
			word = word[:3]
		}
		b.WriteString(word)
	}
	return b.String()
}

// authorSignature derives the canonical author key
// "first|second|last|year" from a raw author-name list. Authors are
// split on ", "; the second slot is only filled when three or more
// authors are present, and absent slots hold the literal "None". A row
// with no authors yields the "." sentinel.
func authorSignature(names, year string) string {
	if names == "" {
		return types.NoKey
	}
	var authors []string
	for _, a := range strings.Split(names, ", ") {
		if a != "" {
			authors = append(authors, a)
		}
	}
	first, second, last := "None", "None", "None"
	if len(authors) >= 1 {
		first = normalizeName(authors[0])
	}
	if len(authors) >= 2 {
		last = normalizeName(authors[len(authors)-1])
	}
	if len(authors) >= 3 {
		second = normalizeName(authors[1])
	}
	return strings.ToLower(first) + "|" + strings.ToLower(second) + "|" +
		strings.ToLower(last) + "|" + year
}

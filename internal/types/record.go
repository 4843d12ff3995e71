package types

import (
	"fmt"
	"strings"
)

// Sentinel literals for missing citation metadata. The overlap engine
// relies on exact equality with these values to exclude uninformative
// keys from indexing, so extractors must emit them verbatim.
const (
	NoPMID = "NoPMID"
	NoKey  = "."
	NoYear = "NoYear"
)

// Record is one citation extracted from one source database. Records are
// created once during extraction and are immutable afterwards.
type Record struct {
	// ID is the source-prefixed, globally unique identifier,
	// e.g. "MED_00001".
	ID string `json:"id"`

	// Source is the tag of the database the record came from,
	// e.g. "Medline".
	Source string `json:"source"`

	// PMID is the PubMed identifier, or NoPMID when the source row
	// carries none.
	PMID string `json:"pmid"`

	// EMID is an optional secondary identifier (e.g. an Embase
	// accession); empty when the source has no such field.
	EMID string `json:"emid,omitempty"`

	// AuthorNames is the author list as it appeared in the source,
	// or NoKey when absent.
	AuthorNames string `json:"author_names"`

	// AuthorKey is the canonical author signature
	// "first|second|last|year" (lowercase, punctuation stripped),
	// or NoKey when the row has no authors.
	AuthorKey string `json:"author_key"`

	// Title is the title as it appeared in the source.
	Title string `json:"title"`

	// TitleKey is the canonical title signature: the first seven
	// lowercase punctuation-stripped title words joined by "_",
	// or NoKey when the row has no title.
	TitleKey string `json:"title_key"`

	// Year is the four-digit publication year, or NoYear.
	Year string `json:"year"`

	// Journal is the journal name as it appeared in the source.
	Journal string `json:"journal"`

	// JournalKey is the canonical journal signature (three-letter word
	// prefixes); empty when the row has no journal.
	JournalKey string `json:"journal_key"`

	// Row holds the original row fields for pass-through into output
	// tables.
	Row []string `json:"row,omitempty"`
}

// Validate checks that the record satisfies the extraction contract the
// overlap engine depends on.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Source == "" {
		return fmt.Errorf("source is required")
	}
	if r.PMID == "" {
		return fmt.Errorf("pmid must be set (use %q when absent)", NoPMID)
	}
	if r.AuthorKey == "" {
		return fmt.Errorf("author_key must be set (use %q when absent)", NoKey)
	}
	if r.AuthorKey != NoKey && strings.Count(r.AuthorKey, "|") != 3 {
		return fmt.Errorf("author_key must have form first|second|last|year (got %q)", r.AuthorKey)
	}
	if r.TitleKey == "" {
		return fmt.Errorf("title_key must be set (use %q when absent)", NoKey)
	}
	if r.Year == "" {
		return fmt.Errorf("year must be set (use %q when absent)", NoYear)
	}
	return nil
}

// SourcePrefix returns the id prefix used for records of the given source
// tag: the first three letters, uppercased.
func SourcePrefix(source string) string {
	if len(source) > 3 {
		source = source[:3]
	}
	return strings.ToUpper(source)
}

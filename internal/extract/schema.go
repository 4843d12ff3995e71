package extract

import (
	"fmt"
	"regexp"
)

// FieldRule describes how one citation field is pulled out of a raw row.
// Exactly one shape must be set:
//
//   - Column: take the named column's cell verbatim.
//   - Column + Pattern: apply the regex to the cell and take its first
//     capture group.
//   - Any: try each alternative in order; the first that yields a value
//     wins.
//   - Join: build the value from compound parts (see JoinStep).
type FieldRule struct {
	Column  string      `yaml:"column,omitempty"`
	Pattern string      `yaml:"pattern,omitempty"`
	Any     []FieldRule `yaml:"any,omitempty"`
	Join    []JoinStep  `yaml:"join,omitempty"`

	re *regexp.Regexp
}

// JoinPart contributes prefix+cell+suffix to a joined value. A part
// whose column is absent or empty contributes nothing on its own, but
// inside a group it vetoes the whole group.
type JoinPart struct {
	Prefix string `yaml:"prefix,omitempty"`
	Column string `yaml:"column"`
	Suffix string `yaml:"suffix,omitempty"`
}

// JoinStep is one segment of a joined value: either a single
// all-or-nothing group of parts, or a prioritized list of such groups
// where the first group whose columns are all present wins.
type JoinStep struct {
	Parts []JoinPart   `yaml:"parts,omitempty"`
	Any   [][]JoinPart `yaml:"any,omitempty"`
}

// YearSearch scans one column with a sequence of regex patterns; the
// first pattern that matches yields the year via its capture group.
type YearSearch struct {
	Column   string   `yaml:"column"`
	Patterns []string `yaml:"patterns"`

	res []*regexp.Regexp
}

// YearRule extracts the publication year either from a dedicated column
// or by searching free-text columns. Exactly one of Column and Search
// must be set.
type YearRule struct {
	Column string       `yaml:"column,omitempty"`
	Search []YearSearch `yaml:"search,omitempty"`
}

// Schema is one source's declarative extraction definition, validated
// once at load time so rule application never fails at runtime.
type Schema struct {
	// Source is the tag records of this source carry, e.g. "Medline".
	Source string `yaml:"source"`

	PMID    FieldRule  `yaml:"pmid"`
	EMID    *FieldRule `yaml:"emid,omitempty"`
	Authors FieldRule  `yaml:"authors"`
	Title   FieldRule  `yaml:"title"`
	Journal FieldRule  `yaml:"journal"`
	Year    YearRule   `yaml:"year"`
}

func (r *FieldRule) validate(field string) error {
	shapes := 0
	if r.Column != "" {
		shapes++
	}
	if len(r.Any) > 0 {
		shapes++
	}
	if len(r.Join) > 0 {
		shapes++
	}
	if shapes != 1 {
		return fmt.Errorf("%s: rule must set exactly one of column, any, join", field)
	}
	if r.Pattern != "" {
		if r.Column == "" {
			return fmt.Errorf("%s: pattern requires a column", field)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid pattern: %w", field, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("%s: pattern %q needs a capture group", field, r.Pattern)
		}
		r.re = re
	}
	for i := range r.Any {
		if err := r.Any[i].validate(fmt.Sprintf("%s.any[%d]", field, i)); err != nil {
			return err
		}
	}
	for i, step := range r.Join {
		if (len(step.Parts) > 0) == (len(step.Any) > 0) {
			return fmt.Errorf("%s.join[%d]: step must set exactly one of parts, any", field, i)
		}
		groups := step.Any
		if len(step.Parts) > 0 {
			groups = [][]JoinPart{step.Parts}
		}
		for _, group := range groups {
			for j, part := range group {
				if part.Column == "" {
					return fmt.Errorf("%s.join[%d] part %d: column is required", field, i, j)
				}
			}
		}
	}
	return nil
}

func (y *YearRule) validate() error {
	if (y.Column != "") == (len(y.Search) > 0) {
		return fmt.Errorf("year: rule must set exactly one of column, search")
	}
	for i := range y.Search {
		s := &y.Search[i]
		if s.Column == "" {
			return fmt.Errorf("year.search[%d]: column is required", i)
		}
		if len(s.Patterns) == 0 {
			return fmt.Errorf("year.search[%d]: at least one pattern is required", i)
		}
		for _, p := range s.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("year.search[%d]: invalid pattern %q: %w", i, p, err)
			}
			if re.NumSubexp() < 1 {
				return fmt.Errorf("year.search[%d]: pattern %q needs a capture group", i, p)
			}
			s.res = append(s.res, re)
		}
	}
	return nil
}

// Validate checks the schema and compiles its regex patterns. Must be
// called (once) before the schema is used; Load does so.
func (s *Schema) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if err := s.PMID.validate("pmid"); err != nil {
		return err
	}
	if s.EMID != nil {
		if err := s.EMID.validate("emid"); err != nil {
			return err
		}
	}
	if err := s.Authors.validate("authors"); err != nil {
		return err
	}
	if err := s.Title.validate("title"); err != nil {
		return err
	}
	if err := s.Journal.validate("journal"); err != nil {
		return err
	}
	return s.Year.validate()
}

// apply resolves the rule against one row, returning "" when nothing
// matched.
func (r *FieldRule) apply(row map[string]string) string {
	switch {
	case len(r.Any) > 0:
		for i := range r.Any {
			if v := r.Any[i].apply(row); v != "" {
				return v
			}
		}
		return ""
	case len(r.Join) > 0:
		return applyJoin(r.Join, row)
	}
	cell := row[r.Column]
	if cell == "" {
		return ""
	}
	if r.re != nil {
		m := r.re.FindStringSubmatch(cell)
		if m == nil {
			return ""
		}
		return m[1]
	}
	return cell
}

func applyJoin(steps []JoinStep, row map[string]string) string {
	var out string
	for _, step := range steps {
		groups := step.Any
		if len(step.Parts) > 0 {
			groups = [][]JoinPart{step.Parts}
		}
		for _, group := range groups {
			joined, ok := joinGroup(group, row)
			if ok {
				out += joined
				break
			}
		}
	}
	return out
}

// joinGroup renders one all-or-nothing group: every column must be
// present and non-empty or the group yields nothing.
func joinGroup(group []JoinPart, row map[string]string) (string, bool) {
	var out string
	for _, part := range group {
		cell := row[part.Column]
		if cell == "" {
			return "", false
		}
		out += part.Prefix + cell + part.Suffix
	}
	return out, true
}

// apply resolves the year rule against one row, returning "" when no
// year was found.
func (y *YearRule) apply(row map[string]string) string {
	if y.Column != "" {
		return row[y.Column]
	}
	for _, s := range y.Search {
		cell := row[s.Column]
		if cell == "" {
			continue
		}
		for _, re := range s.res {
			if m := re.FindStringSubmatch(cell); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

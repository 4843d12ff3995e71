package types

import "testing"

func TestRecordValidate(t *testing.T) {
	valid := func() *Record {
		return &Record{
			ID:        "MED_00001",
			Source:    "Medline",
			PMID:      NoPMID,
			AuthorKey: "smith|none|jones|2019",
			TitleKey:  "a_b_c",
			Year:      "2019",
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing id", func(r *Record) { r.ID = "" }},
		{"missing source", func(r *Record) { r.Source = "" }},
		{"empty pmid", func(r *Record) { r.PMID = "" }},
		{"empty author key", func(r *Record) { r.AuthorKey = "" }},
		{"malformed author key", func(r *Record) { r.AuthorKey = "smith|2019" }},
		{"empty title key", func(r *Record) { r.TitleKey = "" }},
		{"empty year", func(r *Record) { r.Year = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			if err := r.Validate(); err == nil {
				t.Errorf("invalid record accepted")
			}
		})
	}

	sentinel := valid()
	sentinel.AuthorKey = NoKey
	if err := sentinel.Validate(); err != nil {
		t.Errorf("sentinel author key rejected: %v", err)
	}
}

func TestSourcePrefix(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"Medline", "MED"},
		{"Embase", "EMB"},
		{"sc", "SC"},
		{"scopus", "SCO"},
	}
	for _, tt := range tests {
		if got := SourcePrefix(tt.source); got != tt.want {
			t.Errorf("SourcePrefix(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestTableAppendAndColumn(t *testing.T) {
	table := NewTable([]string{"A", "B"})
	if err := table.Append([]string{"1", "2"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := table.Append([]string{"1"}); err == nil {
		t.Errorf("short row accepted")
	}
	if table.Column("B") != 1 || table.Column("missing") != -1 {
		t.Errorf("Column lookup wrong")
	}
	recs := table.Records()
	if len(recs) != 1 || recs[0]["A"] != "1" {
		t.Errorf("Records() = %v", recs)
	}
}

package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stephansanders/citation-overlap/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.csv", "Title,Year\n\"One, with comma\",2019\nTwo,2020\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "Title" {
		t.Errorf("columns = %v", table.Columns)
	}
	if table.Len() != 2 {
		t.Fatalf("got %d rows, want 2", table.Len())
	}
	if table.Rows[0][0] != "One, with comma" {
		t.Errorf("quoted cell = %q", table.Rows[0][0])
	}
}

func TestReadTSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.tsv", "Title\tYear\nOne\t2019\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(table.Columns) != 2 {
		t.Errorf("columns = %v", table.Columns)
	}
}

func TestReadFallsBackToOppositeDelimiter(t *testing.T) {
	// Tab-delimited content in a misnamed .csv file.
	path := writeFile(t, t.TempDir(), "misnamed.csv", "Title\tYear\nOne\t2019\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[1] != "Year" {
		t.Errorf("fallback not applied, columns = %v", table.Columns)
	}
}

func TestReadPadsShortRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.csv", "A,B,C\n1,2\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(table.Rows[0]) != 3 || table.Rows[0][2] != "" {
		t.Errorf("short row not padded: %v", table.Rows[0])
	}
}

func TestReadMergedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Title,Year\nOne,2019\n")
	// Second file has the columns in a different order.
	writeFile(t, dir, "b.csv", "Year,Title\n2020,Two\n")

	table, err := ReadMerged(dir)
	if err != nil {
		t.Fatalf("ReadMerged() error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("got %d rows, want 2", table.Len())
	}
	if table.Rows[1][0] != "Two" || table.Rows[1][1] != "2020" {
		t.Errorf("merged row not remapped to the first header: %v", table.Rows[1])
	}
}

func TestReadMergedSingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "one.csv", "A\n1\n")
	table, err := ReadMerged(path)
	if err != nil {
		t.Fatalf("ReadMerged() error: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("got %d rows, want 1", table.Len())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	table := types.NewTable([]string{"Title", "Year"})
	if err := table.Append([]string{"One, with comma", "2019"}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"out.csv", "out.tsv"} {
		path := filepath.Join(t.TempDir(), name)
		if err := Write(table, path); err != nil {
			t.Fatalf("Write(%s) error: %v", name, err)
		}
		back, err := Read(path)
		if err != nil {
			t.Fatalf("Read(%s) error: %v", name, err)
		}
		if back.Len() != 1 || back.Rows[0][0] != "One, with comma" {
			t.Errorf("%s round trip lost data: %v", name, back.Rows)
		}
	}
}

func TestReadString(t *testing.T) {
	table, err := ReadString("A,B\n1,2\n", ',')
	if err != nil {
		t.Fatalf("ReadString() error: %v", err)
	}
	if table.Len() != 1 || table.Rows[0][1] != "2" {
		t.Errorf("rows = %v", table.Rows)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Errorf("Read of missing file succeeded")
	}
	path := writeFile(t, t.TempDir(), "empty.csv", "")
	if _, err := Read(path); err == nil {
		t.Errorf("Read of empty file succeeded")
	}
}

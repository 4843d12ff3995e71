// Package sqlite stores resolve results in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stephansanders/citation-overlap/internal/overlap"
)

// SQLiteStore implements storage.Store on a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and initializes
// the schema.
func New(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveResult writes one run and its overlaps table in a single
// transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *overlap.Result) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid result: %w", err)
	}
	table := result.Table

	colIdx := func(name string) (int, error) {
		i := table.Column(name)
		if i < 0 {
			return 0, fmt.Errorf("result table has no %s column", name)
		}
		return i, nil
	}
	paperCol, err := colIdx("Paper_ID")
	if err != nil {
		return err
	}
	pmidCol, err := colIdx("PMID")
	if err != nil {
		return err
	}
	groupCol, err := colIdx("Group")
	if err != nil {
		return err
	}
	subCol, err := colIdx("Subgrp")
	if err != nil {
		return err
	}
	sizeCol, err := colIdx("Grp_Size")
	if err != nil {
		return err
	}
	mainCol, err := colIdx("MainRecord")
	if err != nil {
		return err
	}

	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, sources, records, groups, subgroups, ungrouped, duration_ms, columns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Stats.RunID, result.Stats.Sources, result.Stats.Records,
		result.Stats.Groups, result.Stats.Subgroups, result.Stats.Ungrouped,
		result.Stats.Duration.Milliseconds(), string(columns))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO overlaps (run_id, position, paper_id, pmid, grp, subgrp, grp_size, main_record, cells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		size, err := strconv.Atoi(row[sizeCol])
		if err != nil {
			return fmt.Errorf("row %d has malformed Grp_Size %q: %w", i, row[sizeCol], err)
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, result.Stats.RunID, i,
			row[paperCol], row[pmidCol], row[groupCol], row[subCol],
			size, row[mainCol], string(cells)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// RunCount reports how many runs the store holds.
func (s *SQLiteStore) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package sqlite

// schema creates the export tables. Runs are keyed by the engine's run
// id; overlap rows keep their sorted position and the full cell list as
// JSON so any column set round-trips.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	sources    INTEGER NOT NULL,
	records    INTEGER NOT NULL,
	groups     INTEGER NOT NULL,
	subgroups  INTEGER NOT NULL,
	ungrouped  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	columns    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS overlaps (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	paper_id   TEXT NOT NULL,
	pmid       TEXT NOT NULL,
	grp        TEXT NOT NULL,
	subgrp     TEXT NOT NULL,
	grp_size   INTEGER NOT NULL,
	main_record TEXT NOT NULL,
	cells      TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_overlaps_group ON overlaps(run_id, grp, subgrp);
CREATE INDEX IF NOT EXISTS idx_overlaps_paper ON overlaps(run_id, paper_id);
`

package store

import (
	"database/sql"
	"fmt"
)

// TableStatus is one table's outcome from schema reconciliation.
type TableStatus string

const (
	TableCreated      TableStatus = "created"
	TableInSync       TableStatus = "in-sync"
	TableAddedColumns TableStatus = "added-columns"
	TableRecreated    TableStatus = "recreated"
)

// MigrationReport is the per-table schema reconciliation outcome returned by
// Store.Migrate (spec §4.1). Callers in this module check only the error.
type MigrationReport struct {
	Tables map[string]TableStatus
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	modified_at DATETIME NOT NULL,
	is_outdated INTEGER NOT NULL DEFAULT 0,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	is_ignored INTEGER NOT NULL DEFAULT 0,
	analyzed_at DATETIME
);

CREATE TABLE IF NOT EXISTS file_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	is_external INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_file_history_file ON file_history(file_id);

CREATE TABLE IF NOT EXISTS variables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	scope TEXT NOT NULL,
	owning_file INTEGER REFERENCES files(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_variables_global ON variables(name, scope) WHERE owning_file IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_variables_private ON variables(name, scope, owning_file) WHERE owning_file IS NOT NULL;

CREATE TABLE IF NOT EXISTS refs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	variable_id INTEGER NOT NULL REFERENCES variables(id) ON DELETE CASCADE,
	file TEXT NOT NULL,
	source_file TEXT NOT NULL,
	line INTEGER NOT NULL,
	column INTEGER NOT NULL,
	offset INTEGER NOT NULL,
	length INTEGER NOT NULL,
	access TEXT NOT NULL,
	is_declaration INTEGER NOT NULL DEFAULT 0,
	is_magic_variable INTEGER NOT NULL DEFAULT 0,
	types INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_refs_variable ON refs(variable_id);
CREATE INDEX IF NOT EXISTS idx_refs_file_line ON refs(file, line);
CREATE INDEX IF NOT EXISTS idx_refs_source_file ON refs(source_file);

CREATE TABLE IF NOT EXISTS diagnostics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file TEXT NOT NULL,
	source_file TEXT NOT NULL,
	severity TEXT NOT NULL,
	code TEXT NOT NULL,
	message TEXT NOT NULL,
	excerpt TEXT NOT NULL,
	line INTEGER NOT NULL,
	column INTEGER NOT NULL,
	offset INTEGER NOT NULL,
	length INTEGER NOT NULL,
	is_suppressed INTEGER NOT NULL DEFAULT 0,
	suppressed_by_code TEXT
);
CREATE INDEX IF NOT EXISTS idx_diagnostics_source_file ON diagnostics(source_file);

CREATE TABLE IF NOT EXISTS file_includes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	included_file TEXT NOT NULL,
	including_file TEXT NOT NULL,
	source_file TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_includes_included ON file_includes(included_file);
CREATE INDEX IF NOT EXISTS idx_file_includes_source ON file_includes(source_file);

CREATE TABLE IF NOT EXISTS hovers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	start_col INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	end_col INTEGER NOT NULL,
	markup TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hovers_file ON hovers(file);

CREATE TABLE IF NOT EXISTS code_actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file TEXT NOT NULL,
	kind TEXT NOT NULL,
	ident TEXT NOT NULL,
	title TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_code_actions_file ON code_actions(file);

CREATE TABLE IF NOT EXISTS code_action_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code_action_id INTEGER NOT NULL REFERENCES code_actions(id) ON DELETE CASCADE,
	operation TEXT NOT NULL,
	path TEXT NOT NULL,
	old_path TEXT,
	start_line INTEGER,
	start_column INTEGER,
	end_line INTEGER,
	end_column INTEGER,
	new_content TEXT
);
CREATE INDEX IF NOT EXISTS idx_code_action_changes_action ON code_action_changes(code_action_id);
`

// tableNames lists the tables initSchema reconciles, in dependency order
// (parents before children, matching the ON DELETE CASCADE chain above).
var tableNames = []string{
	"files", "file_history", "variables", "refs", "diagnostics",
	"file_includes", "hovers", "code_actions", "code_action_changes",
}

// initSchema creates or reconciles the schema, returning a per-table
// MigrationReport. Column reconciliation beyond CREATE TABLE IF NOT EXISTS
// is not required today (no column has ever been added to an existing
// table), so every table currently reports "created" or "in-sync"; the
// added-columns/recreated statuses exist for the ALTER TABLE path a future
// schema revision will need.
func initSchema(db *sql.DB) (*MigrationReport, error) {
	existing := map[string]bool{}

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("store: list existing tables: %w", err)
	}

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan table name: %w", err)
		}

		existing[name] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate table names: %w", err)
	}

	rows.Close()

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	report := &MigrationReport{Tables: make(map[string]TableStatus, len(tableNames))}

	for _, name := range tableNames {
		if existing[name] {
			report.Tables[name] = TableInSync
		} else {
			report.Tables[name] = TableCreated
		}
	}

	return report, nil
}

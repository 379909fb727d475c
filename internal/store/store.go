package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the workspace's SQLite-backed index. One Store exists per
// open workspace.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the store at <workspaceDir>/.vscode/sqfvm-lsp/sqlite3.db,
// grounded on the teacher's WAL-mode DSN pattern
// (internal/northstar/store.go's NewStore).
func Open(workspaceDir string) (*Store, error) {
	dir := filepath.Join(workspaceDir, ".vscode", "sqfvm-lsp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "sqlite3.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}

	if _, err := initSchema(db); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// Migrate runs schema reconciliation and returns its report. Open already
// calls this once; callers that want the report (the orchestrator, at
// startup) call Migrate explicitly right after Open.
func (s *Store) Migrate() (*MigrationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return initSchema(s.db)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB exposes the underlying *sql.DB for C9, which needs raw *sql.Tx control
// to commit an entire per-file analysis atomically.
func (s *Store) DB() *sql.DB {
	return s.db
}

// UpsertFile inserts or updates a File by its normalized path.
func (s *Store) UpsertFile(f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO files (path, modified_at, is_outdated, is_deleted, is_ignored, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			modified_at = excluded.modified_at,
			is_outdated = excluded.is_outdated,
			is_deleted = excluded.is_deleted,
			is_ignored = excluded.is_ignored,
			analyzed_at = excluded.analyzed_at
	`, f.Path, f.ModifiedAt, f.IsOutdated, f.IsDeleted, f.IsIgnored, nullTime(f.AnalyzedAt))
	if err != nil {
		return fmt.Errorf("store: upsert file %q: %w", f.Path, err)
	}

	if f.ID == 0 {
		id, err := res.LastInsertId()
		if err == nil && id != 0 {
			f.ID = id
		} else {
			return s.fillFileID(f)
		}
	}

	return nil
}

func (s *Store) fillFileID(f *File) error {
	return s.db.QueryRow(`SELECT id FROM files WHERE path = ?`, f.Path).Scan(&f.ID)
}

// FindFileByPath implements spec §4.1's "find file by path".
func (s *Store) FindFileByPath(path string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanFile(s.db.QueryRow(`
		SELECT id, path, modified_at, is_outdated, is_deleted, is_ignored, analyzed_at
		FROM files WHERE path = ?
	`, path))
}

// FindFileByID implements spec §4.1's "find file by id".
func (s *Store) FindFileByID(id int64) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanFile(s.db.QueryRow(`
		SELECT id, path, modified_at, is_outdated, is_deleted, is_ignored, analyzed_at
		FROM files WHERE id = ?
	`, id))
}

func (s *Store) scanFile(row *sql.Row) (*File, error) {
	var f File

	var analyzedAt sql.NullTime

	err := row.Scan(&f.ID, &f.Path, &f.ModifiedAt, &f.IsOutdated, &f.IsDeleted, &f.IsIgnored, &analyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("store: scan file: %w", err)
	}

	if analyzedAt.Valid {
		f.AnalyzedAt = analyzedAt.Time
	}

	return &f, nil
}

// FilesWithFlag implements spec §4.1's "for-each file with flag X". flag
// must be one of "is_outdated", "is_deleted", "is_ignored".
func (s *Store) FilesWithFlag(flag string) ([]*File, error) {
	if flag != "is_outdated" && flag != "is_deleted" && flag != "is_ignored" {
		return nil, fmt.Errorf("store: unknown file flag %q", flag)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, path, modified_at, is_outdated, is_deleted, is_ignored, analyzed_at
		FROM files WHERE %s = 1
	`, flag))
	if err != nil {
		return nil, fmt.Errorf("store: query files by flag %q: %w", flag, err)
	}
	defer rows.Close()

	var out []*File

	for rows.Next() {
		var f File

		var analyzedAt sql.NullTime

		if err := rows.Scan(&f.ID, &f.Path, &f.ModifiedAt, &f.IsOutdated, &f.IsDeleted, &f.IsIgnored, &analyzedAt); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}

		if analyzedAt.Valid {
			f.AnalyzedAt = analyzedAt.Time
		}

		out = append(out, &f)
	}

	return out, rows.Err()
}

// ReferencesOfVariable implements spec §4.1's "references-of-variable".
func (s *Store) ReferencesOfVariable(variableID int64) ([]*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, variable_id, file, source_file, line, column, offset, length,
			access, is_declaration, is_magic_variable, types
		FROM refs WHERE variable_id = ?
		ORDER BY file, line, column
	`, variableID)
	if err != nil {
		return nil, fmt.Errorf("store: query references of variable %d: %w", variableID, err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// ReferencesInRange implements spec §4.1's "references-in-file-at-line-range".
func (s *Store) ReferencesInRange(file string, startLine, endLine int) ([]*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, variable_id, file, source_file, line, column, offset, length,
			access, is_declaration, is_magic_variable, types
		FROM refs WHERE file = ? AND line BETWEEN ? AND ?
		ORDER BY line, column
	`, file, startLine, endLine)
	if err != nil {
		return nil, fmt.Errorf("store: query references in range: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

func scanReferences(rows *sql.Rows) ([]*Reference, error) {
	var out []*Reference

	for rows.Next() {
		var r Reference

		var access string

		if err := rows.Scan(&r.ID, &r.VariableID, &r.File, &r.SourceFile, &r.Line, &r.Column,
			&r.Offset, &r.Length, &access, &r.IsDeclaration, &r.IsMagicVariable, &r.Types); err != nil {
			return nil, fmt.Errorf("store: scan reference: %w", err)
		}

		r.Access = Access(access)
		out = append(out, &r)
	}

	return out, rows.Err()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}

	return t
}

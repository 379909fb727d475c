package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// InsertFileHistory appends a full-text snapshot for fileID (spec §3's
// "append-only" FileHistory lifecycle).
func (s *Store) InsertFileHistory(fh *FileHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO file_history (file_id, content, created_at, is_external)
		VALUES (?, ?, ?, ?)
	`, fh.FileID, fh.Content, fh.CreatedAt, fh.IsExternal)
	if err != nil {
		return fmt.Errorf("store: insert file history: %w", err)
	}

	fh.ID, err = res.LastInsertId()

	return err
}

// LatestFileHistory returns the most recent FileHistory row for fileID, or
// nil if none exists.
func (s *Store) LatestFileHistory(fileID int64) (*FileHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, file_id, content, created_at, is_external
		FROM file_history WHERE file_id = ? ORDER BY created_at DESC, id DESC LIMIT 1
	`, fileID)

	var fh FileHistory

	err := row.Scan(&fh.ID, &fh.FileID, &fh.Content, &fh.CreatedAt, &fh.IsExternal)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("store: scan file history: %w", err)
	}

	return &fh, nil
}

// MarkOutdated sets is_outdated for every File whose path is in paths.
func (s *Store) MarkOutdated(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query, args := inClauseQuery(`UPDATE files SET is_outdated = 1 WHERE path IN (%s)`, paths)
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("store: mark outdated: %w", err)
	}

	return nil
}

// MarkAllOutdated sets is_outdated on every File (spec.md §4.8: path-prefix
// marker changes "mark every file outdated").
func (s *Store) MarkAllOutdated() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE files SET is_outdated = 1`); err != nil {
		return fmt.Errorf("store: mark all outdated: %w", err)
	}

	return nil
}

// MarkDeletedUnderPrefix sets is_deleted on every File whose path is prefix
// or a subpath of prefix (spec.md §4.8: "removed directory: mark every File
// whose path is under it as deleted").
func (s *Store) MarkDeletedUnderPrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`
		UPDATE files SET is_deleted = 1
		WHERE path = ? OR path LIKE ?
	`, prefix, prefix+"/%"); err != nil {
		return fmt.Errorf("store: mark deleted under prefix: %w", err)
	}

	return nil
}

// MarkDeleted sets is_deleted for path.
func (s *Store) MarkDeleted(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE files SET is_deleted = 1 WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: mark deleted: %w", err)
	}

	return nil
}

// AllFilePaths returns every known File's normalized path, for the initial
// scan's stale-row pass.
func (s *Store) AllFilePaths() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("store: list file paths: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan file path: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// IncludingFilesOf returns every distinct SourceFile that recorded a
// FileInclude naming includedFile — the "textually includes this file,
// transitively (one hop)" relation spec.md §4.8 (a) needs, one hop at a
// time; the orchestrator walks it to a fixed point.
func (s *Store) IncludingFilesOf(includedFile string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT source_file FROM file_includes WHERE included_file = ?
	`, includedFile)
	if err != nil {
		return nil, fmt.Errorf("store: query including files: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan including file: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// IncludedFilesOf returns every distinct file that sourceFile's own
// analysis recorded including — the forward half of IncludingFilesOf, used
// by the workspace orchestrator to order a drain pass so a file is analyzed
// after everything it includes (spec.md §5's "a transitive dependent is
// analyzed after its dependency").
func (s *Store) IncludedFilesOf(sourceFile string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT included_file FROM file_includes WHERE source_file = ?
	`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("store: query included files: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan included file: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// GlobalVariablesDeclaredIn returns the IDs of every global Variable with at
// least one Reference whose SourceFile is file — spec.md §4.8 (b)'s "every
// global variable owned-by-analysis-of this file".
func (s *Store) GlobalVariablesDeclaredIn(file string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT v.id
		FROM variables v
		JOIN refs r ON r.variable_id = v.id
		WHERE v.owning_file IS NULL AND r.source_file = ?
	`, file)
	if err != nil {
		return nil, fmt.Errorf("store: query global variables declared in file: %w", err)
	}
	defer rows.Close()

	var out []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan variable id: %w", err)
		}

		out = append(out, id)
	}

	return out, rows.Err()
}

// SourceFilesReferencing returns every distinct SourceFile with at least one
// Reference to variableID — the other half of spec.md §4.8 (b).
func (s *Store) SourceFilesReferencing(variableID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT source_file FROM refs WHERE variable_id = ?
	`, variableID)
	if err != nil {
		return nil, fmt.Errorf("store: query source files referencing variable: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan source file: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// VariableByID returns the Variable identified by id, or nil if none exists.
func (s *Store) VariableByID(id int64) (*Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT id, name, scope, owning_file FROM variables WHERE id = ?`, id)

	var v Variable

	err := row.Scan(&v.ID, &v.Name, &v.Scope, &v.OwningFile)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("store: scan variable: %w", err)
	}

	return &v, nil
}

// ReferencesInFile returns every Reference recorded against file, ordered by
// position — the editor-query surface for inlay hints, which need every
// reference's rendered type union rather than just those touching one
// variable (ReferencesOfVariable) or one line range (ReferencesInRange).
func (s *Store) ReferencesInFile(file string) ([]*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, variable_id, file, source_file, line, column, offset, length,
			access, is_declaration, is_magic_variable, types
		FROM refs WHERE file = ?
		ORDER BY line, column
	`, file)
	if err != nil {
		return nil, fmt.Errorf("store: query references in file: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// DiagnosticsInFile returns every non-suppressed Diagnostic recorded against
// file, for republishing to the editor (spec.md §4.8's "Analysis pass").
func (s *Store) DiagnosticsInFile(file string) ([]*Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, file, source_file, severity, code, message, excerpt, line, column,
			offset, length, is_suppressed, suppressed_by_code
		FROM diagnostics WHERE file = ? AND is_suppressed = 0
		ORDER BY line, column
	`, file)
	if err != nil {
		return nil, fmt.Errorf("store: query diagnostics in file: %w", err)
	}
	defer rows.Close()

	var out []*Diagnostic

	for rows.Next() {
		var d Diagnostic

		var severity string

		if err := rows.Scan(&d.ID, &d.File, &d.SourceFile, &severity, &d.Code, &d.Message, &d.Excerpt,
			&d.Line, &d.Column, &d.Offset, &d.Length, &d.IsSuppressed, &d.SuppressedByCode); err != nil {
			return nil, fmt.Errorf("store: scan diagnostic: %w", err)
		}

		d.Severity = Severity(severity)
		out = append(out, &d)
	}

	return out, rows.Err()
}

// HoversInFile returns every Hover recorded against file.
func (s *Store) HoversInFile(file string) ([]*Hover, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, file, start_line, start_col, end_line, end_col, markup
		FROM hovers WHERE file = ?
		ORDER BY start_line, start_col
	`, file)
	if err != nil {
		return nil, fmt.Errorf("store: query hovers in file: %w", err)
	}
	defer rows.Close()

	var out []*Hover

	for rows.Next() {
		var h Hover
		if err := rows.Scan(&h.ID, &h.File, &h.StartLine, &h.StartCol, &h.EndLine, &h.EndCol, &h.Markup); err != nil {
			return nil, fmt.Errorf("store: scan hover: %w", err)
		}

		out = append(out, &h)
	}

	return out, rows.Err()
}

// CodeActionsInFile returns every CodeAction recorded against file, each
// with its Changes populated.
func (s *Store) CodeActionsInFile(file string) ([]*CodeAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, file, kind, ident, title FROM code_actions WHERE file = ? ORDER BY id
	`, file)
	if err != nil {
		return nil, fmt.Errorf("store: query code actions in file: %w", err)
	}
	defer rows.Close()

	var out []*CodeAction

	for rows.Next() {
		var ca CodeAction

		var kind string

		if err := rows.Scan(&ca.ID, &ca.File, &kind, &ca.Ident, &ca.Title); err != nil {
			return nil, fmt.Errorf("store: scan code action: %w", err)
		}

		ca.Kind = CodeActionKind(kind)
		out = append(out, &ca)
	}

	return out, rows.Err()
}

// CodeActionChangesOf returns the CodeActionChange rows belonging to
// codeActionID.
func (s *Store) CodeActionChangesOf(codeActionID int64) ([]*CodeActionChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.codeActionChanges(codeActionID)
}

func (s *Store) codeActionChanges(codeActionID int64) ([]*CodeActionChange, error) {
	rows, err := s.db.Query(`
		SELECT id, code_action_id, operation, path, old_path, start_line, start_column,
			end_line, end_column, new_content
		FROM code_action_changes WHERE code_action_id = ? ORDER BY id
	`, codeActionID)
	if err != nil {
		return nil, fmt.Errorf("store: query code action changes: %w", err)
	}
	defer rows.Close()

	var out []*CodeActionChange

	for rows.Next() {
		var cac CodeActionChange

		var operation string

		if err := rows.Scan(&cac.ID, &cac.CodeActionID, &operation, &cac.Path, &cac.OldPath,
			&cac.StartLine, &cac.StartColumn, &cac.EndLine, &cac.EndColumn, &cac.NewContent); err != nil {
			return nil, fmt.Errorf("store: scan code action change: %w", err)
		}

		cac.Operation = ChangeOp(operation)
		out = append(out, &cac)
	}

	return out, rows.Err()
}

func inClauseQuery(format string, values []string) (string, []interface{}) {
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))

	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}

	return fmt.Sprintf(format, strings.Join(placeholders, ",")), args
}

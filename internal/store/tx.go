package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// WriteTx wraps one *sql.Tx for a single file analysis's atomic commit
// (spec §4.1: "all multi-row mutations used by C9 execute under a single
// transaction with rollback on any failure"). C9 drives this directly; no
// other caller opens a WriteTx.
type WriteTx struct {
	tx *sql.Tx
}

// BeginWrite opens a new write transaction.
func (s *Store) BeginWrite() (*WriteTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin transaction: %w", err)
	}

	return &WriteTx{tx: tx}, nil
}

// Commit commits the transaction.
func (w *WriteTx) Commit() error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}

	return nil
}

// Rollback rolls back the transaction. Safe to call after a failed Commit.
func (w *WriteTx) Rollback() error {
	if err := w.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("store: rollback transaction: %w", err)
	}

	return nil
}

// ClearSourceFileArtifacts deletes every Reference, Diagnostic, FileInclude,
// Hover, and CodeAction (cascading to CodeActionChange) whose source_file
// is sourceFile. C9 calls this first so a re-analysis starts from a clean
// slate before re-inserting (spec §4.7's "replaced wholesale per analysis").
func (w *WriteTx) ClearSourceFileArtifacts(sourceFile string) error {
	stmts := []string{
		`DELETE FROM refs WHERE source_file = ?`,
		`DELETE FROM diagnostics WHERE source_file = ?`,
		`DELETE FROM file_includes WHERE source_file = ?`,
	}

	for _, stmt := range stmts {
		if _, err := w.tx.Exec(stmt, sourceFile); err != nil {
			return fmt.Errorf("store: clear source file artifacts: %w", err)
		}
	}

	if _, err := w.tx.Exec(`DELETE FROM hovers WHERE file = ?`, sourceFile); err != nil {
		return fmt.Errorf("store: clear hovers: %w", err)
	}

	if _, err := w.tx.Exec(`DELETE FROM code_actions WHERE file = ?`, sourceFile); err != nil {
		return fmt.Errorf("store: clear code actions: %w", err)
	}

	return nil
}

// UpsertVariable creates v if it does not yet exist for (name, scope[,
// owning_file]), otherwise leaves the existing row untouched, and fills in
// v.ID.
func (w *WriteTx) UpsertVariable(v *Variable) error {
	var row *sql.Row

	if v.OwningFile == nil {
		row = w.tx.QueryRow(`SELECT id FROM variables WHERE name = ? AND scope = ? AND owning_file IS NULL`, v.Name, v.Scope)
	} else {
		row = w.tx.QueryRow(`SELECT id FROM variables WHERE name = ? AND scope = ? AND owning_file = ?`, v.Name, v.Scope, *v.OwningFile)
	}

	var id int64

	err := row.Scan(&id)
	if err == nil {
		v.ID = id

		return nil
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("store: lookup variable: %w", err)
	}

	res, err := w.tx.Exec(`INSERT INTO variables (name, scope, owning_file) VALUES (?, ?, ?)`, v.Name, v.Scope, v.OwningFile)
	if err != nil {
		return fmt.Errorf("store: insert variable: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: read inserted variable id: %w", err)
	}

	v.ID = id

	return nil
}

// DeleteStalePrivates removes every private Variable owned by fileID whose
// id is not in keep — the commit coordinator's step 2 (spec §4.7: "Delete
// all existing in-file privates that no visitor emitted"). Cascades to
// their References via the schema's ON DELETE CASCADE.
func (w *WriteTx) DeleteStalePrivates(fileID int64, keep []int64) error {
	if len(keep) == 0 {
		_, err := w.tx.Exec(`DELETE FROM variables WHERE owning_file = ?`, fileID)
		if err != nil {
			return fmt.Errorf("store: delete stale privates: %w", err)
		}

		return nil
	}

	placeholders := make([]string, len(keep))
	args := make([]interface{}, 0, len(keep)+1)
	args = append(args, fileID)

	for i, id := range keep {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`DELETE FROM variables WHERE owning_file = ? AND id NOT IN (%s)`, strings.Join(placeholders, ","))

	if _, err := w.tx.Exec(query, args...); err != nil {
		return fmt.Errorf("store: delete stale privates: %w", err)
	}

	return nil
}

// DeleteOrphanedVariables removes every Variable with zero remaining
// References, matching spec §3's Variable lifecycle ("deleted when its
// owning scope no longer contains any reference to it after a commit").
func (w *WriteTx) DeleteOrphanedVariables() error {
	_, err := w.tx.Exec(`
		DELETE FROM variables
		WHERE id NOT IN (SELECT DISTINCT variable_id FROM refs)
	`)
	if err != nil {
		return fmt.Errorf("store: delete orphaned variables: %w", err)
	}

	return nil
}

// InsertReference inserts r, filling in r.ID.
func (w *WriteTx) InsertReference(r *Reference) error {
	res, err := w.tx.Exec(`
		INSERT INTO refs (variable_id, file, source_file, line, column, offset, length,
			access, is_declaration, is_magic_variable, types)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.VariableID, r.File, r.SourceFile, r.Line, r.Column, r.Offset, r.Length,
		string(r.Access), r.IsDeclaration, r.IsMagicVariable, r.Types)
	if err != nil {
		return fmt.Errorf("store: insert reference: %w", err)
	}

	r.ID, err = res.LastInsertId()

	return err
}

// InsertDiagnostic inserts d, filling in d.ID.
func (w *WriteTx) InsertDiagnostic(d *Diagnostic) error {
	res, err := w.tx.Exec(`
		INSERT INTO diagnostics (file, source_file, severity, code, message, excerpt,
			line, column, offset, length, is_suppressed, suppressed_by_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.File, d.SourceFile, string(d.Severity), d.Code, d.Message, d.Excerpt,
		d.Line, d.Column, d.Offset, d.Length, d.IsSuppressed, d.SuppressedByCode)
	if err != nil {
		return fmt.Errorf("store: insert diagnostic: %w", err)
	}

	d.ID, err = res.LastInsertId()

	return err
}

// FileExists reports whether path has a File row, evaluated inside w's
// transaction so it sees any File upserted earlier in the same commit (spec
// §8 property 3: every FileInclude's three paths must exist in Files).
func (w *WriteTx) FileExists(path string) (bool, error) {
	var id int64

	err := w.tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("store: check file existence: %w", err)
	}

	return true, nil
}

// InsertFileInclude inserts fi, filling in fi.ID.
func (w *WriteTx) InsertFileInclude(fi *FileInclude) error {
	res, err := w.tx.Exec(`
		INSERT INTO file_includes (included_file, including_file, source_file)
		VALUES (?, ?, ?)
	`, fi.IncludedFile, fi.IncludingFile, fi.SourceFile)
	if err != nil {
		return fmt.Errorf("store: insert file include: %w", err)
	}

	fi.ID, err = res.LastInsertId()

	return err
}

// InsertHover inserts h, filling in h.ID.
func (w *WriteTx) InsertHover(h *Hover) error {
	res, err := w.tx.Exec(`
		INSERT INTO hovers (file, start_line, start_col, end_line, end_col, markup)
		VALUES (?, ?, ?, ?, ?, ?)
	`, h.File, h.StartLine, h.StartCol, h.EndLine, h.EndCol, h.Markup)
	if err != nil {
		return fmt.Errorf("store: insert hover: %w", err)
	}

	h.ID, err = res.LastInsertId()

	return err
}

// InsertCodeAction inserts ca, filling in ca.ID.
func (w *WriteTx) InsertCodeAction(ca *CodeAction) error {
	res, err := w.tx.Exec(`
		INSERT INTO code_actions (file, kind, ident, title)
		VALUES (?, ?, ?, ?)
	`, ca.File, string(ca.Kind), ca.Ident, ca.Title)
	if err != nil {
		return fmt.Errorf("store: insert code action: %w", err)
	}

	ca.ID, err = res.LastInsertId()

	return err
}

// InsertCodeActionChange inserts cac, filling in cac.ID.
func (w *WriteTx) InsertCodeActionChange(cac *CodeActionChange) error {
	res, err := w.tx.Exec(`
		INSERT INTO code_action_changes (code_action_id, operation, path, old_path,
			start_line, start_column, end_line, end_column, new_content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cac.CodeActionID, string(cac.Operation), cac.Path, cac.OldPath,
		cac.StartLine, cac.StartColumn, cac.EndLine, cac.EndColumn, cac.NewContent)
	if err != nil {
		return fmt.Errorf("store: insert code action change: %w", err)
	}

	cac.ID, err = res.LastInsertId()

	return err
}

// UpsertFileTx is UpsertFile run inside w's transaction, for C9's
// step that updates the File row (is_outdated=false, analyzed_at=now)
// as part of the same atomic commit as the rest of the analysis.
func (w *WriteTx) UpsertFileTx(f *File) error {
	res, err := w.tx.Exec(`
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
		return fmt.Errorf("store: upsert file in tx: %w", err)
	}

	if f.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: read inserted file id: %w", err)
		}

		f.ID = id
	}

	return nil
}

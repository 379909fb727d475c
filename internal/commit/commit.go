// Package commit implements the commit coordinator (spec §4.7, C9): the
// nine-step transaction that merges one file's visitor output with the
// persisted index (internal/store, C1) atomically. On any step's failure
// the whole transaction rolls back and a synthetic VV-ERR diagnostic is
// recorded outside it (spec §7's *store error* row), in its own,
// independent transaction so a broken commit never prevents the crash
// diagnostic itself from landing (SPEC_FULL §7).
package commit

import (
	"fmt"
	"time"

	"github.com/sqfvm/language-server/internal/analyzer"
	"github.com/sqfvm/language-server/internal/sqf"
	"github.com/sqfvm/language-server/internal/store"
)

// Coordinator drives the per-file atomic commit. It holds no state of its
// own; one zero value is reused across every analysis in a workspace.
type Coordinator struct{}

// New constructs a Coordinator.
func New() *Coordinator { return &Coordinator{} }

// Commit merges res into st under one transaction for file (whose ID must
// already be set — the caller upserts/looks up the File row before
// calling). On success file.IsOutdated is cleared and file.AnalyzedAt is
// stamped; on failure the transaction rolls back and a VV-ERR Diagnostic is
// recorded against file in a second, independent transaction.
func (c *Coordinator) Commit(st *store.Store, file *store.File, res analyzer.Result) error {
	if err := c.commitTx(st, file, res); err != nil {
		if recErr := recordCrash(st, file, err); recErr != nil {
			return fmt.Errorf("commit: %w (and failed to record VV-ERR: %v)", err, recErr)
		}

		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (c *Coordinator) commitTx(st *store.Store, file *store.File, res analyzer.Result) (err error) {
	tx, err := st.BeginWrite()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	localToDB, err := reconcileVariables(tx, file, res.Variables)
	if err != nil {
		return fmt.Errorf("reconcile variables: %w", err)
	}

	if err = tx.ClearSourceFileArtifacts(file.Path); err != nil {
		return fmt.Errorf("clear source file artifacts: %w", err)
	}

	if err = insertReferences(tx, file, res.References, localToDB); err != nil {
		return fmt.Errorf("insert references: %w", err)
	}

	if err = insertDiagnostics(tx, file, res); err != nil {
		return fmt.Errorf("insert diagnostics: %w", err)
	}

	if err = insertIncludes(tx, res.Includes); err != nil {
		return fmt.Errorf("insert file includes: %w", err)
	}

	if err = insertHovers(tx, file, res.Hovers); err != nil {
		return fmt.Errorf("insert hovers: %w", err)
	}

	if err = insertCodeActions(tx, file, res.CodeActions); err != nil {
		return fmt.Errorf("insert code actions: %w", err)
	}

	if err = tx.DeleteOrphanedVariables(); err != nil {
		return fmt.Errorf("delete orphaned variables: %w", err)
	}

	file.IsOutdated = false
	file.AnalyzedAt = time.Now()

	if err = tx.UpsertFileTx(file); err != nil {
		return fmt.Errorf("clear outdated flag: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

// reconcileVariables implements spec §4.7 steps 1-2: upsert every
// visitor-local Variable (reusing an existing row by (name, scope[,
// owning_file]) where one exists), build the localID->dbID map step 4
// needs, then delete every in-file private the visitor did not emit this
// round.
func reconcileVariables(tx *store.WriteTx, file *store.File, vars []sqf.Variable) (map[int]int64, error) {
	localToDB := make(map[int]int64, len(vars))

	var keptPrivateIDs []int64

	for _, lv := range vars {
		sv := &store.Variable{Name: lv.Name, Scope: lv.Scope}
		if !lv.IsGlobal {
			sv.OwningFile = &file.ID
		}

		if err := tx.UpsertVariable(sv); err != nil {
			return nil, err
		}

		localToDB[lv.LocalID] = sv.ID

		if !lv.IsGlobal {
			keptPrivateIDs = append(keptPrivateIDs, sv.ID)
		}
	}

	if err := tx.DeleteStalePrivates(file.ID, keptPrivateIDs); err != nil {
		return nil, err
	}

	return localToDB, nil
}

// insertReferences implements spec §4.7 step 4: re-insert visitor
// references with `variable` rewritten through localToDB.
func insertReferences(tx *store.WriteTx, file *store.File, refs []sqf.Reference, localToDB map[int]int64) error {
	for _, r := range refs {
		dbID, ok := localToDB[r.VariableLocalID]
		if !ok {
			return fmt.Errorf("reference to unresolved local variable id %d", r.VariableLocalID)
		}

		sr := &store.Reference{
			VariableID:      dbID,
			File:            file.Path,
			SourceFile:      file.Path,
			Line:            r.Line,
			Column:          r.Column,
			Offset:          r.Offset,
			Length:          r.Length,
			Access:          r.Access,
			IsDeclaration:   r.IsDeclaration,
			IsMagicVariable: r.IsMagicVariable,
			Types:           r.Types,
		}

		if err := tx.InsertReference(sr); err != nil {
			return err
		}
	}

	return nil
}

// insertDiagnostics implements spec §4.7 step 5: evaluate each new
// diagnostic's is_suppressed against the analysis's suppression context
// and insert.
func insertDiagnostics(tx *store.WriteTx, file *store.File, res analyzer.Result) error {
	for _, d := range res.Diagnostics {
		suppressed, byCode := evaluateSuppression(res, d)

		sd := &store.Diagnostic{
			File:         file.Path,
			SourceFile:   file.Path,
			Severity:     d.Severity,
			Code:         d.Code,
			Message:      d.Message,
			Excerpt:      d.Excerpt,
			Line:         d.Line,
			Column:       d.Column,
			Offset:       d.Offset,
			Length:       d.Length,
			IsSuppressed: suppressed,
		}

		if suppressed {
			sd.SuppressedByCode = byCode
		}

		if err := tx.InsertDiagnostic(sd); err != nil {
			return err
		}
	}

	return nil
}

func evaluateSuppression(res analyzer.Result, d analyzer.Diagnostic) (bool, *string) {
	if res.Suppress == nil {
		return false, nil
	}

	if res.Suppress.CanReport(d.Code, res.File, d.Line) {
		return false, nil
	}

	code := d.Code

	return true, &code
}

// insertIncludes implements spec §4.7 step 6: re-insert FileInclude rows,
// dropping any whose included/including path is not itself a known File
// (spec §8 property 3).
func insertIncludes(tx *store.WriteTx, includes []store.FileInclude) error {
	for _, fi := range includes {
		includedOK, err := tx.FileExists(fi.IncludedFile)
		if err != nil {
			return err
		}

		includingOK, err := tx.FileExists(fi.IncludingFile)
		if err != nil {
			return err
		}

		if !includedOK || !includingOK {
			continue
		}

		entry := fi
		if err := tx.InsertFileInclude(&entry); err != nil {
			return err
		}
	}

	return nil
}

// insertHovers implements spec §4.7 step 7.
func insertHovers(tx *store.WriteTx, file *store.File, hovers []analyzer.Hover) error {
	for _, h := range hovers {
		sh := &store.Hover{
			File:      file.Path,
			StartLine: h.StartLine, StartCol: h.StartCol,
			EndLine: h.EndLine, EndCol: h.EndCol,
			Markup: h.Markup,
		}

		if err := tx.InsertHover(sh); err != nil {
			return err
		}
	}

	return nil
}

// insertCodeActions implements spec §4.7 step 8: insert CodeAction rows
// with their changes' foreign key resolved after the parent insert.
func insertCodeActions(tx *store.WriteTx, file *store.File, actions []sqf.CodeAction) error {
	for _, a := range actions {
		sa := &store.CodeAction{File: file.Path, Kind: a.Kind, Ident: a.Ident, Title: a.Title}
		if err := tx.InsertCodeAction(sa); err != nil {
			return err
		}

		for _, ch := range a.Changes {
			sc := &store.CodeActionChange{
				CodeActionID: sa.ID,
				Operation:    ch.Operation,
				Path:         ch.Path,
				OldPath:      ch.OldPath,
				StartLine:    ch.StartLine,
				StartColumn:  ch.StartColumn,
				EndLine:      ch.EndLine,
				EndColumn:    ch.EndColumn,
				NewContent:   ch.NewContent,
			}

			if err := tx.InsertCodeActionChange(sc); err != nil {
				return err
			}
		}
	}

	return nil
}

// recordCrash implements spec §7's *store error* row: an independent
// transaction recording a single VV-ERR diagnostic on file, run after the
// failed commit's own transaction has already rolled back.
func recordCrash(st *store.Store, file *store.File, cause error) error {
	tx, err := st.BeginWrite()
	if err != nil {
		return err
	}

	d := &store.Diagnostic{
		File:       file.Path,
		SourceFile: file.Path,
		Severity:   store.SeverityFatal,
		Code:       "VV-ERR",
		Message:    fmt.Sprintf("analysis commit failed: %v", cause),
	}

	if err := tx.InsertDiagnostic(d); err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}

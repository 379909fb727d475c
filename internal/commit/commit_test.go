package commit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqfvm/language-server/internal/analyzer"
	"github.com/sqfvm/language-server/internal/sqf"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/suppress"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Migrate()
	require.NoError(t, err)

	return s
}

func upsertFile(t *testing.T, st *store.Store, path string) *store.File {
	t.Helper()

	f := &store.File{Path: path}
	require.NoError(t, st.UpsertFile(f))

	return f
}

func TestCommit_PersistsVariablesAndReferences(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	file := upsertFile(t, st, "mission/init.sqf")

	res := analyzer.Result{
		File: file.Path,
		Variables: []sqf.Variable{
			{LocalID: 1, Name: "_x", Scope: "init.sqf", IsGlobal: false},
		},
		References: []sqf.Reference{
			{VariableLocalID: 1, Line: 1, Column: 0, Length: 2, Access: store.Access("write"), IsDeclaration: true},
		},
	}

	c := New()
	require.NoError(t, c.Commit(st, file, res))

	require.False(t, file.IsOutdated)
	require.False(t, file.AnalyzedAt.IsZero())

	refs, err := st.ReferencesInFile(file.Path)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsDeclaration)

	v, err := st.VariableByID(refs[0].VariableID)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "_x", v.Name)
}

func TestCommit_DiagnosticSuppressionEvaluatedAgainstContext(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	file := upsertFile(t, st, "mission/init.sqf")

	sc := suppress.New()
	sc.PushDisableFile("VV-010")

	res := analyzer.Result{
		File: file.Path,
		Diagnostics: []analyzer.Diagnostic{
			{Severity: store.SeverityWarning, Code: "VV-010", Message: "unused variable", Line: 3},
			{Severity: store.SeverityWarning, Code: "VV-020", Message: "shadowed variable", Line: 4},
		},
		Suppress: sc,
	}

	c := New()
	require.NoError(t, c.Commit(st, file, res))

	diags, err := st.DiagnosticsInFile(file.Path)
	require.NoError(t, err)
	require.Len(t, diags, 2)

	byCode := map[string]*store.Diagnostic{}
	for _, d := range diags {
		byCode[d.Code] = d
	}

	require.True(t, byCode["VV-010"].IsSuppressed)
	require.NotNil(t, byCode["VV-010"].SuppressedByCode)
	require.False(t, byCode["VV-020"].IsSuppressed)
}

func TestCommit_UnresolvedLocalVariableReferenceFails(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	file := upsertFile(t, st, "mission/init.sqf")

	res := analyzer.Result{
		File: file.Path,
		References: []sqf.Reference{
			{VariableLocalID: 99, Line: 1, Column: 0},
		},
	}

	c := New()
	err := c.Commit(st, file, res)
	require.Error(t, err)

	// A failed commit rolls back the main transaction but still records the
	// independent VV-ERR crash diagnostic (spec's *store error* row).
	diags, dErr := st.DiagnosticsInFile(file.Path)
	require.NoError(t, dErr)
	require.Len(t, diags, 1)
	require.Equal(t, "VV-ERR", diags[0].Code)
	require.Equal(t, store.SeverityFatal, diags[0].Severity)
}

func TestCommit_RerunDropsOrphanedPrivateVariable(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	file := upsertFile(t, st, "mission/init.sqf")

	c := New()

	first := analyzer.Result{
		File: file.Path,
		Variables: []sqf.Variable{
			{LocalID: 1, Name: "_a", Scope: file.Path, IsGlobal: false},
		},
		References: []sqf.Reference{
			{VariableLocalID: 1, Line: 1, Column: 0, Length: 2, Access: store.AccessSet, IsDeclaration: true},
		},
	}
	require.NoError(t, c.Commit(st, file, first))

	firstRefs, err := st.ReferencesInFile(file.Path)
	require.NoError(t, err)
	require.Len(t, firstRefs, 1)

	// Second analysis of the same file no longer declares `_a` — the
	// now-orphaned private variable row must be cleaned up.
	second := analyzer.Result{File: file.Path}
	require.NoError(t, c.Commit(st, file, second))

	refs, err := st.ReferencesInFile(file.Path)
	require.NoError(t, err)
	require.Empty(t, refs)

	orphan, err := st.VariableByID(firstRefs[0].VariableID)
	require.NoError(t, err)
	require.Nil(t, orphan)
}

func TestCommit_InsertsHoversAndCodeActions(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	file := upsertFile(t, st, "mission/init.sqf")

	newText := "(_x)"
	res := analyzer.Result{
		File: file.Path,
		Hovers: []analyzer.Hover{
			{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 2, Markup: "`_x`: NUMBER"},
		},
		CodeActions: []sqf.CodeAction{
			{
				Kind:  store.CodeActionQuickFix,
				Title: "drop redundant parentheses",
				Changes: []sqf.CodeActionChange{
					{Operation: store.ChangeFileChange, Path: file.Path, NewContent: &newText},
				},
			},
		},
	}

	c := New()
	require.NoError(t, c.Commit(st, file, res))

	hovers, err := st.HoversInFile(file.Path)
	require.NoError(t, err)
	require.Len(t, hovers, 1)

	actions, err := st.CodeActionsInFile(file.Path)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	changes, err := st.CodeActionChangesOf(actions[0].ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, newText, *changes[0].NewContent)
}

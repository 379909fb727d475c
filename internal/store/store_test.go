package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	report, err := s.Migrate()
	require.NoError(t, err)
	require.Equal(t, TableInSync, report.Tables["files"])
	require.Equal(t, TableInSync, report.Tables["refs"])
}

func TestUpsertFile_FindFileByPath(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	f := &File{Path: "mission/init.sqf", ModifiedAt: time.Now()}
	require.NoError(t, s.UpsertFile(f))
	require.NotZero(t, f.ID)

	found, err := s.FindFileByPath("mission/init.sqf")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, f.ID, found.ID)

	missing, err := s.FindFileByPath("nope.sqf")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUpsertFile_UpdatesExistingRow(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	f := &File{Path: "mission/init.sqf", ModifiedAt: time.Now()}
	require.NoError(t, s.UpsertFile(f))

	again := &File{Path: "mission/init.sqf", ModifiedAt: time.Now(), IsOutdated: true}
	require.NoError(t, s.UpsertFile(again))

	found, err := s.FindFileByPath("mission/init.sqf")
	require.NoError(t, err)
	require.True(t, found.IsOutdated)
}

func TestFilesWithFlag(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	require.NoError(t, s.UpsertFile(&File{Path: "a.sqf", ModifiedAt: time.Now(), IsOutdated: true}))
	require.NoError(t, s.UpsertFile(&File{Path: "b.sqf", ModifiedAt: time.Now()}))

	outdated, err := s.FilesWithFlag("is_outdated")
	require.NoError(t, err)
	require.Len(t, outdated, 1)
	require.Equal(t, "a.sqf", outdated[0].Path)

	_, err = s.FilesWithFlag("bogus")
	require.Error(t, err)
}

func TestWriteTx_InsertAndQueryReferences(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	tx, err := s.BeginWrite()
	require.NoError(t, err)

	v := &Variable{Name: "_x", Scope: "scope@1://0"}
	require.NoError(t, tx.UpsertVariable(v))
	require.NotZero(t, v.ID)

	r := &Reference{
		VariableID: v.ID, File: "a.sqf", SourceFile: "a.sqf",
		Line: 1, Column: 1, Offset: 0, Length: 2, Access: AccessSet, IsDeclaration: true,
		Types: TypeScalar,
	}
	require.NoError(t, tx.InsertReference(r))
	require.NoError(t, tx.Commit())

	refs, err := s.ReferencesOfVariable(v.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, AccessSet, refs[0].Access)

	inRange, err := s.ReferencesInRange("a.sqf", 1, 1)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
}

func TestWriteTx_ClearSourceFileArtifactsAndOrphanCleanup(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	tx, err := s.BeginWrite()
	require.NoError(t, err)

	v := &Variable{Name: "_x", Scope: "scope@1://0"}
	require.NoError(t, tx.UpsertVariable(v))
	require.NoError(t, tx.InsertReference(&Reference{
		VariableID: v.ID, File: "a.sqf", SourceFile: "a.sqf",
		Line: 1, Column: 1, Access: AccessSet,
	}))
	require.NoError(t, tx.Commit())

	tx2, err := s.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, tx2.ClearSourceFileArtifacts("a.sqf"))
	require.NoError(t, tx2.DeleteOrphanedVariables())
	require.NoError(t, tx2.Commit())

	refs, err := s.ReferencesOfVariable(v.ID)
	require.NoError(t, err)
	require.Empty(t, refs)

	orphan, err := s.VariableByID(v.ID)
	require.NoError(t, err)
	require.Nil(t, orphan)
}

func TestWriteTx_RollbackDiscardsChanges(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	tx, err := s.BeginWrite()
	require.NoError(t, err)

	v := &Variable{Name: "_y", Scope: "scope@1://0"}
	require.NoError(t, tx.UpsertVariable(v))
	require.NoError(t, tx.Rollback())

	refs, err := s.ReferencesOfVariable(v.ID)
	require.NoError(t, err)
	require.Empty(t, refs)

	discarded, err := s.VariableByID(v.ID)
	require.NoError(t, err)
	require.Nil(t, discarded)
}

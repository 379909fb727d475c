package lsp

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/stretchr/testify/require"

	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/workspace"
)

func TestToLSPCodeActionKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   store.CodeActionKind
		want protocol.CodeActionKind
	}{
		{store.CodeActionQuickFix, protocol.CodeActionKindQuickFix},
		{store.CodeActionRefactor, protocol.CodeActionKindRefactor},
		{store.CodeActionExtract, protocol.CodeActionKindRefactorExtract},
		{store.CodeActionInline, protocol.CodeActionKindRefactorInline},
		{store.CodeActionWholeFile, protocol.CodeActionKindSource},
		{store.CodeActionRewrite, protocol.CodeActionKindRefactorRewrite},
		{store.CodeActionGeneric, protocol.CodeActionKind("")},
	}

	for _, c := range cases {
		require.Equal(t, c.want, toLSPCodeActionKind(c.in))
	}
}

func TestPointRange(t *testing.T) {
	t.Parallel()

	rng := pointRange(3, 5, 4)
	require.Equal(t, uint32(3), rng.Start.Line)
	require.Equal(t, uint32(5), rng.Start.Character)
	require.Equal(t, uint32(3), rng.End.Line)
	require.Equal(t, uint32(9), rng.End.Character)
}

func TestConvertCodeAction_OnlyTranslatesFileChangeOps(t *testing.T) {
	t.Parallel()

	newText := "(foo)"
	startLine, startCol, endLine, endCol := 1, 0, 1, 5

	res := workspace.CodeActionResult{
		Action: &store.CodeAction{Kind: store.CodeActionQuickFix, Title: "drop redundant parentheses"},
		Changes: []*store.CodeActionChange{
			{
				Operation:   store.ChangeFileChange,
				Path:        "mission/init.sqf",
				StartLine:   &startLine,
				StartColumn: &startCol,
				EndLine:     &endLine,
				EndColumn:   &endCol,
				NewContent:  &newText,
			},
			{Operation: store.ChangeFileCreate, Path: "mission/new.sqf"},
		},
	}

	action := convertCodeAction("/ws", res)
	require.Equal(t, "drop redundant parentheses", action.Title)
	require.NotNil(t, action.Edit)
	require.Len(t, action.Edit.Changes, 1)

	edits := action.Edit.Changes[protocol.DocumentUri("file:///ws/mission/init.sqf")]
	require.Len(t, edits, 1)
	require.Equal(t, newText, edits[0].NewText)
}

package cfgparse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/cfgparse"
)

func TestParse_EmptyClassBody(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`class CfgPatches { class MyMod { units[] = {}; }; };`)
	require.NoError(t, err)
	require.Equal(t, ast.KindConfigClass, root.Kind)
	require.Len(t, root.Children, 1)

	patches := root.Children[0]
	require.Equal(t, "CfgPatches", patches.Token)
	require.Len(t, patches.Children, 1)

	mod := patches.Children[0]
	require.Equal(t, "MyMod", mod.Token)
	require.Len(t, mod.Children, 1)

	units := mod.Children[0]
	require.Equal(t, ast.KindConfigEntry, units.Kind)
	require.Equal(t, "true", units.Props["array"])
	require.Equal(t, ast.KindConfigArray, units.Children[0].Kind)
	require.Empty(t, units.Children[0].Children)
}

func TestParse_ClassWithParent(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`class Rifle : Weapon { scope = 2; };`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	cls := root.Children[0]
	require.Equal(t, "Rifle", cls.Token)
	require.Equal(t, "Weapon", cls.Props["parent"])
}

func TestParse_ForwardDeclaration(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`class CfgWeapons;`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	cls := root.Children[0]
	require.Equal(t, "true", cls.Props["forward"])
	require.Empty(t, cls.Children)
}

func TestParse_ScalarArrayAndStringEntries(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`class X {
		displayName = "Rifle";
		magazines[] = {"30Rnd_556x45_Stanag", "30Rnd_556x45_Stanag_Tracer_Red"};
		scope = 2;
	};`)
	require.NoError(t, err)

	cls := root.Children[0]
	require.Len(t, cls.Children, 3)

	name := cls.Children[0]
	require.Equal(t, "displayName", name.Token)
	require.Equal(t, ast.KindString, name.Children[0].Kind)

	mags := cls.Children[1]
	require.Equal(t, "true", mags.Props["array"])
	require.Len(t, mags.Children[0].Children, 2)

	scope := cls.Children[2]
	require.Equal(t, ast.KindNumber, scope.Children[0].Kind)
	require.Equal(t, "2", scope.Children[0].Token)
}

func TestParse_QuotedQuoteInsideString(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`class X { text = "say ""hi"" now"; };`)
	require.NoError(t, err)

	entry := root.Children[0].Children[0]
	require.Equal(t, `"say ""hi"" now"`, entry.Children[0].Token)
}

func TestParse_LineCommentsAndBlockCommentsSkipped(t *testing.T) {
	t.Parallel()

	root, err := cfgparse.Parse(`
		// leading comment
		class X {
			/* block
			   comment */
			scope = 2; // trailing
		};`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.Len(t, root.Children[0].Children, 1)
}

func TestParse_MissingClosingBraceErrors(t *testing.T) {
	t.Parallel()

	_, err := cfgparse.Parse(`class X { scope = 2;`)
	require.Error(t, err)
}

func TestParse_EntryMissingEqualsErrors(t *testing.T) {
	t.Parallel()

	_, err := cfgparse.Parse(`class X { scope 2; };`)
	require.Error(t, err)
}

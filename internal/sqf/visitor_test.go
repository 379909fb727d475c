package sqf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqfvm/language-server/internal/offsetmap"
	"github.com/sqfvm/language-server/internal/sqf"
	"github.com/sqfvm/language-server/internal/sqfparse"
	"github.com/sqfvm/language-server/internal/suppress"
	"github.com/sqfvm/language-server/internal/visitor"
)

// testView is a minimal visitor.AnalyzerView for exercising internal/sqf's
// Visitor without going through internal/runtime's Factory (which would
// require importing internal/analyzer and create an import cycle).
type testView struct {
	file    string
	text    string
	offsets *offsetmap.Map
	supp    *suppress.Context
}

func newTestView(file, text string) *testView {
	return &testView{file: file, text: text, offsets: offsetmap.New(), supp: suppress.New()}
}

func (v *testView) File() string                             { return v.file }
func (v *testView) Text() string                              { return v.text }
func (v *testView) InMacro(o int) bool                        { return v.offsets.InMacro(o) }
func (v *testView) Decode(o int) (offsetmap.Location, int)    { return v.offsets.Decode(o) }
func (v *testView) CanReport(code string, line int) bool      { return v.supp.CanReport(code, v.file, line) }
func (v *testView) ScopeTag(childPath []int) string {
	tag := "scope@" + v.file + "://"
	for _, c := range childPath {
		tag += itoa(c) + "/"
	}

	return tag
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}

	return digits
}

func analyze(t *testing.T, src string) (sqf.Output, *testView) {
	t.Helper()

	root, err := sqfparse.Parse(src)
	require.NoError(t, err)

	view := newTestView("mission/init.sqf", src)
	v := sqf.New()
	visitor.NewFramework().Walk(root, []visitor.Visitor{v}, view)

	return v.Output(), view
}

func codesOf(out sqf.Output) []string {
	codes := make([]string, 0, len(out.Diagnostics))
	for _, d := range out.Diagnostics {
		codes = append(codes, d.Code)
	}

	return codes
}

// Scenario 1 (spec §8): `private _x = 1;` alone -> VV-001, no VV-003.
func TestVisitor_Scenario1_SetButNeverRead(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `private _x = 1;`)

	require.Contains(t, codesOf(out), "VV-001")
	require.NotContains(t, codesOf(out), "VV-003")
}

// Scenario 2: `private _x; _x = _y;` -> `_x` is set (to `_y`'s value) but
// never read itself, so VV-001; `_y` is read here and never set anywhere
// in the file, so VV-003.
func TestVisitor_Scenario2_DeclaredNeverAssignedAndGetBeforeSet(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `private _x; _x = _y;`)

	codes := codesOf(out)
	require.Contains(t, codes, "VV-001")
	require.Contains(t, codes, "VV-003")

	count := 0
	for _, c := range codes {
		if c == "VV-003" {
			count++
		}
	}

	require.Equal(t, 1, count)
}

// Scenario 3: `x = 1; y = x;` -> no VV-001/002 on x (used), VV-002 on y.
func TestVisitor_Scenario3_GlobalUsedVsUnused(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `x = 1; y = x;`)

	var forX, forY []string

	for _, d := range out.Diagnostics {
		if d.Code != "VV-001" && d.Code != "VV-002" {
			continue
		}

		if hasQuoted(d.Message, "x") {
			forX = append(forX, d.Code)
		}

		if hasQuoted(d.Message, "y") {
			forY = append(forY, d.Code)
		}
	}

	require.Empty(t, forX)
	require.Equal(t, []string{"VV-002"}, forY)
}

func hasQuoted(msg, name string) bool {
	quoted := "\"" + name + "\""

	for i := 0; i+len(quoted) <= len(msg); i++ {
		if msg[i:i+len(quoted)] == quoted {
			return true
		}
	}

	return false
}

// Scenario 4: `private ["_a","_b"];` declares both names from the array
// form without a VV-006/VV-007 name-resolution error; `_a` is then given a
// real value and never read, so it still reports VV-001 same as the bare
// `private _x = 1;` form.
func TestVisitor_Scenario4_ArrayFormPrivateDeclaration(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `private ["_a","_b"]; _a = 1;`)

	for _, d := range out.Diagnostics {
		require.NotEqual(t, "VV-006", d.Code)
		require.NotEqual(t, "VV-007", d.Code)
	}

	var aDiag bool

	for _, d := range out.Diagnostics {
		if d.Code == "VV-001" && hasQuoted(d.Message, "_a") {
			aDiag = true
		}
	}

	require.True(t, aDiag)
}

// Scenario 5: `_x = (1 + 2);` -> VV-008 on both parens plus a quick-fix
// code action with two file_change edits.
func TestVisitor_Scenario5_RedundantParensCodeAction(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `_x = (1 + 2);`)

	codes := codesOf(out)
	count := 0

	for _, c := range codes {
		if c == "VV-008" {
			count++
		}
	}

	require.Equal(t, 2, count)
	require.Len(t, out.CodeActions, 1)
	require.Equal(t, "Remove needless brackets", out.CodeActions[0].Title)
	require.Len(t, out.CodeActions[0].Changes, 2)
}

// Scenario 6: a suppression pragma silences VV-001 for that file — CanReport
// returns false, exercised here directly at the suppress.Context level
// since the pragma->PushDisableFile wiring lives in internal/preprocess,
// not internal/sqf; the visitor itself never consults CanReport (spec §4.7
// step 5 evaluates suppression at commit time, not inside the visitor).
func TestVisitor_Scenario6_SuppressionContextSilencesCode(t *testing.T) {
	t.Parallel()

	sc := suppress.New()
	sc.PushDisableFile("VV-001")

	require.False(t, sc.CanReport("VV-001", "mission/init.sqf", 1))
}

// Boundary: `private "_x"` then re-declaring `private "_x"` in an inner
// scope yields VV-009 at the inner site and a paired info VV-009 at the
// outer site.
func TestVisitor_Boundary_ShadowedPrivateDeclaration(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `call { private "_x"; call { private "_x"; }; };`)

	count := 0
	for _, d := range out.Diagnostics {
		if d.Code == "VV-009" {
			count++
		}
	}

	require.Equal(t, 2, count)
}

// Boundary: `isNil { … }` does not emit VV-006; its block is analyzed as a
// normal code child.
func TestVisitor_Boundary_IsNilWithCodeBlockNoVV006(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `isNil { _y = 1 };`)

	require.NotContains(t, codesOf(out), "VV-006")
}

// Boundary: `for` whose child is a non-string yields VV-006 and no set-ref.
func TestVisitor_Boundary_ForWithNonStringYieldsVV006(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `for 1 do {};`)

	require.Contains(t, codesOf(out), "VV-006")
}

// Magic variables: forEach injects an implicit _x set-reference into its
// Code operand as soon as the block is entered, independent of whatever
// the block's own statements do.
func TestVisitor_ForEachInjectsMagicVariables(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `[1,2,3] forEach { _x };`)

	var sawMagicX bool

	for _, r := range out.References {
		if r.IsMagicVariable {
			sawMagicX = true
		}
	}

	require.True(t, sawMagicX)
}

// nearestMisspelling enriches a never-set private's "read before set"
// message with a did-you-mean hint when a similarly-named variable exists.
func TestVisitor_NearestMisspellingHint(t *testing.T) {
	t.Parallel()

	out, _ := analyze(t, `private _counter = 0; _countr;`)

	var hinted bool

	for _, d := range out.Diagnostics {
		if d.Code == "VV-003" && hasQuoted(d.Message, "_countr") && hasQuoted(d.Message, "_counter") {
			hinted = true
		}
	}

	require.True(t, hinted)
}

package scripting

import (
	"fmt"

	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
)

// handles is the session-owned table mapping a handle int to the *ast.Node
// it was minted for. Handles are only ever handed out for the duration of
// one Enter/Exit/ChildrenOf call and are never reused across analyses
// (spec §9: "No lifetime of a handle extends beyond the analysis call").
type handles struct {
	nodes []*ast.Node
}

func (h *handles) mint(n *ast.Node) int {
	h.nodes = append(h.nodes, n)

	return len(h.nodes) - 1
}

func (h *handles) resolve(handle int) (*ast.Node, bool) {
	if handle < 0 || handle >= len(h.nodes) {
		return nil, false
	}

	n := h.nodes[handle]

	return n, n != nil
}

// vocabulary implements the fixed operator vocabulary spec.md §4.9 exposes
// to user scripts (lineOf/columnOf/offsetOf/contentOf/pathOf/typeOf/
// childrenOf/fileOf/reportDiagnostic), bound to one session's view and
// handle table.
type vocabulary struct {
	view    visitor.AnalyzerView
	handles *handles
	report  reportFunc
}

func (v *vocabulary) nodeOrZero(handle int) *ast.Node {
	n, ok := v.handles.resolve(handle)
	if !ok {
		return nil
	}

	return n
}

// LineOf returns the 1-based line of node's position.
func (v *vocabulary) LineOf(node int) int {
	if n := v.nodeOrZero(node); n != nil {
		return n.Pos.Line
	}

	return 0
}

// ColumnOf returns the 1-based column of node's position.
func (v *vocabulary) ColumnOf(node int) int {
	if n := v.nodeOrZero(node); n != nil {
		return n.Pos.Column
	}

	return 0
}

// OffsetOf returns node's byte offset into the preprocessed text.
func (v *vocabulary) OffsetOf(node int) int {
	if n := v.nodeOrZero(node); n != nil {
		return n.Pos.Offset
	}

	return 0
}

// LengthOf returns node's byte length.
func (v *vocabulary) LengthOf(node int) int {
	if n := v.nodeOrZero(node); n != nil {
		return n.Pos.Length
	}

	return 0
}

// ContentOf returns the source text node's position spans.
func (v *vocabulary) ContentOf(node int) string {
	n := v.nodeOrZero(node)
	if n == nil {
		return ""
	}

	text := v.view.Text()
	start, end := n.Pos.Offset, n.Pos.End()

	if start < 0 || end > len(text) || start > end {
		return ""
	}

	return text[start:end]
}

// PathOf returns the path of the file under analysis.
func (v *vocabulary) PathOf() string { return v.view.File() }

// FileOf is an alias of PathOf (spec.md §4.9 exposes both `pathOf` and
// `fileOf`; this host is single-file-per-analysis, so they agree).
func (v *vocabulary) FileOf(node int) string { return v.view.File() }

// TypeOf returns node's syntactic kind, e.g. "Ident" or "Assignment".
func (v *vocabulary) TypeOf(node int) string {
	if n := v.nodeOrZero(node); n != nil {
		return string(n.Kind)
	}

	return ""
}

// ChildrenOf mints a fresh handle for each of node's children.
func (v *vocabulary) ChildrenOf(node int) []int {
	n := v.nodeOrZero(node)
	if n == nil {
		return nil
	}

	out := make([]int, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, v.handles.mint(c))
	}

	return out
}

// reportFunc is the signature ReportDiagnostic binds into yaegi; it is a
// field on vocabulary so each session gets its own sink closure.
type reportFunc func(tuple []interface{})

// ReportDiagnostic is set per-session in newVocabulary; declared here so
// the Exports map always finds a method value of the right shape.
func (v *vocabulary) ReportDiagnostic(tuple []interface{}) {
	if v.report != nil {
		v.report(tuple)
	}
}

func newVocabulary(view visitor.AnalyzerView, report reportFunc) *vocabulary {
	return &vocabulary{view: view, handles: &handles{}, report: report}
}

// parseTuple decodes the 9-tuple `reportDiagnostic` accepts (spec.md §4.9):
// [severity-string, code, content, message, line, column, offset, length, file].
func parseTuple(tuple []interface{}) (store.Severity, string, string, string, int, int, int, int, string, error) {
	if len(tuple) != 9 {
		return "", "", "", "", 0, 0, 0, 0, "", fmt.Errorf("reportDiagnostic: expected a 9-tuple, got %d elements", len(tuple))
	}

	sev, _ := tuple[0].(string)
	code, _ := tuple[1].(string)
	content, _ := tuple[2].(string)
	message, _ := tuple[3].(string)
	line := toInt(tuple[4])
	column := toInt(tuple[5])
	offset := toInt(tuple[6])
	length := toInt(tuple[7])
	file, _ := tuple[8].(string)

	return store.Severity(sev), code, content, message, line, column, offset, length, file, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

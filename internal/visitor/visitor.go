// Package visitor implements the AST visitor framework (spec §4.5/§4.6,
// C6): a depth-first traversal that drives enter/exit callbacks against a
// live parent stack for every registered Visitor. It also defines
// AnalyzerView, the narrow capability object spec §9's design notes call
// for in place of a back-pointer between analyzer and visitor — visitors
// see only what they need (current file, preprocessed text, offset-map
// queries, suppression context), never the analyzer or runtime directly.
package visitor

import (
	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/offsetmap"
)

// AnalyzerView is the capability passed into every visitor hook. No
// pointer to the analyzer or runtime crosses this boundary (spec §9:
// "Back/forward pointers between analyzer and visitor -> message passing
// via the view object; no owning pointers cross the boundary").
type AnalyzerView interface {
	// File returns the path of the file currently being analyzed (the
	// analysis root, not necessarily the file a given node's tokens came
	// from when the node originated in an #include).
	File() string
	// Text returns the preprocessed source text the AST was parsed from.
	Text() string
	// InMacro reports whether preprocessed offset o lies inside a macro
	// expansion (spec §4.3).
	InMacro(o int) bool
	// Decode maps a preprocessed offset back to its raw source location.
	Decode(o int) (offsetmap.Location, int)
	// CanReport implements the suppression predicate (spec §4.2) for a
	// diagnostic about to be emitted at (code, line) in File().
	CanReport(code string, line int) bool
	// ScopeTag builds the hierarchical scope string
	// `scope@<file>://<child>/<child>/...` for a chain of child indices
	// (spec §3's Variable.Scope shape).
	ScopeTag(childPath []int) string
}

// Visitor is the uniform shape every AST visitor (C7, C8, C11) implements.
// Start/End bookend one analysis; Enter/Exit fire per node, in traversal
// order, with the live parent-stack chain.
type Visitor interface {
	Start(view AnalyzerView)
	Enter(node *ast.Node, parents []*ast.Node)
	Exit(node *ast.Node, parents []*ast.Node)
	End()
}

// Framework drives the shared traversal for any number of registered
// Visitors over one parsed AST (spec §4.5 step 5).
type Framework struct{}

// NewFramework constructs a Framework. It holds no state of its own — all
// state lives in the view and in the visitors themselves — so one zero
// value can be reused across analyses.
func NewFramework() *Framework {
	return &Framework{}
}

// Walk runs `start` on each visitor, performs one depth-first traversal of
// root invoking `enter`/`exit` with a live parent stack, then runs `end`
// on each visitor, in the order given.
func (f *Framework) Walk(root *ast.Node, visitors []Visitor, view AnalyzerView) {
	for _, v := range visitors {
		v.Start(view)
	}

	parents := make([]*ast.Node, 0, 16)
	f.walkNode(root, visitors, &parents)

	for _, v := range visitors {
		v.End()
	}
}

func (f *Framework) walkNode(node *ast.Node, visitors []Visitor, parents *[]*ast.Node) {
	if node == nil {
		return
	}

	for _, v := range visitors {
		v.Enter(node, *parents)
	}

	*parents = append(*parents, node)

	for _, child := range node.Children {
		f.walkNode(child, visitors, parents)
	}

	*parents = (*parents)[:len(*parents)-1]

	for _, v := range visitors {
		v.Exit(node, *parents)
	}
}

// Package cfg implements the config visitor (spec §4.7/SPEC_FULL §4.7,
// C8): the lighter counterpart to internal/sqf that walks the key-value
// configuration format's AST and drives hover spans and duplicate-name
// diagnostics. It emits no Variable/Reference rows — the format has no
// scoped variables to resolve.
package cfg

import (
	"fmt"
	"strings"

	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
)

// Visitor is the config-format visitor. One instance exists per analysis
// of one config file.
type Visitor struct {
	view        visitor.AnalyzerView
	diagnostics []Diagnostic
	hovers      []Hover
}

// New constructs a fresh config visitor.
func New() *Visitor {
	return &Visitor{}
}

// Start implements visitor.Visitor.
func (v *Visitor) Start(view visitor.AnalyzerView) {
	v.view = view
	v.diagnostics = nil
	v.hovers = nil
}

// Exit implements visitor.Visitor. Config nodes need no exit-time work.
func (v *Visitor) Exit(*ast.Node, []*ast.Node) {}

// End implements visitor.Visitor. All of this visitor's work happens in
// Enter; nothing to sweep afterward.
func (v *Visitor) End() {}

// Output returns everything this visitor produced. Call after End().
func (v *Visitor) Output() Output {
	return Output{Diagnostics: v.diagnostics, Hovers: v.hovers}
}

// Enter implements visitor.Visitor.
func (v *Visitor) Enter(node *ast.Node, parents []*ast.Node) {
	switch node.Kind {
	case ast.KindConfigClass:
		v.enterClass(node)
	case ast.KindConfigEntry:
		v.enterEntry(node)
	}
}

func (v *Visitor) enterClass(node *ast.Node) {
	if node.Props["forward"] == "true" {
		v.hovers = append(v.hovers, Hover{
			StartLine: node.Pos.Line, StartCol: node.Pos.Column,
			EndLine: node.Pos.Line, EndCol: node.Pos.Column + len(node.Token),
			Markup: fmt.Sprintf("```\nclass %s;  // forward declaration\n```", node.Token),
		})

		return
	}

	markup := fmt.Sprintf("```\nclass %s\n```", node.Token)
	if parent := node.Props["parent"]; parent != "" {
		markup = fmt.Sprintf("```\nclass %s : %s\n```", node.Token, parent)
	}

	v.hovers = append(v.hovers, Hover{
		StartLine: node.Pos.Line, StartCol: node.Pos.Column,
		EndLine: node.Pos.Line, EndCol: node.Pos.Column + len(node.Token),
		Markup: markup,
	})

	v.checkDuplicateNames(node)
}

func (v *Visitor) enterEntry(node *ast.Node) {
	typeName := "unknown"

	if len(node.Children) > 0 {
		typeName = valueTypeName(node.Children[0])
	}

	if node.Props["array"] == "true" {
		typeName += "[]"
	}

	v.hovers = append(v.hovers, Hover{
		StartLine: node.Pos.Line, StartCol: node.Pos.Column,
		EndLine: node.Pos.Line, EndCol: node.Pos.Column + len(node.Token),
		Markup: fmt.Sprintf("```\n%s: %s\n```", node.Token, typeName),
	})
}

func valueTypeName(n *ast.Node) string {
	switch n.Kind {
	case ast.KindString:
		return "string"
	case ast.KindNumber:
		return "number"
	case ast.KindConfigArray:
		return "array"
	case ast.KindIdent:
		return "ident"
	default:
		return "unknown"
	}
}

// checkDuplicateNames flags a class or key name repeated among a class
// body's direct children. The full AST is available up front (spec §4.5's
// parser step precedes the walk), so this inspects node.Children directly
// rather than maintaining a scope stack across Enter/Exit calls.
func (v *Visitor) checkDuplicateNames(class *ast.Node) {
	seen := make(map[string]*ast.Node)

	for _, child := range class.Children {
		if child.Kind != ast.KindConfigClass && child.Kind != ast.KindConfigEntry {
			continue
		}

		key := strings.ToLower(child.Token)

		if prior, ok := seen[key]; ok {
			v.diagnostics = append(v.diagnostics, Diagnostic{
				Severity: store.SeverityWarning,
				Code:     "VV-ERR",
				Message:  fmt.Sprintf("%q is declared more than once in class %q (first declared at line %d)", child.Token, class.Token, prior.Pos.Line),
				Line:     child.Pos.Line,
				Column:   child.Pos.Column,
				Offset:   child.Pos.Offset,
				Length:   child.Pos.Length,
			})

			continue
		}

		seen[key] = child
	}
}

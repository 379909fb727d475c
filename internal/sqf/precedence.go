package sqf

import (
	"strings"

	"github.com/sqfvm/language-server/internal/ast"
)

// PrecClass is one of the precedence classes spec §9's Open Question
// resolves as authoritative for VV-008. Constants are ordered loosest
// (PrecAssign) to tightest (PrecPrimary) so that `a >= b` means "a binds
// at least as tightly as b" — the comparison VV-008 needs.
type PrecClass int

const (
	PrecAssign PrecClass = iota
	PrecOr
	PrecAnd
	PrecCompare
	PrecNamedBinary
	PrecElse
	PrecAddSub
	PrecMulDiv
	PrecExponent
	PrecSelect
	PrecUnaryNamed
	PrecGroup
	PrecPrimary
)

var binaryClassByOp = map[string]PrecClass{
	"=": PrecAssign,
	"||": PrecOr, "or": PrecOr,
	"&&": PrecAnd, "and": PrecAnd,
	"==": PrecCompare, "!=": PrecCompare, ">": PrecCompare, "<": PrecCompare, ">=": PrecCompare, "<=": PrecCompare,
	"else": PrecElse,
	"+":    PrecAddSub, "-": PrecAddSub,
	"*": PrecMulDiv, "/": PrecMulDiv, "%": PrecMulDiv,
	"^":      PrecExponent,
	"select": PrecSelect,
	"in":     PrecNamedBinary, "min": PrecNamedBinary, "max": PrecNamedBinary, "atan2": PrecNamedBinary, "mod": PrecNamedBinary,
	"apply": PrecNamedBinary, "count": PrecNamedBinary, "findif": PrecNamedBinary, "foreach": PrecNamedBinary, "catch": PrecNamedBinary,
}

// Classify returns n's precedence class for the VV-008 redundant-
// parentheses comparison (spec §4.6/§9).
func Classify(n *ast.Node) PrecClass {
	if n == nil {
		return PrecPrimary
	}

	switch n.Kind {
	case ast.KindGroup:
		return PrecGroup
	case ast.KindUnary:
		return PrecUnaryNamed
	case ast.KindAssignment:
		return PrecAssign
	case ast.KindBinary:
		if c, ok := binaryClassByOp[strings.ToLower(n.Token)]; ok {
			return c
		}

		return PrecNamedBinary
	default:
		return PrecPrimary
	}
}

// IsRedundant reports whether a parenthesization wrapping an expression of
// class inner, appearing in a context that requires at least ctx's
// precedence to parse unambiguously, is safe to remove (spec §4.6:
// "compare the precedence class of the expression against the precedence
// class of the nearest non-group parent"). Binding at least as tightly as
// the surrounding context means the grouping was never load-bearing.
func IsRedundant(inner, ctx PrecClass) bool {
	return inner >= ctx
}

package cfg

import "github.com/sqfvm/language-server/internal/store"

// Diagnostic is one visitor-local diagnostic finding, pre-suppression.
type Diagnostic struct {
	Severity       store.Severity
	Code           string
	Message        string
	Line, Column   int
	Offset, Length int
}

// Hover is one visitor-local hover span.
type Hover struct {
	StartLine, StartCol int
	EndLine, EndCol      int
	Markup               string
}

// Output is everything one analysis of one config file's Visitor
// produced. Unlike internal/sqf.Output it carries no Variable/Reference
// rows (spec §4.7/SPEC_FULL §4.7: configs have no scoped variables).
type Output struct {
	Diagnostics []Diagnostic
	Hovers      []Hover
}

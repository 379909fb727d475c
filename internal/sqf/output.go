package sqf

import "github.com/sqfvm/language-server/internal/store"

// Variable is one visitor-local variable record. LocalID indexes Output.Variables;
// the commit coordinator (C9) maps it to a persisted store.Variable ID.
type Variable struct {
	LocalID    int
	Name       string
	Scope      string
	IsGlobal   bool
	OwningFile string // only meaningful when !IsGlobal
}

// Reference is one visitor-local reference, pointing at a Variable by
// LocalID until C9 rewrites it to a database ID.
type Reference struct {
	VariableLocalID int
	Line, Column    int
	Offset, Length  int
	Access          store.Access
	IsDeclaration   bool
	IsMagicVariable bool
	Types           store.TypeBits
}

// Diagnostic is one visitor-local diagnostic finding, pre-suppression.
type Diagnostic struct {
	Severity       store.Severity
	Code           string
	Message        string
	Excerpt        string
	Line, Column   int
	Offset, Length int
}

// CodeActionChange mirrors store.CodeActionChange before a CodeAction has
// a persisted ID.
type CodeActionChange struct {
	Operation      store.ChangeOp
	Path           string
	OldPath        *string
	StartLine      *int
	StartColumn    *int
	EndLine        *int
	EndColumn      *int
	NewContent     *string
}

// CodeAction is one visitor-local code action with its changes inlined.
type CodeAction struct {
	Kind    store.CodeActionKind
	Ident   string
	Title   string
	Changes []CodeActionChange
}

// Hover is one visitor-local hover span.
type Hover struct {
	StartLine, StartCol int
	EndLine, EndCol      int
	Markup               string
}

// Output is everything one analysis of one file's Visitor produced,
// handed to the commit coordinator (C9) at the end of traversal.
type Output struct {
	Variables   []Variable
	References  []Reference
	Diagnostics []Diagnostic
	Hovers      []Hover
	CodeActions []CodeAction
}

// Package store implements the relational store (spec §4.1): CRUD plus a
// small set of semantic queries over the workspace's persistent index of
// files, variables, references, diagnostics, include edges, hovers and
// code actions. It is backed by SQLite (github.com/mattn/go-sqlite3), the
// same driver and DSN shape the teacher uses for its own knowledge store
// (internal/northstar/store.go), adapted here to the file/variable/
// reference schema this analysis engine actually needs.
package store

import (
	"strings"
	"time"
)

// Severity is a Diagnostic's severity level.
type Severity string

// Diagnostic severities, ordered fatal (most severe) to trace (least).
const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityVerbose Severity = "verbose"
	SeverityTrace   Severity = "trace"
)

// Access is whether a Reference reads or writes its Variable.
type Access string

const (
	AccessGet Access = "get"
	AccessSet Access = "set"
)

// TypeBits is a bitset of the target language's runtime value types a
// Reference's variable may hold at that use site.
type TypeBits uint16

const (
	TypeCode TypeBits = 1 << iota
	TypeScalar
	TypeBoolean
	TypeObject
	TypeMap
	TypeArray
	TypeString
	TypeNil

	TypeAny = TypeCode | TypeScalar | TypeBoolean | TypeObject | TypeMap | TypeArray | TypeString | TypeNil
)

// typeBitNames lists each TypeBits flag alongside its rendered name, in the
// fixed order inlayHint renders a multi-type union.
var typeBitNames = []struct {
	bit  TypeBits
	name string
}{
	{TypeScalar, "Number"},
	{TypeString, "String"},
	{TypeBoolean, "Boolean"},
	{TypeArray, "Array"},
	{TypeObject, "Object"},
	{TypeCode, "Code"},
	{TypeMap, "Namespace"},
	{TypeNil, "Nil"},
}

// String renders t as the inlay-hint type annotation (spec.md §6's
// "`: <types>`" convention): the matching flags joined by "|", or
// "Any" when every bit is set, or "" when no bit is set.
func (t TypeBits) String() string {
	if t == 0 {
		return ""
	}

	if t&TypeAny == TypeAny {
		return "Any"
	}

	var names []string

	for _, tb := range typeBitNames {
		if t&tb.bit != 0 {
			names = append(names, tb.name)
		}
	}

	return strings.Join(names, "|")
}

// CodeActionKind is the kind of a CodeAction.
type CodeActionKind string

const (
	CodeActionGeneric   CodeActionKind = "generic"
	CodeActionQuickFix  CodeActionKind = "quick_fix"
	CodeActionRefactor  CodeActionKind = "refactor"
	CodeActionExtract   CodeActionKind = "extract"
	CodeActionInline    CodeActionKind = "inline"
	CodeActionRewrite   CodeActionKind = "rewrite"
	CodeActionWholeFile CodeActionKind = "whole_file"
)

// ChangeOp is the operation a CodeActionChange performs.
type ChangeOp string

const (
	ChangeFileChange ChangeOp = "file_change"
	ChangeFileCreate ChangeOp = "file_create"
	ChangeFileDelete ChangeOp = "file_delete"
	ChangeFileRename ChangeOp = "file_rename"
)

// File is the unit of analysis: a normalized (forward-slash) workspace path.
type File struct {
	ID          int64
	Path        string
	ModifiedAt  time.Time
	IsOutdated  bool
	IsDeleted   bool
	IsIgnored   bool
	AnalyzedAt  time.Time
}

// FileHistory is one full-text snapshot of a File, append-only.
type FileHistory struct {
	ID         int64
	FileID     int64
	Content    string
	CreatedAt  time.Time
	IsExternal bool
}

// Variable is a declared name in either the global namespace or a private,
// hierarchically scoped frame.
type Variable struct {
	ID         int64
	Name       string
	Scope      string
	OwningFile *int64 // nil for globals
}

// Reference is one use of a Variable.
type Reference struct {
	ID              int64
	VariableID      int64
	File            string
	SourceFile      string
	Line            int
	Column          int
	Offset          int
	Length          int
	Access          Access
	IsDeclaration   bool
	IsMagicVariable bool
	Types           TypeBits
}

// Diagnostic is one analysis finding.
type Diagnostic struct {
	ID               int64
	File             string
	SourceFile       string
	Severity         Severity
	Code             string
	Message          string
	Excerpt          string
	Line             int
	Column           int
	Offset           int
	Length           int
	IsSuppressed     bool
	SuppressedByCode *string
}

// FileInclude records that, while analyzing SourceFile, IncludingFile
// textually included IncludedFile.
type FileInclude struct {
	ID            int64
	IncludedFile  string
	IncludingFile string
	SourceFile    string
}

// Hover is a rendered markup string over a range within a file.
type Hover struct {
	ID         int64
	File       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	Markup     string
}

// CodeAction groups one or more CodeActionChanges under a title.
type CodeAction struct {
	ID    int64
	File  string
	Kind  CodeActionKind
	Ident string
	Title string
}

// CodeActionChange is one edit within a CodeAction.
type CodeActionChange struct {
	ID           int64
	CodeActionID int64
	Operation    ChangeOp
	Path         string
	OldPath      *string
	StartLine    *int
	StartColumn  *int
	EndLine      *int
	EndColumn    *int
	NewContent   *string
}

// Package analyzer implements analyzer dispatch (spec §4.4, C5) and the
// five-step analysis base flow shared by every analyzer (spec §4.5): the
// target-language analyzer (internal/sqf, C7) and the config-format
// analyzer (internal/cfg, C8), plus the optional scripted extension host
// (internal/scripting, C11) riding along as an extra registered visitor.
package analyzer

import (
	"fmt"

	"github.com/sqfvm/language-server/internal/runtime"
	"github.com/sqfvm/language-server/internal/sqf"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/suppress"
	"github.com/sqfvm/language-server/internal/visitor"
)

// Diagnostic is a uniform, pre-suppression diagnostic from any stage of the
// base flow: preprocessor, parser, a visitor's post-pass sweeps, or the
// scripted extension host.
type Diagnostic struct {
	Severity       store.Severity
	Code           string
	Message        string
	Excerpt        string
	Line, Column   int
	Offset, Length int
}

// Hover is a visitor-local hover span, uniform across C7/C8.
type Hover struct {
	StartLine, StartCol int
	EndLine, EndCol      int
	Markup               string
}

// Result is everything one analysis of one file produced, handed to the
// commit coordinator (C9). Config analyses (C8) leave Variables/References
// empty (spec §4.7/SPEC_FULL §4.7: "it emits no Variable/Reference rows").
type Result struct {
	File        string
	Variables   []sqf.Variable
	References  []sqf.Reference
	Diagnostics []Diagnostic
	Hovers      []Hover
	CodeActions []sqf.CodeAction
	Includes    []store.FileInclude
	// Suppress is this analysis's suppression context (spec §4.2: "scoped
	// to one analysis of one file"), carried through so the commit
	// coordinator (C9) can evaluate each Diagnostic's is_suppressed flag
	// against the exact directive set this analysis produced.
	Suppress *suppress.Context
}

// Scripted is the interface a scripted-extension-host session (C11)
// implements: it rides the traversal as an ordinary visitor.Visitor and
// additionally surfaces the diagnostics its `reportDiagnostic` calls
// accumulated (spec §4.9).
type Scripted interface {
	visitor.Visitor
	Output() []Diagnostic
}

// ScriptHost constructs one Scripted session per analysis. Implemented by
// internal/scripting.Host; nil when the scripted-analyzer marker file is
// absent (spec §6: "gated by a marker file").
type ScriptHost interface {
	NewSession(file string) (Scripted, error)
}

// Analyzer is the uniform shape every file-extension-specific analyzer
// implements (spec §4.1's table / §4.4's "uniform `analyze`/`commit` pair" —
// commit itself lives in internal/commit, C9, driven by the caller with the
// Result this returns).
type Analyzer interface {
	Analyze(req Request) Result
}

// Request is everything one Analyze call needs: the file under analysis,
// its current content (the FileHistory head, spec §3), a fresh runtime
// factory, and an optional scripted-extension host.
type Request struct {
	Path    string
	Content string
	Runtime *runtime.Factory
	Scripts ScriptHost
}

// includeEdgesToStore converts runtime-level include observations into
// store.FileInclude rows tagged with the analysis's root SourceFile (spec
// §3: "while analyzing source_file, including_file textually included
// included_file").
func includeEdgesToStore(sourceFile string, edges []runtime.IncludeEdge) []store.FileInclude {
	out := make([]store.FileInclude, 0, len(edges))

	for _, e := range edges {
		out = append(out, store.FileInclude{
			IncludedFile:  e.IncludedFile,
			IncludingFile: e.IncludingFile,
			SourceFile:    sourceFile,
		})
	}

	return out
}

func runtimeDiagnostics(rt *runtime.Runtime) []Diagnostic {
	rds := rt.Diagnostics()
	out := make([]Diagnostic, 0, len(rds))

	for _, d := range rds {
		out = append(out, Diagnostic{
			Severity: d.Severity, Code: d.Code, Message: d.Message,
			Line: d.Line, Column: d.Column, Offset: d.Offset, Length: d.Length,
		})
	}

	return out
}

// parseErrorDiagnostic wraps a black-box parser's single error return into
// a uniform Diagnostic (spec §7's *parse error* row); the minimal parsers in
// internal/sqfparse/internal/cfgparse report only an error value, not a
// position, so this lands at the top of the file.
func parseErrorDiagnostic(err error) Diagnostic {
	return Diagnostic{
		Severity: store.SeverityError,
		Code:     "VV-ERR",
		Message:  fmt.Sprintf("parse error: %v", err),
	}
}

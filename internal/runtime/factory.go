// Package runtime implements the runtime factory (spec §4.4, C4): for each
// analysis it constructs a fresh preprocessor, wires the active path
// mappings into an Includer, installs a pragma bridge that feeds the
// suppression context (internal/suppress, C2), and records offset-map
// entries (internal/offsetmap, C3) plus include observations for the
// analyzer to hand to the commit coordinator (C9).
//
// One Runtime is constructed per file analysis and discarded afterward
// (spec §9: "Process-wide mutable singletons -> construct per-analysis,
// thread through the view"); the only long-lived state a Factory holds is
// the workspace root and the current path-mapping table, both read-only
// from the Runtime's perspective.
package runtime

import (
	"github.com/sqfvm/language-server/internal/offsetmap"
	"github.com/sqfvm/language-server/internal/preprocess"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/suppress"
	"github.com/sqfvm/language-server/internal/visitor"
	"github.com/sqfvm/language-server/pkg/alg/lru"
	"github.com/sqfvm/language-server/pkg/config"
)

// Diagnostic is a preprocessor- or parser-level finding (spec §7's
// *preprocessor error* / *parse error* rows), already decoded to raw
// source coordinates where the offending offset fell inside a macro
// expansion. The diagnostic-code space spec.md §6 enumerates (VV-001..009,
// VV-ERR) has no dedicated preprocessor/parser code, so these surface as
// VV-ERR — recorded as an Open Question resolution in DESIGN.md.
type Diagnostic struct {
	Severity store.Severity
	Code     string
	Message  string
	File     string
	Line     int
	Column   int
	Offset   int
	Length   int
}

// IncludeEdge is one textual #include observed during preprocessing,
// exactly spec §3's FileInclude shape minus the SourceFile (the analyzer
// fills that in — it is the same for every edge produced by one Runtime).
type IncludeEdge struct {
	IncludedFile  string
	IncludingFile string
}

// Factory constructs a fresh Runtime per analysis (spec §4.4). It is safe
// for concurrent use; all of its fields are read-only after construction.
type Factory struct {
	Root     string
	Mappings []config.PathMapping

	// ContentCache, when set, is shared across every Runtime this Factory
	// constructs during one drain pass (C10, SPEC_FULL §4.9) to avoid
	// re-reading an unchanged included file once per including analysis.
	ContentCache *lru.Cache[string, string]
}

// NewFactory constructs a Factory rooted at the given workspace directory.
func NewFactory(root string, mappings []config.PathMapping) *Factory {
	return &Factory{Root: root, Mappings: mappings}
}

// Runtime bundles one analysis's preprocessor, suppression context, offset
// map, and AnalyzerView. It satisfies preprocess.IncludeObserver,
// preprocess.PragmaHandler, and preprocess.Sink itself so the preprocessor
// can report straight back into it without an extra layer of indirection.
type Runtime struct {
	Preprocessor *preprocess.Preprocessor
	Suppress     *suppress.Context
	Offsets      *offsetmap.Map

	view        *view
	diagnostics []Diagnostic
	includes    []IncludeEdge
}

// New constructs a Runtime for analyzing file (a normalized workspace path).
func (f *Factory) New(file string) *Runtime {
	rt := &Runtime{
		Suppress: suppress.New(),
		Offsets:  offsetmap.New(),
	}

	rt.view = &view{file: file, offsets: rt.Offsets, supp: rt.Suppress}

	includer := &Includer{Root: f.Root, Mappings: f.Mappings, Cache: f.ContentCache}
	rt.Preprocessor = preprocess.New(includer, rt.Offsets, rt, rt, rt)

	return rt
}

// View returns the AnalyzerView visitors see for this analysis. Text() is
// meaningful only after Process has run; callers set it via SetText.
func (rt *Runtime) View() visitor.AnalyzerView { return rt.view }

// SetText records the preprocessed text visitors see through View().Text().
func (rt *Runtime) SetText(text string) { rt.view.text = text }

// Diagnostics returns every preprocessor-level finding recorded so far.
func (rt *Runtime) Diagnostics() []Diagnostic { return rt.diagnostics }

// Includes returns every #include observed so far.
func (rt *Runtime) Includes() []IncludeEdge { return rt.includes }

// Observe implements preprocess.IncludeObserver (spec §4.5 step 2).
func (rt *Runtime) Observe(includedFile, includingFile string) {
	rt.includes = append(rt.includes, IncludeEdge{IncludedFile: includedFile, IncludingFile: includingFile})
}

// HandlePragma implements preprocess.PragmaHandler, dispatching the `sls`
// pragma's four sub-commands (spec §4.4's table) into the suppression
// context.
func (rt *Runtime) HandlePragma(sub string, args []string, file string, line int) error {
	if len(args) == 0 {
		return nil
	}

	code := args[0]

	switch sub {
	case "enable":
		rt.Suppress.PushEnable(file, line, code)
	case "disable":
		rt.Suppress.PushDisable(file, line, code)
	case "disable line":
		rt.Suppress.PushDisableLine(file, line, code)
	case "disable file":
		rt.Suppress.PushDisableFile(code)
	}

	return nil
}

// ReportPreprocessorError implements preprocess.Sink.
func (rt *Runtime) ReportPreprocessorError(d preprocess.Diagnostic) {
	rt.diagnostics = append(rt.diagnostics, Diagnostic{
		Severity: store.SeverityError,
		Code:     "VV-ERR",
		Message:  d.Message,
		File:     d.File,
		Line:     d.Line,
		Column:   d.Column,
		Offset:   d.Offset,
	})
}

// ReportLogMessage records a non-preprocessor finding (e.g. a parse error)
// at a preprocessed offset, decoding it back to raw source coordinates
// through the offset map when it falls inside a macro expansion (spec §7's
// logging-bridge remap).
func (rt *Runtime) ReportLogMessage(code string, severity store.Severity, message string, preOffset, length int) {
	loc, rawLen := rt.Offsets.Decode(preOffset)

	if !rt.Offsets.InMacro(preOffset) {
		rt.diagnostics = append(rt.diagnostics, Diagnostic{
			Severity: severity, Code: code, Message: message,
			File: rt.view.file, Offset: preOffset, Length: length,
		})

		return
	}

	rt.diagnostics = append(rt.diagnostics, Diagnostic{
		Severity: severity, Code: code, Message: message,
		File: loc.File, Line: loc.Line, Column: loc.Column, Offset: loc.Offset, Length: rawLen,
	})
}

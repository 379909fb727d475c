// Package preprocess implements the C-like macro preprocessor (spec §4.5
// step 2): object-like and function-like #define macros, #undef,
// #ifdef/#ifndef/#else/#endif conditional blocks, #include resolution
// through a path-mapping-aware Includer, and the `#pragma sls <sub-command>`
// hook that feeds the suppression context (spec §4.4's table).
//
// Every macro expansion is reported to an OffsetRecorder (internal/offsetmap)
// as a (raw-start, preprocessed-start, preprocessed-end, raw-length)
// quadruple, so diagnostics produced against the preprocessed text can be
// rewritten back to the original source the user is looking at.
package preprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqfvm/language-server/internal/offsetmap"
)

// Includer resolves a `#include "path"` or `#include <path>` directive
// issued while preprocessing fromFile to a canonical path and its content.
// Implemented by internal/runtime using the active path-mapping table.
type Includer interface {
	Resolve(fromFile, includePath string, angled bool) (resolvedPath, content string, err error)
}

// OffsetRecorder receives one entry per macro expansion. Satisfied by
// *offsetmap.Map.
type OffsetRecorder interface {
	Record(raw offsetmap.Location, preStart, preEnd, rawLength int)
}

// IncludeObserver receives one notification per textual #include,
// satisfying spec §4.5 step 2's "each textual include records its path and
// its parent-source path."
type IncludeObserver interface {
	Observe(includedFile, includingFile string)
}

// PragmaHandler receives `#pragma sls <sub> <args...>` directives
// (spec §4.4's table), issued at the (file, line) the pragma appeared at.
type PragmaHandler interface {
	HandlePragma(sub string, args []string, file string, line int) error
}

// Diagnostic is a preprocessor-level finding (a *preprocessor error*, spec §7).
type Diagnostic struct {
	Message string
	File    string
	Line    int
	Column  int
	Offset  int
}

// Sink receives preprocessor diagnostics.
type Sink interface {
	ReportPreprocessorError(d Diagnostic)
}

// maxExpansionDepth bounds recursive macro expansion to guard against a
// macro that (directly or through a cycle) expands into itself.
const maxExpansionDepth = 64

type macro struct {
	params   []string
	variadic bool
	body     string
	isFunc   bool
}

// Preprocessor runs one pass of macro expansion + include resolution +
// pragma dispatch over one file's source text. One Preprocessor instance
// is constructed per analysis (spec §4.4) by internal/runtime.Factory.
type Preprocessor struct {
	includer Includer
	offsets  OffsetRecorder
	includes IncludeObserver
	pragma   PragmaHandler
	sink     Sink
	defines  map[string]*macro
	visited  map[string]bool // include-cycle guard for this analysis
}

// New constructs a Preprocessor. Any of offsets/includes/pragma/sink may be
// nil; the corresponding side effects are then silently skipped (useful for
// tests that only care about macro expansion text).
func New(includer Includer, offsets OffsetRecorder, includes IncludeObserver, pragma PragmaHandler, sink Sink) *Preprocessor {
	return &Preprocessor{
		includer: includer,
		offsets:  offsets,
		includes: includes,
		pragma:   pragma,
		sink:     sink,
		defines:  make(map[string]*macro),
		visited:  make(map[string]bool),
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

// Process runs the full preprocessing pass over path/source and returns the
// fully expanded, include-resolved text, or an error if a fatal condition
// (an include cycle, a malformed #include directive, or a pragma handler
// error) occurred. Recoverable problems, including an #include that cannot
// be resolved, are reported via the Sink and processing continues (spec §7:
// "errors inside one file's analysis are confined to that file").
func (p *Preprocessor) Process(path, source string) (string, error) {
	var out strings.Builder

	if err := p.processFile(path, source, &out, nil); err != nil {
		return "", err
	}

	return out.String(), nil
}

// condState tracks one level of #ifdef/#ifndef/#else nesting.
type condState struct {
	active     bool // this branch currently emits text
	taken      bool // some branch in this if-chain has already been active
	parentSkip bool // an enclosing level is itself inactive
}

func (p *Preprocessor) processFile(path, source string, out *strings.Builder, sourceFile *string) error {
	if p.visited[path] {
		return fmt.Errorf("preprocess: include cycle detected at %q", path)
	}

	p.visited[path] = true
	defer delete(p.visited, path)

	src := sourceFile
	if src == nil {
		src = &path
	}

	lines := strings.Split(source, "\n")
	var conds []condState

	active := func() bool {
		for _, c := range conds {
			if !c.active {
				return false
			}
		}

		return true
	}

	rawOffset := 0

	for lineNo, line := range lines {
		lineStart := rawOffset
		rawOffset += len(line) + 1 // account for the '\n' split away

		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			directive := strings.TrimSpace(trimmed[1:])

			switch {
			case strings.HasPrefix(directive, "ifdef "):
				name := strings.TrimSpace(directive[len("ifdef "):])
				_, ok := p.defines[name]
				conds = append(conds, condState{active: ok && active(), taken: ok})

				continue
			case strings.HasPrefix(directive, "ifndef "):
				name := strings.TrimSpace(directive[len("ifndef "):])
				_, ok := p.defines[name]
				conds = append(conds, condState{active: !ok && active(), taken: !ok})

				continue
			case directive == "else":
				if len(conds) > 0 {
					top := &conds[len(conds)-1]
					top.active = !top.taken
					top.taken = true
				}

				continue
			case directive == "endif":
				if len(conds) > 0 {
					conds = conds[:len(conds)-1]
				}

				continue
			}

			if !active() {
				continue
			}

			if err := p.handleDirective(directive, *src, lineNo+1, lineStart, out); err != nil {
				return err
			}

			continue
		}

		if !active() {
			continue
		}

		expanded := p.expandLine(line, *src, lineNo+1, lineStart, out.Len(), 0)
		out.WriteString(expanded)
		out.WriteByte('\n')
	}

	return nil
}

func (p *Preprocessor) handleDirective(directive, file string, line, lineStart int, out *strings.Builder) error {
	switch {
	case strings.HasPrefix(directive, "define "):
		p.handleDefine(strings.TrimSpace(directive[len("define "):]))

		return nil
	case strings.HasPrefix(directive, "undef "):
		name := strings.TrimSpace(directive[len("undef "):])
		delete(p.defines, name)

		return nil
	case strings.HasPrefix(directive, "include "):
		return p.handleInclude(strings.TrimSpace(directive[len("include "):]), file, out)
	case strings.HasPrefix(directive, "pragma "):
		return p.handlePragma(strings.TrimSpace(directive[len("pragma "):]), file, line)
	default:
		return nil
	}
}

func (p *Preprocessor) handleDefine(rest string) {
	m := identRe.FindString(rest)
	if m == "" {
		return
	}

	remainder := rest[len(m):]

	def := &macro{}

	if strings.HasPrefix(remainder, "(") {
		end := strings.IndexByte(remainder, ')')
		if end < 0 {
			return
		}

		paramList := remainder[1:end]
		def.isFunc = true

		for _, param := range strings.Split(paramList, ",") {
			param = strings.TrimSpace(param)
			if param == "" {
				continue
			}

			if param == "..." {
				def.variadic = true

				continue
			}

			def.params = append(def.params, param)
		}

		remainder = remainder[end+1:]
	}

	def.body = strings.TrimSpace(remainder)
	p.defines[m] = def
}

func (p *Preprocessor) handleInclude(rest string, file string, out *strings.Builder) error {
	var path string

	var angled bool

	switch {
	case strings.HasPrefix(rest, "\""):
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return fmt.Errorf("preprocess: unterminated #include at %s", file)
		}

		path = rest[1 : end+1]
	case strings.HasPrefix(rest, "<"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return fmt.Errorf("preprocess: unterminated #include at %s", file)
		}

		path = rest[1:end]
		angled = true
	default:
		return fmt.Errorf("preprocess: malformed #include at %s", file)
	}

	if p.includer == nil {
		return nil
	}

	resolved, content, err := p.includer.Resolve(file, path, angled)
	if err != nil {
		if p.sink != nil {
			p.sink.ReportPreprocessorError(Diagnostic{
				Message: fmt.Sprintf("cannot resolve #include %q: %v", path, err),
				File:    file,
			})
		}

		return nil
	}

	if p.includes != nil {
		p.includes.Observe(resolved, file)
	}

	return p.processFile(resolved, content, out, &file)
}

func (p *Preprocessor) handlePragma(rest string, file string, line int) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 || fields[0] != "sls" {
		return nil
	}

	if len(fields) < 2 {
		return nil
	}

	sub := fields[1]
	args := fields[2:]

	// `disable line <code>` and `disable file <code>` are two-word
	// sub-commands per spec §4.4's table.
	if (sub == "disable") && len(args) >= 2 && (args[0] == "line" || args[0] == "file") {
		sub = "disable " + args[0]
		args = args[1:]
	}

	if p.pragma == nil {
		return nil
	}

	if err := p.pragma.HandlePragma(sub, args, file, line); err != nil {
		return fmt.Errorf("preprocess: pragma sls %s: %w", sub, err)
	}

	return nil
}

// expandLine performs macro substitution on a non-directive source line,
// recording one offset-map entry per expansion. depth guards recursive
// expansion of a macro's own body.
func (p *Preprocessor) expandLine(line, file string, lineNo, lineStart, preBase, depth int) string {
	if depth >= maxExpansionDepth {
		return line
	}

	var out strings.Builder

	i := 0
	col := 0

	for i < len(line) {
		c := line[i]

		if !isIdentStart(c) {
			out.WriteByte(c)
			i++
			col++

			continue
		}

		tok := identRe.FindString(line[i:])
		if tok == "" {
			out.WriteByte(c)
			i++
			col++

			continue
		}

		def, ok := p.defines[tok]
		if !ok {
			out.WriteString(tok)
			i += len(tok)
			col += len(tok)

			continue
		}

		rawStart := lineStart + i
		rawLen := len(tok)

		var args []string

		consumed := len(tok)

		if def.isFunc {
			rest := line[i+len(tok):]

			argsText, argLen, argOK := splitCallArgs(rest)
			if !argOK {
				out.WriteString(tok)
				i += len(tok)
				col += len(tok)

				continue
			}

			args = argsText
			consumed += argLen
			rawLen = consumed
		}

		expansion := expandBody(def, args)
		expansion = p.expandLine(expansion, file, lineNo, lineStart, preBase+out.Len(), depth+1)

		preStart := preBase + out.Len()
		preEnd := preStart + len(expansion)

		if p.offsets != nil {
			p.offsets.Record(offsetmap.Location{File: file, Line: lineNo, Column: col, Offset: rawStart}, preStart, preEnd, rawLen)
		}

		out.WriteString(expansion)
		i += consumed
		col += consumed
	}

	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// splitCallArgs parses a `(a, b, c)` argument list immediately following a
// function-like macro's name. Returns the split arguments, the number of
// raw bytes consumed (including the parens), and whether a call was found
// at all (a bare reference to a function-like macro name with no following
// parens is left untouched, matching standard C preprocessor behavior).
func splitCallArgs(rest string) ([]string, int, bool) {
	trimmed := 0

	for trimmed < len(rest) && (rest[trimmed] == ' ' || rest[trimmed] == '\t') {
		trimmed++
	}

	if trimmed >= len(rest) || rest[trimmed] != '(' {
		return nil, 0, false
	}

	depth := 0
	start := trimmed + 1
	argStart := start

	var args []string

	for i := start; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				args = append(args, strings.TrimSpace(rest[argStart:i]))

				return args, i + 1, true
			}

			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(rest[argStart:i]))
				argStart = i + 1
			}
		}
	}

	return nil, 0, false
}

func expandBody(def *macro, args []string) string {
	if !def.isFunc {
		return def.body
	}

	body := def.body

	for i, param := range def.params {
		var value string
		if i < len(args) {
			value = args[i]
		}

		body = replaceToken(body, param, value)
	}

	if def.variadic && len(args) > len(def.params) {
		variadic := strings.Join(args[len(def.params):], ", ")
		body = replaceToken(body, "__VA_ARGS__", variadic)
	}

	return body
}

// replaceToken substitutes whole-identifier occurrences of name in body
// with value, without touching identifiers that merely contain name as a
// substring.
func replaceToken(body, name, value string) string {
	var out strings.Builder

	i := 0

	for i < len(body) {
		if isIdentStart(body[i]) {
			tok := identRe.FindString(body[i:])
			if tok == name {
				out.WriteString(value)
				i += len(tok)

				continue
			}

			out.WriteString(tok)
			i += len(tok)

			continue
		}

		out.WriteByte(body[i])
		i++
	}

	return out.String()
}

package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/sqfvm/language-server/internal/analyzer"
	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Session is one scripted-extension-host run over one analysis (spec §4.9),
// riding the traversal as an ordinary visitor.Visitor. It owns one
// *interp.Interpreter per phase (spec.md §9's Open Question resolution:
// "one slot per phase"); neither the interpreters nor the handle table
// outlive this one analysis call.
type Session struct {
	dir   string
	vocab *vocabulary

	fns   map[Phase]reflect.Value
	diags []analyzer.Diagnostic
}

func newSession(dir string) *Session {
	return &Session{dir: dir, fns: make(map[Phase]reflect.Value)}
}

// compile evaluates every present phase script in its own interpreter,
// wiring the host vocabulary in as the `sqfvmhost/sqfvmhost` package. A
// phase script that fails to compile is recorded as a Diagnostic rather
// than aborting the session (spec.md §4.9: "Failure to compile or execute
// a user script does not abort the analysis").
func (s *Session) compile() error {
	for _, phase := range phases {
		path := filepath.Join(s.dir, phase.fileName())

		src, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && !requiredPhases[phase] {
				continue
			}

			return fmt.Errorf("scripting: read %s: %w", path, err)
		}

		fn, compileErr := s.compilePhase(phase, string(src))
		if compileErr != nil {
			s.diags = append(s.diags, analyzer.Diagnostic{
				Severity: store.SeverityWarning,
				Code:     "VV-ERR",
				Message:  fmt.Sprintf("scripted analyzer %s: %v", phase, compileErr),
			})

			continue
		}

		s.fns[phase] = fn
	}

	return nil
}

func (s *Session) compilePhase(phase Phase, src string) (reflect.Value, error) {
	i := interp.New(interp.Options{})

	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("load stdlib: %w", err)
	}

	if err := i.Use(interp.Exports{
		"sqfvmhost/sqfvmhost": map[string]reflect.Value{
			"LineOf":           reflect.ValueOf(s.vocab.LineOf),
			"ColumnOf":         reflect.ValueOf(s.vocab.ColumnOf),
			"OffsetOf":         reflect.ValueOf(s.vocab.OffsetOf),
			"LengthOf":         reflect.ValueOf(s.vocab.LengthOf),
			"ContentOf":        reflect.ValueOf(s.vocab.ContentOf),
			"PathOf":           reflect.ValueOf(s.vocab.PathOf),
			"FileOf":           reflect.ValueOf(s.vocab.FileOf),
			"TypeOf":           reflect.ValueOf(s.vocab.TypeOf),
			"ChildrenOf":       reflect.ValueOf(s.vocab.ChildrenOf),
			"ReportDiagnostic": reflect.ValueOf(s.vocab.ReportDiagnostic),
		},
	}); err != nil {
		return reflect.Value{}, fmt.Errorf("load host vocabulary: %w", err)
	}

	if _, err := i.Eval(src); err != nil {
		return reflect.Value{}, fmt.Errorf("compile: %w", err)
	}

	v, err := i.Eval("main." + phase.funcName())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("locate %s: %w", phase.funcName(), err)
	}

	return v, nil
}

// Start implements visitor.Visitor. The host vocabulary binds to view here
// (not in NewSession, which only materializes script files) because the
// bound methods it hands to each script's interpreter close over s.vocab,
// which must exist before compile() builds those closures.
func (s *Session) Start(view visitor.AnalyzerView) {
	s.vocab = newVocabulary(view, s.recordDiagnostic)

	if err := s.compile(); err != nil {
		s.diags = append(s.diags, analyzer.Diagnostic{
			Severity: store.SeverityWarning,
			Code:     "VV-ERR",
			Message:  fmt.Sprintf("scripted extension host: %v", err),
		})

		return
	}

	s.callNoArg(PhaseStart)
}

// Enter implements visitor.Visitor.
func (s *Session) Enter(node *ast.Node, parents []*ast.Node) {
	s.callWithNode(PhaseEnter, node)
}

// Exit implements visitor.Visitor.
func (s *Session) Exit(node *ast.Node, parents []*ast.Node) {
	s.callWithNode(PhaseExit, node)
}

// End implements visitor.Visitor.
func (s *Session) End() {
	s.callNoArg(PhaseEnd)

	if fn, ok := s.fns[PhaseAnalyze]; ok {
		s.invoke(PhaseAnalyze, fn)
	}
}

// Output implements analyzer.Scripted.
func (s *Session) Output() []analyzer.Diagnostic { return s.diags }

func (s *Session) callNoArg(phase Phase) {
	fn, ok := s.fns[phase]
	if !ok {
		return
	}

	s.invoke(phase, fn)
}

func (s *Session) callWithNode(phase Phase, node *ast.Node) {
	fn, ok := s.fns[phase]
	if !ok {
		return
	}

	handle := s.vocab.handles.mint(node)
	s.invoke(phase, fn, reflect.ValueOf(handle))
}

// invoke calls fn, converting a panic (a user script dividing by zero, an
// out-of-range slice access, and so on) into a Diagnostic instead of
// propagating it (spec.md §4.9).
func (s *Session) invoke(phase Phase, fn reflect.Value, args ...reflect.Value) {
	defer func() {
		if r := recover(); r != nil {
			s.diags = append(s.diags, analyzer.Diagnostic{
				Severity: store.SeverityWarning,
				Code:     "VV-ERR",
				Message:  fmt.Sprintf("scripted analyzer %s panicked: %v", phase, r),
			})
		}
	}()

	fn.Call(args)
}

func (s *Session) recordDiagnostic(tuple []interface{}) {
	sev, code, content, message, line, column, offset, length, file, err := parseTuple(tuple)
	if err != nil {
		s.diags = append(s.diags, analyzer.Diagnostic{
			Severity: store.SeverityWarning,
			Code:     "VV-ERR",
			Message:  fmt.Sprintf("scripted analyzer reportDiagnostic: %v", err),
		})

		return
	}

	_ = file // the file is always the one under analysis in this single-file host

	s.diags = append(s.diags, analyzer.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  message,
		Excerpt:  content,
		Line:     line,
		Column:   column,
		Offset:   offset,
		Length:   length,
	})
}

package analyzer

import (
	"github.com/sqfvm/language-server/internal/sqf"
	"github.com/sqfvm/language-server/internal/sqfparse"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
)

// SQFAnalyzer implements the target-language analyzer (spec §4.5, driving
// C7 and, when enabled, C11).
type SQFAnalyzer struct {
	framework *visitor.Framework
}

// NewSQFAnalyzer constructs a fresh SQFAnalyzer.
func NewSQFAnalyzer() *SQFAnalyzer {
	return &SQFAnalyzer{framework: visitor.NewFramework()}
}

// Analyze implements Analyzer, running spec §4.5's five-step base flow.
func (a *SQFAnalyzer) Analyze(req Request) Result {
	res := Result{File: req.Path}

	if req.Path == "" {
		res.Diagnostics = []Diagnostic{{Severity: store.SeverityError, Code: "VV-ERR", Message: "analyzer: empty path"}}

		return res
	}

	rt := req.Runtime.New(req.Path)
	res.Suppress = rt.Suppress

	text, err := rt.Preprocessor.Process(req.Path, req.Content)

	res.Includes = includeEdgesToStore(req.Path, rt.Includes())
	res.Diagnostics = append(res.Diagnostics, runtimeDiagnostics(rt)...)

	if err != nil {
		// Preprocessing failed fatally; the preprocessor's own diagnostics
		// are already recorded above (spec §4.5 step 3).
		return res
	}

	rt.SetText(text)

	root, parseErr := sqfparse.Parse(text)
	if parseErr != nil {
		res.Diagnostics = append(res.Diagnostics, parseErrorDiagnostic(parseErr))

		return res
	}

	sv := sqf.New()
	visitors := []visitor.Visitor{sv}

	var session Scripted

	if req.Scripts != nil {
		if s, sessErr := req.Scripts.NewSession(req.Path); sessErr == nil {
			session = s
			visitors = append(visitors, s)
		} else {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: store.SeverityWarning, Code: "VV-ERR",
				Message: "scripted extension host: " + sessErr.Error(),
			})
		}
	}

	a.framework.Walk(root, visitors, rt.View())

	out := sv.Output()
	res.Variables = out.Variables
	res.References = out.References
	res.CodeActions = out.CodeActions

	for _, d := range out.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: d.Severity, Code: d.Code, Message: d.Message, Excerpt: d.Excerpt,
			Line: d.Line, Column: d.Column, Offset: d.Offset, Length: d.Length,
		})
	}

	for _, h := range out.Hovers {
		res.Hovers = append(res.Hovers, Hover{
			StartLine: h.StartLine, StartCol: h.StartCol, EndLine: h.EndLine, EndCol: h.EndCol, Markup: h.Markup,
		})
	}

	if session != nil {
		res.Diagnostics = append(res.Diagnostics, session.Output()...)
	}

	return res
}

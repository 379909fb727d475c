package analyzer

import (
	"github.com/sqfvm/language-server/internal/cfg"
	"github.com/sqfvm/language-server/internal/cfgparse"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
)

// ConfigAnalyzer implements the config-format analyzer (spec §4.7, C8): the
// same base flow as SQFAnalyzer, minus the symbol/reference machinery and
// the scripted extension host (spec §4.9 gates C11 to the target language).
type ConfigAnalyzer struct {
	framework *visitor.Framework
}

// NewConfigAnalyzer constructs a fresh ConfigAnalyzer.
func NewConfigAnalyzer() *ConfigAnalyzer {
	return &ConfigAnalyzer{framework: visitor.NewFramework()}
}

// Analyze implements Analyzer.
func (a *ConfigAnalyzer) Analyze(req Request) Result {
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
		return res
	}

	rt.SetText(text)

	root, parseErr := cfgparse.Parse(text)
	if parseErr != nil {
		res.Diagnostics = append(res.Diagnostics, parseErrorDiagnostic(parseErr))

		return res
	}

	cv := cfg.New()
	a.framework.Walk(root, []visitor.Visitor{cv}, rt.View())

	out := cv.Output()

	for _, d := range out.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: d.Severity, Code: d.Code, Message: d.Message,
			Line: d.Line, Column: d.Column, Offset: d.Offset, Length: d.Length,
		})
	}

	for _, h := range out.Hovers {
		res.Hovers = append(res.Hovers, Hover{
			StartLine: h.StartLine, StartCol: h.StartCol, EndLine: h.EndLine, EndCol: h.EndCol, Markup: h.Markup,
		})
	}

	return res
}

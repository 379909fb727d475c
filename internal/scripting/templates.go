package scripting

// Phase names a user-editable script slot (spec §4.9: "four user-editable
// scripts (start, enter, exit, end)", spec.md's optional fifth analyze).
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseEnter   Phase = "enter"
	PhaseExit    Phase = "exit"
	PhaseEnd     Phase = "end"
	PhaseAnalyze Phase = "analyze"
)

// phases lists every phase materialized on first use, in the order their
// template bodies are written. PhaseAnalyze is optional (spec.md: "the
// optional fifth") so it is not required to compile for a session to run.
var phases = []Phase{PhaseStart, PhaseEnter, PhaseExit, PhaseEnd, PhaseAnalyze}

var requiredPhases = map[Phase]bool{
	PhaseStart: true,
	PhaseEnter: true,
	PhaseExit:  true,
	PhaseEnd:   true,
}

// funcName is the exported Go function a phase's script must define.
func (p Phase) funcName() string {
	switch p {
	case PhaseStart:
		return "Start"
	case PhaseEnter:
		return "Enter"
	case PhaseExit:
		return "Exit"
	case PhaseEnd:
		return "End"
	case PhaseAnalyze:
		return "Analyze"
	default:
		return ""
	}
}

func (p Phase) fileName() string { return string(p) + ".go" }

// templateBody is the stub a fresh phase script is seeded with (spec.md:
// "materializes four user-editable scripts ... with template bodies if
// missing").
func (p Phase) templateBody() string {
	switch p {
	case PhaseStart:
		return "package main\n\n// Start runs once before traversal begins.\nfunc Start() {\n}\n"
	case PhaseEnter:
		return "package main\n\nimport \"sqfvmhost/sqfvmhost\"\n\n" +
			"// Enter runs once per AST node, on the way down.\n" +
			"func Enter(node int) {\n\t_ = sqfvmhost.TypeOf(node)\n}\n"
	case PhaseExit:
		return "package main\n\nimport \"sqfvmhost/sqfvmhost\"\n\n" +
			"// Exit runs once per AST node, on the way back up.\n" +
			"func Exit(node int) {\n\t_ = sqfvmhost.TypeOf(node)\n}\n"
	case PhaseEnd:
		return "package main\n\n// End runs once after traversal completes.\nfunc End() {\n}\n"
	case PhaseAnalyze:
		return "package main\n\n// Analyze is an optional whole-file pass, run after End.\nfunc Analyze() {\n}\n"
	default:
		return ""
	}
}

// readmeBody documents the ABI for the scripted extension host (spec.md:
// "ReadMe.md is generated once with a documented ABI: severity strings,
// the 9-tuple diagnostic shape, and the operator surface from §4.9").
const readmeBody = `# Scripted analyzers

Each file in this directory is a Go source file, compiled and run with the
` + "`github.com/traefik/yaegi`" + ` interpreter — no ` + "`go build`" + ` step, no external
module imports beyond what this host exposes.

## Phases

- ` + "`start.go`" + `: ` + "`func Start()`" + ` — runs once before traversal.
- ` + "`enter.go`" + `: ` + "`func Enter(node int)`" + ` — runs once per AST node, descending.
- ` + "`exit.go`" + `: ` + "`func Exit(node int)`" + ` — runs once per AST node, ascending.
- ` + "`end.go`" + `: ` + "`func End()`" + ` — runs once after traversal.
- ` + "`analyze.go`" + ` (optional): ` + "`func Analyze()`" + ` — runs once after End.

## Host vocabulary (package ` + "`sqfvmhost`" + `)

- ` + "`LineOf(node int) int`" + `, ` + "`ColumnOf(node int) int`" + `, ` + "`OffsetOf(node int) int`" + `,
  ` + "`LengthOf(node int) int`" + ` — the node's position in the preprocessed text.
- ` + "`ContentOf(node int) string`" + ` — the node's source text.
- ` + "`PathOf() string`" + `, ` + "`FileOf(node int) string`" + ` — the file under analysis.
- ` + "`TypeOf(node int) string`" + ` — the node's kind (e.g. ` + "`\"Ident\"`, `\"Assignment\"`" + `).
- ` + "`ChildrenOf(node int) []int`" + ` — the node's children, as fresh handles.
- ` + "`ReportDiagnostic(tuple []interface{})`" + ` — pushes a Diagnostic row on commit.
  The tuple is 9 elements, in order: severity string (one of ` + "`fatal`, `error`, `warning`, `info`, `verbose`, `trace`" + `),
  code, content, message, line, column, offset, length, file path.

Node handles are only valid for the duration of the call that received them;
do not store one across phases.

A script that fails to compile or panics during a call does not abort the
analysis — the failure surfaces as a Diagnostic on the file instead.
`

package workspace

import "github.com/sqfvm/language-server/internal/store"

// References answers `textDocument/references` against the store (spec.md
// §4.8's "Editor queries" — read-only, no analysis triggered).
func (o *Orchestrator) References(file string, line, col int) ([]*store.Reference, error) {
	refs, err := o.st.ReferencesInFile(file)
	if err != nil {
		return nil, err
	}

	target := findReferenceAt(refs, line, col)
	if target == nil {
		return nil, nil
	}

	return o.st.ReferencesOfVariable(target.VariableID)
}

// Hover answers `textDocument/hover`. It prefers a visitor-rendered Hover
// row covering the position; absent one, it falls back to a type-union
// hover synthesized from the Reference at that position (spec.md §4.8, C7's
// inlay/hover split).
func (o *Orchestrator) Hover(file string, line, col int) (*store.Hover, error) {
	hovers, err := o.st.HoversInFile(file)
	if err != nil {
		return nil, err
	}

	for _, h := range hovers {
		if positionWithin(line, col, h.StartLine, h.StartCol, h.EndLine, h.EndCol) {
			return h, nil
		}
	}

	refs, err := o.st.ReferencesInFile(file)
	if err != nil {
		return nil, err
	}

	ref := findReferenceAt(refs, line, col)
	if ref == nil {
		return nil, nil
	}

	v, err := o.st.VariableByID(ref.VariableID)
	if err != nil || v == nil {
		return nil, err
	}

	types := ref.Types.String()
	if types == "" {
		return nil, nil
	}

	return &store.Hover{
		File:      file,
		StartLine: ref.Line, StartCol: ref.Column,
		EndLine: ref.Line, EndCol: ref.Column + ref.Length,
		Markup: "`" + v.Name + "`: " + types,
	}, nil
}

// InlayHint answers `textDocument/inlayHint` for the [startLine, endLine]
// range: one "`: <types>`" hint per Reference whose Types is non-empty
// (spec.md §6's inlay-hint convention).
func (o *Orchestrator) InlayHint(file string, startLine, endLine int) ([]*store.Reference, error) {
	refs, err := o.st.ReferencesInRange(file, startLine, endLine)
	if err != nil {
		return nil, err
	}

	out := make([]*store.Reference, 0, len(refs))

	for _, r := range refs {
		if r.Types.String() != "" {
			out = append(out, r)
		}
	}

	return out, nil
}

// CodeActionResult pairs a CodeAction with its resolved changes, the shape
// `textDocument/codeAction` needs.
type CodeActionResult struct {
	Action  *store.CodeAction
	Changes []*store.CodeActionChange
}

// CodeAction answers `textDocument/codeAction` for the given range.
func (o *Orchestrator) CodeAction(file string, startLine, endLine int) ([]CodeActionResult, error) {
	actions, err := o.st.CodeActionsInFile(file)
	if err != nil {
		return nil, err
	}

	var out []CodeActionResult

	for _, a := range actions {
		changes, err := o.st.CodeActionChangesOf(a.ID)
		if err != nil {
			return nil, err
		}

		if !changesOverlapRange(changes, startLine, endLine) {
			continue
		}

		out = append(out, CodeActionResult{Action: a, Changes: changes})
	}

	return out, nil
}

func changesOverlapRange(changes []*store.CodeActionChange, startLine, endLine int) bool {
	for _, c := range changes {
		if c.StartLine == nil || c.EndLine == nil {
			return true
		}

		if *c.StartLine <= endLine && *c.EndLine >= startLine {
			return true
		}
	}

	return false
}

func findReferenceAt(refs []*store.Reference, line, col int) *store.Reference {
	for _, r := range refs {
		if r.Line == line && col >= r.Column && col <= r.Column+r.Length {
			return r
		}
	}

	return nil
}

func positionWithin(line, col, startLine, startCol, endLine, endCol int) bool {
	if line < startLine || line > endLine {
		return false
	}

	if line == startLine && col < startCol {
		return false
	}

	if line == endLine && col > endCol {
		return false
	}

	return true
}

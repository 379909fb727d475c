// Package sqf implements the symbol & reference visitor (spec §4.6, C7):
// the scope-sensitive resolver that classifies private vs global
// variables, handles the fixed set of variable-introducing/-consuming
// operators, injects magic iteration variables, detects redundant
// parentheses, and runs the four post-pass diagnostic sweeps.
package sqf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqfvm/language-server/internal/ast"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/visitor"
	"github.com/sqfvm/language-server/pkg/levenshtein"
)

// globalNamespace is the fixed global scope tag (spec §3's
// `missionNamespace`, generalized).
const globalNamespace = "missionNamespace"

// attachedOps keeps `_this` visible into a child Code block instead of
// detaching it into a fresh scope (spec §4.6's "attached-operator set").
var attachedOps = map[string]bool{
	"then": true, "do": true, "else": true, "&&": true, "||": true,
	"and": true, "or": true, "exitwith": true, "switch": true, "case": true, "default": true,
}

// iterationOps injects synthetic magic-variable set-references into their
// Code operand (spec §4.6 "Magic variables").
var iterationOps = map[string]bool{
	"apply": true, "select": true, "count": true, "findif": true, "foreach": true, "catch": true,
}

// nameOperators is the fixed operator-handling table of spec §4.6.
var nameOperators = map[string]bool{
	"private": true, "params": true, "for": true, "isnil": true,
	"getvariable": true, "setvariable": true,
}

type frame struct {
	tag           string
	detachedOwner string
	isDetached    bool
	childCount    int
	path          []int
}

type declSite struct {
	line, column, offset, length int
}

// Visitor is the symbol & reference visitor. One Visitor instance exists
// per analysis of one file.
type Visitor struct {
	view visitor.AnalyzerView

	scopeStack     []frame
	detachedStack  []string
	variables      []*Variable
	globals        map[string]int // "name_lower" -> index into variables
	privates       map[string]int // "scopeTag|name_lower" -> index into variables
	declSites      map[int]declSite
	consumed       map[*ast.Node]bool
	references     []Reference
	diagnostics    []Diagnostic
	codeActions    []CodeAction
	lev            levenshtein.Context
}

// New constructs a fresh symbol & reference visitor.
func New() *Visitor {
	return &Visitor{}
}

// Start resets all per-analysis state and records the analyzer view.
func (v *Visitor) Start(view visitor.AnalyzerView) {
	v.view = view
	v.scopeStack = nil
	v.detachedStack = nil
	v.variables = nil
	v.globals = make(map[string]int)
	v.privates = make(map[string]int)
	v.declSites = make(map[int]declSite)
	v.consumed = make(map[*ast.Node]bool)
	v.references = nil
	v.diagnostics = nil
	v.codeActions = nil
}

// Output returns everything this visitor produced. Call after End().
func (v *Visitor) Output() Output {
	vars := make([]Variable, len(v.variables))
	for i, p := range v.variables {
		vars[i] = *p
	}

	return Output{
		Variables:   vars,
		References:  v.references,
		Diagnostics: v.diagnostics,
		CodeActions: v.codeActions,
	}
}

// Enter implements visitor.Visitor.
func (v *Visitor) Enter(node *ast.Node, parents []*ast.Node) {
	switch node.Kind {
	case ast.KindCode:
		v.enterCode(node, parents)
	case ast.KindGroup:
		v.checkRedundantParens(node, parents)
	case ast.KindUnary:
		v.enterUnary(node, parents)
	case ast.KindAssignment:
		v.enterAssignment(node, parents)
	case ast.KindIdent:
		v.enterIdent(node, parents)
	}
}

// Exit implements visitor.Visitor.
func (v *Visitor) Exit(node *ast.Node, parents []*ast.Node) {
	if node.Kind == ast.KindCode {
		if len(v.scopeStack) > 0 {
			top := v.scopeStack[len(v.scopeStack)-1]
			if top.isDetached {
				v.detachedStack = v.detachedStack[:len(v.detachedStack)-1]
			}

			v.scopeStack = v.scopeStack[:len(v.scopeStack)-1]
		}
	}
}

// End runs the post-pass diagnostic sweeps (spec §4.6).
func (v *Visitor) End() {
	v.runPostPassSweeps()
}

// ---- scope management ----

func (v *Visitor) currentFrame() *frame {
	if len(v.scopeStack) == 0 {
		return nil
	}

	return &v.scopeStack[len(v.scopeStack)-1]
}

func (v *Visitor) currentDetachedOwner() string {
	if len(v.detachedStack) == 0 {
		return ""
	}

	return v.detachedStack[len(v.detachedStack)-1]
}

func (v *Visitor) enterCode(node *ast.Node, parents []*ast.Node) {
	var parent *ast.Node
	if len(parents) > 0 {
		parent = parents[len(parents)-1]
	}

	opTok := ""
	if parent != nil && (parent.Kind == ast.KindBinary || parent.Kind == ast.KindUnary) {
		opTok = strings.ToLower(parent.Token)
	}

	detached := !attachedOps[opTok]

	cur := v.currentFrame()

	var path []int

	if cur == nil {
		path = []int{}
	} else {
		idx := cur.childCount
		cur.childCount++
		path = append(append([]int{}, cur.path...), idx)
	}

	tag := v.view.ScopeTag(path)

	owner := tag
	if !detached {
		owner = v.currentDetachedOwner()
	}

	v.scopeStack = append(v.scopeStack, frame{
		tag: tag, detachedOwner: owner, isDetached: detached, path: path,
	})

	if detached {
		v.detachedStack = append(v.detachedStack, tag)

		thisVar, _ := v.getOrCreatePrivate("_this")
		v.emitRef(thisVar, store.AccessSet, false, true, store.TypeAny, node.Pos, "_this")
	}

	switch {
	case iterationOps[opTok] && opTok != "catch":
		xVar, _ := v.getOrCreatePrivate("_x")
		v.emitRef(xVar, store.AccessSet, false, true, store.TypeAny, node.Pos, "_x")

		if opTok == "foreach" {
			yVar, _ := v.getOrCreatePrivate("_y")
			v.emitRef(yVar, store.AccessSet, false, true, store.TypeAny, node.Pos, "_y")

			idxVar, _ := v.getOrCreatePrivate("_forEachIndex")
			v.emitRef(idxVar, store.AccessSet, false, true, store.TypeAny, node.Pos, "_forEachIndex")
		}
	case opTok == "catch":
		excVar, _ := v.getOrCreatePrivate("_exception")
		v.emitRef(excVar, store.AccessSet, false, true, store.TypeAny, node.Pos, "_exception")
	}
}

// ---- variable resolution ----

func (v *Visitor) getOrCreatePrivate(name string) (*Variable, bool) {
	owner := v.currentDetachedOwner()
	key := owner + "|" + strings.ToLower(name)

	if idx, ok := v.privates[key]; ok {
		return v.variables[idx], true
	}

	idx := len(v.variables)
	file := v.view.File()
	variable := &Variable{LocalID: idx, Name: name, Scope: owner, IsGlobal: false, OwningFile: file}
	v.variables = append(v.variables, variable)
	v.privates[key] = idx

	return variable, false
}

func (v *Visitor) getOrCreateGlobal(name string) (*Variable, bool) {
	key := strings.ToLower(name)

	if idx, ok := v.globals[key]; ok {
		return v.variables[idx], true
	}

	idx := len(v.variables)
	variable := &Variable{LocalID: idx, Name: name, Scope: globalNamespace, IsGlobal: true}
	v.variables = append(v.variables, variable)
	v.globals[key] = idx

	return variable, false
}

func (v *Visitor) resolveOrDeclare(name string, pos ast.Position) *Variable {
	if isPrivate(name) {
		variable, existed := v.getOrCreatePrivate(name)

		if !existed {
			v.declSites[variable.LocalID] = declSiteFrom(pos)
		} else if variable.Name != name {
			v.emitDiag("VV-005", pos, fmt.Sprintf("reference %q differs in form from canonical name %q", name, variable.Name))
		}

		return variable
	}

	variable, existed := v.getOrCreateGlobal(name)

	if !existed {
		v.declSites[variable.LocalID] = declSiteFrom(pos)
	} else if variable.Name != name {
		v.emitDiag("VV-005", pos, fmt.Sprintf("reference %q differs in form from canonical name %q", name, variable.Name))
	}

	return variable
}

// declarePrivateExplicit is used by the `private`/`params`/`for`
// operators: it performs the same resolution as resolveOrDeclare but also
// runs the VV-009 ancestor-shadow check, which only applies to an actual
// declaration site, not an implicit get/set.
func (v *Visitor) declarePrivateExplicit(name string, pos ast.Position) *Variable {
	owner := v.currentDetachedOwner()
	lower := strings.ToLower(name)

	for i := len(v.detachedStack) - 2; i >= 0; i-- {
		ancestorTag := v.detachedStack[i]
		if idx, ok := v.privates[ancestorTag+"|"+lower]; ok {
			outer := v.declSites[idx]
			v.emitDiagAt("VV-009", pos, fmt.Sprintf("private %q shadows a declaration in an enclosing scope", name))
			v.emitDiagAt("VV-009", ast.Position{Line: outer.line, Column: outer.column, Offset: outer.offset, Length: outer.length},
				fmt.Sprintf("private %q is shadowed by a declaration in a nested scope", name))

			break
		}
	}

	key := owner + "|" + lower
	if idx, ok := v.privates[key]; ok {
		return v.variables[idx]
	}

	idx := len(v.variables)
	variable := &Variable{LocalID: idx, Name: name, Scope: owner, IsGlobal: false, OwningFile: v.view.File()}
	v.variables = append(v.variables, variable)
	v.privates[key] = idx
	v.declSites[idx] = declSiteFrom(pos)

	return variable
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

func declSiteFrom(pos ast.Position) declSite {
	return declSite{line: pos.Line, column: pos.Column, offset: pos.Offset, length: pos.Length}
}

// ---- reference & diagnostic emission ----

func (v *Visitor) emitRef(variable *Variable, access store.Access, isDecl, isMagic bool, types store.TypeBits, pos ast.Position, _ string) {
	v.references = append(v.references, Reference{
		VariableLocalID: variable.LocalID,
		Line:            pos.Line,
		Column:          pos.Column,
		Offset:          pos.Offset,
		Length:          pos.Length,
		Access:          access,
		IsDeclaration:   isDecl,
		IsMagicVariable: isMagic,
		Types:           types,
	})
}

func (v *Visitor) emitDiag(code string, pos ast.Position, message string) {
	v.emitDiagAt(code, pos, message)
}

func (v *Visitor) emitDiagAt(code string, pos ast.Position, message string) {
	v.diagnostics = append(v.diagnostics, Diagnostic{
		Severity: severityFor(code),
		Code:     code,
		Message:  message,
		Line:     pos.Line,
		Column:   pos.Column,
		Offset:   pos.Offset,
		Length:   pos.Length,
	})
}

func severityFor(code string) store.Severity {
	switch code {
	case "VV-006", "VV-007":
		return store.SeverityError
	case "VV-008":
		return store.SeverityWarning
	case "VV-001", "VV-002", "VV-003", "VV-004":
		return store.SeverityWarning
	case "VV-009":
		return store.SeverityInfo
	case "VV-005":
		return store.SeverityVerbose
	default:
		return store.SeverityInfo
	}
}

// ---- generic ident/assignment handling ----

func (v *Visitor) enterIdent(node *ast.Node, parents []*ast.Node) {
	if v.consumed[node] {
		return
	}

	if len(parents) > 0 {
		top := parents[len(parents)-1]
		if top.Kind == ast.KindAssignment && len(top.Children) > 0 && top.Children[0] == node {
			return
		}
	}

	name := node.Token
	if strings.EqualFold(name, "true") || strings.EqualFold(name, "false") || strings.EqualFold(name, "nil") {
		return
	}

	variable := v.resolveOrDeclare(name, node.Pos)
	v.emitRef(variable, store.AccessGet, false, false, store.TypeAny, node.Pos, name)
}

func (v *Visitor) enterAssignment(node *ast.Node, parents []*ast.Node) {
	if len(node.Children) < 2 || node.Children[0].Kind != ast.KindIdent {
		return
	}

	lhs := node.Children[0]
	rhs := node.Children[1]

	v.consumed[lhs] = true

	isLocal := false

	if len(parents) > 0 {
		top := parents[len(parents)-1]
		if top.Kind == ast.KindUnary && ast.EqualFold(top.Token, "private") {
			isLocal = true
		}
	}

	var variable *Variable
	if isLocal {
		variable = v.declarePrivateExplicit(lhs.Token, lhs.Pos)
	} else {
		variable = v.resolveOrDeclare(lhs.Token, lhs.Pos)
	}

	v.emitRef(variable, store.AccessSet, isLocal, false, rhsType(rhs), lhs.Pos, lhs.Token)
}

func rhsType(rhs *ast.Node) store.TypeBits {
	switch rhs.Kind {
	case ast.KindCode:
		return store.TypeCode
	case ast.KindArray:
		return store.TypeArray
	case ast.KindNumber:
		return store.TypeScalar
	case ast.KindString:
		return store.TypeString
	case ast.KindIdent:
		switch strings.ToLower(rhs.Token) {
		case "true", "false":
			return store.TypeBoolean
		case "nil":
			return store.TypeNil
		}
	}

	return store.TypeAny
}

// ---- fixed operator-specific handling (spec §4.6 table) ----

func (v *Visitor) enterUnary(node *ast.Node, _ []*ast.Node) {
	op := strings.ToLower(node.Token)
	if !nameOperators[op] || len(node.Children) == 0 {
		return
	}

	operand := node.Children[0]

	switch op {
	case "private":
		switch operand.Kind {
		case ast.KindAssignment:
			// The `private _x = 1;` shorthand: left as an Assignment node
			// under this Unary, so the framework's own descent into it
			// triggers enterAssignment, which already special-cases a
			// "private" parent to declare the LHS explicitly.
		case ast.KindIdent:
			v.consumed[operand] = true
			variable := v.declarePrivateExplicit(operand.Token, operand.Pos)
			v.emitRef(variable, store.AccessSet, true, false, store.TypeNil, operand.Pos, operand.Token)
		default:
			v.handleNameIntroList(operand, true, store.TypeNil)
		}
	case "params":
		v.handleParams(operand)
	case "for":
		v.handleFor(operand)
	case "isnil":
		v.handleIsNil(operand)
	case "getvariable":
		v.handleNameConsumeList(operand, store.AccessGet, false)
	case "setvariable":
		v.handleNameConsumeList(operand, store.AccessSet, false)
	}
}

// resolveNameOperand implements spec §4.6's "a node that is neither a
// string nor the expected structured form yields VV-006; a node that
// could name a variable but whose text cannot be statically known (e.g. a
// computed identifier) yields VV-007."
func (v *Visitor) resolveNameOperand(n *ast.Node) (name string, ok bool) {
	switch n.Kind {
	case ast.KindString:
		return destringify(n.Token), true
	case ast.KindIdent:
		v.consumed[n] = true
		v.emitDiag("VV-007", n.Pos, "variable name cannot be statically determined from this identifier")

		return "", false
	default:
		v.consumed[n] = true
		v.emitDiag("VV-006", n.Pos, "expected a string literal naming a variable")

		return "", false
	}
}

func (v *Visitor) handleNameIntroList(operand *ast.Node, declaration bool, types store.TypeBits) {
	if operand.Kind == ast.KindArray {
		for _, elem := range operand.Children {
			name, ok := v.resolveNameOperand(elem)
			if !ok {
				continue
			}

			v.consumed[elem] = true
			variable := v.declarePrivateExplicit(name, elem.Pos)
			v.emitRef(variable, store.AccessSet, declaration, false, types, elem.Pos, name)
		}

		return
	}

	name, ok := v.resolveNameOperand(operand)
	if !ok {
		return
	}

	v.consumed[operand] = true
	variable := v.declarePrivateExplicit(name, operand.Pos)
	v.emitRef(variable, store.AccessSet, declaration, false, types, operand.Pos, name)
}

func (v *Visitor) handleParams(operand *ast.Node) {
	if operand.Kind != ast.KindArray {
		v.emitDiag("VV-006", operand.Pos, "params expects an array of parameter names")

		return
	}

	for _, elem := range operand.Children {
		target := elem
		if elem.Kind == ast.KindArray && len(elem.Children) > 0 {
			target = elem.Children[0]
		}

		name, ok := v.resolveNameOperand(target)
		if !ok {
			continue
		}

		v.consumed[target] = true
		variable := v.declarePrivateExplicit(name, target.Pos)
		v.emitRef(variable, store.AccessSet, true, false, store.TypeNil, target.Pos, name)
	}
}

func (v *Visitor) handleFor(operand *ast.Node) {
	name, ok := v.resolveNameOperand(operand)
	if !ok {
		return
	}

	v.consumed[operand] = true
	variable := v.declarePrivateExplicit(name, operand.Pos)
	v.emitRef(variable, store.AccessSet, true, false, store.TypeNil, operand.Pos, name)
}

func (v *Visitor) handleIsNil(operand *ast.Node) {
	if operand.Kind == ast.KindCode {
		return // analyzed as a normal code child (spec §8 boundary behavior)
	}

	name, ok := v.resolveNameOperand(operand)
	if !ok {
		return
	}

	v.consumed[operand] = true
	variable := v.resolveOrDeclare(name, operand.Pos)
	v.emitRef(variable, store.AccessGet, false, false, store.TypeAny, operand.Pos, name)
}

func (v *Visitor) handleNameConsumeList(operand *ast.Node, access store.Access, declaration bool) {
	if operand.Kind == ast.KindArray {
		for _, elem := range operand.Children {
			name, ok := v.resolveNameOperand(elem)
			if !ok {
				continue
			}

			v.consumed[elem] = true

			var variable *Variable
			if declaration {
				variable = v.declarePrivateExplicit(name, elem.Pos)
			} else {
				variable = v.resolveOrDeclare(name, elem.Pos)
			}

			v.emitRef(variable, access, declaration, false, store.TypeAny, elem.Pos, name)
		}

		return
	}

	name, ok := v.resolveNameOperand(operand)
	if !ok {
		return
	}

	v.consumed[operand] = true

	var variable *Variable
	if declaration {
		variable = v.declarePrivateExplicit(name, operand.Pos)
	} else {
		variable = v.resolveOrDeclare(name, operand.Pos)
	}

	v.emitRef(variable, access, declaration, false, store.TypeAny, operand.Pos, name)
}

func destringify(tok string) string {
	if len(tok) < 2 {
		return tok
	}

	q := tok[0]
	if (q != '"' && q != '\'') || tok[len(tok)-1] != q {
		return tok
	}

	inner := tok[1 : len(tok)-1]
	doubled := string([]byte{q, q})

	return strings.ReplaceAll(inner, doubled, string(q))
}

// ---- redundant parentheses (VV-008) ----

func (v *Visitor) checkRedundantParens(node *ast.Node, parents []*ast.Node) {
	if len(node.Children) == 0 {
		return
	}

	inner := node.Children[0]

	groupInGroup := inner.Kind == ast.KindGroup

	var ctxClass PrecClass

	if groupInGroup {
		ctxClass = PrecPrimary // always redundant regardless of context
	} else {
		ctx := nearestNonGroupAncestor(parents)
		ctxClass = Classify(ctx)
	}

	innerClass := Classify(inner)
	if !groupInGroup && !IsRedundant(innerClass, ctxClass) {
		return
	}

	openLine, _ := strconv.Atoi(node.Props["open_line"])
	openCol, _ := strconv.Atoi(node.Props["open_col"])
	openOff, _ := strconv.Atoi(node.Props["open_offset"])
	closeLine, _ := strconv.Atoi(node.Props["close_line"])
	closeCol, _ := strconv.Atoi(node.Props["close_col"])
	closeOff, _ := strconv.Atoi(node.Props["close_offset"])

	v.emitDiag("VV-008", ast.Position{Line: openLine, Column: openCol, Offset: openOff, Length: 1}, "redundant parentheses")
	v.emitDiag("VV-008", ast.Position{Line: closeLine, Column: closeCol, Offset: closeOff, Length: 1}, "redundant parentheses")

	if v.view.InMacro(openOff) || v.view.InMacro(closeOff) {
		return
	}

	file := v.view.File()
	openLn, openCl, closeLn, closeCl := openLine, openCol, closeLine, closeCol

	v.codeActions = append(v.codeActions, CodeAction{
		Kind:  store.CodeActionQuickFix,
		Ident: "sqf.removeNeedlessBrackets",
		Title: "Remove needless brackets",
		Changes: []CodeActionChange{
			{
				Operation:   store.ChangeFileChange,
				Path:        file,
				StartLine:   &openLn,
				StartColumn: &openCl,
				EndLine:     &openLn,
				EndColumn:   intPtr(openCl + 1),
				NewContent:  strPtr(""),
			},
			{
				Operation:   store.ChangeFileChange,
				Path:        file,
				StartLine:   &closeLn,
				StartColumn: &closeCl,
				EndLine:     &closeLn,
				EndColumn:   intPtr(closeCl + 1),
				NewContent:  strPtr(""),
			},
		},
	})
}

func nearestNonGroupAncestor(parents []*ast.Node) *ast.Node {
	for i := len(parents) - 1; i >= 0; i-- {
		if parents[i].Kind != ast.KindGroup {
			return parents[i]
		}
	}

	return nil
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

// ---- post-pass sweeps (VV-001..004) ----

func (v *Visitor) runPostPassSweeps() {
	byVar := make(map[int][]int)

	for i, r := range v.references {
		byVar[r.VariableLocalID] = append(byVar[r.VariableLocalID], i)
	}

	for localID, idxs := range byVar {
		variable := v.variables[localID]

		hasGet := false
		hasSet := false
		firstNonNilSetIdx := -1
		firstGetIdx := -1
		firstSetIdx := -1

		for _, idx := range idxs {
			r := v.references[idx]

			if r.Access == store.AccessSet {
				hasSet = true

				if firstSetIdx == -1 {
					firstSetIdx = idx
				}

				if r.Types != store.TypeNil && firstNonNilSetIdx == -1 {
					firstNonNilSetIdx = idx
				}
			} else {
				hasGet = true

				if firstGetIdx == -1 {
					firstGetIdx = idx
				}
			}
		}

		switch {
		case !variable.IsGlobal && hasSet && !hasGet && firstNonNilSetIdx != -1:
			v.diagAtRef("VV-001", v.references[firstNonNilSetIdx], fmt.Sprintf("private variable %q is set but never read", variable.Name))
		case variable.IsGlobal && hasSet && !hasGet:
			v.diagAtRef("VV-002", v.references[firstSetIdx], fmt.Sprintf("global variable %q is set but never read in this file", variable.Name))
		}

		if !variable.IsGlobal && hasGet {
			firstGetBeforeSet := -1

			for _, idx := range idxs {
				r := v.references[idx]
				if r.Access == store.AccessGet {
					if firstSetIdx == -1 || idx < firstSetIdx {
						firstGetBeforeSet = idx
					}

					break
				}
			}

			if firstGetBeforeSet != -1 {
				msg := fmt.Sprintf("private variable %q is read before being set", variable.Name)

				if firstSetIdx == -1 {
					if hint := v.nearestMisspelling(variable.Name); hint != "" {
						msg = fmt.Sprintf("%s (never set in this file; did you mean %q?)", msg, hint)
					}
				}

				v.diagAtRef("VV-003", v.references[firstGetBeforeSet], msg)
			}
		}

		if variable.IsGlobal && hasGet {
			firstGetBeforeSet := -1

			for _, idx := range idxs {
				r := v.references[idx]
				if r.Access == store.AccessGet {
					if firstSetIdx == -1 || idx < firstSetIdx {
						firstGetBeforeSet = idx
					}

					break
				}
			}

			if firstGetBeforeSet != -1 {
				v.diagAtRef("VV-004", v.references[firstGetBeforeSet], fmt.Sprintf("global variable %q is read before being set in this file", variable.Name))
			}
		}
	}
}

func (v *Visitor) diagAtRef(code string, r Reference, message string) {
	v.diagnostics = append(v.diagnostics, Diagnostic{
		Severity: severityFor(code),
		Code:     code,
		Message:  message,
		Line:     r.Line,
		Column:   r.Column,
		Offset:   r.Offset,
		Length:   r.Length,
	})
}

// nearestMisspelling returns the in-scope variable name with the smallest
// Levenshtein distance to name, used to enrich a diagnostic's message with
// a "did you mean" hint (SPEC_FULL §4.6's "Hover enrichment").
func (v *Visitor) nearestMisspelling(name string) string {
	best := ""
	bestDist := -1

	for _, variable := range v.variables {
		if variable.Name == name {
			continue
		}

		d := v.lev.Distance(strings.ToLower(name), strings.ToLower(variable.Name))
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = variable.Name
		}
	}

	return best
}

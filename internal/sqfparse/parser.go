package sqfparse

import (
	"fmt"
	"strings"

	"github.com/sqfvm/language-server/internal/ast"
)

// level is the parser's internal binding-power table used to build the
// expression tree. It intentionally mirrors, but is independent of,
// internal/sqf/precedence.go's 12 named classes (spec §4.6's Open
// Question resolution) — that table classifies already-built nodes for
// the VV-008 redundant-parentheses check; this one only orders parsing.
type level int

const (
	levelLowest level = iota
	levelAssign
	levelOr
	levelAnd
	levelCompare
	levelNamedBinary
	levelElse
	levelAddSub
	levelMulDiv
	levelExponent
	levelSelect
	levelUnaryNamed
	levelPrimary
)

var namedBinaryOps = map[string]bool{
	"in": true, "min": true, "max": true, "atan2": true, "mod": true,
	"apply": true, "count": true, "findif": true, "foreach": true, "catch": true,
}

// unaryNamedOps is the bespoke operator-handling set from spec §4.6's
// table: these consume or introduce variable names and receive dedicated
// visitor handling; the parser only needs to know their arity (unary
// prefix) to shape the tree correctly.
var unaryNamedOps = map[string]bool{
	"private": true, "params": true, "for": true, "isnil": true,
	"getvariable": true, "setvariable": true,
	"not": true, "try": true, "throw": true, "call": true, "spawn": true,
	"compile": true, "hint": true,
}

func binaryOpLevel(text string) (level, bool) {
	switch strings.ToLower(text) {
	case "=":
		return levelAssign, true
	case "||", "or":
		return levelOr, true
	case "&&", "and":
		return levelAnd, true
	case "==", "!=", ">", "<", ">=", "<=":
		return levelCompare, true
	case "else":
		return levelElse, true
	case "+", "-":
		return levelAddSub, true
	case "*", "/", "%":
		return levelMulDiv, true
	case "^":
		return levelExponent, true
	case "select":
		return levelSelect, true
	}

	if namedBinaryOps[strings.ToLower(text)] {
		return levelNamedBinary, true
	}

	return levelLowest, false
}

// Parser is a precedence-climbing recursive-descent parser over a token
// stream produced by Lexer.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser constructs a Parser over tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a full program: a flat sequence of `;`-terminated
// statements at top level, returned as a synthetic KindProgram node whose
// children are themselves wrapped in an implicit top-level KindCode block
// (so the visitor's scope-stack logic, which only pushes frames on Code
// nodes, sees one root scope uniformly for both a bare script file and an
// included fragment).
func (p *Parser) Parse() (*ast.Node, error) {
	root := ast.NewNode(ast.KindProgram, "", ast.Position{Line: 1, Column: 1})
	code := ast.NewNode(ast.KindCode, "", ast.Position{Line: 1, Column: 1})

	for !p.at(TokEOF) {
		if p.at(TokSemi) {
			p.advance()

			continue
		}

		expr, err := p.parseExpr(levelLowest)
		if err != nil {
			return nil, err
		}

		code.Children = append(code.Children, expr)

		if p.at(TokSemi) {
			p.advance()
		}
	}

	root.Children = append(root.Children, code)

	return root, nil
}

func (p *Parser) at(k TokenKind) bool {
	return p.cur().Kind == k
}

func (p *Parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokEOF}
	}

	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}

	return t
}

func (p *Parser) parseExpr(min level) (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.cur()

		opText := t.Text
		if t.Kind == TokIdent {
			opText = t.Text
		} else if t.Kind != TokOp {
			break
		}

		lvl, ok := binaryOpLevel(opText)
		if !ok || lvl < min {
			break
		}

		p.advance()

		nextMin := lvl + 1
		if lvl == levelAssign {
			nextMin = levelAssign // right-associative
		}

		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}

		pos := left.Pos
		pos.Length = right.Pos.End() - left.Pos.Offset

		if lvl == levelAssign {
			left = ast.NewNode(ast.KindAssignment, "=", pos, left, right)
		} else {
			left = ast.NewNode(ast.KindBinary, opText, pos, left, right)
		}
	}

	return left, nil
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	t := p.cur()

	if t.Kind == TokIdent && (unaryNamedOps[strings.ToLower(t.Text)] || isLikelyUnary(p, t)) {
		p.advance()

		// A unary-named operator with nothing meaningful following (end of
		// statement) is itself a bare nular reference, e.g. `hint;`-style
		// dangling use is out of scope; treat it as a plain identifier.
		if p.atExprEnd() {
			return ast.NewNode(ast.KindIdent, t.Text, tokPos(t)), nil
		}

		// "private" alone is special-cased to bind looser than its own
		// operand, matching the real engine's `private _x = 1;` sugar: the
		// operand is parsed at assignment level so the whole assignment
		// becomes private's argument, rather than private binding only to
		// `_x` and leaving `= 1` to the enclosing expression.
		parseAt := p.parseUnary
		if strings.EqualFold(t.Text, "private") {
			parseAt = func() (*ast.Node, error) { return p.parseExpr(levelAssign) }
		}

		operand, err := parseAt()
		if err != nil {
			return nil, err
		}

		pos := tokPos(t)
		pos.Length = operand.Pos.End() - t.Offset

		return ast.NewNode(ast.KindUnary, t.Text, pos, operand), nil
	}

	if t.Kind == TokOp && (t.Text == "-" || t.Text == "!") {
		p.advance()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		pos := tokPos(t)
		pos.Length = operand.Pos.End() - t.Offset

		return ast.NewNode(ast.KindUnary, t.Text, pos, operand), nil
	}

	return p.parsePrimary()
}

// isLikelyUnary reports whether identifier t, which is not in the fixed
// unaryNamedOps table, is nonetheless being used as a prefix unary
// operator here: it is immediately followed by an expression-starting
// token and is not itself a recognized binary operator name.
func isLikelyUnary(p *Parser, t Token) bool {
	if _, isBinary := binaryOpLevel(t.Text); isBinary {
		return false
	}

	if p.pos+1 >= len(p.tokens) {
		return false
	}

	next := p.tokens[p.pos+1]

	switch next.Kind {
	case TokLBrace, TokLBracket, TokString, TokNumber:
		return true
	default:
		return false
	}
}

func (p *Parser) atExprEnd() bool {
	switch p.cur().Kind {
	case TokSemi, TokEOF, TokRBrace, TokRParen, TokRBracket, TokComma:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	t := p.cur()

	switch t.Kind {
	case TokNumber:
		p.advance()

		return ast.NewNode(ast.KindNumber, t.Text, tokPos(t)), nil

	case TokString:
		p.advance()

		return ast.NewNode(ast.KindString, t.Text, tokPos(t)), nil

	case TokIdent:
		p.advance()

		return ast.NewNode(ast.KindIdent, t.Text, tokPos(t)), nil

	case TokLParen:
		return p.parseGroup()

	case TokLBracket:
		return p.parseArray()

	case TokLBrace:
		return p.parseCode()

	default:
		return nil, fmt.Errorf("sqfparse: unexpected token %q at line %d column %d", t.Text, t.Line, t.Column)
	}
}

func (p *Parser) parseGroup() (*ast.Node, error) {
	open := p.advance()

	inner, err := p.parseExpr(levelLowest)
	if err != nil {
		return nil, err
	}

	if !p.at(TokRParen) {
		return nil, fmt.Errorf("sqfparse: expected ')' at line %d", p.cur().Line)
	}

	close := p.advance()

	pos := tokPos(open)
	pos.Length = close.Offset + 1 - open.Offset

	group := ast.NewNode(ast.KindGroup, "", pos, inner)
	group.Props["open_line"] = itoa(open.Line)
	group.Props["open_col"] = itoa(open.Column)
	group.Props["open_offset"] = itoa(open.Offset)
	group.Props["close_line"] = itoa(close.Line)
	group.Props["close_col"] = itoa(close.Column)
	group.Props["close_offset"] = itoa(close.Offset)

	return group, nil
}

func (p *Parser) parseArray() (*ast.Node, error) {
	open := p.advance()

	var children []*ast.Node

	for !p.at(TokRBracket) && !p.at(TokEOF) {
		elem, err := p.parseExpr(levelAssign + 1)
		if err != nil {
			return nil, err
		}

		children = append(children, elem)

		if p.at(TokComma) {
			p.advance()

			continue
		}

		break
	}

	if !p.at(TokRBracket) {
		return nil, fmt.Errorf("sqfparse: expected ']' at line %d", p.cur().Line)
	}

	close := p.advance()

	pos := tokPos(open)
	pos.Length = close.Offset + 1 - open.Offset

	return ast.NewNode(ast.KindArray, "", pos, children...), nil
}

func (p *Parser) parseCode() (*ast.Node, error) {
	open := p.advance()

	var children []*ast.Node

	for !p.at(TokRBrace) && !p.at(TokEOF) {
		if p.at(TokSemi) {
			p.advance()

			continue
		}

		stmt, err := p.parseExpr(levelLowest)
		if err != nil {
			return nil, err
		}

		children = append(children, stmt)

		if p.at(TokSemi) {
			p.advance()
		}
	}

	if !p.at(TokRBrace) {
		return nil, fmt.Errorf("sqfparse: expected '}' at line %d", p.cur().Line)
	}

	close := p.advance()

	pos := tokPos(open)
	pos.Length = close.Offset + 1 - open.Offset

	return ast.NewNode(ast.KindCode, "", pos, children...), nil
}

func tokPos(t Token) ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column, Offset: t.Offset, Length: len(t.Text)}
}

// Parse is a convenience entry point: tokenize then parse src in one call.
func Parse(src string) (*ast.Node, error) {
	tokens := NewLexer(src).Tokenize()

	return NewParser(tokens).Parse()
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

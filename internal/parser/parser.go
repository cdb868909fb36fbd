// Package parser implements a recursive-descent atom parser with a
// precedence-climbing operator loop, producing an AST of internal/ast
// nodes.
package parser

import (
	"fmt"

	"github.com/iankronquist/zeta/internal/ast"
	"github.com/iankronquist/zeta/internal/heap"
	"github.com/iankronquist/zeta/internal/opinfo"
	"github.com/iankronquist/zeta/internal/vmerr"
	"github.com/iankronquist/zeta/internal/vmvalue"
)

// Interner is the subset of *strtab.Interner the parser needs: interning
// identifiers and string-literal contents.
type Interner interface {
	Intern(data []byte) (heap.Ref, error)
}

// Parser holds everything needed to turn an Input stream into an AST.
type Parser struct {
	in       *Input
	shapes   *ast.Shapes
	interner Interner
}

// New creates a parser reading from in, building nodes tagged with shapes
// and interning identifiers/strings through interner.
func New(in *Input, shapes *ast.Shapes, interner Interner) *Parser {
	return &Parser{in: in, shapes: shapes, interner: interner}
}

func (p *Parser) pos() vmerr.Pos { return vmerr.Pos{Line: p.in.Line, Col: p.in.Col} }

func (p *Parser) fail(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if p.in.ErrorStr == "" {
		p.in.ErrorStr = msg
	}
	return vmerr.Parsef(p.pos(), "%s", msg)
}

// ParseUnit parses a whole source unit: a top-level Fun with no parameters
// whose body is a Seq of every top-level expression.
func (p *Parser) ParseUnit() (*ast.Fun, error) {
	var exprs []ast.Node
	for {
		p.in.EatWS()
		if p.in.Eof() {
			break
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if p.in.ErrorStr != "" {
		return nil, p.fail("%s", p.in.ErrorStr)
	}
	p.in.EatWS()
	if !p.in.Eof() {
		return nil, p.fail("trailing input after unit")
	}
	return ast.NewFun(p.shapes, nil, ast.NewSeq(p.shapes, exprs)), nil
}

// parseExpr implements precedence climbing: parse an atom, then
// repeatedly consume operators whose precedence is >= minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Node, error) {
	lhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		p.in.EatWS()
		op := p.peekInfixOp()
		if op == nil || op.Prec < minPrec {
			return lhs, nil
		}

		switch {
		case op == &opinfo.Call:
			lhs, err = p.parseCallTail(lhs)
		case op == &opinfo.Member:
			lhs, err = p.parseMemberTail(lhs)
		case op == &opinfo.Index:
			lhs, err = p.parseIndexTail(lhs)
		default:
			lhs, err = p.parseBinOpTail(lhs, op)
		}
		if err != nil {
			return nil, err
		}
	}
}

// peekInfixOp reports which (if any) infix/matched operator is next,
// without consuming it. Longer spellings are tried first so "<=" is
// never mistaken for "<".
func (p *Parser) peekInfixOp() *opinfo.OpInfo {
	for _, op := range opinfo.Infix {
		if isWordOp(op.Str) {
			if p.matchKeywordPeek(op.Str) {
				return op
			}
			continue
		}
		if p.in.PeekStr(op.Str) {
			return op
		}
	}
	return nil
}

func isWordOp(s string) bool {
	if len(s) == 0 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *Parser) matchKeywordPeek(kw string) bool {
	if !p.in.PeekStr(kw) {
		return false
	}
	next := p.in.PeekAt(uint32(len(kw)))
	return !isIdentByte(next)
}

func (p *Parser) matchKeyword(kw string) bool {
	if !p.matchKeywordPeek(kw) {
		return false
	}
	for i := 0; i < len(kw); i++ {
		p.in.ReadCh()
	}
	return true
}

func (p *Parser) parseBinOpTail(lhs ast.Node, op *opinfo.OpInfo) (ast.Node, error) {
	if isWordOp(op.Str) {
		p.matchKeyword(op.Str)
	} else {
		p.in.MatchStr(op.Str)
	}
	p.in.EatWS()
	rhs, err := p.parseExpr(opinfo.NextMinPrec(op))
	if err != nil {
		return nil, err
	}
	return ast.NewBinOp(p.shapes, op, lhs, rhs), nil
}

func (p *Parser) parseMemberTail(lhs ast.Node) (ast.Node, error) {
	p.in.MatchCh('.')
	p.in.EatWS()
	name, ok := p.tryIdentBytes()
	if !ok {
		return nil, p.fail("expected identifier after '.'")
	}
	ref, err := p.interner.Intern(name)
	if err != nil {
		return nil, err
	}
	return ast.NewBinOp(p.shapes, &opinfo.Member, lhs, ast.NewRef(p.shapes, ref)), nil
}

func (p *Parser) parseIndexTail(lhs ast.Node) (ast.Node, error) {
	p.in.MatchCh('[')
	p.in.EatWS()
	idx, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	p.in.EatWS()
	if !p.in.MatchCh(']') {
		return nil, p.fail("expected ']'")
	}
	return ast.NewBinOp(p.shapes, &opinfo.Index, lhs, idx), nil
}

func (p *Parser) parseCallTail(lhs ast.Node) (ast.Node, error) {
	args, err := p.parseExprList('(', ')')
	if err != nil {
		return nil, err
	}
	return ast.NewCall(p.shapes, lhs, args), nil
}

// parseExprList parses a comma-separated, optionally trailing-comma list
// of expressions between beginCh and endCh.
func (p *Parser) parseExprList(beginCh, endCh byte) ([]ast.Node, error) {
	if !p.in.MatchCh(beginCh) {
		return nil, p.fail("expected %q", beginCh)
	}
	var exprs []ast.Node
	p.in.EatWS()
	if p.in.MatchCh(endCh) {
		return exprs, nil
	}
	for {
		p.in.EatWS()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		p.in.EatWS()
		if p.in.MatchCh(endCh) {
			return exprs, nil
		}
		if !p.in.MatchCh(',') {
			return nil, p.fail("expected ',' or %q", endCh)
		}
		p.in.EatWS()
		if p.in.MatchCh(endCh) { // trailing comma
			return exprs, nil
		}
	}
}

// parseAtom tries each atom alternative in turn: numbers, strings, array
// literals, parenthesized expressions, blocks, prefix operators,
// keyword forms and bare identifiers.
func (p *Parser) parseAtom() (ast.Node, error) {
	p.in.EatWS()
	if p.in.Eof() {
		return nil, p.fail("unexpected end of input")
	}

	if n, ok, err := p.tryNumber(); ok || err != nil {
		return n, err
	}
	if n, ok, err := p.tryString(); ok || err != nil {
		return n, err
	}
	if p.in.PeekCh() == '[' {
		return p.tryArrayLit()
	}
	if p.in.MatchCh('(') {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		p.in.EatWS()
		if !p.in.MatchCh(')') {
			return nil, p.fail("expected ')'")
		}
		return e, nil
	}
	if p.in.MatchCh('{') {
		return p.parseSeq()
	}
	if op, ok := p.tryPrefixOp(); ok {
		expr, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return ast.NewUnOp(p.shapes, op, expr), nil
	}
	if p.matchKeyword("var") {
		return p.parseVarDecl()
	}
	if p.matchKeyword("let") {
		return p.parseLetDecl()
	}
	if p.matchKeyword("if") {
		return p.parseIf()
	}
	if p.matchKeyword("fun") {
		return p.parseFun()
	}
	if p.matchKeyword("true") {
		return ast.NewConst(p.shapes, vmvalue.True), nil
	}
	if p.matchKeyword("false") {
		return ast.NewConst(p.shapes, vmvalue.False), nil
	}
	if name, ok := p.tryIdentBytes(); ok {
		ref, err := p.interner.Intern(name)
		if err != nil {
			return nil, err
		}
		return ast.NewRef(p.shapes, ref), nil
	}

	return nil, p.fail("unexpected character %q", p.in.PeekCh())
}

func (p *Parser) tryPrefixOp() (*opinfo.OpInfo, bool) {
	for _, op := range opinfo.Prefix {
		if isWordOp(op.Str) {
			if p.matchKeyword(op.Str) {
				p.in.EatWS()
				return op, true
			}
			continue
		}
		if p.in.MatchStr(op.Str) {
			return op, true
		}
	}
	return nil, false
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentByte(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func (p *Parser) tryIdentBytes() ([]byte, bool) {
	if !isIdentStart(p.in.PeekCh()) {
		return nil, false
	}
	var buf []byte
	for isIdentByte(p.in.PeekCh()) {
		buf = append(buf, p.in.ReadCh())
	}
	return buf, true
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
func isBinDigit(ch byte) bool { return ch == '0' || ch == '1' }

// tryNumber parses a decimal, 0x-hex or 0b-binary integer literal.
func (p *Parser) tryNumber() (ast.Node, bool, error) {
	if !isDigit(p.in.PeekCh()) {
		return nil, false, nil
	}

	if p.in.PeekCh() == '0' && (p.in.PeekAt(1) == 'x' || p.in.PeekAt(1) == 'X') {
		p.in.ReadCh()
		p.in.ReadCh()
		start := p.in.Idx
		var v int64
		for isHexDigit(p.in.PeekCh()) {
			v = v*16 + int64(hexVal(p.in.ReadCh()))
		}
		if p.in.Idx == start {
			return nil, true, p.fail("malformed hex literal")
		}
		return ast.NewConst(p.shapes, vmvalue.Int64(v)), true, nil
	}

	if p.in.PeekCh() == '0' && (p.in.PeekAt(1) == 'b' || p.in.PeekAt(1) == 'B') {
		p.in.ReadCh()
		p.in.ReadCh()
		start := p.in.Idx
		var v int64
		for isBinDigit(p.in.PeekCh()) {
			v = v*2 + int64(p.in.ReadCh()-'0')
		}
		if p.in.Idx == start {
			return nil, true, p.fail("malformed binary literal")
		}
		return ast.NewConst(p.shapes, vmvalue.Int64(v)), true, nil
	}

	var v int64
	for isDigit(p.in.PeekCh()) {
		v = v*10 + int64(p.in.ReadCh()-'0')
	}
	return ast.NewConst(p.shapes, vmvalue.Int64(v)), true, nil
}

func hexVal(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}

// tryString parses a single- or double-quoted string literal with
// \n \r \t \0 escapes; any other escape is a parse error.
func (p *Parser) tryString() (ast.Node, bool, error) {
	quote := p.in.PeekCh()
	if quote != '\'' && quote != '"' {
		return nil, false, nil
	}
	p.in.ReadCh()

	var buf []byte
	for {
		if p.in.Eof() {
			return nil, true, p.fail("unterminated string literal")
		}
		ch := p.in.ReadCh()
		if ch == quote {
			break
		}
		if ch == '\\' {
			esc := p.in.ReadCh()
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case '0':
				buf = append(buf, 0)
			default:
				return nil, true, p.fail("unknown escape sequence '\\%c'", esc)
			}
			continue
		}
		buf = append(buf, ch)
	}

	ref, err := p.interner.Intern(buf)
	if err != nil {
		return nil, true, err
	}
	return ast.NewConst(p.shapes, vmvalue.FromRef(vmvalue.TagString, ref)), true, nil
}

func (p *Parser) tryArrayLit() (ast.Node, error) {
	elems, err := p.parseExprList('[', ']')
	if err != nil {
		return nil, err
	}
	return ast.NewArrayLit(p.shapes, elems), nil
}

func (p *Parser) parseSeq() (ast.Node, error) {
	var exprs []ast.Node
	for {
		p.in.EatWS()
		if p.in.MatchCh('}') {
			break
		}
		if p.in.Eof() {
			return nil, p.fail("unterminated block, expected '}'")
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return ast.NewSeq(p.shapes, exprs), nil
}

func (p *Parser) parseIdentDecl(isConst bool) (*ast.Decl, error) {
	p.in.EatWS()
	name, ok := p.tryIdentBytes()
	if !ok {
		return nil, p.fail("expected identifier")
	}
	ref, err := p.interner.Intern(name)
	if err != nil {
		return nil, err
	}
	return ast.NewDecl(p.shapes, ref, isConst), nil
}

// parseVarDecl parses `var x`, producing Decl(x, const=false). Any
// following `=` is consumed by the generic Assign infix operator, not
// here.
func (p *Parser) parseVarDecl() (ast.Node, error) {
	return p.parseIdentDecl(false)
}

// parseLetDecl parses `let x = e`, which requires the `=` immediately and
// produces BinOp(Assign, Decl(x, const=true), e).
func (p *Parser) parseLetDecl() (ast.Node, error) {
	decl, err := p.parseIdentDecl(true)
	if err != nil {
		return nil, err
	}
	p.in.EatWS()
	if !p.in.MatchCh('=') {
		return nil, p.fail("expected '=' after let declaration")
	}
	p.in.EatWS()
	rhs, err := p.parseExpr(opinfo.NextMinPrec(&opinfo.Assign))
	if err != nil {
		return nil, err
	}
	return ast.NewBinOp(p.shapes, &opinfo.Assign, decl, rhs), nil
}

// parseIf parses `if test then thenExpr (else elseExpr)?`; else defaults
// to Const(false) when omitted.
func (p *Parser) parseIf() (ast.Node, error) {
	test, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	p.in.EatWS()
	if !p.matchKeyword("then") {
		return nil, p.fail("expected 'then'")
	}
	p.in.EatWS()
	thenExpr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	var elseExpr ast.Node = ast.NewConst(p.shapes, vmvalue.False)
	mark := p.in.Save()
	p.in.EatWS()
	if p.matchKeyword("else") {
		p.in.EatWS()
		elseExpr, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	} else {
		p.in.Restore(mark)
	}

	return ast.NewIf(p.shapes, test, thenExpr, elseExpr), nil
}

// parseFun parses `fun (p1, ..., pn) body_expr`.
func (p *Parser) parseFun() (ast.Node, error) {
	p.in.EatWS()
	if !p.in.MatchCh('(') {
		return nil, p.fail("expected '(' after fun")
	}
	var params []*ast.Decl
	p.in.EatWS()
	if !p.in.MatchCh(')') {
		for {
			p.in.EatWS()
			name, ok := p.tryIdentBytes()
			if !ok {
				return nil, p.fail("expected parameter name")
			}
			ref, err := p.interner.Intern(name)
			if err != nil {
				return nil, err
			}
			params = append(params, ast.NewDecl(p.shapes, ref, false))
			p.in.EatWS()
			if p.in.MatchCh(')') {
				break
			}
			if !p.in.MatchCh(',') {
				return nil, p.fail("expected ',' or ')' in parameter list")
			}
		}
	}
	p.in.EatWS()
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.NewFun(p.shapes, params, body), nil
}

package parser

import (
	"strconv"

	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/token"
)

// Parser builds an AST from a token stream. It never stops at the first
// problem: syntax errors are recorded and parsing resynchronizes at the next
// statement boundary so the checker still sees as much of the tree as
// possible.
type Parser struct {
	tokens []token.Token
	pos    int
	bag    *diag.Bag
}

func NewParser(tokens []token.Token, bag *diag.Bag) *Parser {
	return &Parser{tokens: tokens, bag: bag}
}

// Parse consumes the whole token stream and returns the top-level
// declarations in source order.
func (p *Parser) Parse() []*ast.Node {
	var decls []*ast.Node
	for !p.isAtEnd() {
		decl := p.parseTopLevel()
		if decl != nil {
			decls = append(decls, decl)
		}
	}
	return decls
}

func (p *Parser) peek() token.Token     { return p.tokens[p.pos] }
func (p *Parser) previous() token.Token { return p.tokens[p.pos-1] }
func (p *Parser) isAtEnd() bool         { return p.peek().Type == token.EOF }

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tokType token.Type) bool { return p.peek().Type == tokType }

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, what string) (token.Token, bool) {
	if p.check(tokType) {
		return p.advance(), true
	}
	p.errorAtCurrent("expected %s", what)
	return p.peek(), false
}

func (p *Parser) errorAtCurrent(format string, args ...interface{}) {
	p.bag.Errorf(diag.SyntaxError, p.peek(), format, args...)
}

// synchronize skips tokens until a likely statement boundary so one syntax
// error does not cascade through the rest of the file.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previousIs(token.Semi) {
			return
		}
		switch p.peek().Type {
		case token.Int, token.Void, token.Return, token.If, token.While, token.RBrace:
			return
		}
		p.advance()
	}
}

func (p *Parser) previousIs(tokType token.Type) bool {
	return p.pos > 0 && p.tokens[p.pos-1].Type == tokType
}

// --- Declarations ---

func (p *Parser) atTypeKeyword() bool {
	return p.check(token.Int) || p.check(token.Void)
}

// parseBaseType consumes the leading type keyword. Pointer stars belong to
// the individual declarator and are parsed there.
func (p *Parser) parseBaseType() *ast.CType {
	switch {
	case p.match(token.Int):
		return ast.TypeInt
	case p.match(token.Void):
		return ast.TypeVoid
	}
	p.errorAtCurrent("expected type name")
	p.advance()
	return ast.TypeError
}

func (p *Parser) parsePointerSuffix(base *ast.CType) *ast.CType {
	for p.match(token.Star) {
		base = &ast.CType{Kind: ast.TYPE_POINTER, Base: base}
	}
	return base
}

func (p *Parser) parseTopLevel() *ast.Node {
	if !p.atTypeKeyword() {
		p.errorAtCurrent("expected declaration")
		p.advance()
		p.synchronize()
		return nil
	}

	baseType := p.parseBaseType()
	declType := p.parsePointerSuffix(baseType)
	nameTok, ok := p.expect(token.Ident, "identifier")
	if !ok {
		p.synchronize()
		return nil
	}

	if p.check(token.LParen) {
		return p.parseFuncDecl(nameTok, declType)
	}
	return p.parseVarDeclRest(nameTok, baseType, declType)
}

func (p *Parser) parseFuncDecl(nameTok token.Token, returnType *ast.CType) *ast.Node {
	p.expect(token.LParen, "'('")

	var params []*ast.Node
	if !p.check(token.RParen) {
		if p.check(token.Void) && p.tokens[p.pos+1].Type == token.RParen {
			p.advance()
		} else {
			for {
				paramType := p.parsePointerSuffix(p.parseBaseType())
				paramTok, ok := p.expect(token.Ident, "parameter name")
				if !ok {
					break
				}
				params = append(params, ast.NewVarDecl(paramTok, paramTok.Value, paramType, nil))
				if !p.match(token.Comma) {
					break
				}
			}
		}
	}
	p.expect(token.RParen, "')'")

	if p.match(token.Semi) {
		return ast.NewFuncDecl(nameTok, nameTok.Value, params, nil, returnType)
	}

	body := p.parseBlock()
	return ast.NewFuncDecl(nameTok, nameTok.Value, params, body, returnType)
}

// parseVarDeclRest finishes a variable declaration whose base type and first
// declarator name were already consumed. Pointer stars attach per declarator,
// so `int *a, b;` declares one pointer and one int.
func (p *Parser) parseVarDeclRest(nameTok token.Token, baseType, firstType *ast.CType) *ast.Node {
	first := p.parseOneDeclarator(nameTok, firstType)
	decls := []*ast.Node{first}

	for p.match(token.Comma) {
		declType := p.parsePointerSuffix(baseType)
		tok, ok := p.expect(token.Ident, "identifier")
		if !ok {
			p.synchronize()
			break
		}
		decls = append(decls, p.parseOneDeclarator(tok, declType))
	}

	if _, ok := p.expect(token.Semi, "';'"); !ok {
		p.synchronize()
	}
	if len(decls) == 1 {
		return decls[0]
	}
	return ast.NewMultiVarDecl(decls[0].Tok, decls)
}

func (p *Parser) parseOneDeclarator(nameTok token.Token, declType *ast.CType) *ast.Node {
	var init *ast.Node
	if p.match(token.Eq) {
		init = p.parseAssignment()
	}
	return ast.NewVarDecl(nameTok, nameTok.Value, declType, init)
}

// --- Statements ---

func (p *Parser) parseStatement() *ast.Node {
	switch {
	case p.atTypeKeyword():
		baseType := p.parseBaseType()
		declType := p.parsePointerSuffix(baseType)
		nameTok, ok := p.expect(token.Ident, "identifier")
		if !ok {
			p.synchronize()
			return nil
		}
		return p.parseVarDeclRest(nameTok, baseType, declType)
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.check(token.If):
		return p.parseIf()
	case p.check(token.While):
		return p.parseWhile()
	case p.check(token.Return):
		return p.parseReturn()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseBlock() *ast.Node {
	braceTok, ok := p.expect(token.LBrace, "'{'")
	if !ok {
		p.synchronize()
		return ast.NewBlock(braceTok, nil)
	}

	var stmts []*ast.Node
	for !p.check(token.RBrace) && !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBrace, "'}'")
	return ast.NewBlock(braceTok, stmts)
}

func (p *Parser) parseIf() *ast.Node {
	ifTok := p.advance()
	p.expect(token.LParen, "'('")
	cond := p.parseExpression()
	p.expect(token.RParen, "')'")
	thenBody := p.parseStatement()

	var elseBody *ast.Node
	if p.match(token.Else) {
		elseBody = p.parseStatement()
	}
	return ast.NewIf(ifTok, cond, thenBody, elseBody)
}

func (p *Parser) parseWhile() *ast.Node {
	whileTok := p.advance()
	p.expect(token.LParen, "'('")
	cond := p.parseExpression()
	p.expect(token.RParen, "')'")
	body := p.parseStatement()
	return ast.NewWhile(whileTok, cond, body)
}

func (p *Parser) parseReturn() *ast.Node {
	retTok := p.advance()
	var expr *ast.Node
	if !p.check(token.Semi) {
		expr = p.parseExpression()
	}
	if _, ok := p.expect(token.Semi, "';'"); !ok {
		p.synchronize()
	}
	return ast.NewReturn(retTok, expr)
}

func (p *Parser) parseExprStatement() *ast.Node {
	expr := p.parseExpression()
	if _, ok := p.expect(token.Semi, "';'"); !ok {
		p.synchronize()
	}
	return expr
}

// --- Expressions ---

// Assignment is right-associative; anything may appear on its left side.
// Whether that left side is actually assignable is a semantic question and
// is left entirely to the checker.
func (p *Parser) parseExpression() *ast.Node { return p.parseAssignment() }

func (p *Parser) parseAssignment() *ast.Node {
	lhs := p.parseLogicalOr()
	if p.check(token.Eq) {
		eqTok := p.advance()
		rhs := p.parseAssignment()
		return ast.NewAssign(eqTok, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseLogicalOr() *ast.Node {
	left := p.parseLogicalAnd()
	for p.check(token.OrOr) {
		opTok := p.advance()
		right := p.parseLogicalAnd()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() *ast.Node {
	left := p.parseEquality()
	for p.check(token.AndAnd) {
		opTok := p.advance()
		right := p.parseEquality()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseEquality() *ast.Node {
	left := p.parseRelational()
	for p.check(token.EqEq) || p.check(token.Neq) {
		opTok := p.advance()
		right := p.parseRelational()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseRelational() *ast.Node {
	left := p.parseAdditive()
	for p.check(token.Lt) || p.check(token.Gt) || p.check(token.Lte) || p.check(token.Gte) {
		opTok := p.advance()
		right := p.parseAdditive()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseMultiplicative()
	for p.check(token.Plus) || p.check(token.Minus) {
		opTok := p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Node {
	left := p.parseUnary()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Rem) {
		opTok := p.advance()
		right := p.parseUnary()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) parseUnary() *ast.Node {
	switch p.peek().Type {
	case token.And:
		opTok := p.advance()
		return ast.NewAddressOf(opTok, p.parseUnary())
	case token.Star:
		opTok := p.advance()
		return ast.NewDeref(opTok, p.parseUnary())
	case token.Minus, token.Not, token.Complement:
		opTok := p.advance()
		return ast.NewUnaryOp(opTok, opTok.Type, p.parseUnary())
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Node {
	expr := p.parsePrimary()
	for p.check(token.LParen) {
		callTok := p.advance()
		var args []*ast.Node
		if !p.check(token.RParen) {
			for {
				args = append(args, p.parseAssignment())
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.expect(token.RParen, "')'")
		expr = ast.NewFuncCall(callTok, expr, args)
	}
	return expr
}

func (p *Parser) parsePrimary() *ast.Node {
	switch {
	case p.check(token.Number):
		tok := p.advance()
		val, _ := strconv.ParseInt(tok.Value, 10, 64)
		return ast.NewNumber(tok, val)
	case p.check(token.Ident):
		tok := p.advance()
		return ast.NewIdent(tok, tok.Value)
	case p.check(token.LParen):
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RParen, "')'")
		return expr
	}

	p.errorAtCurrent("expected expression")
	tok := p.advance()
	// A placeholder keeps the surrounding statement parseable; the zero
	// literal is harmless to the checker.
	return ast.NewNumber(tok, 0)
}

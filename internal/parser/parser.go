package parser

import (
	"strconv"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

type Parser struct {
	l *lexer.Lexer

	cur   token.Token
	ahead []token.Token // tokens read past cur

	errors []error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	return p
}

// Errors returns lexical and syntax errors in source order.
func (p *Parser) Errors() []error {
	return append(append([]error(nil), p.l.Errors()...), p.errors...)
}

func (p *Parser) nextToken() {
	if len(p.ahead) > 0 {
		p.cur = p.ahead[0]
		p.ahead = p.ahead[1:]
		return
	}
	p.cur = p.l.NextToken()
}

// peekAt returns the n-th token after cur (n >= 1).
func (p *Parser) peekAt(n int) token.Token {
	for len(p.ahead) < n {
		p.ahead = append(p.ahead, p.l.NextToken())
	}
	return p.ahead[n-1]
}

// errorf records a syntax error. Only the first one is kept; whatever the
// parser does while unwinding after it is noise.
func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	if len(p.errors) > 0 {
		return
	}
	p.errors = append(p.errors, diag.Errorf(pos, format, args...))
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "Expected %s, but found %s", kind, describe(p.cur))
	}
	tok := p.cur
	if p.cur.Kind != token.EOF {
		p.nextToken()
	}
	return tok
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of file"
	}
	return "'" + tok.Lexeme + "'"
}

// ---------- Top-level ----------

// ParseProgram parses Program ::= ClassDeclaration* EOF. Parsing stops at
// the first syntax error; the partial tree is returned with it.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for p.cur.Kind == token.Class && len(p.errors) == 0 {
		if cd := p.parseClassDecl(); cd != nil {
			prog.Classes = append(prog.Classes, cd)
		}
	}

	if len(p.errors) == 0 && p.cur.Kind != token.EOF {
		p.errorf(p.cur.Pos, "Expected class declaration, but found %s", describe(p.cur))
	}

	return prog
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	p.expect(token.Class)
	nameTok := p.expect(token.Ident)

	cd := &ast.ClassDecl{
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
	}

	p.expect(token.LBrace)
	for startsMember(p.cur.Kind) && len(p.errors) == 0 {
		p.parseMember(cd)
	}
	cd.RBrace = p.cur.Pos
	p.expect(token.RBrace)

	return cd
}

func startsMember(k token.Kind) bool {
	switch k {
	case token.Public, token.Private, token.Static, token.Void,
		token.IntType, token.BooleanType, token.Ident:
		return true
	}
	return false
}

// parseMember parses
//
//	Member ::= (public|private)? static? (Type|void) id ( ';' | '(' ParameterList? ')' '{' Statement* '}' )
func (p *Parser) parseMember(cd *ast.ClassDecl) {
	private := false
	switch p.cur.Kind {
	case token.Public:
		p.nextToken()
	case token.Private:
		private = true
		p.nextToken()
	}

	static := false
	if p.cur.Kind == token.Static {
		static = true
		p.nextToken()
	}

	typ := p.parseType()
	nameTok := p.expect(token.Ident)

	if p.cur.Kind != token.LParen {
		p.expect(token.Semicolon)
		cd.Fields = append(cd.Fields, &ast.FieldDecl{
			Name:    nameTok.Lexeme,
			NamePos: nameTok.Pos,
			Type:    typ,
			Private: private,
			Static:  static,
			Class:   cd,
		})
		return
	}

	md := &ast.MethodDecl{
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
		Result:  typ,
		Private: private,
		Static:  static,
		Class:   cd,
	}

	p.expect(token.LParen)
	if p.cur.Kind != token.RParen {
		for {
			ptyp := p.parseType()
			pname := p.expect(token.Ident)
			md.Params = append(md.Params, &ast.ParamDecl{
				Name:    pname.Lexeme,
				NamePos: pname.Pos,
				Type:    ptyp,
			})
			if p.cur.Kind != token.Comma || len(p.errors) > 0 {
				break
			}
			p.nextToken()
		}
	}
	p.expect(token.RParen)

	p.expect(token.LBrace)
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF && len(p.errors) == 0 {
		if s := p.parseStatement(); s != nil {
			md.Body = append(md.Body, s)
		}
	}
	md.RBrace = p.cur.Pos
	p.expect(token.RBrace)

	cd.Methods = append(cd.Methods, md)
}

// parseType parses Type ::= (int | boolean | void | id) ('[' ']')?
//
// void is accepted here so that misplaced void types are reported by the
// type checker with a proper message.
func (p *Parser) parseType() ast.TypeNode {
	var base ast.TypeNode
	switch p.cur.Kind {
	case token.IntType:
		base = &ast.BaseType{Kind: ast.Int, TypePos: p.cur.Pos}
	case token.BooleanType:
		base = &ast.BaseType{Kind: ast.Boolean, TypePos: p.cur.Pos}
	case token.Void:
		base = &ast.BaseType{Kind: ast.Void, TypePos: p.cur.Pos}
	case token.Ident:
		base = &ast.ClassType{Name: p.cur.Lexeme, NamePos: p.cur.Pos}
	default:
		p.errorf(p.cur.Pos, "Expected type, but found %s", describe(p.cur))
		return &ast.BaseType{Kind: ast.Int, TypePos: p.cur.Pos}
	}
	p.nextToken()

	if p.cur.Kind == token.LBracket && p.peekAt(1).Kind == token.RBracket {
		p.nextToken()
		p.nextToken()
		return &ast.ArrayType{Elem: base}
	}
	return base
}

// ---------- Statements ----------

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace := p.expect(token.LBrace)

	block := &ast.BlockStmt{
		LBrace: lbrace.Pos,
	}

	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF && len(p.errors) == 0 {
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	block.RBrace = p.cur.Pos
	p.expect(token.RBrace)

	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Return:
		return p.parseReturnStmt()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.IntType, token.BooleanType, token.Void, token.Ident, token.This:
		s := p.parseSimpleStmt()
		p.expect(token.Semicolon)
		return s
	default:
		p.errorf(p.cur.Pos, "Expected statement, but found %s", describe(p.cur))
		return nil
	}
}

// startsVarDecl decides between "Type id = e" and a reference statement:
//
//	p a = 3;     -> declaration
//	p[] a = 3;   -> declaration
//	p = 3;       -> assignment
//	p[1+2] = 3;  -> assignment
func (p *Parser) startsVarDecl() bool {
	switch p.cur.Kind {
	case token.IntType, token.BooleanType, token.Void:
		return true
	case token.Ident:
		next := p.peekAt(1)
		if next.Kind == token.Ident {
			return true
		}
		return next.Kind == token.LBracket && p.peekAt(2).Kind == token.RBracket
	}
	return false
}

// parseSimpleStmt parses a declaration, assignment or call statement
// without its terminating semicolon (shared with for-loop clauses).
func (p *Parser) parseSimpleStmt() ast.Stmt {
	if p.startsVarDecl() {
		typ := p.parseType()
		nameTok := p.expect(token.Ident)
		p.expect(token.Assign)
		init := p.parseExpr()
		return &ast.VarDeclStmt{
			Var: &ast.VarDecl{
				Name:    nameTok.Lexeme,
				NamePos: nameTok.Pos,
				Type:    typ,
			},
			Init: init,
		}
	}

	ref := p.parseReference()

	switch p.cur.Kind {
	case token.Assign:
		assignTok := p.cur
		p.nextToken()
		value := p.parseExpr()
		return &ast.AssignStmt{
			Target:    ref,
			AssignPos: assignTok.Pos,
			Value:     value,
		}
	case token.LParen:
		return &ast.CallStmt{Call: p.parseCall(ref)}
	default:
		p.errorf(p.cur.Pos, "Expected '=' or '(', but found %s", describe(p.cur))
		return nil
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	retTok := p.cur
	p.nextToken()

	var result ast.Expr
	if p.cur.Kind != token.Semicolon {
		result = p.parseExpr()
	}
	p.expect(token.Semicolon)

	return &ast.ReturnStmt{
		ReturnPos: retTok.Pos,
		Result:    result,
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	ifTok := p.cur
	p.nextToken()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)

	then := p.parseStatement()

	var elseStmt ast.Stmt
	if p.cur.Kind == token.Else {
		p.nextToken()
		elseStmt = p.parseStatement()
	}

	return &ast.IfStmt{
		IfPos: ifTok.Pos,
		Cond:  cond,
		Then:  then,
		Else:  elseStmt,
	}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	whileTok := p.cur
	p.nextToken()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStatement()

	return &ast.WhileStmt{
		WhilePos: whileTok.Pos,
		Cond:     cond,
		Body:     body,
	}
}

// parseForStmt parses for '(' Simple? ';' Expression? ';' Simple? ')' Statement.
func (p *Parser) parseForStmt() ast.Stmt {
	forTok := p.cur
	p.nextToken()
	p.expect(token.LParen)

	fs := &ast.ForStmt{ForPos: forTok.Pos}

	if p.cur.Kind != token.Semicolon {
		fs.Init = p.parseSimpleStmt()
	}
	p.expect(token.Semicolon)

	if p.cur.Kind != token.Semicolon {
		fs.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	if p.cur.Kind != token.RParen {
		fs.Update = p.parseSimpleStmt()
	}
	p.expect(token.RParen)

	fs.Body = p.parseStatement()
	return fs
}

// ---------- References ----------

// parseReference parses Reference ::= (id | this) ('.' id)* ('[' Expression ']')?
func (p *Parser) parseReference() ast.Ref {
	var ref ast.Ref
	switch p.cur.Kind {
	case token.This:
		ref = &ast.ThisRef{ThisPos: p.cur.Pos}
		p.nextToken()
	case token.Ident:
		ref = &ast.IdRef{Name: p.cur.Lexeme, NamePos: p.cur.Pos}
		p.nextToken()
	default:
		p.errorf(p.cur.Pos, "Expected reference, but found %s", describe(p.cur))
		return &ast.IdRef{Name: p.cur.Lexeme, NamePos: p.cur.Pos}
	}

	for p.cur.Kind == token.Dot {
		p.nextToken()
		nameTok := p.expect(token.Ident)
		ref = &ast.QualRef{
			Prefix:  ref,
			Name:    nameTok.Lexeme,
			NamePos: nameTok.Pos,
		}
	}

	if p.cur.Kind == token.LBracket {
		lbr := p.cur
		p.nextToken()
		index := p.parseExpr()
		p.expect(token.RBracket)
		ref = &ast.IxRef{
			Base:     ref,
			LBracket: lbr.Pos,
			Index:    index,
		}
	}

	return ref
}

func (p *Parser) parseCall(method ast.Ref) *ast.CallExpr {
	lparen := p.expect(token.LParen)
	call := &ast.CallExpr{
		Method: method,
		LParen: lparen.Pos,
	}
	if p.cur.Kind != token.RParen {
		for {
			call.Args = append(call.Args, p.parseExpr())
			if p.cur.Kind != token.Comma || len(p.errors) > 0 {
				break
			}
			p.nextToken()
		}
	}
	p.expect(token.RParen)
	return call
}

// ---------- Expressions ----------

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

// binaryLevel parses a left-associative chain of operators in ops whose
// operands are parsed by next.
func (p *Parser) binaryLevel(next func() ast.Expr, ops ...token.Kind) ast.Expr {
	left := next()
	for containsKind(ops, p.cur.Kind) && len(p.errors) == 0 {
		opTok := p.cur
		p.nextToken()
		right := next()
		left = &ast.BinaryExpr{
			OpPos: opTok.Pos,
			Op:    opTok.Kind,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func containsKind(kinds []token.Kind, k token.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func (p *Parser) parseOr() ast.Expr {
	return p.binaryLevel(p.parseAnd, token.OrOr)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.binaryLevel(p.parseEquality, token.AndAnd)
}

func (p *Parser) parseEquality() ast.Expr {
	return p.binaryLevel(p.parseRelational, token.Eq, token.NotEq)
}

func (p *Parser) parseRelational() ast.Expr {
	return p.binaryLevel(p.parseAdditive, token.Lt, token.LtEq, token.Gt, token.GtEq)
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.binaryLevel(p.parseMultiplicative, token.Plus, token.Minus)
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.binaryLevel(p.parseUnary, token.Star, token.Slash)
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Kind == token.Bang || p.cur.Kind == token.Minus {
		opTok := p.cur
		p.nextToken()
		x := p.parseUnary()
		return &ast.UnaryExpr{
			OpPos: opTok.Pos,
			Op:    opTok.Kind,
			X:     x,
		}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur

	switch tok.Kind {
	case token.Ident, token.This:
		ref := p.parseReference()
		if p.cur.Kind == token.LParen {
			return p.parseCall(ref)
		}
		return &ast.RefExpr{Ref: ref}

	case token.LParen:
		p.nextToken()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e

	case token.Num:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			p.errorf(tok.Pos, "Integer literal %s out of range", tok.Lexeme)
		}
		return &ast.IntLiteral{Value: int(v), Raw: tok.Lexeme, ValuePos: tok.Pos}

	case token.True, token.False:
		p.nextToken()
		return &ast.BoolLiteral{Value: tok.Kind == token.True, ValuePos: tok.Pos}

	case token.Null:
		p.nextToken()
		return &ast.NullLiteral{NullPos: tok.Pos}

	case token.New:
		return p.parseNew()

	default:
		p.errorf(tok.Pos, "Expected expression, but found %s", describe(tok))
		return &ast.IntLiteral{ValuePos: tok.Pos}
	}
}

// parseNew parses new ( id '(' ')' | int '[' Expression ']' | id '[' Expression ']' ).
func (p *Parser) parseNew() ast.Expr {
	newTok := p.cur
	p.nextToken()

	switch p.cur.Kind {
	case token.Ident:
		nameTok := p.cur
		p.nextToken()
		class := &ast.ClassType{Name: nameTok.Lexeme, NamePos: nameTok.Pos}
		if p.cur.Kind == token.LParen {
			p.nextToken()
			p.expect(token.RParen)
			return &ast.NewObjectExpr{NewPos: newTok.Pos, Class: class}
		}
		return p.parseNewArray(newTok, class)
	case token.IntType:
		elem := &ast.BaseType{Kind: ast.Int, TypePos: p.cur.Pos}
		p.nextToken()
		return p.parseNewArray(newTok, elem)
	case token.BooleanType:
		elem := &ast.BaseType{Kind: ast.Boolean, TypePos: p.cur.Pos}
		p.nextToken()
		return p.parseNewArray(newTok, elem)
	default:
		p.errorf(p.cur.Pos, "Expected class name or int after new, but found %s", describe(p.cur))
		return &ast.NullLiteral{NullPos: newTok.Pos}
	}
}

func (p *Parser) parseNewArray(newTok token.Token, elem ast.TypeNode) ast.Expr {
	p.expect(token.LBracket)
	size := p.parseExpr()
	p.expect(token.RBracket)
	return &ast.NewArrayExpr{NewPos: newTok.Pos, Elem: elem, Size: size}
}

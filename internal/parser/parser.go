// Package parser builds an AST from a token stream using recursive descent
// with Pratt-style expression precedence, plus a separate type-expression
// grammar, following the teacher's internal/parser package layout (one file
// per grammar area) and spec.md §4.C.
package parser

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/lexer"
)

// Parser consumes tokens from a lexer.Lexer and produces an *ast.Program.
// Errors are collected in a diag.Bag rather than aborting; when recovery is
// feasible the parser resumes at the next statement boundary, per spec.md §4.C.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	errs diag.Bag
}

// New creates a Parser over l, reading from file's canonical path for span
// reporting.
func New(file string, l *lexer.Lexer) *Parser {
	p := &Parser{l: l, file: file}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) Errors() []*diag.Error { return p.errs.Errors() }

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.cur.Type != t {
		p.errorf(p.cur.Span, "expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
		return p.cur, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

func (p *Parser) errorf(span diag.Span, format string, args ...any) {
	p.errs.Add(diag.New(diag.KindSyntaxError, diag.SubNone, span, format, args...))
}

// skipNewlines consumes any run of blank NEWLINE tokens (blank lines between
// statements collapse to nothing at the AST level).
func (p *Parser) skipNewlines() {
	for p.curIs(lexer.NEWLINE) {
		p.advance()
	}
}

// ParseProgram parses the entire token stream into a Program, recovering to
// the next statement boundary after a syntax error so later errors in the
// same file are still reported.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{File: p.file}
	p.skipNewlines()
	for !p.curIs(lexer.EOF) {
		start := len(p.errs.Errors())
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if len(p.errs.Errors()) > start {
			p.recover()
		}
		p.skipNewlines()
	}
	return prog
}

// recover discards tokens until the next NEWLINE/DEDENT/EOF at the current
// nesting level so a single malformed statement doesn't cascade.
func (p *Parser) recover() {
	for !p.curIs(lexer.NEWLINE) && !p.curIs(lexer.DEDENT) && !p.curIs(lexer.EOF) {
		p.advance()
	}
}

// parseBlock parses an indented statement block introduced by `:` NEWLINE
// INDENT ... DEDENT, the shape every compound statement and declaration body
// shares.
func (p *Parser) parseBlock() []ast.Stmt {
	if _, ok := p.expect(lexer.COLON); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.NEWLINE); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.INDENT); !ok {
		return nil
	}
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.curIs(lexer.DEDENT) && !p.curIs(lexer.EOF) {
		start := len(p.errs.Errors())
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if len(p.errs.Errors()) > start {
			p.recover()
		}
		p.skipNewlines()
	}
	p.expect(lexer.DEDENT)
	return stmts
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Type {
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.FROM:
		return p.parseFromImport()
	case lexer.AT:
		return p.parseDecorated()
	case lexer.RESOURCE:
		return p.parseResourceDecl(nil)
	case lexer.TYPEDEF:
		return p.parseTypedef()
	case lexer.ENUM:
		return p.parseEnum()
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	default:
		return p.parseSimpleStatement()
	}
}

// parseDecorated reads one or more `@name(args)` decorator lines and
// attaches them to the resource declaration or constructor overload that
// follows (anything else is a parse error), per
// spec.md §4.C ("Decorators apply to the following declaration").
func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Decorator
	for p.curIs(lexer.AT) {
		start := p.cur.Span
		p.advance()
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil
		}
		var args []ast.Expr
		if p.curIs(lexer.LPAREN) {
			p.advance()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				args = append(args, p.parseExpr(LOWEST))
				if p.curIs(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
		}
		decorators = append(decorators, ast.Decorator{Base: ast.At(start), Name: name.Literal, Args: args})
		p.expect(lexer.NEWLINE)
		p.skipNewlines()
	}

	switch p.cur.Type {
	case lexer.RESOURCE:
		return p.parseResourceDecl(decorators)
	case lexer.IMPLEMENT, lexer.DEF:
		return p.parseConstructorAsStatement(decorators)
	default:
		p.errorf(p.cur.Span, "decorator must be followed by a resource or constructor declaration")
		return nil
	}
}

func (p *Parser) parseSimpleStatement() ast.Stmt {
	start := p.cur.Span
	expr := p.parseExpr(LOWEST)

	switch p.cur.Type {
	case lexer.COLON:
		// forward declaration: `name: Type`
		p.advance()
		typ := p.parseTypeExpr()
		ident, ok := expr.(*ast.Ident)
		if !ok {
			p.errorf(start, "expected identifier before ':' in a forward declaration")
			return nil
		}
		p.expect(lexer.NEWLINE)
		return &ast.ForwardDecl{Base: ast.At(start), Name: ident.Name, Type: typ}
	case lexer.ASSIGN:
		p.advance()
		value := p.parseExpr(LOWEST)
		p.expect(lexer.NEWLINE)
		return &ast.AssignStmt{Base: ast.At(start), Target: expr, Value: value}
	default:
		p.expect(lexer.NEWLINE)
		return &ast.ExprStmt{Base: ast.At(start), X: expr}
	}
}

func (p *Parser) parseImport() ast.Stmt {
	start := p.cur.Span
	p.advance()
	dots := 0
	for p.curIs(lexer.DOT) {
		dots++
		p.advance()
	}
	path := p.parseDottedPath()
	alias := ""
	if p.curIs(lexer.AS) {
		p.advance()
		name, _ := p.expect(lexer.IDENT)
		alias = name.Literal
	}
	p.expect(lexer.NEWLINE)
	return &ast.ImportStmt{Base: ast.At(start), Dots: dots, Path: path, Alias: alias}
}

func (p *Parser) parseFromImport() ast.Stmt {
	start := p.cur.Span
	p.advance()
	dots := 0
	for p.curIs(lexer.DOT) {
		dots++
		p.advance()
	}
	modPath := p.parseDottedPath()
	if _, ok := p.expect(lexer.IMPORT); !ok {
		return nil
	}
	var names []ast.FromImportName
	for {
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			break
		}
		entry := ast.FromImportName{Name: name.Literal}
		if p.curIs(lexer.AS) {
			p.advance()
			alias, _ := p.expect(lexer.IDENT)
			entry.Alias = alias.Literal
		}
		names = append(names, entry)
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.NEWLINE)
	return &ast.FromImport{Base: ast.At(start), Dots: dots, Path: modPath, Names: names}
}

func (p *Parser) parseDottedPath() []string {
	var parts []string
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return parts
	}
	parts = append(parts, name.Literal)
	for p.curIs(lexer.DOT) {
		p.advance()
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			break
		}
		parts = append(parts, name.Literal)
	}
	return parts
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.advance()
	cond := p.parseExpr(LOWEST)
	then := p.parseBlock()
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	for p.curIs(lexer.ELIF) {
		p.advance()
		c := p.parseExpr(LOWEST)
		body := p.parseBlock()
		stmt.Elifs = append(stmt.Elifs, ast.ElifClause{Cond: c, Body: body})
	}
	if p.curIs(lexer.ELSE) {
		p.advance()
		stmt.Else = p.parseBlock()
	}
	stmt.Base = ast.NewBase(start)
	return stmt
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.IN); !ok {
		return nil
	}
	iterable := p.parseExpr(LOWEST)
	body := p.parseBlock()
	stmt := &ast.ForStmt{Var: name.Literal, Iterable: iterable, Body: body}
	stmt.Base = ast.NewBase(start)
	return stmt
}

package parser

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/lexer"
)

// parseResourceDecl parses `resource Name[(Parent)]:` and its body, per
// spec.md §3 ("Resource definition") and §4.C. decorators were already
// consumed by parseDecorated (currently only @index([...]) is meaningful
// here).
func (p *Parser) parseResourceDecl(decorators []ast.Decorator) ast.Stmt {
	start := p.cur.Span
	p.advance() // consume 'resource'
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	decl := &ast.ResourceDecl{Base: ast.At(start), Name: name.Literal, Decorators: decorators}

	if p.curIs(lexer.LPAREN) {
		p.advance()
		parent, ok := p.expect(lexer.IDENT)
		if ok {
			decl.Parent = parent.Literal
		}
		p.expect(lexer.RPAREN)
	}

	if _, ok := p.expect(lexer.COLON); !ok {
		return decl
	}
	p.expect(lexer.NEWLINE)
	if _, ok := p.expect(lexer.INDENT); !ok {
		return decl
	}
	p.skipNewlines()

	if p.curIs(lexer.DOTDOTDOT) {
		decl.InheritOnly = true
		p.advance()
		p.expect(lexer.NEWLINE)
		p.skipNewlines()
	}

	for !p.curIs(lexer.DEDENT) && !p.curIs(lexer.EOF) {
		startErrs := len(p.errs.Errors())
		switch {
		case p.curIs(lexer.AT):
			if stmt := p.parseDecorated(); stmt != nil {
				if ctor, ok := stmt.(*ast.ConstructorDecl); ok {
					decl.Constructors = append(decl.Constructors, ctor)
				}
			}
		case p.curIs(lexer.IMPLEMENT) || p.curIs(lexer.DEF):
			if ctor := p.parseConstructor(nil); ctor != nil {
				decl.Constructors = append(decl.Constructors, ctor)
			}
		case p.curIs(lexer.PROMISE):
			p.advance()
			if prop := p.parsePropertyDecl(true); prop != nil {
				decl.Properties = append(decl.Properties, *prop)
			}
		case p.curIs(lexer.IDENT):
			if prop := p.parsePropertyDecl(false); prop != nil {
				decl.Properties = append(decl.Properties, *prop)
			}
		default:
			p.errorf(p.cur.Span, "unexpected token %s in resource body", p.cur.Type)
			p.advance()
		}
		if len(p.errs.Errors()) > startErrs {
			p.recover()
		}
		p.skipNewlines()
	}
	p.expect(lexer.DEDENT)
	return decl
}

func (p *Parser) parsePropertyDecl(promise bool) *ast.PropertyDecl {
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.COLON); !ok {
		return nil
	}
	typ := p.parseTypeExpr()
	var def ast.Expr
	if p.curIs(lexer.ASSIGN) {
		p.advance()
		def = p.parseExpr(LOWEST)
	}
	p.expect(lexer.NEWLINE)
	return &ast.PropertyDecl{Name: name.Literal, Type: typ, Default: def, Promise: promise}
}

// parseConstructorAsStatement is invoked by parseDecorated for a
// `@constraint(expr)` decorator immediately followed by an overload.
func (p *Parser) parseConstructorAsStatement(decorators []ast.Decorator) ast.Stmt {
	var constraint ast.Expr
	for _, d := range decorators {
		if d.Name == "constraint" && len(d.Args) == 1 {
			constraint = d.Args[0]
		}
	}
	return p.parseConstructor(constraint)
}

// parseConstructor parses `implement Name(self, ...):` or
// `def __init__(self, ...):`, per spec.md §4.C and §4.G (overload dispatch).
func (p *Parser) parseConstructor(constraint ast.Expr) *ast.ConstructorDecl {
	start := p.cur.Span
	name := "__init__"
	if p.curIs(lexer.IMPLEMENT) {
		p.advance()
		n, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil
		}
		name = n.Literal
	} else if p.curIs(lexer.DEF) {
		p.advance()
		if !p.curIs(lexer.IDENT) {
			p.errorf(p.cur.Span, "expected constructor name after 'def'")
		} else {
			p.advance()
		}
	} else {
		p.errorf(p.cur.Span, "expected 'implement' or 'def'")
		return nil
	}

	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil
	}
	var params []ast.Param
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.SELF) {
			p.advance()
		} else {
			pname, ok := p.expect(lexer.IDENT)
			if !ok {
				break
			}
			param := ast.Param{Name: pname.Literal}
			if p.curIs(lexer.COLON) {
				p.advance()
				param.Type = p.parseTypeExpr()
			}
			if p.curIs(lexer.ASSIGN) {
				p.advance()
				param.Default = p.parseExpr(LOWEST)
			}
			params = append(params, param)
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)

	body := p.parseBlock()
	return &ast.ConstructorDecl{
		Base:       ast.At(start),
		Name:       name,
		Params:     params,
		Constraint: constraint,
		Body:       body,
	}
}

// parseTypedef parses `typedef Name Base [if expr]`, per spec.md §4.E.
func (p *Parser) parseTypedef() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	base := p.parseTypeExpr()
	var refinement ast.Expr
	if p.curIs(lexer.IF) {
		p.advance()
		refinement = p.parseExpr(LOWEST)
	}
	p.expect(lexer.NEWLINE)
	return &ast.TypedefDecl{Base: ast.At(start), Name: name.Literal, BaseType: base, Refinement: refinement}
}

// parseEnum parses `enum Name: member1 member2 ...` (one member per line).
func (p *Parser) parseEnum() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	decl := &ast.EnumDecl{Base: ast.At(start), Name: name.Literal}
	if _, ok := p.expect(lexer.COLON); !ok {
		return decl
	}
	p.expect(lexer.NEWLINE)
	if _, ok := p.expect(lexer.INDENT); !ok {
		return decl
	}
	p.skipNewlines()
	for !p.curIs(lexer.DEDENT) && !p.curIs(lexer.EOF) {
		member, ok := p.expect(lexer.IDENT)
		if ok {
			decl.Members = append(decl.Members, member.Literal)
		}
		p.expect(lexer.NEWLINE)
		p.skipNewlines()
	}
	p.expect(lexer.DEDENT)
	return decl
}

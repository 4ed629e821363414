package parser

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/lexer"
)

// parseTypeExpr parses the dedicated type-expression mini-grammar (spec.md
// §4.C): bare names, list[T], dict[K, V], Optional[T], Union[A, B, ...].
// Kept entirely separate from parseExpr so an ordinary value expression can
// never be mistaken for a type annotation.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	if !p.curIs(lexer.IDENT) {
		p.errorf(p.cur.Span, "expected a type name, got %s %q", p.cur.Type, p.cur.Literal)
		return nil
	}
	name := p.cur
	p.advance()

	switch name.Literal {
	case "list":
		return p.parseBracketedOne(name, func(elem ast.TypeExpr, span ast.Base) ast.TypeExpr {
			return &ast.ListType{Base: span, Elem: elem}
		})
	case "dict":
		return p.parseDictType(name)
	case "Optional":
		return p.parseBracketedOne(name, func(elem ast.TypeExpr, span ast.Base) ast.TypeExpr {
			return &ast.OptionalType{Base: span, Elem: elem}
		})
	case "Union":
		return p.parseUnionType(name)
	default:
		return ast.NewNamedType(name.Span, name.Literal)
	}
}

func (p *Parser) parseBracketedOne(name lexer.Token, build func(ast.TypeExpr, ast.Base) ast.TypeExpr) ast.TypeExpr {
	if _, ok := p.expect(lexer.LBRACKET); !ok {
		return nil
	}
	elem := p.parseTypeExpr()
	end, _ := p.expect(lexer.RBRACKET)
	return build(elem, ast.At(name.Span.Join(end.Span)))
}

func (p *Parser) parseDictType(name lexer.Token) ast.TypeExpr {
	if _, ok := p.expect(lexer.LBRACKET); !ok {
		return nil
	}
	key := p.parseTypeExpr()
	p.expect(lexer.COMMA)
	val := p.parseTypeExpr()
	end, _ := p.expect(lexer.RBRACKET)
	return &ast.DictType{Base: ast.At(name.Span.Join(end.Span)), Key: key, Value: val}
}

func (p *Parser) parseUnionType(name lexer.Token) ast.TypeExpr {
	if _, ok := p.expect(lexer.LBRACKET); !ok {
		return nil
	}
	var members []ast.TypeExpr
	for {
		members = append(members, p.parseTypeExpr())
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBRACKET)
	return &ast.UnionType{Base: ast.At(name.Span.Join(end.Span)), Members: members}
}

package parser

import (
	"strconv"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/lexer"
)

// Precedence levels, lowest to highest, Pratt-style.
const (
	LOWEST int = iota
	OR_PREC
	AND_PREC
	NOT_PREC
	COMPARE_PREC
	IN_PREC
	SUM_PREC
	PRODUCT_PREC
	UNARY_PREC
	CALL_PREC
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       OR_PREC,
	lexer.AND:      AND_PREC,
	lexer.EQ:       COMPARE_PREC,
	lexer.NEQ:      COMPARE_PREC,
	lexer.LT:       COMPARE_PREC,
	lexer.GT:       COMPARE_PREC,
	lexer.LE:       COMPARE_PREC,
	lexer.GE:       COMPARE_PREC,
	lexer.IN:       IN_PREC,
	lexer.PLUS:     SUM_PREC,
	lexer.MINUS:    SUM_PREC,
	lexer.STAR:     PRODUCT_PREC,
	lexer.SLASH:    PRODUCT_PREC,
	lexer.PERCENT:  PRODUCT_PREC,
	lexer.DOT:      CALL_PREC,
	lexer.LPAREN:   CALL_PREC,
	lexer.LBRACKET: CALL_PREC,
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peek.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur.Type]; ok {
		return prec
	}
	return LOWEST
}

// parseExpr implements Pratt-style precedence climbing for every expression
// form named in spec.md §3 ("AST nodes").
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for !p.curIs(lexer.NEWLINE) && minPrec < p.curPrecedence() {
		switch p.cur.Type {
		case lexer.DOT:
			left = p.parseDot(left)
		case lexer.LPAREN:
			left = p.parseCall(left)
		case lexer.LBRACKET:
			left = p.parseIndex(left)
		case lexer.AND, lexer.OR:
			left = p.parseBoolOp(left)
		case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE:
			left = p.parseCompare(left)
		case lexer.IN:
			left = p.parseIn(left, false)
		case lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT:
			left = p.parseBinary(left)
		default:
			return left
		}
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	switch p.cur.Type {
	case lexer.IDENT:
		tok := p.cur
		p.advance()
		return ast.NewIdent(tok.Span, tok.Literal)
	case lexer.SELF:
		tok := p.cur
		p.advance()
		return &ast.SelfExpr{Base: ast.At(tok.Span)}
	case lexer.INT:
		tok := p.cur
		p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 0, 64)
		return &ast.IntLit{Base: ast.At(tok.Span), Value: v}
	case lexer.FLOAT:
		tok := p.cur
		p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return &ast.FloatLit{Base: ast.At(tok.Span), Value: v}
	case lexer.STRING:
		tok := p.cur
		p.advance()
		return &ast.StringLit{Base: ast.At(tok.Span), Value: tok.Literal}
	case lexer.FSTRING_START:
		return p.parseFString()
	case lexer.TRUE:
		tok := p.cur
		p.advance()
		return &ast.BoolLit{Base: ast.At(tok.Span), Value: true}
	case lexer.FALSE:
		tok := p.cur
		p.advance()
		return &ast.BoolLit{Base: ast.At(tok.Span), Value: false}
	case lexer.NONE:
		tok := p.cur
		p.advance()
		return &ast.NoneLit{Base: ast.At(tok.Span)}
	case lexer.NOT:
		tok := p.cur
		p.advance()
		x := p.parseExpr(NOT_PREC)
		return &ast.UnaryExpr{Base: ast.At(tok.Span), Op: "not", X: x}
	case lexer.MINUS:
		tok := p.cur
		p.advance()
		x := p.parseExpr(UNARY_PREC)
		return &ast.UnaryExpr{Base: ast.At(tok.Span), Op: "-", X: x}
	case lexer.LPAREN:
		p.advance()
		x := p.parseExpr(LOWEST)
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACKET:
		return p.parseListLit()
	case lexer.LBRACE:
		return p.parseDictLit()
	default:
		p.errorf(p.cur.Span, "unexpected token %s %q in expression", p.cur.Type, p.cur.Literal)
		p.advance()
		return nil
	}
}

func (p *Parser) parseDot(left ast.Expr) ast.Expr {
	start := left.Span()
	p.advance() // consume '.'
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	return &ast.DotExpr{Base: ast.At(start.Join(name.Span)), X: left, Name: name.Literal}
}

func (p *Parser) parseIndex(left ast.Expr) ast.Expr {
	start := left.Span()
	p.advance() // consume '['
	idx := p.parseExpr(LOWEST)
	end, _ := p.expect(lexer.RBRACKET)
	return &ast.IndexExpr{Base: ast.At(start.Join(end.Span)), X: left, Index: idx}
}

func (p *Parser) parseCall(left ast.Expr) ast.Expr {
	start := left.Span()
	p.advance() // consume '('
	var args []ast.CallArg
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.IDENT) && p.peekIs(lexer.ASSIGN) {
			name := p.cur.Literal
			p.advance()
			p.advance()
			val := p.parseExpr(LOWEST)
			args = append(args, ast.CallArg{Name: name, Value: val})
		} else {
			val := p.parseExpr(LOWEST)
			args = append(args, ast.CallArg{Value: val})
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RPAREN)
	return &ast.CallExpr{Base: ast.At(start.Join(end.Span)), Callee: left, Args: args}
}

func (p *Parser) parseBoolOp(left ast.Expr) ast.Expr {
	op := p.cur.Literal
	prec := p.curPrecedence()
	p.advance()
	right := p.parseExpr(prec)
	return &ast.BoolOpExpr{Base: ast.At(left.Span()), Op: op, Left: left, Right: right}
}

func (p *Parser) parseCompare(left ast.Expr) ast.Expr {
	op := p.cur.Literal
	p.advance()
	right := p.parseExpr(COMPARE_PREC)
	return &ast.CompareExpr{Base: ast.At(left.Span()), Op: op, Left: left, Right: right}
}

func (p *Parser) parseIn(left ast.Expr, negate bool) ast.Expr {
	p.advance() // consume 'in'
	container := p.parseExpr(IN_PREC)
	return &ast.InExpr{Base: ast.At(left.Span()), X: left, Container: container, Negate: negate}
}

func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	op := p.cur.Literal
	prec := p.curPrecedence()
	p.advance()
	right := p.parseExpr(prec)
	return &ast.BinaryExpr{Base: ast.At(left.Span()), Op: op, Left: left, Right: right}
}

func (p *Parser) parseListLit() ast.Expr {
	start := p.cur.Span
	p.advance() // consume '['
	var elems []ast.Expr
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		elems = append(elems, p.parseExpr(LOWEST))
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBRACKET)
	return &ast.ListExpr{Base: ast.At(start.Join(end.Span)), Elements: elems}
}

func (p *Parser) parseDictLit() ast.Expr {
	start := p.cur.Span
	p.advance() // consume '{'
	var entries []ast.DictEntry
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		key := p.parseExpr(LOWEST)
		p.expect(lexer.COLON)
		val := p.parseExpr(LOWEST)
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBRACE)
	return &ast.DictExpr{Base: ast.At(start.Join(end.Span)), Entries: entries}
}

// parseFString reassembles the FSTRING_START/LIT/EXPR_START/EXPR_END/END
// token run the lexer decomposed an f-string into (spec.md §4.B) back into
// a single ast.FString node with embedded sub-expressions re-parsed.
func (p *Parser) parseFString() ast.Expr {
	start := p.cur.Span
	p.advance() // consume FSTRING_START
	fs := &ast.FString{Base: ast.At(start)}
	for !p.curIs(lexer.FSTRING_END) && !p.curIs(lexer.EOF) {
		switch p.cur.Type {
		case lexer.FSTRING_LIT:
			fs.Parts = append(fs.Parts, ast.FStringPart{Literal: p.cur.Literal})
			p.advance()
		case lexer.FSTRING_EXPR_START:
			p.advance()
			expr := p.parseExpr(LOWEST)
			if p.curIs(lexer.FSTRING_EXPR_END) {
				p.advance()
			}
			fs.Parts = append(fs.Parts, ast.FStringPart{Expr: expr})
		default:
			p.advance()
		}
	}
	if p.curIs(lexer.FSTRING_END) {
		p.advance()
	}
	return fs
}

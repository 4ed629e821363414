// Package ast defines the Eiko abstract syntax tree: tagged-variant nodes
// for every construct named in spec.md §3, grounded on the teacher's
// one-file-per-node-family layout (internal/ast/ast.go, arrays.go,
// classes.go, control_flow.go, declarations.go).
package ast

import "github.com/kazaamjt/eikobot/internal/diag"

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a single parsed file.
type Program struct {
	File       string
	Statements []Stmt
}

func (p *Program) Span() diag.Span {
	if len(p.Statements) == 0 {
		return diag.Span{File: p.File}
	}
	return p.Statements[0].Span().Join(p.Statements[len(p.Statements)-1].Span())
}

// Base embeds a span and gives every concrete node its Span() method. It is
// exported (unlike the teacher's typical unexported embed) so that other
// packages building nodes via composite literals (the parser) can set the
// span directly: ast.IfStmt{Base: ast.At(start), ...}.
type Base struct {
	Sp diag.Span
}

func (b Base) Span() diag.Span { return b.Sp }

// At constructs a Base from a span; a small convenience for node literals.
func At(span diag.Span) Base { return Base{Sp: span} }

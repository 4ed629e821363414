package ast

import "github.com/kazaamjt/eikobot/internal/diag"

func (*Ident) exprNode()       {}
func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NoneLit) exprNode()     {}
func (*SelfExpr) exprNode()    {}
func (*FString) exprNode()     {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*CompareExpr) exprNode() {}
func (*IndexExpr) exprNode()   {}
func (*DotExpr) exprNode()     {}
func (*CallExpr) exprNode()    {}
func (*ListExpr) exprNode()    {}
func (*DictExpr) exprNode()    {}
func (*InExpr) exprNode()      {}
func (*BoolOpExpr) exprNode()  {}

// Ident is a bare identifier reference.
type Ident struct {
	Base
	Name string
}

func NewIdent(span diag.Span, name string) *Ident { return &Ident{At(span), name} }

type IntLit struct {
	Base
	Value int64
}

type FloatLit struct {
	Base
	Value float64
}

type StringLit struct {
	Base
	Value     string
	Protected bool // true if declared/used where a ProtectedStr type is expected
}

type BoolLit struct {
	Base
	Value bool
}

type NoneLit struct{ Base }

// SelfExpr is the `self` reference, valid only inside a constructor body.
type SelfExpr struct{ Base }

// FStringPart is either a literal chunk or an embedded expression.
type FStringPart struct {
	Literal string
	Expr    Expr // nil for literal-only parts
}

// FString is an f-string: a sequence of literal/expression parts to
// concatenate, per spec.md §4.B.
type FString struct {
	Base
	Parts []FStringPart
}

// UnaryExpr is `not x`, `-x`.
type UnaryExpr struct {
	Base
	Op string // "not" | "-"
	X  Expr
}

// BinaryExpr covers arithmetic binary operators.
type BinaryExpr struct {
	Base
	Op          string // "+" "-" "*" "/" "%"
	Left, Right Expr
}

// BoolOpExpr is `a and b`, `a or b`.
type BoolOpExpr struct {
	Base
	Op          string // "and" | "or"
	Left, Right Expr
}

// CompareExpr is a single comparison `a == b`, `a < b`, etc. The grammar
// supports only binary comparisons (no Python-style chaining).
type CompareExpr struct {
	Base
	Op          string // "==" "!=" "<" ">" "<=" ">="
	Left, Right Expr
}

// InExpr is `x in container`.
type InExpr struct {
	Base
	X          Expr
	Container  Expr
	Negate     bool
}

// IndexExpr is `x[i]`.
type IndexExpr struct {
	Base
	X     Expr
	Index Expr
}

// DotExpr is `x.name`.
type DotExpr struct {
	Base
	X    Expr
	Name string
}

// CallExpr is `f(args..., kw=val...)`.
type CallArg struct {
	Name  string // "" for positional
	Value Expr
}

type CallExpr struct {
	Base
	Callee Expr
	Args   []CallArg
}

// ListExpr is `[a, b, c]`.
type ListExpr struct {
	Base
	Elements []Expr
}

// DictEntry is a single `key: value` pair in a dict constructor.
type DictEntry struct {
	Key, Value Expr
}

// DictExpr is `{k: v, ...}`.
type DictExpr struct {
	Base
	Entries []DictEntry
}

func NewBase(span diag.Span) Base { return At(span) }

package ast

import "github.com/kazaamjt/eikobot/internal/diag"

// TypeExpr is the separate type-expression mini-grammar spec.md §4.C calls
// for, so an ordinary value expression like `Optional[Foo]` can never be
// mistaken for a type annotation written as `x: Optional[Foo]`.
type TypeExpr interface {
	Node
	typeExprNode()
}

func (*NamedType) typeExprNode()      {}
func (*ListType) typeExprNode()       {}
func (*DictType) typeExprNode()       {}
func (*UnionType) typeExprNode()      {}
func (*OptionalType) typeExprNode()   {}

// NamedType is a bare name: a builtin (str, int, float, bool, path, none),
// or a resource/typedef/enum name resolved later by the evaluator.
type NamedType struct {
	Base
	Name string
}

// ListType is `list[T]`.
type ListType struct {
	Base
	Elem TypeExpr
}

// DictType is `dict[K, V]`.
type DictType struct {
	Base
	Key, Value TypeExpr
}

// UnionType is `Union[A, B, ...]`.
type UnionType struct {
	Base
	Members []TypeExpr
}

// OptionalType is `Optional[T]`.
type OptionalType struct {
	Base
	Elem TypeExpr
}

func NewNamedType(span diag.Span, name string) *NamedType { return &NamedType{At(span), name} }

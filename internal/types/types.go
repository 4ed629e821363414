// Package types is the type representation spec.md §4.E describes:
// is_subtype, unify, and the structural rules coercion is built on.
// Grounded on the teacher's internal/semantic type-compatibility checks
// (analyze_operators.go, analyze_classes_inheritance.go), generalized from
// DWScript's class/interface/subrange compatibility to Eiko's variant type
// set. Value construction and refinement evaluation (which need to run Eiko
// code) live in internal/eval, not here, to avoid an eval<->types import
// cycle — this package only ever imports internal/ast for a Typedef's
// refinement expression, never internal/eval.
package types

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/ast"
)

// Kind discriminates the variant cases spec.md §3 lists for Type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindStr
	KindPath
	KindNone
	KindProtectedStr
	KindList
	KindDict
	KindUnion
	KindOptional
	KindResourceDef
	KindTypedef
	KindEnum
	KindCallable
)

// Type is implemented by every type-system value.
type Type interface {
	Kind() Kind
	String() string
}

// Basic covers the scalar/leaf kinds that carry no further structure.
type Basic struct{ K Kind }

func (b *Basic) Kind() Kind { return b.K }

func (b *Basic) String() string {
	switch b.K {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindPath:
		return "path"
	case KindNone:
		return "none"
	case KindProtectedStr:
		return "ProtectedStr"
	default:
		return "?"
	}
}

var (
	Bool         = &Basic{KindBool}
	Int          = &Basic{KindInt}
	Float        = &Basic{KindFloat}
	Str          = &Basic{KindStr}
	Path         = &Basic{KindPath}
	None         = &Basic{KindNone}
	ProtectedStr = &Basic{KindProtectedStr}
)

// List is `list[Elem]`.
type List struct{ Elem Type }

func (l *List) Kind() Kind     { return KindList }
func (l *List) String() string { return fmt.Sprintf("list[%s]", l.Elem) }

// Dict is `dict[Key, Value]`. spec.md §4.E restricts Key to Bool|Int|Str|Enum.
type Dict struct{ Key, Value Type }

func (d *Dict) Kind() Kind     { return KindDict }
func (d *Dict) String() string { return fmt.Sprintf("dict[%s, %s]", d.Key, d.Value) }

// Union is a closed set of acceptable types.
type Union struct{ Members []Type }

func (u *Union) Kind() Kind { return KindUnion }
func (u *Union) String() string {
	s := "Union["
	for i, m := range u.Members {
		if i > 0 {
			s += ", "
		}
		s += m.String()
	}
	return s + "]"
}

// Optional is sugar for Union[T, None].
type Optional struct{ Elem Type }

func (o *Optional) Kind() Kind     { return KindOptional }
func (o *Optional) String() string { return fmt.Sprintf("Optional[%s]", o.Elem) }

// ResourceDef names a resource definition; full schema detail lives in
// internal/resource, which imports this package (not the reverse).
type ResourceDef struct{ Name string }

func (r *ResourceDef) Kind() Kind     { return KindResourceDef }
func (r *ResourceDef) String() string { return r.Name }

// Typedef is `typedef Name Base [if refinement]`, spec.md §4.E/§4.C.
// Refinement is nil for an unrefined alias.
type Typedef struct {
	Name       string
	BaseType   Type
	Refinement ast.Expr
}

func (t *Typedef) Kind() Kind     { return KindTypedef }
func (t *Typedef) String() string { return t.Name }

// Enum is `enum Name: member1 member2 ...`.
type Enum struct {
	Name    string
	Members []string
}

func (e *Enum) Kind() Kind     { return KindEnum }
func (e *Enum) String() string { return e.Name }

func (e *Enum) HasMember(name string) bool {
	for _, m := range e.Members {
		if m == name {
			return true
		}
	}
	return false
}

// Callable is the type of a language builtin or a plugin function (spec.md
// §4.H): a name bound to a Go-side function rather than an Eiko value
// constructor. Never appears in source-level type annotations; it only
// shows up as the Type() of a builtin/plugin Value, e.g. in an "X is not
// callable" diagnostic or a `%s` format of the callee's type.
type Callable struct{ Name string }

func (c *Callable) Kind() Kind     { return KindCallable }
func (c *Callable) String() string { return "callable<" + c.Name + ">" }

// IsInstance implements the `isinstance(value, T)` builtin spec.md §9's
// Open Questions section calls for: treats a Typedef as a subtype of its
// base, same as IsSubtype, so `isinstance` and ordinary type-compatibility
// checks agree rather than diverging at the Typedef boundary (the spec's
// own suggested resolution to the underspecified interaction it flags).
func IsInstance(valueType, target Type) bool {
	return IsSubtype(valueType, target)
}

// IsSubtype reports whether a may be used wherever b is expected, per
// spec.md §3's "Subtyping: a Typedef is a subtype of its base" plus the
// Union/Optional widening every variant type system needs.
func IsSubtype(a, b Type) bool {
	if Equal(a, b) {
		return true
	}

	switch bt := b.(type) {
	case *Union:
		for _, m := range bt.Members {
			if IsSubtype(a, m) {
				return true
			}
		}
		return false
	case *Optional:
		if a.Kind() == KindNone {
			return true
		}
		return IsSubtype(a, bt.Elem)
	}

	switch at := a.(type) {
	case *Typedef:
		return IsSubtype(at.BaseType, b)
	case *List:
		if bl, ok := b.(*List); ok {
			return IsSubtype(at.Elem, bl.Elem)
		}
	case *Dict:
		if bd, ok := b.(*Dict); ok {
			return IsSubtype(at.Key, bd.Key) && IsSubtype(at.Value, bd.Value)
		}
	}

	// Int widens to Float, never the reverse.
	if a.Kind() == KindInt && b.Kind() == KindFloat {
		return true
	}

	return false
}

// Equal is structural type equality (two Typedefs are equal only if they're
// the same declaration; Enum/ResourceDef compare by name).
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *Basic:
		return true
	case *List:
		return Equal(at.Elem, b.(*List).Elem)
	case *Dict:
		bd := b.(*Dict)
		return Equal(at.Key, bd.Key) && Equal(at.Value, bd.Value)
	case *Union:
		bu := b.(*Union)
		if len(at.Members) != len(bu.Members) {
			return false
		}
		for i, m := range at.Members {
			if !Equal(m, bu.Members[i]) {
				return false
			}
		}
		return true
	case *Optional:
		return Equal(at.Elem, b.(*Optional).Elem)
	case *ResourceDef:
		return at.Name == b.(*ResourceDef).Name
	case *Typedef:
		return at == b.(*Typedef)
	case *Enum:
		return at.Name == b.(*Enum).Name
	case *Callable:
		return at.Name == b.(*Callable).Name
	}
	return false
}

// Unify finds the narrowest type both a and b can be treated as, per
// spec.md §4.E's `unify(a, b) -> T | error`. Used when branches of an
// expression (e.g. list literal elements) must share one static type.
func Unify(a, b Type) (Type, error) {
	if Equal(a, b) {
		return a, nil
	}
	if IsSubtype(a, b) {
		return b, nil
	}
	if IsSubtype(b, a) {
		return a, nil
	}
	if a.Kind() == KindInt && b.Kind() == KindFloat {
		return Float, nil
	}
	if a.Kind() == KindFloat && b.Kind() == KindInt {
		return Float, nil
	}
	return nil, fmt.Errorf("cannot unify %s and %s", a, b)
}

// IsValidDictKey enforces spec.md §4.E's "dict key types restricted to
// Bool|Int|Str|Enum".
func IsValidDictKey(t Type) bool {
	switch t.Kind() {
	case KindBool, KindInt, KindStr, KindEnum:
		return true
	default:
		return false
	}
}

// IsIndexable reports whether t is legal as a resource's implicit index
// property (spec.md §4.G step 4: "first property if its type is
// Str|Int|Path|IPvX|Enum"). Eikobot has no distinguished IPvX type in its
// base type set (no host networking primitives are modeled at this layer);
// a Typedef over Str (e.g. an IP-address typedef from the plugin bridge)
// satisfies this the same way any other Str-based typedef does.
func IsIndexable(t Type) bool {
	switch u := t.(type) {
	case *Typedef:
		return IsIndexable(u.BaseType)
	default:
		switch t.Kind() {
		case KindStr, KindInt, KindPath, KindEnum:
			return true
		default:
			return false
		}
	}
}

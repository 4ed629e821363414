// Package eval is the single-pass, eager evaluator spec.md §4.F describes:
// a scope stack over an immutable object graph. Grounded on the teacher's
// internal/interp package (tree-walking evaluation over the AST the
// semantic pass already type-checked), generalized from DWScript's
// imperative statement execution to Eiko's declarative, assignment-once
// module scope.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kazaamjt/eikobot/internal/types"
)

// Value is implemented by every runtime value. Kept minimal and in this
// package (rather than in internal/types) so internal/types never needs to
// import internal/eval — see internal/types/types.go's package doc.
type Value interface {
	Type() types.Type
	String() string
}

// BoolV, IntV, FloatV, StrV, PathV wrap the scalar basic types.
type BoolV bool

func (BoolV) Type() types.Type    { return types.Bool }
func (b BoolV) String() string    { return fmt.Sprintf("%t", bool(b)) }

type IntV int64

func (IntV) Type() types.Type  { return types.Int }
func (i IntV) String() string  { return fmt.Sprintf("%d", int64(i)) }

type FloatV float64

func (FloatV) Type() types.Type { return types.Float }
func (f FloatV) String() string { return fmt.Sprintf("%g", float64(f)) }

// StrV is a plain string; Protected mirrors ast.StringLit.Protected for
// values that must never be logged/printed verbatim (spec.md §3's
// ProtectedStr).
type StrV struct {
	Value     string
	Protected bool
}

func (StrV) Type() types.Type { return types.Str }
func (s StrV) String() string {
	if s.Protected {
		return "****"
	}
	return s.Value
}

// PathV is a filesystem path value, distinct from Str per spec.md §3.
type PathV string

func (PathV) Type() types.Type { return types.Path }
func (p PathV) String() string { return string(p) }

// NoneV is the sole None value.
type NoneV struct{}

func (NoneV) Type() types.Type { return types.None }
func (NoneV) String() string   { return "None" }

// ListV is an ordered list value. Eiko source has no operation that mutates
// a list after it is built. Property coercion (Evaluator.Coerce, called from
// internal/resource) returns the same ListV when its type already matches
// the property's type, and builds a new ListV only when its elements need
// converting.
type ListV struct {
	Elem  types.Type
	Items []Value
}

func (l *ListV) Type() types.Type { return &types.List{Elem: l.Elem} }
func (l *ListV) String() string {
	parts := make([]string, len(l.Items))
	for i, v := range l.Items {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictV preserves insertion order for `for k in dict` iteration, per
// spec.md §4.F ("dict by insertion order of keys").
type DictV struct {
	Key, Value types.Type
	keys       []Value
	values     map[string]Value
	rawKeys    map[string]Value
}

// NewDict creates an empty dict value.
func NewDict(key, value types.Type) *DictV {
	return &DictV{Key: key, Value: value, values: map[string]Value{}, rawKeys: map[string]Value{}}
}

func dictHashKey(v Value) string {
	switch k := v.(type) {
	case BoolV:
		return fmt.Sprintf("b:%t", bool(k))
	case IntV:
		return fmt.Sprintf("i:%d", int64(k))
	case StrV:
		return "s:" + k.Value
	case *EnumMemberV:
		return "e:" + k.Enum.Name + "." + k.Member
	default:
		return "?:" + v.String()
	}
}

// Set inserts or overwrites key -> val, preserving first-insertion order.
func (d *DictV) Set(key, val Value) {
	hk := dictHashKey(key)
	if _, exists := d.values[hk]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[hk] = val
	d.rawKeys[hk] = key
}

// Get looks up key, reporting whether it was present.
func (d *DictV) Get(key Value) (Value, bool) {
	v, ok := d.values[dictHashKey(key)]
	return v, ok
}

// Keys returns keys in insertion order.
func (d *DictV) Keys() []Value { return d.keys }

func (d *DictV) Type() types.Type { return &types.Dict{Key: d.Key, Value: d.Value} }

func (d *DictV) String() string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		v := d.values[dictHashKey(k)]
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// EnumMemberV is one member of an Enum type.
type EnumMemberV struct {
	Enum   *types.Enum
	Member string
}

func (e *EnumMemberV) Type() types.Type { return e.Enum }
func (e *EnumMemberV) String() string   { return e.Enum.Name + "." + e.Member }

// TypeV wraps a types.Type as a first-class value (used for isinstance-style
// @constraint checks and plugin type parameters).
type TypeV struct{ T types.Type }

func (t *TypeV) Type() types.Type { return t.T }
func (t *TypeV) String() string   { return t.T.String() }

// ResourceV is a constructed resource instance: spec.md §4.G's registered
// (defName, index) object. Identity equality (spec.md §4.F) falls out of
// Go's pointer identity since every resource is constructed exactly once.
type ResourceV struct {
	DefName    string
	Index      string
	Properties map[string]Value
	// Order preserves declaration order for deterministic iteration/export.
	Order []string
}

func (r *ResourceV) Type() types.Type { return &types.ResourceDef{Name: r.DefName} }
func (r *ResourceV) String() string   { return r.Index }

// Get returns a property value by name.
func (r *ResourceV) Get(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// Set assigns a property, recording first-write order.
func (r *ResourceV) Set(name string, v Value) {
	if _, exists := r.Properties[name]; !exists {
		r.Order = append(r.Order, name)
	}
	r.Properties[name] = v
}

// PromiseV is a deploy-time hole (spec.md §1, §4.J): a property left unset
// at construction time and filled in later by a handler's CRUD result.
// Resolve is one-shot; a second call is a programming error in the deployer,
// not a user-facing one, and panics rather than silently overwriting.
//
// Owner is the resource this promise was minted for (spec.md §3: "a PromiseV
// carrying the owning resource id and property name"). A read of a promise
// property (internal/eval/expr.go's evalDot) returns this same pointer
// unchanged, so a downstream resource that assigns `self.x = upstream.ip`
// carries it through by identity: internal/export uses Owner to draw the
// dependency edge, and the deployer resolves it in place once Owner's task
// runs, so every reader — however many properties it got copied into —
// observes the same resolution.
type PromiseV struct {
	Name     string
	Declared types.Type
	Owner    *ResourceV
	resolved bool
	value    Value
}

// Resolved reports whether the promise has been filled.
func (p *PromiseV) Resolved() bool { return p.resolved }

// ValueOrNone returns the resolved value, or NoneV{} if not yet resolved.
func (p *PromiseV) ValueOrNone() Value {
	if !p.resolved {
		return NoneV{}
	}
	return p.value
}

// Resolve fills the promise exactly once.
func (p *PromiseV) Resolve(v Value) {
	if p.resolved {
		panic(fmt.Sprintf("promise %q resolved twice", p.Name))
	}
	p.resolved = true
	p.value = v
}

func (p *PromiseV) Type() types.Type { return p.Declared }
func (p *PromiseV) String() string {
	if p.resolved {
		return p.value.String()
	}
	return fmt.Sprintf("<promise %s>", p.Name)
}

// Equal implements spec.md §4.F's "equality is structural for values,
// identity for resources (by index)".
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case BoolV:
		bv, ok := b.(BoolV)
		return ok && av == bv
	case IntV:
		if bv, ok := b.(IntV); ok {
			return av == bv
		}
		if bv, ok := b.(FloatV); ok {
			return float64(av) == float64(bv)
		}
		return false
	case FloatV:
		if bv, ok := b.(FloatV); ok {
			return av == bv
		}
		if bv, ok := b.(IntV); ok {
			return float64(av) == float64(bv)
		}
		return false
	case StrV:
		bv, ok := b.(StrV)
		return ok && av.Value == bv.Value
	case PathV:
		bv, ok := b.(PathV)
		return ok && av == bv
	case NoneV:
		_, ok := b.(NoneV)
		return ok
	case *ListV:
		bv, ok := b.(*ListV)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *DictV:
		bv, ok := b.(*DictV)
		if !ok || len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			v1, _ := av.Get(k)
			v2, ok := bv.Get(k)
			if !ok || !Equal(v1, v2) {
				return false
			}
		}
		return true
	case *EnumMemberV:
		bv, ok := b.(*EnumMemberV)
		return ok && av.Enum.Name == bv.Enum.Name && av.Member == bv.Member
	case *ResourceV:
		bv, ok := b.(*ResourceV)
		return ok && av == bv // identity, per spec.md §4.F
	default:
		return a == b
	}
}

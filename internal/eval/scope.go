package eval

import (
	"github.com/kazaamjt/eikobot/internal/types"
)

// binding tracks one name's state across spec.md §4.F's assignment rules:
// an identifier with only a forward declaration may be written exactly
// once; once assigned, writing it again is an error.
type binding struct {
	declared types.Type // from a ForwardDecl; nil if never forward-declared
	assigned bool
	value    Value
}

// Scope is one frame of the lexical scope stack. The module scope (the
// root, parent == nil) is reused across imports of the same module, per
// spec.md §4.F.
type Scope struct {
	parent   *Scope
	bindings map[string]*binding
}

// NewScope creates a root scope with no parent (a fresh module scope).
func NewScope() *Scope {
	return &Scope{bindings: make(map[string]*binding)}
}

// Child creates a nested scope (constructor body, for-loop body, if/elif/
// else body) whose lookups fall through to s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, bindings: make(map[string]*binding)}
}

// Lookup resolves name, searching outward through parent scopes.
func (s *Scope) Lookup(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.bindings[name]; ok && b.assigned {
			return b.value, true
		}
	}
	return nil, false
}

// Declare records a forward type declaration (`name: Type`) in this scope.
func (s *Scope) Declare(name string, t types.Type) {
	s.bindings[name] = &binding{declared: t}
}

// Assign binds name = value in this scope. It enforces spec.md §4.F's
// write-once rule: an identifier that has been assigned cannot be written
// again, forward-declared or not. A constructor's `self.prop = value` does
// not go through Scope: execAssign writes it directly onto the ResourceV.
func (s *Scope) Assign(name string, v Value) error {
	b, ok := s.bindings[name]
	if !ok {
		b = &binding{}
		s.bindings[name] = b
	}
	if b.assigned {
		return &ReassignError{Name: name}
	}
	b.assigned = true
	b.value = v
	return nil
}

// DeclaredType returns the forward-declared type for name in this scope (not
// searching parents), if any.
func (s *Scope) DeclaredType(name string) (types.Type, bool) {
	b, ok := s.bindings[name]
	if !ok || b.declared == nil {
		return nil, false
	}
	return b.declared, true
}

// ReassignError is returned by Scope.Assign for a second write to a name.
type ReassignError struct{ Name string }

func (e *ReassignError) Error() string {
	return "cannot reassign '" + e.Name + "'; it has already been assigned a value"
}

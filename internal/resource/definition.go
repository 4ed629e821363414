// Package resource implements spec.md §4.G's resource model: building a
// resource instance from an overload set, index computation, and the
// process-local registry duplicate detection requires. Grounded on the
// teacher's internal/semantic overload resolution (overload_test.go,
// analyze_functions.go: arity/type filtering then ambiguity detection) and
// internal/interp's object construction, generalized from DWScript's class
// instantiation to Eiko's declarative, @constraint-dispatched constructors.
package resource

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/types"
)

// PropertySchema is one property slot in a resource definition.
type PropertySchema struct {
	Name    string
	Type    types.Type
	Default ast.Expr // nil if required
	Promise bool
}

// Overload is one `implement Name(self, ...):` / `def __init__(self, ...):`
// body, optionally gated by an `@constraint(expr)`.
type Overload struct {
	Params     []ast.Param
	ParamTypes []types.Type
	Constraint ast.Expr
	Body       []ast.Stmt
}

// Definition is a fully-resolved `resource Name(Parent): ...` declaration:
// its property schema (already flattened through inheritance) and its own
// constructor overload set.
type Definition struct {
	Name       string
	Parent     *Definition
	Properties []PropertySchema
	byName     map[string]int // Properties index by name, for O(1) lookup
	Overloads  []*Overload
	// IndexPaths is the dotted-path list from `@index([...])`; nil means
	// "use the first property" (spec.md §4.G step 4).
	IndexPaths []string
}

func newDefinition(name string) *Definition {
	return &Definition{Name: name, byName: map[string]int{}}
}

func (d *Definition) addProperty(p PropertySchema) {
	if idx, exists := d.byName[p.Name]; exists {
		d.Properties[idx] = p
		return
	}
	d.byName[p.Name] = len(d.Properties)
	d.Properties = append(d.Properties, p)
}

// Property looks up a property schema by name, per the instance's own
// definition (already includes inherited properties).
func (d *Definition) Property(name string) (PropertySchema, bool) {
	idx, ok := d.byName[name]
	if !ok {
		return PropertySchema{}, false
	}
	return d.Properties[idx], true
}

// cloneProperties deep-copies the schema slice for a subclass to extend
// without mutating the parent's, per spec.md §4.G: "a derived definition
// starts from a copy of the parent's property schema".
func cloneProperties(src []PropertySchema) []PropertySchema {
	out := make([]PropertySchema, len(src))
	copy(out, src)
	return out
}

package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/types"
)

// Builder owns every resource definition registered during a compilation and
// the process-local (defName, index) registry spec.md §4.G step 5 requires.
// It implements eval.ResourceBuilder, and is also probed by
// internal/eval.execResourceDecl for the unexported `Register` shape so
// `resource Name: ...` declarations get wired up as they're evaluated.
type Builder struct {
	defs     map[string]*Definition
	registry map[string]*eval.ResourceV
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{defs: map[string]*Definition{}, registry: map[string]*eval.ResourceV{}}
}

// Definitions exposes every registered definition, keyed by name.
func (b *Builder) Definitions() map[string]*Definition { return b.defs }

// Registry exposes every constructed resource keyed by its full index
// string ("DefName-indexvalue...").
func (b *Builder) Registry() map[string]*eval.ResourceV { return b.registry }

// Register builds a Definition from decl and binds it into b.defs, per
// spec.md §4.G's inheritance rules. Called by internal/eval when it
// encounters a ResourceDecl statement.
func (b *Builder) Register(ev *eval.Evaluator, scope *eval.Scope, decl *ast.ResourceDecl) error {
	def := newDefinition(decl.Name)

	if decl.Parent != "" {
		parent, ok := b.defs[decl.Parent]
		if !ok {
			return diag.New(diag.KindNameError, diag.SubNotFound, decl.Span(),
				"unknown parent resource %q", decl.Parent)
		}
		def.Parent = parent
		def.Properties = cloneProperties(parent.Properties)
		for i, p := range def.Properties {
			def.byName[p.Name] = i
		}
		def.IndexPaths = parent.IndexPaths
	}

	for _, pd := range decl.Properties {
		t := ev.EvalTypeExpr(scope, pd.Type)
		if existing, ok := def.Property(pd.Name); ok {
			// Inheritance may only tighten a property's type to a subtype
			// of the parent's, per spec.md §4.G.
			if !types.IsSubtype(t, existing.Type) {
				return diag.New(diag.KindTypeError, diag.SubMismatch, decl.Span(),
					"property %q may only be narrowed to a subtype of %s, got %s",
					pd.Name, existing.Type, t)
			}
		}
		def.addProperty(PropertySchema{Name: pd.Name, Type: t, Default: pd.Default, Promise: pd.Promise})
	}

	// spec.md §4.G: "may redeclare constructors (none are inherited)". A
	// subclass either declares its own full overload set, or (InheritOnly,
	// no own overloads) reuses the parent's set wholesale — overloads are
	// never merged across the two.
	if len(decl.Constructors) > 0 {
		for _, c := range decl.Constructors {
			ov := &Overload{Params: c.Params, Constraint: c.Constraint, Body: c.Body}
			ov.ParamTypes = make([]types.Type, len(c.Params))
			for i, p := range c.Params {
				if p.Type != nil {
					ov.ParamTypes[i] = ev.EvalTypeExpr(scope, p.Type)
				}
			}
			def.Overloads = append(def.Overloads, ov)
		}
	} else if decl.InheritOnly && def.Parent != nil {
		def.Overloads = def.Parent.Overloads
	}

	if idx := findIndexDecorator(decl.Decorators); idx != nil {
		def.IndexPaths = idx
	}

	b.defs[decl.Name] = def
	return nil
}

// findIndexDecorator extracts the string-literal list from an
// `@index([<str-literal>, ...])` decorator, if present.
func findIndexDecorator(decorators []ast.Decorator) []string {
	for _, d := range decorators {
		if d.Name != "index" || len(d.Args) != 1 {
			continue
		}
		list, ok := d.Args[0].(*ast.ListExpr)
		if !ok {
			continue
		}
		var paths []string
		for _, el := range list.Elements {
			if lit, ok := el.(*ast.StringLit); ok {
				paths = append(paths, lit.Value)
			}
		}
		return paths
	}
	return nil
}

// Construct implements eval.ResourceBuilder: spec.md §4.G's full
// construction pipeline (overload resolution, body execution, defaulting,
// coercion, index computation, registration).
func (b *Builder) Construct(ev *eval.Evaluator, scope *eval.Scope, defName string, args []eval.CallArg, span diag.Span) (eval.Value, error) {
	def, ok := b.defs[defName]
	if !ok {
		return nil, diag.New(diag.KindNameError, diag.SubNotFound, span, "unknown resource %q", defName)
	}

	overload, bound, err := b.resolveOverload(ev, scope, def, args, span)
	if err != nil {
		return nil, err
	}

	rv := &eval.ResourceV{DefName: def.Name, Properties: map[string]eval.Value{}}
	ctorScope := scope.Child()
	ctorScope.Assign("self", rv)
	for name, v := range bound {
		ctorScope.Assign(name, v)
	}
	ev.Exec(ctorScope, overload.Body)

	for _, prop := range def.Properties {
		if _, set := rv.Get(prop.Name); set {
			continue
		}
		if prop.Promise {
			rv.Set(prop.Name, &eval.PromiseV{Name: prop.Name, Declared: prop.Type, Owner: rv})
			continue
		}
		if prop.Default != nil {
			v := ev.EvalExpr(ctorScope, prop.Default)
			if v == nil {
				return nil, diag.New(diag.KindConstructor, diag.SubNone, span,
					"could not evaluate default for property %q", prop.Name)
			}
			rv.Set(prop.Name, v)
			continue
		}
		return nil, diag.New(diag.KindConstructor, diag.SubNone, span,
			"property %q of %s was never assigned", prop.Name, def.Name)
	}

	for _, prop := range def.Properties {
		v, _ := rv.Get(prop.Name)
		if _, isPromise := v.(*eval.PromiseV); isPromise {
			continue
		}
		coerced, err := ev.Coerce(ctorScope, v, prop.Type)
		if err != nil {
			var refErr *eval.RefinementError
			if errors.As(err, &refErr) {
				return nil, diag.New(diag.KindRefinement, diag.SubNone, span,
					"property %q of %s: %s", prop.Name, def.Name, err)
			}
			return nil, diag.New(diag.KindTypeError, diag.SubNotCoercible, span,
				"property %q of %s: %s", prop.Name, def.Name, err)
		}
		rv.Set(prop.Name, coerced)
	}

	index, err := computeIndex(def, rv)
	if err != nil {
		return nil, diag.Wrap(diag.KindIndexError, diag.SubUnindexable, span, err,
			"cannot compute index for %s", def.Name)
	}
	full := def.Name + "-" + index
	rv.Index = full

	if _, exists := b.registry[full]; exists {
		return nil, diag.New(diag.KindIndexError, diag.SubDuplicate, span,
			"duplicate resource %s", full)
	}
	b.registry[full] = rv

	return rv, nil
}

// computeIndex implements spec.md §4.G step 4.
func computeIndex(def *Definition, rv *eval.ResourceV) (string, error) {
	if def.IndexPaths != nil {
		parts := make([]string, 0, len(def.IndexPaths))
		for _, path := range def.IndexPaths {
			v, err := resolveDottedProperty(rv, path)
			if err != nil {
				return "", err
			}
			parts = append(parts, v.String())
		}
		return strings.Join(parts, "-"), nil
	}

	if len(def.Properties) == 0 {
		return "", fmt.Errorf("%s has no properties to derive an index from", def.Name)
	}
	first := def.Properties[0]
	if !types.IsIndexable(first.Type) {
		return "", fmt.Errorf("first property %q has type %s, which is not indexable (need Str|Int|Path|Enum)",
			first.Name, first.Type)
	}
	v, _ := rv.Get(first.Name)
	return v.String(), nil
}

// resolveDottedProperty walks a dot-path starting at rv's own properties:
// each further segment is looked up on the resource the previous segment
// named, and a segment reached through a non-resource value is an error.
func resolveDottedProperty(rv *eval.ResourceV, path string) (eval.Value, error) {
	parts := strings.Split(path, ".")
	v, ok := rv.Get(parts[0])
	if !ok {
		return nil, fmt.Errorf("no property %q for index path %q", parts[0], path)
	}
	for _, seg := range parts[1:] {
		inner, ok := v.(*eval.ResourceV)
		if !ok {
			return nil, fmt.Errorf("cannot follow %q: %s is not a resource", seg, v)
		}
		v, ok = inner.Get(seg)
		if !ok {
			return nil, fmt.Errorf("no property %q on %s", seg, inner.DefName)
		}
	}
	return v, nil
}

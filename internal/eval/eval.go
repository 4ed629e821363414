package eval

import (
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/resolver"
	"github.com/kazaamjt/eikobot/internal/types"
)

// CallArg is one evaluated call argument, positional (Name == "") or
// keyword.
type CallArg struct {
	Name  string
	Value Value
}

// ResourceBuilder is implemented by internal/resource. Evaluating a call
// whose callee names a resource definition delegates here rather than
// inline, keeping overload resolution, @constraint dispatch, and index
// computation (spec.md §4.G) out of this package — the dependency points
// resource -> eval (resource calls back into Exec/EvalExpr to run
// constructor bodies), so eval only ever sees this interface, never the
// concrete package, and no import cycle results.
type ResourceBuilder interface {
	Construct(ev *Evaluator, scope *Scope, defName string, args []CallArg, span diag.Span) (Value, error)
}

// PluginProvider is implemented by internal/plugin's Registry. Import
// resolution consults it before falling back to file-based module loading,
// so `import <plugin package>` binds a plugin package's callables into
// scope (spec.md §4.H) the same way `import <module>` binds an .eiko
// module's exports — without internal/resolver ever needing to know a
// plugin package isn't backed by a file.
type PluginProvider interface {
	// Package returns the synthetic export scope registered under name, if
	// any plugin package was registered under it.
	Package(name string) (*Scope, bool)
}

// ResourceDefV is the callable value a `resource Name: ...` declaration
// binds into scope; calling it constructs an instance via Builder.
type ResourceDefV struct{ Name string }

func (r *ResourceDefV) Type() types.Type { return &types.ResourceDef{Name: r.Name} }
func (r *ResourceDefV) String() string   { return r.Name }

// Callable is implemented by plugin functions (internal/plugin) bound into
// a module's scope at import time (spec.md §4.H).
type Callable interface {
	Call(ev *Evaluator, scope *Scope, args []CallArg, span diag.Span) (Value, error)
}

// Evaluator holds the cross-cutting collaborators a single compilation run
// shares: the module resolver (for import statements), the resource builder
// (for resource-construction calls), and accumulated diagnostics.
type Evaluator struct {
	Resolver *resolver.Resolver
	Builder  ResourceBuilder
	Plugins  PluginProvider

	errs diag.Bag

	// Resources collects every constructed resource in construction order,
	// for internal/export to walk (spec.md §4.I: "every top-level resource
	// reachable from the module scope").
	Resources []*ResourceV
}

// New creates an Evaluator. builder may be nil until internal/resource is
// wired in by the caller; resource declarations are still registered as
// types, just uncallable until then.
func New(res *resolver.Resolver, builder ResourceBuilder) *Evaluator {
	return &Evaluator{Resolver: res, Builder: builder}
}

func (ev *Evaluator) Errors() []*diag.Error { return ev.errs.Errors() }

func (ev *Evaluator) errorf(kind diag.Kind, sub diag.SubKind, span diag.Span, format string, args ...any) {
	ev.errs.Add(diag.New(kind, sub, span, format, args...))
}

// EvalModule parses is assumed already done; EvalModule executes prog's
// statements in a fresh module scope and returns that scope so re-imports of
// the same canonical path can reuse it (spec.md §4.D).
func (ev *Evaluator) EvalModule(prog *ast.Program) *Scope {
	scope := NewScope()
	installBuiltins(scope)
	ev.Exec(scope, prog.Statements)
	return scope
}

// Exec runs a statement list against scope, stopping at the first error in
// a statement but continuing to the next statement (module/deploy-time
// errors are aggregated, per spec.md §7, not fail-fast mid-file).
func (ev *Evaluator) Exec(scope *Scope, stmts []ast.Stmt) {
	for _, stmt := range stmts {
		ev.execStmt(scope, stmt)
	}
}

func (ev *Evaluator) execStmt(scope *Scope, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		ev.EvalExpr(scope, s.X)
	case *ast.ForwardDecl:
		t := ev.evalTypeExpr(scope, s.Type)
		scope.Declare(s.Name, t)
	case *ast.AssignStmt:
		ev.execAssign(scope, s)
	case *ast.IfStmt:
		ev.execIf(scope, s)
	case *ast.ForStmt:
		ev.execFor(scope, s)
	case *ast.ImportStmt:
		ev.execImport(scope, s)
	case *ast.FromImport:
		ev.execFromImport(scope, s)
	case *ast.TypedefDecl:
		ev.execTypedef(scope, s)
	case *ast.EnumDecl:
		ev.execEnum(scope, s)
	case *ast.ResourceDecl:
		ev.execResourceDecl(scope, s)
	default:
		ev.errorf(diag.KindNameError, diag.SubNone, stmt.Span(), "unsupported statement %T", stmt)
	}
}

func (ev *Evaluator) execAssign(scope *Scope, s *ast.AssignStmt) {
	val := ev.EvalExpr(scope, s.Value)
	if val == nil {
		return
	}

	// `self.prop = value`, legal only inside a constructor body, per
	// spec.md §4.F. Coercion to the property's declared type happens later,
	// as an explicit post-construction step (spec.md §4.G step 3) — this
	// package has no visibility into resource property schemas, which live
	// in internal/resource.
	if dot, ok := s.Target.(*ast.DotExpr); ok {
		if _, ok := dot.X.(*ast.SelfExpr); ok {
			self, ok := scope.Lookup("self")
			if !ok {
				ev.errorf(diag.KindNameError, diag.SubNone, s.Span(), "'self' used outside a constructor body")
				return
			}
			rv, ok := self.(*ResourceV)
			if !ok {
				ev.errorf(diag.KindNameError, diag.SubNone, s.Span(), "'self' is not a resource")
				return
			}
			if _, exists := rv.Get(dot.Name); exists {
				ev.errorf(diag.KindReassignError, diag.SubNone, s.Span(),
					"property %q already assigned in this constructor", dot.Name)
				return
			}
			rv.Set(dot.Name, val)
			return
		}
		ev.errorf(diag.KindNameError, diag.SubNone, s.Span(), "cannot assign through '.' outside a constructor body")
		return
	}

	ident, ok := s.Target.(*ast.Ident)
	if !ok {
		ev.errorf(diag.KindNameError, diag.SubNone, s.Span(), "invalid assignment target")
		return
	}
	if declared, ok := scope.DeclaredType(ident.Name); ok {
		coerced, err := ev.Coerce(scope, val, declared)
		if err != nil {
			ev.errorf(diag.KindTypeError, diag.SubNotCoercible, s.Span(), "%s", err)
			return
		}
		val = coerced
	}
	if err := scope.Assign(ident.Name, val); err != nil {
		ev.errorf(diag.KindReassignError, diag.SubNone, s.Span(), "%s", err)
	}
}

func (ev *Evaluator) execIf(scope *Scope, s *ast.IfStmt) {
	cond := ev.EvalExpr(scope, s.Cond)
	if truthy(cond) {
		ev.Exec(scope.Child(), s.Then)
		return
	}
	for _, elif := range s.Elifs {
		c := ev.EvalExpr(scope, elif.Cond)
		if truthy(c) {
			ev.Exec(scope.Child(), elif.Body)
			return
		}
	}
	if s.Else != nil {
		ev.Exec(scope.Child(), s.Else)
	}
}

// execFor iterates lists by position and dicts by insertion order of keys,
// per spec.md §4.F, binding a fresh scope per iteration.
func (ev *Evaluator) execFor(scope *Scope, s *ast.ForStmt) {
	iterable := ev.EvalExpr(scope, s.Iterable)
	switch it := iterable.(type) {
	case *ListV:
		for _, item := range it.Items {
			child := scope.Child()
			child.Assign(s.Var, item)
			ev.Exec(child, s.Body)
		}
	case *DictV:
		for _, k := range it.Keys() {
			child := scope.Child()
			child.Assign(s.Var, k)
			ev.Exec(child, s.Body)
		}
	default:
		if it != nil {
			ev.errorf(diag.KindTypeError, diag.SubMismatch, s.Span(), "cannot iterate over %s", it.Type())
		}
	}
}

func (ev *Evaluator) execImport(scope *Scope, s *ast.ImportStmt) {
	name, env := ev.loadModule(s.Span(), s.Dots, s.Path)
	if env == nil {
		return
	}
	bindName := s.Alias
	if bindName == "" {
		bindName = name
	}
	ev.bindModuleNamespace(scope, bindName, env)
}

func (ev *Evaluator) execFromImport(scope *Scope, s *ast.FromImport) {
	_, env := ev.loadModule(s.Span(), s.Dots, s.Path)
	if env == nil {
		return
	}
	for _, n := range s.Names {
		v, ok := env.Lookup(n.Name)
		if !ok {
			ev.errorf(diag.KindImportError, diag.SubNotFound, s.Span(), "module has no export %q", n.Name)
			continue
		}
		bindName := n.Alias
		if bindName == "" {
			bindName = n.Name
		}
		scope.Assign(bindName, v)
	}
}

// bindModuleNamespace exposes every export of env under name.export: it
// binds name to a namespaceV wrapping the module's own scope, and dot access
// on that value resolves through DotExpr against env.
func (ev *Evaluator) bindModuleNamespace(scope *Scope, name string, env *Scope) {
	scope.Assign(name, &namespaceV{env: env})
}

// namespaceV is the value bound for `import a.b.c` / `import a.b.c as x`: a
// dotted reference into it resolves through the module's own scope.
type namespaceV struct{ env *Scope }

func (n *namespaceV) Type() types.Type { return types.None }
func (n *namespaceV) String() string   { return "<module>" }

func (ev *Evaluator) loadModule(span diag.Span, dots int, path []string) (string, *Scope) {
	if dots == 0 && len(path) == 1 && ev.Plugins != nil {
		if pkg, ok := ev.Plugins.Package(path[0]); ok {
			return path[0], pkg
		}
	}
	if ev.Resolver == nil {
		ev.errorf(diag.KindImportError, diag.SubNone, span, "no module resolver configured")
		return "", nil
	}
	canon, err := ev.Resolver.ResolveImport(span.File, dots, path)
	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			ev.errs.Add(de)
		} else {
			ev.errorf(diag.KindImportError, diag.SubNotFound, span, "%s", err)
		}
		return "", nil
	}
	if cached, ok := ev.Resolver.Env(canon); ok {
		return path[len(path)-1], cached.(*Scope)
	}
	if _, err := ev.Resolver.BeginLoad(canon); err != nil {
		if de, ok := err.(*diag.Error); ok {
			ev.errs.Add(de)
		}
		return "", nil
	}
	prog, parseErrs, err := ev.Resolver.Parse(canon)
	for _, pe := range parseErrs {
		ev.errs.Add(pe)
	}
	if err != nil {
		return "", nil
	}
	modScope := ev.EvalModule(prog)
	ev.Resolver.FinishLoad(canon, modScope)
	return path[len(path)-1], modScope
}

func (ev *Evaluator) execTypedef(scope *Scope, s *ast.TypedefDecl) {
	base := ev.evalTypeExpr(scope, s.BaseType)
	td := &types.Typedef{Name: s.Name, BaseType: base, Refinement: s.Refinement}
	scope.Assign(s.Name, &TypeV{T: td})
}

func (ev *Evaluator) execEnum(scope *Scope, s *ast.EnumDecl) {
	e := &types.Enum{Name: s.Name, Members: append([]string(nil), s.Members...)}
	tv := &TypeV{T: e}
	scope.Assign(s.Name, tv)
	for _, m := range s.Members {
		scope.Assign(s.Name+"."+m, &EnumMemberV{Enum: e, Member: m})
	}
}

func (ev *Evaluator) execResourceDecl(scope *Scope, s *ast.ResourceDecl) {
	if ev.Builder == nil {
		ev.errorf(diag.KindNameError, diag.SubInternal, s.Span(), "no resource builder configured")
		return
	}
	if registrar, ok := ev.Builder.(interface {
		Register(ev *Evaluator, scope *Scope, decl *ast.ResourceDecl) error
	}); ok {
		if err := registrar.Register(ev, scope, s); err != nil {
			if de, ok := err.(*diag.Error); ok {
				ev.errs.Add(de)
			} else {
				ev.errorf(diag.KindConstructor, diag.SubNone, s.Span(), "%s", err)
			}
			return
		}
	}
	scope.Assign(s.Name, &ResourceDefV{Name: s.Name})
}

func truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case BoolV:
		return bool(t)
	case NoneV:
		return false
	case IntV:
		return t != 0
	case FloatV:
		return t != 0
	case StrV:
		return t.Value != ""
	case *ListV:
		return len(t.Items) > 0
	case *DictV:
		return len(t.keys) > 0
	default:
		return true
	}
}

// EvalTypeExpr resolves an ast.TypeExpr against builtins and whatever
// typedefs/enums/resource defs are visible in scope. Exported so
// internal/resource can evaluate property/parameter type annotations without
// duplicating this resolution logic.
func (ev *Evaluator) EvalTypeExpr(scope *Scope, te ast.TypeExpr) types.Type {
	return ev.evalTypeExpr(scope, te)
}

func (ev *Evaluator) evalTypeExpr(scope *Scope, te ast.TypeExpr) types.Type {
	switch t := te.(type) {
	case nil:
		return nil
	case *ast.NamedType:
		return ev.resolveNamedType(scope, t)
	case *ast.ListType:
		return &types.List{Elem: ev.evalTypeExpr(scope, t.Elem)}
	case *ast.DictType:
		return &types.Dict{Key: ev.evalTypeExpr(scope, t.Key), Value: ev.evalTypeExpr(scope, t.Value)}
	case *ast.UnionType:
		members := make([]types.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = ev.evalTypeExpr(scope, m)
		}
		return &types.Union{Members: members}
	case *ast.OptionalType:
		return &types.Optional{Elem: ev.evalTypeExpr(scope, t.Elem)}
	default:
		ev.errorf(diag.KindTypeError, diag.SubNone, te.Span(), "unsupported type expression %T", te)
		return nil
	}
}

var builtinTypeNames = map[string]types.Type{
	"bool":         types.Bool,
	"int":          types.Int,
	"float":        types.Float,
	"str":          types.Str,
	"path":         types.Path,
	"none":         types.None,
	"ProtectedStr": types.ProtectedStr,
}

func (ev *Evaluator) resolveNamedType(scope *Scope, t *ast.NamedType) types.Type {
	if bt, ok := builtinTypeNames[t.Name]; ok {
		return bt
	}
	if v, ok := scope.Lookup(t.Name); ok {
		if tv, ok := v.(*TypeV); ok {
			return tv.T
		}
		if rd, ok := v.(*ResourceDefV); ok {
			return &types.ResourceDef{Name: rd.Name}
		}
	}
	ev.errorf(diag.KindNameError, diag.SubNotFound, t.Span(), "unknown type %q", t.Name)
	return nil
}

// fstringValue renders an f-string's parts, per spec.md §4.B.
func (ev *Evaluator) fstringValue(scope *Scope, fs *ast.FString) Value {
	var sb strings.Builder
	for _, part := range fs.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Literal)
			continue
		}
		v := ev.EvalExpr(scope, part.Expr)
		if v == nil {
			continue
		}
		sb.WriteString(v.String())
	}
	return StrV{Value: sb.String()}
}

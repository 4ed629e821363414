package plugin

import (
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/types"
)

// Func is a host plugin function's body, already unwrapped from Eiko's call
// convention: args are positioned and type-checked against Plugin.ParamTypes
// before Fn ever runs.
type Func func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error)

// Plugin is one callable a plugin registers into a module's environment, per
// spec.md §4.H: "callable values registered into the module environment.
// Their signatures carry target Eiko types; call marshalling follows type
// rules above". It implements eval.Callable directly, so once bound into a
// Scope it's indistinguishable from any other callable to the evaluator.
type Plugin struct {
	Name       string
	ParamNames []string
	ParamTypes []types.Type
	Fn         Func
}

// Type implements eval.Value so a Plugin can be bound into a Scope directly
// (Scope.Assign takes an eval.Value, and dispatchCall type-switches on
// eval.Callable over that same Value).
func (p *Plugin) Type() types.Type { return &types.Callable{Name: p.Name} }
func (p *Plugin) String() string   { return p.Name }

// Call implements eval.Callable.
func (p *Plugin) Call(ev *eval.Evaluator, scope *eval.Scope, args []eval.CallArg, span diag.Span) (eval.Value, error) {
	bound, err := p.bindArgs(ev, scope, args, span)
	if err != nil {
		return nil, err
	}

	result, err := p.Fn(ev, bound, span)
	if err != nil {
		return nil, translateError(p.Name, span, err)
	}
	if result == nil {
		result = eval.NoneV{}
	}
	return result, nil
}

// bindArgs matches args to p's declared parameters positionally or by
// keyword, then coerces each to its declared Eiko type — "call marshalling
// follows type rules above" (spec.md §4.H), reusing the same ev.Coerce a
// resource constructor call uses.
func (p *Plugin) bindArgs(ev *eval.Evaluator, scope *eval.Scope, args []eval.CallArg, span diag.Span) ([]eval.Value, error) {
	bound := make([]eval.Value, len(p.ParamNames))
	used := make([]bool, len(args))

	positional := 0
	for i, name := range p.ParamNames {
		var raw eval.Value
		found := false
		for j, a := range args {
			if used[j] || a.Name == "" || a.Name != name {
				continue
			}
			raw, found = a.Value, true
			used[j] = true
			break
		}
		if !found {
			for positional < len(args) {
				if args[positional].Name != "" || used[positional] {
					positional++
					continue
				}
				raw, found = args[positional].Value, true
				used[positional] = true
				positional++
				break
			}
		}
		if !found {
			return nil, diag.New(diag.KindTypeError, diag.SubMismatch, span,
				"plugin %q: missing argument %q", p.Name, name)
		}
		if p.ParamTypes[i] != nil {
			coerced, err := ev.Coerce(scope, raw, p.ParamTypes[i])
			if err != nil {
				return nil, diag.New(diag.KindTypeError, diag.SubNotCoercible, span,
					"plugin %q argument %q: %s", p.Name, name, err)
			}
			raw = coerced
		}
		bound[i] = raw
	}

	for i, u := range used {
		if !u {
			return nil, diag.New(diag.KindTypeError, diag.SubMismatch, span,
				"plugin %q: unexpected argument %d", p.Name, i)
		}
	}
	return bound, nil
}

// translateError implements spec.md §4.H's failure split: "a distinguished
// PluginException propagates as a user-visible compile error with the
// plugin's declared message; any other exception surfaces as an internal
// error".
func translateError(name string, span diag.Span, err error) error {
	if exc, ok := err.(*Exception); ok {
		return diag.New(diag.KindPluginError, diag.SubUser, span, "%s", exc.Message)
	}
	return diag.New(diag.KindPluginError, diag.SubInternal, span, "plugin %q: %s", name, err)
}

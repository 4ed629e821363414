package resource

import (
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
)

// bindArgs attempts to match args against ov's parameter list: positional
// args fill params left-to-right, keyword args fill by name, a param with
// no matching arg falls back to its default (evaluated against whatever's
// already bound), and every declared param type gates the match through
// coercion. Returns ok=false if the call simply doesn't fit this overload's
// shape (arity/keyword/type mismatch) — the candidate is dropped silently,
// per spec.md §4.G step 1 ("filter by arity and positional/keyword-name
// match, then by parameter type compatibility").
func bindArgs(ev *eval.Evaluator, scope *eval.Scope, ov *Overload, args []eval.CallArg) (map[string]eval.Value, bool) {
	bound := map[string]eval.Value{}
	used := make([]bool, len(args))

	positional := 0
	for i, p := range ov.Params {
		var raw eval.Value
		found := false
		for j, a := range args {
			if used[j] || a.Name != p.Name || a.Name == "" {
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
			if p.Default == nil {
				return nil, false
			}
			defScope := scope.Child()
			for k, v := range bound {
				defScope.Assign(k, v)
			}
			raw = ev.EvalExpr(defScope, p.Default)
			if raw == nil {
				return nil, false
			}
		}

		if ov.ParamTypes[i] != nil {
			coerced, err := ev.Coerce(scope, raw, ov.ParamTypes[i])
			if err != nil {
				return nil, false
			}
			raw = coerced
		}
		bound[p.Name] = raw
	}

	for _, u := range used {
		if !u {
			return nil, false // an arg was given that no param consumed
		}
	}
	return bound, true
}

type candidate struct {
	overload *Overload
	bound    map[string]eval.Value
}

// resolveOverload implements spec.md §4.G step 1 in full: shape-filter every
// overload, then break remaining ties with @constraint.
func (b *Builder) resolveOverload(ev *eval.Evaluator, scope *eval.Scope, def *Definition, args []eval.CallArg, span diag.Span) (*Overload, map[string]eval.Value, error) {
	if len(def.Overloads) == 0 {
		return nil, nil, diag.New(diag.KindConstructor, diag.SubNone, span,
			"%s declares no constructors", def.Name)
	}

	var matches []candidate
	for _, ov := range def.Overloads {
		if bound, ok := bindArgs(ev, scope, ov, args); ok {
			matches = append(matches, candidate{ov, bound})
		}
	}
	if len(matches) == 0 {
		return nil, nil, diag.New(diag.KindConstructor, diag.SubNone, span,
			"no constructor overload of %s matches this call", def.Name)
	}
	if len(matches) == 1 {
		return matches[0].overload, matches[0].bound, nil
	}

	var satisfied []candidate
	for _, c := range matches {
		if c.overload.Constraint == nil {
			continue
		}
		constraintScope := scope.Child()
		for k, v := range c.bound {
			constraintScope.Assign(k, v)
		}
		result := ev.EvalExpr(constraintScope, c.overload.Constraint)
		if result == nil {
			continue
		}
		if truthyValue(result) {
			satisfied = append(satisfied, c)
		}
	}

	if len(satisfied) == 1 {
		return satisfied[0].overload, satisfied[0].bound, nil
	}
	if len(satisfied) > 1 {
		return nil, nil, diag.New(diag.KindTypeError, diag.SubAmbiguous, span,
			"%d overloads of %s satisfy @constraint for this call; exactly one must hold", len(satisfied), def.Name)
	}
	return nil, nil, diag.New(diag.KindTypeError, diag.SubAmbiguous, span,
		"%d overloads of %s match this call and none is narrowed by @constraint", len(matches), def.Name)
}

func truthyValue(v eval.Value) bool {
	b, ok := v.(eval.BoolV)
	return ok && bool(b)
}

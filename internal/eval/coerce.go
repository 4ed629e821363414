package eval

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/types"
)

// Coerce implements spec.md §4.E's `coerce(value, target) -> value | error`:
// numeric widening Int->Float; Str/Int/etc. into a Typedef subtype iff the
// refinement evaluates true against the candidate; container element-wise
// coercion building a fresh container; otherwise the value must already
// satisfy target exactly.
//
// RefinementError distinguishes a typedef's refinement predicate rejecting a
// candidate value from an ordinary type mismatch, so a caller (internal/
// resource.Builder) can report seed scenario 2's RefinementError instead of
// the generic TypeError(NotCoercible) every other Coerce failure gets.
type RefinementError struct {
	Typedef string
	Value   Value
	Cause   error // non-nil only when the refinement predicate itself errored
}

func (e *RefinementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("refinement for typedef %s could not be evaluated: %s", e.Typedef, e.Cause)
	}
	return fmt.Sprintf("value %s does not satisfy typedef %s's refinement", e.Value, e.Typedef)
}

// Refinement evaluation needs to run Eiko code (the predicate body), so
// Coerce is a method on *Evaluator rather than a free function in
// internal/types — see internal/types/types.go's package doc for why the
// structural rules (IsSubtype/Unify) live there while value-producing
// coercion lives here.
func (ev *Evaluator) Coerce(scope *Scope, v Value, target types.Type) (Value, error) {
	if target == nil {
		return v, nil
	}

	if td, ok := target.(*types.Typedef); ok {
		base, err := ev.Coerce(scope, v, td.BaseType)
		if err != nil {
			return nil, err
		}
		if td.Refinement == nil {
			return base, nil
		}
		child := scope.Child()
		child.Assign("self", base)
		result := ev.EvalExpr(child, td.Refinement)
		if result == nil {
			return nil, &RefinementError{Typedef: td.Name, Value: base, Cause: fmt.Errorf("refinement body produced no value")}
		}
		if !truthy(result) {
			return nil, &RefinementError{Typedef: td.Name, Value: base}
		}
		return base, nil
	}

	if types.Equal(v.Type(), target) {
		return v, nil
	}

	// Numeric widening.
	if target.Kind() == types.KindFloat {
		if i, ok := v.(IntV); ok {
			return FloatV(float64(i)), nil
		}
	}

	// A value already typed as a subtype of target needs no transformation
	// beyond the check (e.g. a Typedef value assigned to its own base type).
	if types.IsSubtype(v.Type(), target) {
		return v, nil
	}

	switch t := target.(type) {
	case *types.List:
		lv, ok := v.(*ListV)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %s to %s", v.Type(), target)
		}
		items := make([]Value, len(lv.Items))
		for i, item := range lv.Items {
			coerced, err := ev.Coerce(scope, item, t.Elem)
			if err != nil {
				return nil, err
			}
			items[i] = coerced
		}
		return &ListV{Elem: t.Elem, Items: items}, nil
	case *types.Dict:
		dv, ok := v.(*DictV)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %s to %s", v.Type(), target)
		}
		out := NewDict(t.Key, t.Value)
		for _, k := range dv.Keys() {
			val, _ := dv.Get(k)
			ck, err := ev.Coerce(scope, k, t.Key)
			if err != nil {
				return nil, err
			}
			cv, err := ev.Coerce(scope, val, t.Value)
			if err != nil {
				return nil, err
			}
			out.Set(ck, cv)
		}
		return out, nil
	case *types.Union:
		for _, m := range t.Members {
			if coerced, err := ev.Coerce(scope, v, m); err == nil {
				return coerced, nil
			}
		}
		return nil, fmt.Errorf("%s does not match any member of %s", v.Type(), target)
	case *types.Optional:
		if _, isNone := v.(NoneV); isNone {
			return v, nil
		}
		return ev.Coerce(scope, v, t.Elem)
	}

	return nil, fmt.Errorf("cannot coerce %s to %s", v.Type(), target)
}

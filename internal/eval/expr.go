package eval

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/types"
)

// EvalExpr evaluates a single expression against scope. A nil return means
// an error was already recorded in ev.errs; callers must check for nil
// before using the result.
func (ev *Evaluator) EvalExpr(scope *Scope, e ast.Expr) Value {
	switch x := e.(type) {
	case *ast.Ident:
		if v, ok := scope.Lookup(x.Name); ok {
			return v
		}
		ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "undefined name %q", x.Name)
		return nil
	case *ast.SelfExpr:
		if v, ok := scope.Lookup("self"); ok {
			return v
		}
		ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "'self' used outside a constructor body")
		return nil
	case *ast.IntLit:
		return IntV(x.Value)
	case *ast.FloatLit:
		return FloatV(x.Value)
	case *ast.StringLit:
		return StrV{Value: x.Value, Protected: x.Protected}
	case *ast.BoolLit:
		return BoolV(x.Value)
	case *ast.NoneLit:
		return NoneV{}
	case *ast.FString:
		return ev.fstringValue(scope, x)
	case *ast.UnaryExpr:
		return ev.evalUnary(scope, x)
	case *ast.BinaryExpr:
		return ev.evalBinary(scope, x)
	case *ast.BoolOpExpr:
		return ev.evalBoolOp(scope, x)
	case *ast.CompareExpr:
		return ev.evalCompare(scope, x)
	case *ast.InExpr:
		return ev.evalIn(scope, x)
	case *ast.IndexExpr:
		return ev.evalIndex(scope, x)
	case *ast.DotExpr:
		return ev.evalDot(scope, x)
	case *ast.CallExpr:
		return ev.evalCall(scope, x)
	case *ast.ListExpr:
		return ev.evalList(scope, x)
	case *ast.DictExpr:
		return ev.evalDictLit(scope, x)
	default:
		ev.errorf(diag.KindNameError, diag.SubNone, e.Span(), "unsupported expression %T", e)
		return nil
	}
}

func (ev *Evaluator) evalUnary(scope *Scope, x *ast.UnaryExpr) Value {
	v := ev.EvalExpr(scope, x.X)
	if v == nil {
		return nil
	}
	switch x.Op {
	case "not":
		return BoolV(!truthy(v))
	case "-":
		switch n := v.(type) {
		case IntV:
			return -n
		case FloatV:
			return -n
		}
		ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "cannot negate %s", v.Type())
		return nil
	}
	return nil
}

// evalBinary implements spec.md §4.F's arithmetic operator semantics: `+`
// on strings concatenates; integer division that doesn't evenly divide
// promotes to float.
func (ev *Evaluator) evalBinary(scope *Scope, x *ast.BinaryExpr) Value {
	l := ev.EvalExpr(scope, x.Left)
	r := ev.EvalExpr(scope, x.Right)
	if l == nil || r == nil {
		return nil
	}

	if ls, ok := l.(StrV); ok && x.Op == "+" {
		rs, ok := r.(StrV)
		if !ok {
			ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "cannot concatenate str with %s", r.Type())
			return nil
		}
		return StrV{Value: ls.Value + rs.Value}
	}

	li, lIsInt := l.(IntV)
	ri, rIsInt := r.(IntV)
	if lIsInt && rIsInt {
		switch x.Op {
		case "+":
			return li + ri
		case "-":
			return li - ri
		case "*":
			return li * ri
		case "%":
			if ri == 0 {
				ev.errorf(diag.KindTypeError, diag.SubNone, x.Span(), "modulo by zero")
				return nil
			}
			return li % ri
		case "/":
			if ri == 0 {
				ev.errorf(diag.KindTypeError, diag.SubNone, x.Span(), "division by zero")
				return nil
			}
			if int64(li)%int64(ri) == 0 {
				return li / ri
			}
			return FloatV(float64(li) / float64(ri))
		}
	}

	lf, lOk := asFloat(l)
	rf, rOk := asFloat(r)
	if lOk && rOk {
		switch x.Op {
		case "+":
			return FloatV(lf + rf)
		case "-":
			return FloatV(lf - rf)
		case "*":
			return FloatV(lf * rf)
		case "/":
			if rf == 0 {
				ev.errorf(diag.KindTypeError, diag.SubNone, x.Span(), "division by zero")
				return nil
			}
			return FloatV(lf / rf)
		case "%":
			ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "'%%' requires int operands")
			return nil
		}
	}

	ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "unsupported operand types for %s: %s and %s", x.Op, l.Type(), r.Type())
	return nil
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntV:
		return float64(n), true
	case FloatV:
		return float64(n), true
	default:
		return 0, false
	}
}

func (ev *Evaluator) evalBoolOp(scope *Scope, x *ast.BoolOpExpr) Value {
	l := ev.EvalExpr(scope, x.Left)
	if l == nil {
		return nil
	}
	if x.Op == "and" && !truthy(l) {
		return l
	}
	if x.Op == "or" && truthy(l) {
		return l
	}
	return ev.EvalExpr(scope, x.Right)
}

func (ev *Evaluator) evalCompare(scope *Scope, x *ast.CompareExpr) Value {
	l := ev.EvalExpr(scope, x.Left)
	r := ev.EvalExpr(scope, x.Right)
	if l == nil || r == nil {
		return nil
	}
	switch x.Op {
	case "==":
		return BoolV(Equal(l, r))
	case "!=":
		return BoolV(!Equal(l, r))
	}
	lf, lOk := asFloat(l)
	rf, rOk := asFloat(r)
	if lOk && rOk {
		switch x.Op {
		case "<":
			return BoolV(lf < rf)
		case ">":
			return BoolV(lf > rf)
		case "<=":
			return BoolV(lf <= rf)
		case ">=":
			return BoolV(lf >= rf)
		}
	}
	if ls, ok := l.(StrV); ok {
		if rs, ok := r.(StrV); ok {
			switch x.Op {
			case "<":
				return BoolV(ls.Value < rs.Value)
			case ">":
				return BoolV(ls.Value > rs.Value)
			case "<=":
				return BoolV(ls.Value <= rs.Value)
			case ">=":
				return BoolV(ls.Value >= rs.Value)
			}
		}
	}
	ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "cannot compare %s and %s", l.Type(), r.Type())
	return nil
}

// evalIn implements spec.md §4.F's "Membership x in container tests
// equality".
func (ev *Evaluator) evalIn(scope *Scope, x *ast.InExpr) Value {
	v := ev.EvalExpr(scope, x.X)
	c := ev.EvalExpr(scope, x.Container)
	if v == nil || c == nil {
		return nil
	}
	found := false
	switch container := c.(type) {
	case *ListV:
		for _, item := range container.Items {
			if Equal(v, item) {
				found = true
				break
			}
		}
	case *DictV:
		_, found = container.Get(v)
	default:
		ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "%s is not a container", c.Type())
		return nil
	}
	if x.Negate {
		found = !found
	}
	return BoolV(found)
}

func (ev *Evaluator) evalIndex(scope *Scope, x *ast.IndexExpr) Value {
	v := ev.EvalExpr(scope, x.X)
	idx := ev.EvalExpr(scope, x.Index)
	if v == nil || idx == nil {
		return nil
	}
	switch container := v.(type) {
	case *ListV:
		i, ok := idx.(IntV)
		if !ok {
			ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "list index must be int")
			return nil
		}
		if int(i) < 0 || int(i) >= len(container.Items) {
			ev.errorf(diag.KindIndexError, diag.SubNone, x.Span(), "list index %d out of range", i)
			return nil
		}
		return container.Items[i]
	case *DictV:
		val, ok := container.Get(idx)
		if !ok {
			ev.errorf(diag.KindIndexError, diag.SubNotFound, x.Span(), "key %s not present", idx)
			return nil
		}
		return val
	default:
		ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "%s is not indexable", v.Type())
		return nil
	}
}

func (ev *Evaluator) evalDot(scope *Scope, x *ast.DotExpr) Value {
	v := ev.EvalExpr(scope, x.X)
	if v == nil {
		return nil
	}
	switch owner := v.(type) {
	case *ResourceV:
		prop, ok := owner.Get(x.Name)
		if !ok {
			ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "%s has no property %q", owner.DefName, x.Name)
			return nil
		}
		// A promise property reads back as the *PromiseV itself, not its
		// (possibly still-unresolved) value, per spec.md §3: "Reads during
		// evaluation return a PromiseV carrying the owning resource id and
		// property name." This is what lets a downstream `self.x =
		// upstream.ip` assignment carry the pointer through to export (which
		// sees the ResourceV it belongs to via this same identity) and to
		// deploy (which resolves it by pointer once upstream's task runs).
		return prop
	case *namespaceV:
		if val, ok := owner.env.Lookup(x.Name); ok {
			return val
		}
		ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "module has no export %q", x.Name)
		return nil
	case *TypeV:
		if en, ok := owner.T.(*types.Enum); ok {
			if en.HasMember(x.Name) {
				return &EnumMemberV{Enum: en, Member: x.Name}
			}
		}
		ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "%s has no member %q", owner.T, x.Name)
		return nil
	default:
		ev.errorf(diag.KindTypeError, diag.SubMismatch, x.Span(), "%s has no attribute %q", v.Type(), x.Name)
		return nil
	}
}

func (ev *Evaluator) evalCall(scope *Scope, x *ast.CallExpr) Value {
	var args []CallArg
	for _, a := range x.Args {
		v := ev.EvalExpr(scope, a.Value)
		if v == nil {
			return nil
		}
		args = append(args, CallArg{Name: a.Name, Value: v})
	}

	switch callee := x.Callee.(type) {
	case *ast.Ident:
		v, ok := scope.Lookup(callee.Name)
		if !ok {
			ev.errorf(diag.KindNameError, diag.SubNotFound, x.Span(), "undefined name %q", callee.Name)
			return nil
		}
		return ev.dispatchCall(scope, v, args, x.Span())
	default:
		v := ev.EvalExpr(scope, x.Callee)
		if v == nil {
			return nil
		}
		return ev.dispatchCall(scope, v, args, x.Span())
	}
}

func (ev *Evaluator) dispatchCall(scope *Scope, callee Value, args []CallArg, span diag.Span) Value {
	switch c := callee.(type) {
	case *ResourceDefV:
		if ev.Builder == nil {
			ev.errorf(diag.KindConstructor, diag.SubNone, span, "no resource builder configured")
			return nil
		}
		v, err := ev.Builder.Construct(ev, scope, c.Name, args, span)
		if err != nil {
			if de, ok := err.(*diag.Error); ok {
				ev.errs.Add(de)
			} else {
				ev.errorf(diag.KindConstructor, diag.SubNone, span, "%s", err)
			}
			return nil
		}
		if rv, ok := v.(*ResourceV); ok {
			ev.Resources = append(ev.Resources, rv)
		}
		return v
	case Callable:
		v, err := c.Call(ev, scope, args, span)
		if err != nil {
			if de, ok := err.(*diag.Error); ok {
				ev.errs.Add(de)
			} else {
				ev.errorf(diag.KindPluginError, diag.SubUser, span, "%s", err)
			}
			return nil
		}
		return v
	default:
		ev.errorf(diag.KindTypeError, diag.SubMismatch, span, "%s is not callable", callee.Type())
		return nil
	}
}

func (ev *Evaluator) evalList(scope *Scope, x *ast.ListExpr) Value {
	items := make([]Value, 0, len(x.Elements))
	var elem types.Type
	for _, e := range x.Elements {
		v := ev.EvalExpr(scope, e)
		if v == nil {
			return nil
		}
		items = append(items, v)
		if elem == nil {
			elem = v.Type()
		} else {
			unified, err := types.Unify(elem, v.Type())
			if err != nil {
				ev.errorf(diag.KindTypeError, diag.SubMismatch, e.Span(), "%s", err)
				return nil
			}
			elem = unified
		}
	}
	if elem == nil {
		elem = types.None
	}
	return &ListV{Elem: elem, Items: items}
}

func (ev *Evaluator) evalDictLit(scope *Scope, x *ast.DictExpr) Value {
	var keyT, valT types.Type
	d := &DictV{values: map[string]Value{}, rawKeys: map[string]Value{}}
	for _, entry := range x.Entries {
		k := ev.EvalExpr(scope, entry.Key)
		v := ev.EvalExpr(scope, entry.Value)
		if k == nil || v == nil {
			return nil
		}
		if !types.IsValidDictKey(k.Type()) {
			ev.errorf(diag.KindTypeError, diag.SubMismatch, entry.Key.Span(), "%s is not a valid dict key type", k.Type())
			return nil
		}
		if keyT == nil {
			keyT = k.Type()
		}
		if valT == nil {
			valT = v.Type()
		}
		d.Set(k, v)
	}
	if keyT == nil {
		keyT = types.Str
	}
	if valT == nil {
		valT = types.None
	}
	d.Key, d.Value = keyT, valT
	return d
}

package eval

import (
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/types"
)

// isinstanceBuiltin implements spec.md §9's `isinstance(value, T)`, used from
// `@constraint(...)` to disambiguate overloads on a parameter's runtime type
// (e.g. `@constraint(isinstance(h, Debian))`). A Typedef counts as an
// instance of its base, matching types.IsSubtype/IsInstance — the spec's own
// suggested resolution for the Typedef/isinstance interaction it otherwise
// leaves underspecified.
type isinstanceBuiltin struct{}

func (isinstanceBuiltin) Type() types.Type { return &types.Callable{Name: "isinstance"} }
func (isinstanceBuiltin) String() string   { return "isinstance" }

func (isinstanceBuiltin) Call(ev *Evaluator, scope *Scope, args []CallArg, span diag.Span) (Value, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.KindTypeError, diag.SubMismatch, span,
			"isinstance takes exactly 2 arguments, got %d", len(args))
	}
	value := args[0].Value
	target, ok := typeOfArg(args[1].Value)
	if !ok {
		return nil, diag.New(diag.KindTypeError, diag.SubMismatch, span,
			"isinstance's second argument must be a type, got %s", args[1].Value.Type())
	}
	if value == nil {
		return BoolV(false), nil
	}
	return BoolV(types.IsInstance(value.Type(), target)), nil
}

// typeOfArg extracts the types.Type a value names when used as isinstance's
// second argument: a typedef/enum bound via `typedef`/`enum` (*TypeV), or a
// resource definition bound via `resource Name: ...` (*ResourceDefV).
func typeOfArg(v Value) (types.Type, bool) {
	switch t := v.(type) {
	case *TypeV:
		return t.T, true
	case *ResourceDefV:
		return &types.ResourceDef{Name: t.Name}, true
	default:
		return nil, false
	}
}

// installBuiltins seeds a fresh module scope with every language-level
// builtin callable from Eiko source. Kept to exactly what spec.md names
// rather than guessing at a broader standard library.
func installBuiltins(scope *Scope) {
	scope.Assign("isinstance", isinstanceBuiltin{})
}

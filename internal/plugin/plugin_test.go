package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/types"
)

func newEvaluator() *eval.Evaluator {
	return eval.New(nil, nil)
}

func TestPlugin_Call_PositionalArgs(t *testing.T) {
	var gotA, gotB eval.Value
	p := &Plugin{
		Name:       "greet",
		ParamNames: []string{"a", "b"},
		ParamTypes: []types.Type{types.Str, types.Int},
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			gotA, gotB = args[0], args[1]
			return eval.BoolV(true), nil
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	result, err := p.Call(ev, scope, []eval.CallArg{
		{Value: eval.StrV{Value: "hello"}},
		{Value: eval.IntV(3)},
	}, diag.Span{})

	require.NoError(t, err)
	assert.Equal(t, eval.BoolV(true), result)
	assert.Equal(t, eval.StrV{Value: "hello"}, gotA)
	assert.Equal(t, eval.IntV(3), gotB)
}

func TestPlugin_Call_KeywordArgsOutOfOrder(t *testing.T) {
	var gotA, gotB eval.Value
	p := &Plugin{
		Name:       "make",
		ParamNames: []string{"a", "b"},
		ParamTypes: []types.Type{types.Str, types.Int},
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			gotA, gotB = args[0], args[1]
			return eval.NoneV{}, nil
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	_, err := p.Call(ev, scope, []eval.CallArg{
		{Name: "b", Value: eval.IntV(7)},
		{Name: "a", Value: eval.StrV{Value: "x"}},
	}, diag.Span{})

	require.NoError(t, err)
	assert.Equal(t, eval.StrV{Value: "x"}, gotA)
	assert.Equal(t, eval.IntV(7), gotB)
}

func TestPlugin_Call_MissingArgument(t *testing.T) {
	p := &Plugin{
		Name:       "needs_two",
		ParamNames: []string{"a", "b"},
		ParamTypes: []types.Type{types.Str, types.Int},
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			return eval.NoneV{}, nil
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	_, err := p.Call(ev, scope, []eval.CallArg{{Value: eval.StrV{Value: "x"}}}, diag.Span{})
	require.Error(t, err)
}

func TestPlugin_Call_UnexpectedArgument(t *testing.T) {
	p := &Plugin{
		Name:       "needs_one",
		ParamNames: []string{"a"},
		ParamTypes: []types.Type{types.Str},
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			return eval.NoneV{}, nil
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	_, err := p.Call(ev, scope, []eval.CallArg{
		{Value: eval.StrV{Value: "x"}},
		{Value: eval.StrV{Value: "extra"}},
	}, diag.Span{})
	require.Error(t, err)
}

func TestPlugin_Call_PluginExceptionBecomesUserDiagnostic(t *testing.T) {
	p := &Plugin{
		Name: "fails",
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			return nil, NewException("can't reach host %s", "db1")
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	_, err := p.Call(ev, scope, nil, diag.Span{})
	require.Error(t, err)

	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.KindPluginError, de.Kind)
	assert.Equal(t, diag.SubUser, de.Sub)
	assert.Contains(t, de.Message, "db1")
}

func TestPlugin_Call_OtherErrorBecomesInternalDiagnostic(t *testing.T) {
	p := &Plugin{
		Name: "fails",
		Fn: func(ev *eval.Evaluator, args []eval.Value, span diag.Span) (eval.Value, error) {
			return nil, assert.AnError
		},
	}

	ev := newEvaluator()
	scope := eval.NewScope()
	_, err := p.Call(ev, scope, nil, diag.Span{})
	require.Error(t, err)

	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.KindPluginError, de.Kind)
	assert.Equal(t, diag.SubInternal, de.Sub)
}

func TestPlugin_IsAScopeableValue(t *testing.T) {
	p := &Plugin{Name: "dial"}
	var v eval.Value = p
	assert.Equal(t, "dial", v.String())
	assert.Equal(t, types.KindCallable, v.Type().Kind())

	scope := eval.NewScope()
	require.NoError(t, scope.Assign("dial", p))
	got, ok := scope.Lookup("dial")
	require.True(t, ok)
	assert.Same(t, p, got)
}

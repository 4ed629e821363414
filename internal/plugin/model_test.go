package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazaamjt/eikobot/internal/eval"
)

func TestModelCache_CachesByResourceIdentity(t *testing.T) {
	cache := NewModelCache()
	calls := 0
	model := convertFunc{
		name: "Host",
		fn: func(rv *eval.ResourceV) (any, error) {
			calls++
			return rv.Index, nil
		},
	}

	rv := &eval.ResourceV{DefName: "Host", Index: "web01", Properties: map[string]eval.Value{}}

	first, err := cache.Get(model, rv)
	require.NoError(t, err)
	assert.Equal(t, "web01", first)
	assert.Equal(t, 1, calls)

	second, err := cache.Get(model, rv)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "a second Get for the same resource must not re-convert")
}

func TestModelCache_DistinctResourcesConvertIndependently(t *testing.T) {
	cache := NewModelCache()
	calls := 0
	model := convertFunc{
		name: "Host",
		fn: func(rv *eval.ResourceV) (any, error) {
			calls++
			return rv.Index, nil
		},
	}

	a := &eval.ResourceV{DefName: "Host", Index: "a", Properties: map[string]eval.Value{}}
	b := &eval.ResourceV{DefName: "Host", Index: "b", Properties: map[string]eval.Value{}}

	_, err := cache.Get(model, a)
	require.NoError(t, err)
	_, err = cache.Get(model, b)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type convertFunc struct {
	name string
	fn   func(rv *eval.ResourceV) (any, error)
}

func (c convertFunc) ResourceName() string                    { return c.name }
func (c convertFunc) Convert(rv *eval.ResourceV) (any, error) { return c.fn(rv) }

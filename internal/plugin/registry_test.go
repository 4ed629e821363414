package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazaamjt/eikobot/internal/eval"
)

type stubCRUDHandler struct{}

func (stubCRUDHandler) Create(hc *HandlerContext) error { return nil }
func (stubCRUDHandler) Read(hc *HandlerContext) error   { return nil }
func (stubCRUDHandler) Update(hc *HandlerContext) error { return nil }
func (stubCRUDHandler) Delete(hc *HandlerContext) error { return nil }

type stubModel struct{ name string }

func (m stubModel) ResourceName() string                    { return m.name }
func (m stubModel) Convert(rv *eval.ResourceV) (any, error) { return m, nil }

func TestRegistry_PluginRoundTrip(t *testing.T) {
	r := NewRegistry()
	p := &Plugin{Name: "dial"}
	r.RegisterPlugin(p)

	got, ok := r.Plugin("dial")
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = r.Plugin("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterHandler_RejectsUnknownShape(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterHandler("Host", struct{}{})
	assert.Error(t, err)
}

func TestRegistry_RegisterHandler_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterHandler("Host", stubCRUDHandler{}))
	err := r.RegisterHandler("Host", stubCRUDHandler{})
	assert.Error(t, err)

	h, ok := r.Handler("Host")
	require.True(t, ok)
	_, isCRUD := h.(CRUDHandler)
	assert.True(t, isCRUD)
}

func TestRegistry_RegisterModel_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterModel(stubModel{name: "Host"}))
	err := r.RegisterModel(stubModel{name: "Host"})
	assert.Error(t, err)

	m, ok := r.Model("Host")
	require.True(t, ok)
	assert.Equal(t, "Host", m.ResourceName())
}

func TestRegistry_Package_ExposesPluginsByName(t *testing.T) {
	r := NewRegistry()
	dial := &Plugin{Name: "dial"}
	hangup := &Plugin{Name: "hangup"}
	r.RegisterPackage("net", dial, hangup)

	scope, ok := r.Package("net")
	require.True(t, ok)

	v, ok := scope.Lookup("dial")
	require.True(t, ok)
	assert.Same(t, dial, v)

	v, ok = scope.Lookup("hangup")
	require.True(t, ok)
	assert.Same(t, hangup, v)

	_, ok = r.Package("does-not-exist")
	assert.False(t, ok)
}

func TestRegistry_ImplementsPluginProvider(t *testing.T) {
	var _ eval.PluginProvider = NewRegistry()
}

package plugin

import (
	"github.com/kazaamjt/eikobot/internal/eval"
)

// Model is a host dataclass-like type spec.md §4.H describes: "a resource of
// that name, when passed to a plugin, is converted recursively into the
// model instance and cached on the resource." ResourceName names the
// `__eiko_resource__` the model links to; Convert builds one instance from a
// resource's properties.
type Model interface {
	ResourceName() string
	Convert(rv *eval.ResourceV) (any, error)
}

// ModelCache caches resource->model conversions by resource identity, per
// spec.md §4.H: "Subsequent conversions reuse the cached instance
// (preserving identity), but list/dict arguments are re-converted per call."
// Only the top-level model instance is cached; any list/dict-typed field a
// Model.Convert implementation builds is expected to construct fresh values
// each call, which falls out naturally since Convert runs fully on every
// cache miss and nothing here memoizes field-level conversions.
type ModelCache struct {
	byResource map[*eval.ResourceV]any
}

// NewModelCache creates an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{byResource: map[*eval.ResourceV]any{}}
}

// Get converts rv through model, reusing a previously cached instance for
// the same *eval.ResourceV.
func (c *ModelCache) Get(model Model, rv *eval.ResourceV) (any, error) {
	if cached, ok := c.byResource[rv]; ok {
		return cached, nil
	}
	instance, err := model.Convert(rv)
	if err != nil {
		return nil, err
	}
	c.byResource[rv] = instance
	return instance, nil
}

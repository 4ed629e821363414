package plugin

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/eval"
)

// Registry collects everything a plugin package contributes, per spec.md
// §4.H's three categories ("plugins", "handlers", "models"). A plugin
// package built for Eikobot registers itself into a Registry from an init()
// function (there is no dynamic loading step in Go the way the source
// language loads a sibling host-extension file at import time — see
// plugin.go's package doc). Registry implements eval.PluginProvider, so
// once handed to an Evaluator via its Plugins field, `import <package
// name>` resolves a RegisterPackage'd name into its plugins' scope instead
// of failing to find an .eiko file for it.
type Registry struct {
	plugins  map[string]*Plugin
	handlers map[string]any // resourceDefName -> Handler | CRUDHandler | AsyncCRUDHandler
	models   map[string]Model
	packages map[string]*eval.Scope
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  map[string]*Plugin{},
		handlers: map[string]any{},
		models:   map[string]Model{},
		packages: map[string]*eval.Scope{},
	}
}

// RegisterPlugin adds a callable under the name Eiko source imports it by.
func (r *Registry) RegisterPlugin(p *Plugin) { r.plugins[p.Name] = p }

// Plugin looks up a registered plugin by name.
func (r *Registry) Plugin(name string) (*Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// RegisterPackage names the scope `import name` binds in Eiko source:
// every plugin listed becomes an attribute of that import, e.g.
// RegisterPackage("net", dial) lets source do `import net` then call
// `net.dial(...)`. Re-registering the same package name replaces it.
func (r *Registry) RegisterPackage(name string, plugins ...*Plugin) {
	scope := eval.NewScope()
	for _, p := range plugins {
		scope.Assign(p.Name, p)
	}
	r.packages[name] = scope
}

// Package implements eval.PluginProvider.
func (r *Registry) Package(name string) (*eval.Scope, bool) {
	s, ok := r.packages[name]
	return s, ok
}

// RegisterHandler links h to the resource definition it declares via
// `__eiko_resource__`; resourceDefName is the Go-side equivalent of that
// field, resolved by the caller (usually the handler's own
// ResourceName() method, kept separate from the Handler/CRUDHandler
// interfaces themselves since not every handler shape needs to expose one
// uniformly). Re-registering the same resource name is a plugin-author
// mistake caught here rather than silently shadowed.
func (r *Registry) RegisterHandler(resourceDefName string, h any) error {
	switch h.(type) {
	case Handler, CRUDHandler, AsyncCRUDHandler:
	default:
		return fmt.Errorf("%T implements neither Handler, CRUDHandler, nor AsyncCRUDHandler", h)
	}
	if _, exists := r.handlers[resourceDefName]; exists {
		return fmt.Errorf("resource %q already has a handler registered", resourceDefName)
	}
	r.handlers[resourceDefName] = h
	return nil
}

// Handler returns the handler linked to a resource definition, if any.
func (r *Registry) Handler(resourceDefName string) (any, bool) {
	h, ok := r.handlers[resourceDefName]
	return h, ok
}

// RegisterModel links a Model to its declared resource name.
func (r *Registry) RegisterModel(m Model) error {
	if _, exists := r.models[m.ResourceName()]; exists {
		return fmt.Errorf("resource %q already has a model registered", m.ResourceName())
	}
	r.models[m.ResourceName()] = m
	return nil
}

// Model returns the model linked to a resource definition, if any.
func (r *Registry) Model(resourceDefName string) (Model, bool) {
	m, ok := r.models[resourceDefName]
	return m, ok
}

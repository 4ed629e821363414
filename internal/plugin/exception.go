// Package plugin implements spec.md §4.H's plugin bridge: host-function
// invocation and value conversion between Go and Eiko's value model. Neither
// the teacher (DWScript has no FFI to a host language) nor any other repo in
// the pack implements this exact shape; grounded conceptually on
// pulumi-pulumi's provider bridge (a host-side Create/Read/Update/Delete
// surface invoked from the language runtime, with typed conversion between
// the engine's value representation and the provider's native types) and
// built fresh in Go terms: a "plugin file" is not dynamically loaded the way
// spec.md's source language loads a sibling host-extension file, since Go
// has no eval/reflection-based dynamic loading story the pack reaches for —
// instead a plugin package registers itself into a Registry at init time,
// and the Registry — handed to an Evaluator as its PluginProvider — resolves
// `import <name>` to the registered package directly, ahead of
// internal/resolver's file-based lookup (see registry.go).
package plugin

import "fmt"

// Exception is the distinguished user-facing plugin failure spec.md §4.H
// calls out: "a distinguished PluginException propagates as a user-visible
// compile error with the plugin's declared message". Any other error a
// plugin function or handler returns is treated as an internal error.
type Exception struct {
	Message string
}

func (e *Exception) Error() string { return e.Message }

// NewException constructs a user-facing plugin failure.
func NewException(format string, args ...any) *Exception {
	return &Exception{Message: fmt.Sprintf(format, args...)}
}

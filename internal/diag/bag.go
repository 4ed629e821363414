package diag

import (
	"github.com/hashicorp/go-multierror"
)

// Bag accumulates errors across a compilation unit so a stage can keep going
// after a recoverable error (parser statement recovery, multi-resource
// construction) instead of aborting on the first failure. Wraps
// go-multierror rather than a hand-rolled []error slice, matching the pack's
// infra tooling (opentofu, hashicorp-nomad, crossplane, pulumi-pulumi-yaml).
type Bag struct {
	err *multierror.Error
}

// Add appends err if non-nil. Safe to call with a nil *Error.
func (b *Bag) Add(err error) {
	if err == nil {
		return
	}
	b.err = multierror.Append(b.err, err)
}

// Errors returns the accumulated diag.Errors in the order they were added.
// Non-*Error causes (shouldn't normally happen) are skipped.
func (b *Bag) Errors() []*Error {
	if b.err == nil {
		return nil
	}
	out := make([]*Error, 0, len(b.err.Errors))
	for _, e := range b.err.Errors {
		if de, ok := e.(*Error); ok {
			out = append(out, de)
		}
	}
	return out
}

// HasErrors reports whether any error has been added.
func (b *Bag) HasErrors() bool {
	return b.err != nil && len(b.err.Errors) > 0
}

// Err returns the accumulated error, or nil if empty.
func (b *Bag) Err() error {
	if b.err == nil {
		return nil
	}
	return b.err.ErrorOrNil()
}

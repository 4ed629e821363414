package plugin

import (
	"context"
	"fmt"

	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
)

// HandlerContext carries everything a handler method needs to act on one
// task, per spec.md §4.J: "per-resource handlers... communication happens
// only through resolved promise slots and through the shared change/log
// buffers on each task's own context." internal/deploy constructs one of
// these per task and never shares it across tasks.
type HandlerContext struct {
	Ctx context.Context

	// Resource is the resource instance this task deploys.
	Resource *eval.ResourceV
	// Model is the linked model instance (spec.md §4.H), if the resource's
	// definition has one registered; nil otherwise.
	Model any

	// Exists records read()'s finding of whether the backing resource is
	// already present; the deployer's state machine branches create vs.
	// update vs. no-op on it (spec.md §4.J).
	Exists bool

	// Changes holds, for an update(), which properties differ between the
	// read-back state and the desired state; read() populates it.
	Changes map[string]eval.Value

	// Failed lets a plain Handler.execute signal failure without a non-nil
	// error, per spec.md §4.J: "success is signalled by a flag on the
	// handler context" for the collapsed single-step handler shape.
	Failed bool

	// ScratchDir is a per-task temp directory a handler may use for local
	// work (e.g. rendering a file before uploading it); internal/deploy
	// creates it under a per-run directory named with a google/uuid and
	// does not remove it afterwards.
	ScratchDir string

	Log *diag.Logger
}

// Logf is the logging surface handlers get: it writes an info-level line
// through the deployer's shared Logger (stderr by default) as soon as it is
// called. Lines are not kept in a per-task buffer, so lines from tasks
// running concurrently interleave.
func (hc *HandlerContext) Logf(format string, args ...any) {
	hc.Log.Infof(format, args...)
}

// Promise looks up a property of the bound resource as a promise slot.
func (hc *HandlerContext) Promise(name string) (*eval.PromiseV, bool) {
	v, ok := hc.Resource.Get(name)
	if !ok {
		return nil, false
	}
	p, ok := v.(*eval.PromiseV)
	return p, ok
}

// ResolvePromise fills property name's promise slot exactly once, per
// spec.md §4.J: "a promise slot transitions Unresolved -> Resolved(value)
// exactly once, only during its owning task's execution."
func (hc *HandlerContext) ResolvePromise(name string, value eval.Value) error {
	p, ok := hc.Promise(name)
	if !ok {
		return fmt.Errorf("%q is not a promise property of %s", name, hc.Resource.DefName)
	}
	if p.Resolved() {
		return fmt.Errorf("promise %q already resolved", name)
	}
	p.Resolve(value)
	return nil
}

// Resolved reads property name, the downstream half of spec.md §4.J's
// "consumers that read the slot during their own task suspend until
// resolution". Property name may hold a *eval.PromiseV this task's resource
// minted itself, or one read off an upstream resource and carried through by
// a constructor assignment (`self.x = upstream.ip`) — either way it's the
// same pointer its owner resolves, so by the time this task runs (the
// scheduler never starts it until every predecessor task reaches a terminal
// state) the value is already sitting there to be read, not actually waited
// on. If name isn't a promise at all, its plain value is returned unchanged,
// so a handler doesn't need to know in advance which of its properties were
// ever promises. If the slot is still unresolved — which can only mean a bug
// in the owning task's handler, since the scheduler already refuses to run a
// consumer until its predecessors are cleanly Deployed — this reports
// DeployError(PromiseUnresolved) rather than silently handing back NoneV.
func (hc *HandlerContext) Resolved(name string) (eval.Value, error) {
	v, ok := hc.Resource.Get(name)
	if !ok {
		return nil, fmt.Errorf("%q is not a property of %s", name, hc.Resource.DefName)
	}
	p, ok := v.(*eval.PromiseV)
	if !ok {
		return v, nil
	}
	if !p.Resolved() {
		return nil, diag.New(diag.KindDeployError, diag.SubPromiseUnresolve, diag.Span{},
			"promise %q on %s was never resolved by its owning task", name, hc.Resource.DefName)
	}
	return p.ValueOrNone(), nil
}

// Handler is spec.md §4.H's simplest handler shape: a single imperative
// action with no read-before-write semantics (e.g. a notification, a
// one-shot command).
type Handler interface {
	Execute(hc *HandlerContext) error
}

// CRUDHandler drives spec.md §4.J's task state machine: read() determines
// whether the resource exists and what, if anything, differs from the
// desired state; create/update/delete act on that.
type CRUDHandler interface {
	Create(hc *HandlerContext) error
	Read(hc *HandlerContext) error
	Update(hc *HandlerContext) error
	Delete(hc *HandlerContext) error
}

// AsyncCRUDHandler is identical in shape to CRUDHandler; spec.md §4.H
// describes it as "same as CRUD but expected to suspend" — in Go terms, a
// handler that blocks on hc.Ctx and is safe to run concurrently with other
// tasks under the deployer's semaphore-bounded worker pool (internal/deploy),
// rather than one requiring the single-threaded event-loop model spec.md's
// source language's handlers assume.
type AsyncCRUDHandler interface {
	CRUDHandler
}

// PreHook/PostHook/CleanupHook are optional extra handler capabilities, per
// spec.md §4.J: "before executing CRUD, the handler's __pre__ runs; after,
// __post__... a cleanup hook runs exactly once after all tasks have reached
// a terminal state". A handler implements whichever it needs; internal/deploy
// type-asserts for these alongside the mandatory Handler/CRUDHandler shape.
type PreHook interface {
	Pre(hc *HandlerContext) error
}

type PostHook interface {
	Post(hc *HandlerContext) error
}

type CleanupHook interface {
	Cleanup(hc *HandlerContext) error
}

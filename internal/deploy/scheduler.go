package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/plugin"
)

// Deployer drives export.TaskGraph through spec.md §4.J's CRUD state
// machine with a configurable parallelism cap.
type Deployer struct {
	Graph       *export.TaskGraph
	Registry    *plugin.Registry
	Parallelism int
	DryRun      bool
	Logger      *diag.Logger

	// CacheRoot is the workspace cache scratch directories live under
	// (spec.md §6: "Per-task scratch directories under a workspace cache
	// keyed by (defName, index)"). Defaults to os.TempDir() if empty.
	CacheRoot string

	// CommandTimeout bounds each task's handler call (spec.md §6's
	// `[eiko.project] ssh_timeout`, enforced here rather than by individual
	// handlers so every handler gets it for free). Zero means no deadline.
	CommandTimeout time.Duration
}

// New creates a Deployer with spec.md §4.J's defaults applied.
func New(graph *export.TaskGraph, registry *plugin.Registry, parallelism int, dryRun bool) *Deployer {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Deployer{
		Graph:       graph,
		Registry:    registry,
		Parallelism: parallelism,
		DryRun:      dryRun,
		Logger:      diag.Default(),
	}
}

// Run executes every task to a terminal state and returns one TaskState per
// node, indexed the same as Graph.Nodes. It never returns an error itself —
// individual task failures are carried in the returned states, per spec.md
// §7: "deploy errors mark one task Failed and cascade Skipped downstream"
// rather than aborting the whole run.
func (d *Deployer) Run(ctx context.Context) ([]*TaskState, error) {
	n := len(d.Graph.Nodes)
	states := make([]*TaskState, n)
	for i, t := range d.Graph.Nodes {
		states[i] = &TaskState{Task: t, Status: Pending, Changes: map[string]string{}}
	}

	runDir := filepath.Join(d.cacheRoot(), "eikobot-"+uuid.NewString())

	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	sem := semaphore.NewWeighted(int64(d.Parallelism))
	group, gctx := errgroup.WithContext(ctx)

	for i := range d.Graph.Nodes {
		i := i
		group.Go(func() error {
			defer close(done[i])
			d.runTask(gctx, sem, states, done, i, runDir)
			return nil
		})
	}

	// Every goroutine above always returns nil: task-local failures are
	// captured in states[i], not propagated as a group error, so there is
	// nothing for Wait to report here beyond synchronizing completion.
	_ = group.Wait()

	d.runCleanupHooks(states, runDir)
	return states, nil
}

func (d *Deployer) cacheRoot() string {
	if d.CacheRoot != "" {
		return d.CacheRoot
	}
	return os.TempDir()
}

// runTask waits on every predecessor, then executes task i's handler.
func (d *Deployer) runTask(ctx context.Context, sem *semaphore.Weighted, states []*TaskState, done []chan struct{}, i int, runDir string) {
	st := states[i]

	for _, dep := range d.Graph.Edges[i] {
		select {
		case <-done[dep]:
		case <-ctx.Done():
			st.Status = Skipped
			st.Err = diag.New(diag.KindDeployError, diag.SubCancelled, diag.Span{}, "deploy cancelled")
			return
		}
	}

	// spec.md §4.J's diagram allows Ready when preds are Deployed OR
	// Skipped; this implementation takes the stricter, promise-safe reading
	// (see DESIGN.md): any predecessor that is not cleanly Deployed —
	// Failed or Skipped alike — cascades a Skip, since a Skipped
	// predecessor's promise slots can never be trusted as resolved.
	for _, dep := range d.Graph.Edges[i] {
		if states[dep].Status != Deployed {
			st.Status = Skipped
			st.Err = diag.New(diag.KindDeployError, diag.SubPromiseUnresolve, diag.Span{},
				"predecessor %s did not deploy", d.Graph.Nodes[dep].Index)
			return
		}
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		st.Status = Skipped
		st.Err = diag.New(diag.KindDeployError, diag.SubCancelled, diag.Span{}, "%s", err)
		return
	}
	defer sem.Release(1)

	select {
	case <-ctx.Done():
		st.Status = Skipped
		st.Err = diag.New(diag.KindDeployError, diag.SubCancelled, diag.Span{}, "deploy cancelled")
		return
	default:
	}

	st.Status = Running
	d.execute(ctx, st, runDir)
}

// execute runs task st's handler through whichever of Handler/CRUDHandler/
// AsyncCRUDHandler it implements, per spec.md §4.J's state machine.
func (d *Deployer) execute(ctx context.Context, st *TaskState, runDir string) {
	task := st.Task
	h, ok := d.Registry.Handler(task.DefName)
	if !ok {
		// No handler registered: the resource is inert data with nothing to
		// reconcile against the outside world (e.g. a config-only resource
		// consumed only through other resources' properties).
		st.Status = Deployed
		return
	}

	scratch := filepath.Join(runDir, task.Index)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		st.Status = Failed
		st.Err = diag.New(diag.KindDeployError, diag.SubHandlerFailed, diag.Span{},
			"could not create scratch dir: %s", err)
		return
	}

	if d.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.CommandTimeout)
		defer cancel()
	}

	var model any
	if m, ok := d.Registry.Model(task.DefName); ok {
		converted, err := m.Convert(task.Resource)
		if err != nil {
			st.Status = Failed
			st.Err = diag.New(diag.KindDeployError, diag.SubHandlerFailed, diag.Span{}, "%s", err)
			return
		}
		model = converted
	}

	hc := &plugin.HandlerContext{
		Ctx:        ctx,
		Resource:   task.Resource,
		Model:      model,
		Changes:    map[string]eval.Value{},
		ScratchDir: scratch,
		Log:        d.Logger,
	}

	if pre, ok := h.(plugin.PreHook); ok {
		if err := pre.Pre(hc); err != nil {
			st.Status = Failed
			st.Err = wrapHandlerErr(task.Index, err)
			d.collect(st, hc)
			return
		}
	}

	err := d.runCRUD(hc, h)

	if post, ok := h.(plugin.PostHook); ok && err == nil {
		if perr := post.Post(hc); perr != nil {
			err = perr
		}
	}

	d.collect(st, hc)

	if err != nil || hc.Failed {
		st.Status = Failed
		switch {
		case err == nil:
			err = diag.New(diag.KindDeployError, diag.SubHandlerFailed, diag.Span{},
				"handler for %s reported failure", task.Index)
		case errors.Is(err, context.DeadlineExceeded):
			err = diag.New(diag.KindDeployError, diag.SubTimeout, diag.Span{},
				"%s exceeded its command timeout (%s)", task.Index, d.CommandTimeout)
		}
		st.Err = wrapHandlerErr(task.Index, err)
		return
	}
	st.Status = Deployed
}

// runCRUD implements spec.md §4.J's per-task branch: plain Handler collapses
// read/create/update into one Execute call; CRUDHandler/AsyncCRUDHandler
// read first, then create/update/no-op, honoring dry-run.
func (d *Deployer) runCRUD(hc *plugin.HandlerContext, h any) error {
	switch handler := h.(type) {
	case plugin.CRUDHandler:
		if err := handler.Read(hc); err != nil {
			return err
		}
		if d.DryRun {
			return nil
		}
		if !hc.Exists {
			return handler.Create(hc)
		}
		if len(hc.Changes) > 0 {
			return handler.Update(hc)
		}
		return nil
	case plugin.Handler:
		if d.DryRun {
			return nil
		}
		return handler.Execute(hc)
	default:
		return diag.New(diag.KindDeployError, diag.SubHandlerFailed, diag.Span{},
			"registered handler implements neither Handler nor CRUDHandler")
	}
}

func (d *Deployer) collect(st *TaskState, hc *plugin.HandlerContext) {
	for k, v := range hc.Changes {
		st.Changes[k] = v.String()
	}
}

func wrapHandlerErr(index string, err error) error {
	if _, ok := err.(*diag.Error); ok {
		return err
	}
	return diag.New(diag.KindDeployError, diag.SubHandlerFailed, diag.Span{}, "%s: %s", index, err)
}

// runCleanupHooks implements spec.md §4.J: "a cleanup hook runs exactly once
// after all tasks have reached a terminal state (Deployed/Failed/Skipped);
// its failures are logged but do not mark the task failed retroactively."
func (d *Deployer) runCleanupHooks(states []*TaskState, runDir string) {
	for _, st := range states {
		h, ok := d.Registry.Handler(st.Task.DefName)
		if !ok {
			continue
		}
		cleanup, ok := h.(plugin.CleanupHook)
		if !ok {
			continue
		}
		hc := &plugin.HandlerContext{
			Ctx:        context.Background(),
			Resource:   st.Task.Resource,
			Changes:    map[string]eval.Value{},
			ScratchDir: filepath.Join(runDir, st.Task.Index),
			Log:        d.Logger,
		}
		if err := cleanup.Cleanup(hc); err != nil {
			d.Logger.Infof("cleanup for %s failed: %s", st.Task.Index, err)
		}
	}
}

package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/plugin"
	"github.com/kazaamjt/eikobot/internal/types"
)

func task(defName, index string) *export.Task {
	return &export.Task{
		DefName:  defName,
		Index:    index,
		Resource: &eval.ResourceV{DefName: defName, Index: index, Properties: map[string]eval.Value{}},
	}
}

// recordingHandler tracks which CRUD steps ran and whether the resource was
// reported as already existing.
type recordingHandler struct {
	exists     bool
	changes    map[string]eval.Value
	calls      []string
	failCreate bool
}

func (h *recordingHandler) Read(hc *plugin.HandlerContext) error {
	h.calls = append(h.calls, "read")
	hc.Exists = h.exists
	for k, v := range h.changes {
		hc.Changes[k] = v
	}
	return nil
}

func (h *recordingHandler) Create(hc *plugin.HandlerContext) error {
	h.calls = append(h.calls, "create")
	if h.failCreate {
		return assert.AnError
	}
	return nil
}

func (h *recordingHandler) Update(hc *plugin.HandlerContext) error {
	h.calls = append(h.calls, "update")
	return nil
}

func (h *recordingHandler) Delete(hc *plugin.HandlerContext) error {
	h.calls = append(h.calls, "delete")
	return nil
}

func TestRun_DeploysLinearChain(t *testing.T) {
	a, b := task("HostA", "a"), task("HostB", "b")
	graph := &export.TaskGraph{
		Nodes: []*export.Task{a, b},
		Edges: [][]int{{}, {0}}, // b depends on a
		Total: 2,
	}

	handlerA := &recordingHandler{exists: false}
	handlerB := &recordingHandler{exists: false}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("HostA", handlerA))
	require.NoError(t, registry.RegisterHandler("HostB", handlerB))

	d := New(graph, registry, 2, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, Deployed, states[0].Status)
	assert.Equal(t, Deployed, states[1].Status)
	assert.Equal(t, []string{"read", "create"}, handlerA.calls)
	assert.Equal(t, []string{"read", "create"}, handlerB.calls)
}

func TestRun_SkipsDependentsOfFailedPredecessor(t *testing.T) {
	a, b := task("HostA", "a"), task("HostB", "b")
	graph := &export.TaskGraph{
		Nodes: []*export.Task{a, b},
		Edges: [][]int{{}, {0}},
		Total: 2,
	}

	handlerA := &recordingHandler{exists: false, failCreate: true}
	handlerB := &recordingHandler{}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("HostA", handlerA))
	require.NoError(t, registry.RegisterHandler("HostB", handlerB))

	d := New(graph, registry, 2, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Failed, states[0].Status)
	assert.Equal(t, Skipped, states[1].Status)
	assert.Empty(t, handlerB.calls, "a skipped task's handler must never run")
}

func TestRun_DryRunNeverCallsCreateOrUpdate(t *testing.T) {
	a := task("Host", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	handlerA := &recordingHandler{exists: false}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("Host", handlerA))

	d := New(graph, registry, 1, true)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Deployed, states[0].Status)
	assert.Equal(t, []string{"read"}, handlerA.calls)
}

func TestRun_UpdateOnlyWhenChangesPresent(t *testing.T) {
	a := task("Host", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	handlerA := &recordingHandler{exists: true, changes: map[string]eval.Value{"cpus": eval.IntV(4)}}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("Host", handlerA))

	d := New(graph, registry, 1, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Deployed, states[0].Status)
	assert.Equal(t, []string{"read", "update"}, handlerA.calls)
	assert.Equal(t, "4", states[0].Changes["cpus"])
}

func TestRun_NoChangesIsANoOp(t *testing.T) {
	a := task("Host", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	handlerA := &recordingHandler{exists: true}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("Host", handlerA))

	d := New(graph, registry, 1, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Deployed, states[0].Status)
	assert.Equal(t, []string{"read"}, handlerA.calls)
}

func TestRun_UnregisteredHandlerIsInertAndDeploys(t *testing.T) {
	a := task("Config", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	d := New(graph, plugin.NewRegistry(), 1, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Deployed, states[0].Status)
}

type hookHandler struct {
	recordingHandler
	preCalled, postCalled, cleanupCalled bool
}

func (h *hookHandler) Pre(hc *plugin.HandlerContext) error {
	h.preCalled = true
	return nil
}

func (h *hookHandler) Post(hc *plugin.HandlerContext) error {
	h.postCalled = true
	return nil
}

func (h *hookHandler) Cleanup(hc *plugin.HandlerContext) error {
	h.cleanupCalled = true
	return nil
}

func TestRun_RunsPrePostAndCleanupHooks(t *testing.T) {
	a := task("Host", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	h := &hookHandler{recordingHandler: recordingHandler{exists: false}}
	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("Host", h))

	d := New(graph, registry, 1, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Deployed, states[0].Status)
	assert.True(t, h.preCalled)
	assert.True(t, h.postCalled)
	assert.True(t, h.cleanupCalled)
}

type flagFailHandler struct{}

func (flagFailHandler) Execute(hc *plugin.HandlerContext) error {
	hc.Failed = true
	return nil
}

func TestRun_PlainHandlerFailureFlagMarksTaskFailed(t *testing.T) {
	a := task("Notify", "a")
	graph := &export.TaskGraph{Nodes: []*export.Task{a}, Edges: [][]int{{}}, Total: 1}

	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("Notify", flagFailHandler{}))

	d := New(graph, registry, 1, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, states[0].Status)
}

// promiseProducerHandler resolves an "ip" promise slot during Create, unless
// skipResolve is set (used to simulate a handler bug for the unresolved
// case).
type promiseProducerHandler struct {
	skipResolve bool
}

func (promiseProducerHandler) Read(hc *plugin.HandlerContext) error { return nil }
func (h promiseProducerHandler) Create(hc *plugin.HandlerContext) error {
	if h.skipResolve {
		return nil
	}
	return hc.ResolvePromise("ip", eval.StrV{Value: "10.0.0.7"})
}
func (promiseProducerHandler) Update(hc *plugin.HandlerContext) error { return nil }
func (promiseProducerHandler) Delete(hc *plugin.HandlerContext) error { return nil }

// promiseConsumerHandler reads the promise slot it inherited from its
// predecessor (by pointer identity) and records either the resolved value or
// the error hc.Resolved reports.
type promiseConsumerHandler struct {
	observed eval.Value
	err      error
}

func (promiseConsumerHandler) Read(hc *plugin.HandlerContext) error { return nil }
func (h *promiseConsumerHandler) Create(hc *plugin.HandlerContext) error {
	h.observed, h.err = hc.Resolved("upstreamIP")
	return nil
}
func (promiseConsumerHandler) Update(hc *plugin.HandlerContext) error { return nil }
func (promiseConsumerHandler) Delete(hc *plugin.HandlerContext) error { return nil }

func TestRun_ConsumerObservesUpstreamResolvedPromise(t *testing.T) {
	a, b := task("HostA", "a"), task("HostB", "b")
	ip := &eval.PromiseV{Name: "ip", Declared: types.Str, Owner: a.Resource}
	a.Resource.Set("ip", ip)
	b.Resource.Set("upstreamIP", ip) // what evalDot + `self.upstreamIP = hostA.ip` would carry through

	graph := &export.TaskGraph{
		Nodes: []*export.Task{a, b},
		Edges: [][]int{{}, {0}},
		Total: 2,
	}

	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("HostA", promiseProducerHandler{}))
	consumer := &promiseConsumerHandler{}
	require.NoError(t, registry.RegisterHandler("HostB", consumer))

	d := New(graph, registry, 2, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Deployed, states[0].Status)
	assert.Equal(t, Deployed, states[1].Status)
	require.NoError(t, consumer.err)
	assert.Equal(t, eval.StrV{Value: "10.0.0.7"}, consumer.observed)
}

func TestRun_ConsumerErrorsOnUnresolvedUpstreamPromise(t *testing.T) {
	a, b := task("HostA", "a"), task("HostB", "b")
	ip := &eval.PromiseV{Name: "ip", Declared: types.Str, Owner: a.Resource}
	a.Resource.Set("ip", ip)
	b.Resource.Set("upstreamIP", ip)

	graph := &export.TaskGraph{
		Nodes: []*export.Task{a, b},
		Edges: [][]int{{}, {0}},
		Total: 2,
	}

	registry := plugin.NewRegistry()
	require.NoError(t, registry.RegisterHandler("HostA", promiseProducerHandler{skipResolve: true}))
	consumer := &promiseConsumerHandler{}
	require.NoError(t, registry.RegisterHandler("HostB", consumer))

	d := New(graph, registry, 2, false)
	states, err := d.Run(context.Background())
	require.NoError(t, err)

	// HostA "deploys" (its Create returned nil) despite never resolving its
	// promise, so the scheduler's Deployed-predecessor gate alone doesn't
	// catch this — it's hc.Resolved's own check that must.
	assert.Equal(t, Deployed, states[0].Status)
	require.Error(t, consumer.err)
	assert.Nil(t, consumer.observed)
}

func TestRun_CancelledContextSkipsNotYetRunningTasks(t *testing.T) {
	a, b := task("HostA", "a"), task("HostB", "b")
	graph := &export.TaskGraph{
		Nodes: []*export.Task{a, b},
		Edges: [][]int{{}, {0}},
		Total: 2,
	}

	registry := plugin.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(graph, registry, 1, false)
	states, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Skipped, states[0].Status)
	assert.Equal(t, Skipped, states[1].Status)
}

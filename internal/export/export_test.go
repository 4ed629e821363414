package export

import (
	"fmt"
	"sort"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/kazaamjt/eikobot/internal/eval"
)

// resource builds a minimal *eval.ResourceV for graph-shape tests, without
// going through a full parse+evaluate+resource.Construct pipeline — export
// only ever looks at a resource's DefName/Index/Properties.
func resource(defName, index string, props map[string]eval.Value, order []string) *eval.ResourceV {
	return &eval.ResourceV{DefName: defName, Index: defName + "-" + index, Properties: props, Order: order}
}

func graphString(g *TaskGraph) string {
	var lines []string
	for i, n := range g.Nodes {
		var deps []string
		for _, d := range g.Edges[i] {
			deps = append(deps, g.Nodes[d].Index)
		}
		sort.Strings(deps)
		lines = append(lines, fmt.Sprintf("%s -> %v", n.Index, deps))
	}
	sort.Strings(lines)
	return fmt.Sprintf("total=%d\n%s", g.Total, joinLines(lines))
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func TestBuild_LinearChain(t *testing.T) {
	bot := resource("BotRes", "a", map[string]eval.Value{}, nil)
	mid := resource("MidRes", "b", map[string]eval.Value{"bot": bot}, []string{"bot"})
	top := resource("TopRes", "c", map[string]eval.Value{"mid": mid}, []string{"mid"})

	ev := &eval.Evaluator{Resources: []*eval.ResourceV{bot, mid, top}}
	g, err := Build(ev)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	snaps.MatchSnapshot(t, "linear_chain", graphString(g))
}

// TestBuild_FanIn mirrors spec.md §9's test_exporter_and_handlers shape:
// several MidRes depend on one BotRes, several TopRes depend on their own
// MidRes, and all TopRes feed one Collector — 6 tasks total.
func TestBuild_FanIn(t *testing.T) {
	bot := resource("BotRes", "shared", map[string]eval.Value{}, nil)
	mid1 := resource("MidRes", "1", map[string]eval.Value{"bot": bot}, []string{"bot"})
	mid2 := resource("MidRes", "2", map[string]eval.Value{"bot": bot}, []string{"bot"})
	top1 := resource("TopRes", "1", map[string]eval.Value{"mid": mid1}, []string{"mid"})
	top2 := resource("TopRes", "2", map[string]eval.Value{"mid": mid2}, []string{"mid"})
	tops := &eval.ListV{Items: []eval.Value{top1, top2}}
	collector := resource("Collector", "all", map[string]eval.Value{"tops": tops}, []string{"tops"})

	ev := &eval.Evaluator{Resources: []*eval.ResourceV{bot, mid1, mid2, top1, top2, collector}}
	g, err := Build(ev)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if g.Total != 6 {
		t.Fatalf("expected 6 tasks, got %d", g.Total)
	}
	snaps.MatchSnapshot(t, "fan_in", graphString(g))
}

func TestBuild_DedupByIndex(t *testing.T) {
	bot := resource("BotRes", "x", map[string]eval.Value{}, nil)
	sameIndexAgain := resource("BotRes", "x", map[string]eval.Value{}, nil)
	ev := &eval.Evaluator{Resources: []*eval.ResourceV{bot, sameIndexAgain}}
	g, err := Build(ev)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if g.Total != 1 {
		t.Fatalf("expected dedup to 1 task, got %d", g.Total)
	}
}

// TestBuild_PromiseMediatedDependency covers spec.md §3/§4.I's promise edge:
// a consumer's property holds the *eval.PromiseV a predecessor minted for
// one of its own properties (what evalDot + a constructor assignment like
// `self.ip = host.ip` produce), never the resource itself.
func TestBuild_PromiseMediatedDependency(t *testing.T) {
	host := resource("Host", "a", map[string]eval.Value{}, nil)
	promise := &eval.PromiseV{Name: "ip", Owner: host}
	host.Set("ip", promise)

	consumer := resource("Firewall", "b", map[string]eval.Value{"targetIP": promise}, []string{"targetIP"})

	ev := &eval.Evaluator{Resources: []*eval.ResourceV{host, consumer}}
	g, err := Build(ev)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}

	hostIdx, consumerIdx := -1, -1
	for i, n := range g.Nodes {
		switch n.Index {
		case host.Index:
			hostIdx = i
		case consumer.Index:
			consumerIdx = i
		}
	}
	if hostIdx < 0 || consumerIdx < 0 {
		t.Fatalf("expected both nodes in graph, got %v", g.Nodes)
	}

	deps := g.Edges[consumerIdx]
	found := false
	for _, d := range deps {
		if d == hostIdx {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected consumer to depend on host via its promise, edges=%v", deps)
	}

	// Host's own unresolved "ip" promise (Owner == host) must not produce a
	// self-dependency edge.
	if edges := g.Edges[hostIdx]; len(edges) != 0 {
		t.Fatalf("expected host to have no dependencies of its own, got %v", edges)
	}
}

func TestBuild_CycleRejected(t *testing.T) {
	a := resource("A", "1", map[string]eval.Value{}, nil)
	b := resource("B", "1", map[string]eval.Value{"a": a}, []string{"a"})
	a.Properties["b"] = b
	a.Order = append(a.Order, "b")

	ev := &eval.Evaluator{Resources: []*eval.ResourceV{a, b}}
	if _, err := Build(ev); err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
}

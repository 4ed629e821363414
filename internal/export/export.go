// Package export implements spec.md §4.I: lowering the evaluator's object
// graph into a frozen task DAG. Grounded on the teacher's internal/semantic
// dependency-ordering pass (the teacher topologically sorts declarations
// before codegen the same way this package topologically checks tasks), with
// the graph-construction shape itself adapted from pulumi-pulumi's resource
// dependency-graph walk (a resource's dependents are discovered by walking
// its own property values for nested resource references, stopping at the
// first resource boundary reached rather than recursing through it).
package export

import (
	"sort"

	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/eval"
)

// Task is one node of the exported graph: a single constructed resource.
type Task struct {
	DefName  string
	Index    string
	Resource *eval.ResourceV
}

// TaskGraph is spec.md §4.I's "frozen TaskGraph(nodes, edges) plus a total
// task count". Edges[i] lists the indices (into Nodes) of i's dependencies —
// the resources that must deploy before Nodes[i] can.
type TaskGraph struct {
	Nodes []*Task
	Edges [][]int
	Total int
}

// Build walks every resource ev collected during evaluation (spec.md §4.I:
// "every top-level resource reachable from the module scope"), dedupes by
// index, and computes dependency edges.
func Build(ev *eval.Evaluator) (*TaskGraph, error) {
	byIndex := map[string]*Task{}
	var order []string
	for _, rv := range ev.Resources {
		if _, exists := byIndex[rv.Index]; exists {
			continue // spec.md §4.I: "deduplicates by resource index"
		}
		byIndex[rv.Index] = &Task{DefName: rv.DefName, Index: rv.Index, Resource: rv}
		order = append(order, rv.Index)
	}

	nodes := make([]*Task, len(order))
	nodeIndex := map[string]int{}
	for i, idx := range order {
		nodes[i] = byIndex[idx]
		nodeIndex[idx] = i
	}

	edges := make([][]int, len(nodes))
	for i, n := range nodes {
		deps := map[string]bool{}
		for _, pname := range n.Resource.Order {
			v, _ := n.Resource.Get(pname)
			collectDeps(v, deps)
		}
		// A resource's own unfilled promise properties point back at
		// itself (Owner == n.Resource); that's not a dependency, just the
		// slot a handler fills in during this same task.
		delete(deps, n.Resource.Index)
		var depIdx []int
		for idx := range deps {
			if j, ok := nodeIndex[idx]; ok {
				depIdx = append(depIdx, j)
			}
		}
		sort.Ints(depIdx)
		edges[i] = depIdx
	}

	g := &TaskGraph{Nodes: nodes, Edges: edges, Total: len(nodes)}
	if err := detectCycle(g); err != nil {
		return nil, err
	}
	return g, nil
}

// collectDeps walks v's shape, adding the index of every *eval.ResourceV it
// finds directly or nested inside a list/dict, per spec.md §4.I — "but not
// through another resource reference": once a ResourceV is found, its own
// properties are not descended into from here.
//
// A *eval.PromiseV is never resolved at export time (deploy hasn't run yet),
// so unwrapping its value would always see NoneV. Its Owner field is the
// dependency instead: a property holding a promise that evalDot read off
// another resource is the same *PromiseV the owning resource minted, so
// Owner identifies the task that must deploy first to resolve it.
func collectDeps(v eval.Value, into map[string]bool) {
	switch t := v.(type) {
	case *eval.ResourceV:
		into[t.Index] = true
	case *eval.ListV:
		for _, item := range t.Items {
			collectDeps(item, into)
		}
	case *eval.DictV:
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			collectDeps(val, into)
		}
	case *eval.PromiseV:
		if t.Owner != nil {
			into[t.Owner.Index] = true
		}
	}
}

// detectCycle implements spec.md §4.I's "detects and rejects cycles" via
// Kahn's algorithm: if fewer than Total nodes can ever reach in-degree zero,
// a cycle exists among the rest.
func detectCycle(g *TaskGraph) error {
	indegree := make([]int, len(g.Nodes))
	dependents := make([][]int, len(g.Nodes))
	for i, deps := range g.Edges {
		for _, d := range deps {
			indegree[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	var queue []int
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(g.Nodes) {
		var stuck []string
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, g.Nodes[i].Index)
			}
		}
		return diag.New(diag.KindExportError, diag.SubCycle, diag.Span{},
			"dependency cycle among resources: %v", stuck)
	}
	return nil
}

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/ref"
)

// CycleWarning represents links that can trigger each other.
//
// Cycles are warnings, not errors, because many are intentional: a link
// on TimerFired that sets the same timer again is the usual way to
// animate. A cycle made only of synchronous events never yields to the
// run loop and is reported at level "warning"; one that passes through an
// asynchronous event is "info".
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["~//a:1", "~//a:2", "~//a:1"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// linkNode is one link of the carousel with its canonical condition source.
type linkNode struct {
	id     string
	source ir.ObjectID
	event  ir.EventType
	effect []ir.Action
	group  ir.GroupID
}

// AnalyzeCycles performs static cycle analysis on the links of a carousel.
//
// The algorithm:
//  1. Build link → link edges: an edge A → B exists when an action in A's
//     effect raises the event B waits for (same source, same type; data is
//     ignored)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a potential cycle
//
// Indirect targets are not followed.
func AnalyzeCycles(groups []*ir.Group) []CycleWarning {
	r := carouselResolver(groups)

	var links []linkNode
	for _, g := range groups {
		for _, ing := range g.Ingredients {
			if ing.Link == nil {
				continue
			}
			links = append(links, linkNode{
				id:     ir.ObjectID{Group: g.ID, Number: ing.Number}.String(),
				source: r.Resolve(ing.Link.Condition.Source, g.ID),
				event:  ing.Link.Condition.EventType,
				effect: ing.Link.Effect,
				group:  g.ID,
			})
		}
	}
	if len(links) == 0 {
		return []CycleWarning{}
	}

	graph, async := buildDependencyGraph(links, r)
	sccs := tarjanSCC(graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, async))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int { return strings.Compare(a.Path[0], b.Path[0]) })
	return warnings
}

// dependencyGraph maps link id → links its effect can trigger.
type dependencyGraph map[string][]string

// buildDependencyGraph constructs the link dependency graph. The second
// result marks links whose own event is asynchronous.
func buildDependencyGraph(links []linkNode, r ref.Resolver) (dependencyGraph, map[string]bool) {
	graph := make(dependencyGraph, len(links))
	async := make(map[string]bool, len(links))

	for _, from := range links {
		graph[from.id] = nil
		async[from.id] = from.event.IsAsync()

		for _, a := range from.effect {
			source, t, ok := raisedEvent(a, from.group, r)
			if !ok {
				continue
			}
			for _, to := range links {
				if to.source == source && to.event == t && !slices.Contains(graph[from.id], to.id) {
					graph[from.id] = append(graph[from.id], to.id)
				}
			}
		}
	}
	return graph, async
}

// raisedEvent reports the event an action raises on its target, if any.
func raisedEvent(a ir.Action, group ir.GroupID, r ref.Resolver) (ir.ObjectID, ir.EventType, bool) {
	if a.Target.Indirect {
		return ir.ObjectID{}, 0, false
	}
	target := r.Resolve(a.Target.Ref, group)

	switch a.Name {
	case ir.ActionActivate, ir.ActionRun:
		return target, ir.IsRunning, true
	case ir.ActionDeactivate, ir.ActionStop:
		return target, ir.IsStopped, true
	case ir.ActionPreload:
		return target, ir.IsAvailable, true
	case ir.ActionUnload:
		return target, ir.IsDeleted, true
	case ir.ActionTestVariable:
		return target, ir.TestEvent, true
	case ir.ActionSetTimer:
		return target, ir.TimerFired, len(a.Args) > 1
	case ir.ActionSetData:
		return target, ir.ContentAvailable, true
	case ir.ActionSendEvent:
		if len(a.Args) == 0 || a.Args[0].Indirect != nil {
			return ir.ObjectID{}, 0, false
		}
		t, ok := eventArg(a.Args[0].Value)
		return target, t, ok
	}
	return ir.ObjectID{}, 0, false
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of link ids.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Visit nodes in a stable order so warnings are reproducible.
	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph dependencyGraph, async map[string]bool) CycleWarning {
	slices.Sort(scc)

	level := "warning"
	for _, id := range scc {
		if async[id] {
			level = "info"
			break
		}
	}

	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("Self-triggering link detected: %s → %s", id, id),
			Level:   level,
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Links may trigger each other: %s", strings.Join(path, " → ")),
		Level:   level,
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: start at the first node, follow edges to other SCC members
// until we return to the start node.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}

package topology

import (
	"github.com/agentlens/agentlens/pkg/graph"
)

// EdgeKey identifies an edge by its endpoint pair. Back-edge classification
// is keyed by pair, so parallel edges between the same nodes are classified
// uniformly (see package doc for the multi-edge caveat).
type EdgeKey struct {
	From string
	To   string
}

// Key returns the classification key for an edge.
func Key(e graph.Edge) EdgeKey { return EdgeKey{From: e.From, To: e.To} }

// Result is the immutable outcome of one Analyze pass. It is a plain value:
// safe to share across goroutines and to cache by input hash. All later
// queries (ResolveVisible) read from it without mutation.
type Result struct {
	// Nodes is the deduplicated node list in input order.
	Nodes []graph.Node

	// Edges is the input edge list with dangling records removed.
	Edges []graph.Edge

	// BackEdges holds every (from, to) pair found to close a cycle.
	BackEdges map[EdgeKey]bool

	// DAGEdges is Edges minus all back-edge pairs. Guaranteed acyclic from
	// every root.
	DAGEdges []graph.Edge

	// Depths maps each node to its discovery depth during traversal from
	// whichever root reached it first. Nodes unreachable from any root get
	// depth 0 in their own sweep.
	Depths map[string]int

	// RootIDs is the ordered, deduplicated root set (see selectRoots).
	// Non-empty whenever Nodes is non-empty.
	RootIDs []string

	// Parents maps each non-root node to the node whose tree edge discovered
	// it. Used as the sprout/collapse anchor during transitions.
	Parents map[string]string

	nodeByID map[string]graph.Node
	dagOut   map[string][]graph.Edge // DAG adjacency, source id -> outgoing DAG edges
}

// Node returns the node with the given ID and true, or a zero node and false.
func (r *Result) Node(id string) (graph.Node, bool) {
	n, ok := r.nodeByID[id]
	return n, ok
}

// Children returns the DAG successors of a node in edge order.
// Back-edges never appear here.
func (r *Result) Children(id string) []string {
	edges := r.dagOut[id]
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.To
	}
	return ids
}

// OutgoingDAG returns the outgoing DAG edges of a node.
// The returned slice is a read-only view.
func (r *Result) OutgoingDAG(id string) []graph.Edge { return r.dagOut[id] }

// IsBackEdge reports whether the edge's endpoint pair was classified as
// cycle-closing.
func (r *Result) IsBackEdge(e graph.Edge) bool {
	return r.BackEdges[Key(e)]
}

// Analyze runs topology analysis over a raw call-graph snapshot: node dedup,
// dangling-edge removal, root selection, and cycle detection via iterative
// depth-first traversal with white/gray/black coloring.
//
// Analyze never fails. Malformed input (duplicate ids, edges into missing
// nodes, empty lists) degrades to a smaller, still well-formed Result.
func Analyze(g graph.Graph) *Result {
	g = g.Dedup()

	r := &Result{
		Nodes:     g.Nodes,
		BackEdges: make(map[EdgeKey]bool),
		Depths:    make(map[string]int, len(g.Nodes)),
		Parents:   make(map[string]string),
		nodeByID:  make(map[string]graph.Node, len(g.Nodes)),
		dagOut:    make(map[string][]graph.Edge),
	}
	for _, n := range g.Nodes {
		r.nodeByID[n.ID] = n
	}

	// Drop edges whose endpoints are not both present. Telemetry snapshots
	// routinely contain records for nodes removed a moment earlier.
	edges := make([]graph.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := r.nodeByID[e.From]; !ok {
			continue
		}
		if _, ok := r.nodeByID[e.To]; !ok {
			continue
		}
		edges = append(edges, e)
	}
	r.Edges = edges

	if len(r.Nodes) == 0 {
		r.DAGEdges = []graph.Edge{}
		return r
	}

	out := make(map[string][]graph.Edge, len(r.Nodes))
	inDegree := make(map[string]int, len(r.Nodes))
	for _, e := range edges {
		out[e.From] = append(out[e.From], e)
		inDegree[e.To]++
	}

	r.RootIDs = selectRoots(r.Nodes, out, inDegree)

	colors := make(map[string]color, len(r.Nodes))
	for _, root := range r.RootIDs {
		if colors[root] == white {
			r.walk(root, out, colors)
		}
	}
	// Components unreachable from any root still need coloring so their
	// internal cycles are found.
	for _, n := range r.Nodes {
		if colors[n.ID] == white {
			r.walk(n.ID, out, colors)
		}
	}

	// DAG edges are the full edge list minus the back-edge set, never
	// reconstructed node by node.
	r.DAGEdges = make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if r.BackEdges[Key(e)] {
			continue
		}
		r.DAGEdges = append(r.DAGEdges, e)
		r.dagOut[e.From] = append(r.dagOut[e.From], e)
	}

	return r
}

type color uint8

const (
	white color = iota // unvisited
	gray               // on the active traversal path
	black              // fully explored
)

// frame is one explicit-stack DFS frame: the node, the index of the next
// outgoing edge to examine, and the discovery depth.
type frame struct {
	id    string
	next  int
	depth int
}

// walk runs one iterative depth-first traversal from start. An explicit
// frame stack replaces recursion so traversal depth is bounded by heap, not
// by the call stack.
func (r *Result) walk(start string, out map[string][]graph.Edge, colors map[string]color) {
	colors[start] = gray
	r.Depths[start] = 0
	stack := []frame{{id: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := out[top.id]

		if top.next >= len(edges) {
			colors[top.id] = black
			stack = stack[:len(stack)-1]
			continue
		}

		e := edges[top.next]
		top.next++

		switch colors[e.To] {
		case gray:
			// Target is an ancestor on the active path: cycle.
			r.BackEdges[Key(e)] = true
		case white:
			colors[e.To] = gray
			r.Depths[e.To] = top.depth + 1
			r.Parents[e.To] = top.id
			stack = append(stack, frame{id: e.To, depth: top.depth + 1})
		case black:
			// Forward or cross edge: already explored, not a cycle.
		}
	}
}

// selectRoots picks the traversal roots by priority, evaluated over the
// whole node list:
//
//  1. every node flagged as a user entry point, else
//  2. every node flagged as a root, else
//  3. every node with in-degree zero over the full edge list, else
//  4. the single node with the highest out-degree (the graph is one big
//     cycle and someone has to go first); ties break on input order.
//     Out-degree counts call records, so parallel edges to the same
//     callee each count.
func selectRoots(nodes []graph.Node, out map[string][]graph.Edge, inDegree map[string]int) []string {
	var entryPoints, declared, sources []string
	for _, n := range nodes {
		if n.IsUserEntryPoint {
			entryPoints = append(entryPoints, n.ID)
		}
		if n.IsRoot {
			declared = append(declared, n.ID)
		}
		if inDegree[n.ID] == 0 {
			sources = append(sources, n.ID)
		}
	}

	switch {
	case len(entryPoints) > 0:
		return entryPoints
	case len(declared) > 0:
		return declared
	case len(sources) > 0:
		return sources
	}

	if len(nodes) == 0 {
		return nil
	}
	best := nodes[0].ID
	for _, n := range nodes[1:] {
		if len(out[n.ID]) > len(out[best]) {
			best = n.ID
		}
	}
	return []string{best}
}

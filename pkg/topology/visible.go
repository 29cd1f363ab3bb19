package topology

import "github.com/agentlens/agentlens/pkg/graph"

// VisibleGraph is the subset of the call graph currently on screen under
// progressive disclosure. It is a fresh value on every call; callers own it.
type VisibleGraph struct {
	Nodes     []graph.Node `json:"nodes"`
	DAGEdges  []graph.Edge `json:"dag_edges"`
	BackEdges []graph.Edge `json:"back_edges"`
}

// IDs returns the set of visible node ids.
func (v VisibleGraph) IDs() map[string]bool {
	ids := make(map[string]bool, len(v.Nodes))
	for _, n := range v.Nodes {
		ids[n.ID] = true
	}
	return ids
}

// ResolveVisible computes the visible subgraph for the given expanded-node
// set via breadth-first traversal of the DAG adjacency, seeded at all roots.
//
// A node reached by the traversal is visible unconditionally; its outgoing
// DAG edges are followed only when its id is in expanded. Every traversed
// edge is recorded even when its target was already visible, so a node with
// two expanded parents shows both incoming edges. Back-edges are appended
// last, and only when both endpoints ended up visible.
//
// expanded may be nil, which collapses everything to the root set.
func (r *Result) ResolveVisible(expanded map[string]bool) VisibleGraph {
	vis := VisibleGraph{
		Nodes:     []graph.Node{},
		DAGEdges:  []graph.Edge{},
		BackEdges: []graph.Edge{},
	}

	seen := make(map[string]bool, len(r.Nodes))
	queue := make([]string, 0, len(r.RootIDs))
	for _, id := range r.RootIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, id)
		if n, ok := r.nodeByID[id]; ok {
			vis.Nodes = append(vis.Nodes, n)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if !expanded[id] {
			continue
		}
		for _, e := range r.dagOut[id] {
			vis.DAGEdges = append(vis.DAGEdges, e)
			if seen[e.To] {
				continue
			}
			seen[e.To] = true
			queue = append(queue, e.To)
			if n, ok := r.nodeByID[e.To]; ok {
				vis.Nodes = append(vis.Nodes, n)
			}
		}
	}

	for _, e := range r.Edges {
		if r.BackEdges[Key(e)] && seen[e.From] && seen[e.To] {
			vis.BackEdges = append(vis.BackEdges, e)
		}
	}

	return vis
}

// Package topology turns a raw, possibly-cyclic agent call graph into a
// layout-able skeleton: a back-edge set, an acyclic edge list, per-node
// depths, a prioritized root set, and the visible subgraph under progressive
// disclosure.
//
// The package is a two-stage pure-function pipeline:
//
//	res := topology.Analyze(g)                    // immutable Result
//	vis := res.ResolveVisible(expandedIDs)        // fresh VisibleGraph
//
// Analyze runs a single O(V+E) depth-first traversal with white/gray/black
// coloring, once per root plus a sweep over nodes unreachable from any root.
// The traversal uses an explicit frame stack, so pathological graphs cannot
// blow the call stack. An edge whose target is gray (an ancestor on the
// active path) is a back-edge; removing all back-edge pairs from the edge
// list yields the DAG edges handed to the layout engine.
//
// Back-edges are keyed by (from, to) pair, not by edge instance: if any edge
// between a pair closes a cycle, every parallel edge between that pair is
// treated as a back-edge. Edge records carry synthetic instance IDs
// (graph.EnsureEdgeIDs) should per-instance classification ever be needed.
//
// Nothing here raises on malformed input. Dangling edges are dropped while
// building adjacency, duplicate node ids collapse to their first occurrence,
// and empty input produces empty, well-typed output.
package topology

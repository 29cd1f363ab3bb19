package layout

import (
	"context"

	"github.com/agentlens/agentlens/pkg/graph"
)

// GridStrategy is a dependency-free layered layout: nodes are ranked by
// longest path from a source and stacked within each rank in input order.
// It is deterministic and cheap, which makes it the default for tests and
// for environments where the graphviz engine is unavailable.
type GridStrategy struct{}

// Positions implements Strategy.
func (GridStrategy) Positions(ctx context.Context, nodes []graph.Node, dagEdges []graph.Edge, hints Hints) (map[string]Point, error) {
	ranks := longestPathRanks(nodes, dagEdges)

	colSep := hints.RankSep + hints.Default.W
	rowSep := hints.NodeSep + hints.Default.H
	horizontal := hints.Direction != "TB"

	perRank := make(map[int]int)
	pos := make(map[string]Point, len(nodes))
	for _, n := range nodes {
		rank := ranks[n.ID]
		slot := perRank[rank]
		perRank[rank]++

		major := float64(rank) * colSep
		minor := float64(slot) * rowSep
		if horizontal {
			pos[n.ID] = Point{X: major, Y: minor}
		} else {
			pos[n.ID] = Point{X: minor, Y: major}
		}
	}
	return pos, nil
}

// longestPathRanks assigns each node the length of the longest DAG path
// reaching it. Edges are acyclic by contract, so iterating to a fixed point
// terminates in at most len(nodes) rounds.
func longestPathRanks(nodes []graph.Node, dagEdges []graph.Edge) map[string]int {
	ranks := make(map[string]int, len(nodes))
	for _, n := range nodes {
		ranks[n.ID] = 0
	}

	for i := 0; i < len(nodes); i++ {
		changed := false
		for _, e := range dagEdges {
			if r, ok := ranks[e.From]; ok {
				if _, ok := ranks[e.To]; ok && ranks[e.To] < r+1 {
					ranks[e.To] = r + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return ranks
}

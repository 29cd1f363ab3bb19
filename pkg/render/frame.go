package render

import (
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/topology"
)

// PlacedNode is a visible node with its resolved box geometry.
type PlacedNode struct {
	graph.Node
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PlacedEdge is a visible DAG edge with endpoint coordinates.
type PlacedEdge struct {
	graph.Edge
	Start layout.Point `json:"start"`
	End   layout.Point `json:"end"`
}

// Frame is one fully positioned snapshot of the visible subgraph: the value
// a host needs to paint a single frame, serializable as JSON for the HTTP
// API and the json render format.
type Frame struct {
	Nodes []PlacedNode `json:"nodes"`
	Edges []PlacedEdge `json:"edges"`
	Arcs  []Arc        `json:"arcs"`

	// Dash segments per arc at the frame's animation phase, indexed in
	// step with Arcs.
	Dashes [][]DashSegment `json:"dashes,omitempty"`
}

// BuildFrame assembles a Frame from the visible subgraph, its positions,
// and sizing hints. phase is the marching-ants animation phase in [0, 1).
// Nodes or edges without positions are skipped silently.
func BuildFrame(vis topology.VisibleGraph, pos map[string]layout.Point, hints layout.Hints, phase float64) Frame {
	f := Frame{
		Nodes: make([]PlacedNode, 0, len(vis.Nodes)),
		Edges: make([]PlacedEdge, 0, len(vis.DAGEdges)),
	}

	for _, n := range vis.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		s := hints.SizeFor(n.Type)
		f.Nodes = append(f.Nodes, PlacedNode{Node: n, X: p.X, Y: p.Y, W: s.W, H: s.H})
	}

	for _, e := range vis.DAGEdges {
		start, okS := pos[e.From]
		end, okT := pos[e.To]
		if !okS || !okT {
			continue
		}
		f.Edges = append(f.Edges, PlacedEdge{Edge: e, Start: start, End: end})
	}

	f.Arcs = BuildArcs(vis.BackEdges, pos)
	f.Dashes = make([][]DashSegment, len(f.Arcs))
	for i, a := range f.Arcs {
		f.Dashes[i] = DashSegments(a.Length(), DefaultDash, DefaultGap, phase)
	}

	return f
}

// Bounds returns the frame's bounding box (including node extents), or
// zeros for an empty frame.
func (f Frame) Bounds() (minX, minY, maxX, maxY float64) {
	if len(f.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	first := true
	for _, n := range f.Nodes {
		x0, y0 := n.X-n.W/2, n.Y-n.H/2
		x1, y1 := n.X+n.W/2, n.Y+n.H/2
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		if x0 < minX {
			minX = x0
		}
		if y0 < minY {
			minY = y0
		}
		if x1 > maxX {
			maxX = x1
		}
		if y1 > maxY {
			maxY = y1
		}
	}
	return minX, minY, maxX, maxY
}

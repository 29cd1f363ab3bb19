package layout

import (
	"context"

	"github.com/agentlens/agentlens/pkg/graph"
)

// Point is a 2D position in layout space. The engine's output is centered:
// the bounding box of all returned points straddles the origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a node's box extent in layout units (pixels).
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Hints carries the sizing and spacing parameters handed through to the
// underlying layout algorithm unchanged.
type Hints struct {
	// Sizes maps node types to box extents. Composite agent nodes get
	// larger boxes than leaf tools; missing types fall back to Default.
	Sizes map[graph.NodeType]Size

	// Default is used for node types absent from Sizes.
	Default Size

	// RankSep is the separation between layers, NodeSep within a layer.
	RankSep float64
	NodeSep float64

	// Direction is the rank direction, graphviz-style ("LR", "TB").
	Direction string
}

// DefaultHints returns the sizing used by the CLI and server when the
// config file does not override it.
func DefaultHints() Hints {
	return Hints{
		Sizes: map[graph.NodeType]Size{
			graph.TypeAgent:    {W: 180, H: 80},
			graph.TypeSubAgent: {W: 160, H: 72},
			graph.TypeTool:     {W: 120, H: 48},
			graph.TypeLLM:      {W: 140, H: 56},
			graph.TypeUser:     {W: 120, H: 48},
		},
		Default:   Size{W: 120, H: 48},
		RankSep:   90,
		NodeSep:   40,
		Direction: "LR",
	}
}

// SizeFor returns the box extent for a node type.
func (h Hints) SizeFor(t graph.NodeType) Size {
	if s, ok := h.Sizes[t]; ok {
		return s
	}
	return h.Default
}

// Strategy is the capability interface over the external layout algorithm:
// given nodes, acyclic edges, and hints, produce raw per-node coordinates.
// Implementations must not require centered output - the engine centers.
type Strategy interface {
	Positions(ctx context.Context, nodes []graph.Node, dagEdges []graph.Edge, hints Hints) (map[string]Point, error)
}

// Engine computes positioned layouts for visible subgraphs. It is a thin
// adapter: cycle removal is the caller's job (feed DAG edges only - cyclic
// input produces degenerate layered layouts), and the engine's own work is
// limited to delegation plus recentering.
type Engine struct {
	strategy Strategy
	hints    Hints
}

// NewEngine creates an engine around the given strategy.
// A nil strategy falls back to the deterministic grid strategy.
func NewEngine(s Strategy, hints Hints) *Engine {
	if s == nil {
		s = GridStrategy{}
	}
	return &Engine{strategy: s, hints: hints}
}

// Hints returns the engine's sizing parameters.
func (e *Engine) Hints() Hints { return e.hints }

// Compute positions every node and recenters the result so the bounding-box
// midpoint is the origin. An empty node list returns an empty map without
// invoking the strategy.
func (e *Engine) Compute(ctx context.Context, nodes []graph.Node, dagEdges []graph.Edge) (map[string]Point, error) {
	if len(nodes) == 0 {
		return map[string]Point{}, nil
	}

	pos, err := e.strategy.Positions(ctx, nodes, dagEdges, e.hints)
	if err != nil {
		return nil, err
	}

	Center(pos)
	return pos, nil
}

// Center translates all points so the midpoint of their bounding box is the
// origin. Empty maps are left untouched.
func Center(pos map[string]Point) {
	if len(pos) == 0 {
		return
	}

	first := true
	var minX, maxX, minY, maxY float64
	for _, p := range pos {
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	for id, p := range pos {
		pos[id] = Point{X: p.X - cx, Y: p.Y - cy}
	}
}

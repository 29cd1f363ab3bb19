package render

import (
	"strings"
	"testing"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/topology"
)

func sampleFrame(t *testing.T) Frame {
	t.Helper()
	vis := topology.VisibleGraph{
		Nodes: []graph.Node{
			{ID: "root", Type: graph.TypeAgent, Label: "Planner", CallCount: 4},
			{ID: "tool", Type: graph.TypeTool},
		},
		DAGEdges:  []graph.Edge{{From: "root", To: "tool"}},
		BackEdges: []graph.Edge{{From: "tool", To: "root"}},
	}
	pos := map[string]layout.Point{
		"root": {X: -100, Y: 0},
		"tool": {X: 100, Y: 0},
	}
	return BuildFrame(vis, pos, layout.DefaultHints(), 0)
}

func TestBuildFrame(t *testing.T) {
	f := sampleFrame(t)

	if len(f.Nodes) != 2 || len(f.Edges) != 1 || len(f.Arcs) != 1 {
		t.Fatalf("frame = %d nodes, %d edges, %d arcs; want 2/1/1",
			len(f.Nodes), len(f.Edges), len(f.Arcs))
	}
	if len(f.Dashes) != len(f.Arcs) {
		t.Errorf("dashes = %d entries, want one per arc", len(f.Dashes))
	}
	if len(f.Dashes[0]) == 0 {
		t.Error("arc has no dash segments")
	}

	// Agent boxes are larger than tool boxes.
	if f.Nodes[0].W <= f.Nodes[1].W {
		t.Errorf("agent box %v not wider than tool box %v", f.Nodes[0].W, f.Nodes[1].W)
	}
}

func TestBuildFrame_SkipsUnpositionedNodes(t *testing.T) {
	vis := topology.VisibleGraph{
		Nodes:    []graph.Node{{ID: "a"}, {ID: "missing"}},
		DAGEdges: []graph.Edge{{From: "a", To: "missing"}},
	}
	f := BuildFrame(vis, map[string]layout.Point{"a": {}}, layout.DefaultHints(), 0)

	if len(f.Nodes) != 1 {
		t.Errorf("frame kept %d nodes, want 1", len(f.Nodes))
	}
	if len(f.Edges) != 0 {
		t.Errorf("frame kept edge with missing endpoint: %v", f.Edges)
	}
}

func TestFrame_Bounds(t *testing.T) {
	f := sampleFrame(t)

	minX, _, maxX, _ := f.Bounds()
	if minX >= -100 || maxX <= 100 {
		t.Errorf("bounds [%v, %v] do not enclose node extents", minX, maxX)
	}

	var empty Frame
	if x0, y0, x1, y1 := empty.Bounds(); x0 != 0 || y0 != 0 || x1 != 0 || y1 != 0 {
		t.Errorf("empty frame bounds = (%v,%v,%v,%v), want zeros", x0, y0, x1, y1)
	}
}

func TestRenderSVG(t *testing.T) {
	f := sampleFrame(t)

	svg := string(RenderSVG(f, WithMetrics()))

	for _, want := range []string{
		"<svg", "</svg>",
		`id="node-root"`, `id="node-tool"`,
		"<line", "<path", "<polygon",
		"Planner (4)", // metrics annotation
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("RenderSVG() missing %q", want)
		}
	}
}

func TestRenderSVG_WithoutArrows(t *testing.T) {
	svg := string(RenderSVG(sampleFrame(t), WithoutArrows()))

	if strings.Contains(svg, "<polygon") {
		t.Error("RenderSVG(WithoutArrows) still drew arrowheads")
	}
}

func TestRenderSVG_EscapesLabels(t *testing.T) {
	f := Frame{Nodes: []PlacedNode{{
		Node: graph.Node{ID: "x", Label: "a < b & c"},
		W:    100, H: 40,
	}}}

	svg := string(RenderSVG(f))

	if !strings.Contains(svg, "a &lt; b &amp; c") {
		t.Errorf("label not escaped:\n%s", svg)
	}
}

func TestRenderSVG_EscapesNodeIDs(t *testing.T) {
	f := Frame{Nodes: []PlacedNode{{
		Node: graph.Node{ID: `tool"a&b`, Label: "safe"},
		W:    100, H: 40,
	}}}

	svg := string(RenderSVG(f))

	if !strings.Contains(svg, `id="node-tool&quot;a&amp;b"`) {
		t.Errorf("node id not escaped:\n%s", svg)
	}
	if strings.Contains(svg, `id="node-tool"a&b"`) {
		t.Error("raw node id leaked into the id attribute")
	}
}

package render

import (
	"math"
	"testing"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
)

func pt(x, y float64) layout.Point { return layout.Point{X: x, Y: y} }

func TestBuildArcs_SkipsUnpositionedEndpoints(t *testing.T) {
	arcs := BuildArcs(
		[]graph.Edge{{From: "a", To: "ghost"}, {From: "a", To: "b"}},
		map[string]layout.Point{"a": pt(0, 0), "b": pt(100, 0)},
	)

	if len(arcs) != 1 {
		t.Fatalf("BuildArcs() = %d arcs, want 1", len(arcs))
	}
	if arcs[0].To != "b" {
		t.Errorf("kept arc = %v, want a→b", arcs[0])
	}
}

func TestBuildArcs_StaggerAlternatesSign(t *testing.T) {
	edges := []graph.Edge{
		{From: "a", To: "b"},
		{From: "a", To: "b"},
	}
	pos := map[string]layout.Point{"a": pt(0, 100), "b": pt(0, 0)}

	arcs := BuildArcs(edges, pos)
	if len(arcs) != 2 {
		t.Fatalf("BuildArcs() = %d arcs, want 2", len(arcs))
	}

	off0 := arcs[0].C1.Y - arcs[0].Start.Y
	off1 := arcs[1].C1.Y - arcs[1].Start.Y
	if off0*off1 >= 0 {
		t.Errorf("vertical control offsets share a sign: %v and %v", off0, off1)
	}
}

func TestBuildArcs_MagnitudeGrowsWithIndex(t *testing.T) {
	edges := make([]graph.Edge, 4)
	for i := range edges {
		edges[i] = graph.Edge{From: "a", To: "b"}
	}
	pos := map[string]layout.Point{"a": pt(0, 100), "b": pt(0, 0)}

	arcs := BuildArcs(edges, pos)

	m0 := math.Abs(arcs[0].C1.Y - arcs[0].Start.Y)
	m2 := math.Abs(arcs[2].C1.Y - arcs[2].Start.Y)
	if m2 <= m0 {
		t.Errorf("offset magnitude did not grow: index 0 = %v, index 2 = %v", m0, m2)
	}
}

func TestBuildArcs_RoutesLeftOfLowerEndpoint(t *testing.T) {
	// b is lower (larger Y); control x must sit left of b.
	arcs := BuildArcs(
		[]graph.Edge{{From: "b", To: "a"}},
		map[string]layout.Point{"a": pt(50, 0), "b": pt(80, 200)},
	)

	a := arcs[0]
	if a.C1.X >= 80 || a.C2.X >= 80 {
		t.Errorf("controls %v, %v not left of lower endpoint x=80", a.C1, a.C2)
	}
}

func TestArc_PointAtEndpoints(t *testing.T) {
	a := Arc{Start: pt(0, 0), C1: pt(10, 50), C2: pt(90, 50), End: pt(100, 0)}

	if got := a.PointAt(0); got != a.Start {
		t.Errorf("PointAt(0) = %v, want start", got)
	}
	if got := a.PointAt(1); got != a.End {
		t.Errorf("PointAt(1) = %v, want end", got)
	}
}

func TestArc_LengthAtLeastChord(t *testing.T) {
	a := Arc{Start: pt(0, 0), C1: pt(0, 100), C2: pt(100, 100), End: pt(100, 0)}

	if l := a.Length(); l < 100 {
		t.Errorf("Length() = %v, want ≥ chord length 100", l)
	}
}

func TestArc_ArrowheadOrientation(t *testing.T) {
	// Tangent at the end points straight right (C2 → End along +x), so the
	// arrowhead base must sit left of the tip.
	a := Arc{Start: pt(0, 0), C1: pt(0, 0), C2: pt(90, 0), End: pt(100, 0)}

	tri := a.Arrowhead()

	if tri[0] != a.End {
		t.Errorf("arrow tip = %v, want path end %v", tri[0], a.End)
	}
	if tri[1].X >= tri[0].X || tri[2].X >= tri[0].X {
		t.Errorf("arrow base %v, %v not behind tip %v", tri[1], tri[2], tri[0])
	}
	if tri[1].Y == tri[2].Y {
		t.Errorf("arrow base points coincide vertically: %v, %v", tri[1], tri[2])
	}
}

func TestDashSegments_ZeroPhaseStartsAtHead(t *testing.T) {
	segs := DashSegments(100, 8, 6, 0)

	if len(segs) == 0 {
		t.Fatal("DashSegments() returned nothing")
	}
	if segs[0].Start != 0 || segs[0].End != 8 {
		t.Errorf("first dash = %+v, want [0, 8]", segs[0])
	}
	for i := 1; i < len(segs); i++ {
		if gap := segs[i].Start - segs[i-1].End; math.Abs(gap-6) > 1e-9 {
			t.Errorf("gap between dashes %d and %d = %v, want 6", i-1, i, gap)
		}
	}
}

func TestDashSegments_PhaseShiftsPattern(t *testing.T) {
	// phase 0.07 on a 100-long path: offset = 7, inside the period of 14.
	segs := DashSegments(100, 8, 6, 0.07)

	if len(segs) < 2 {
		t.Fatalf("DashSegments() = %v, want several segments", segs)
	}
	// Wrapped dash covers the head: starts at 0, ends at 7-6=1.
	if segs[0].Start != 0 || math.Abs(segs[0].End-1) > 1e-9 {
		t.Errorf("wrapped dash = %+v, want [0, 1]", segs[0])
	}
	if math.Abs(segs[1].Start-7) > 1e-9 {
		t.Errorf("second dash starts at %v, want 7", segs[1].Start)
	}
}

func TestDashSegments_ClipsAtPathEnd(t *testing.T) {
	segs := DashSegments(10, 8, 6, 0)

	last := segs[len(segs)-1]
	if last.End > 10 {
		t.Errorf("dash extends past path end: %+v", last)
	}
}

func TestDashSegments_DegenerateInput(t *testing.T) {
	if segs := DashSegments(0, 8, 6, 0); segs != nil {
		t.Errorf("DashSegments(0 length) = %v, want nil", segs)
	}
	if segs := DashSegments(100, 0, 6, 0); segs != nil {
		t.Errorf("DashSegments(0 dash) = %v, want nil", segs)
	}
}

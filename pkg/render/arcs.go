package render

import (
	"math"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
)

// Arc geometry constants, in layout pixels.
const (
	arcLateral  = 60.0 // base distance the arc swings left of the lower endpoint
	arcSpacing  = 24.0 // extra offset per stacked arc pair
	arrowSize   = 10.0 // arrowhead edge length
	arcSamples  = 32   // segments used for arclength estimation
	DefaultDash = 8.0
	DefaultGap  = 6.0
)

// Arc is a renderable cubic curve for one visible back-edge. The curve
// routes to the left of the lower endpoint; stacked arcs alternate the sign
// of their vertical control offset by index parity, with magnitude growing
// every second index, so overlapping back-edges stay distinguishable.
type Arc struct {
	EdgeID string       `json:"edge_id,omitempty"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Index  int          `json:"index"`
	Start  layout.Point `json:"start"`
	C1     layout.Point `json:"c1"`
	C2     layout.Point `json:"c2"`
	End    layout.Point `json:"end"`
}

// BuildArcs produces one arc per back-edge, indexed in input order.
// Edges whose endpoints are missing from the position map are skipped - a
// transiently inconsistent frame renders without that arc rather than
// failing.
func BuildArcs(backEdges []graph.Edge, pos map[string]layout.Point) []Arc {
	arcs := make([]Arc, 0, len(backEdges))
	for _, e := range backEdges {
		start, okS := pos[e.From]
		end, okT := pos[e.To]
		if !okS || !okT {
			continue
		}
		idx := len(arcs)
		arcs = append(arcs, buildArc(e, start, end, idx))
	}
	return arcs
}

func buildArc(e graph.Edge, start, end layout.Point, idx int) Arc {
	lower := start
	if end.Y > lower.Y {
		lower = end
	}

	lateral := arcLateral + arcSpacing*float64(idx/2)
	vert := arcSpacing * float64(1+idx/2)
	if idx%2 == 1 {
		vert = -vert
	}

	cx := lower.X - lateral
	return Arc{
		EdgeID: e.ID,
		From:   e.From,
		To:     e.To,
		Index:  idx,
		Start:  start,
		C1:     layout.Point{X: cx, Y: start.Y + vert},
		C2:     layout.Point{X: cx, Y: end.Y + vert},
		End:    end,
	}
}

// PointAt evaluates the cubic Bezier at t ∈ [0, 1].
func (a Arc) PointAt(t float64) layout.Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return layout.Point{
		X: b0*a.Start.X + b1*a.C1.X + b2*a.C2.X + b3*a.End.X,
		Y: b0*a.Start.Y + b1*a.C1.Y + b2*a.C2.Y + b3*a.End.Y,
	}
}

// Length approximates the arclength by sampling the curve.
func (a Arc) Length() float64 {
	total := 0.0
	prev := a.Start
	for i := 1; i <= arcSamples; i++ {
		p := a.PointAt(float64(i) / arcSamples)
		total += math.Hypot(p.X-prev.X, p.Y-prev.Y)
		prev = p
	}
	return total
}

// Arrowhead returns the triangle at the arc's terminal point, oriented
// along the tangent there (the direction from the last control point to the
// endpoint). Degenerate tangents point right.
func (a Arc) Arrowhead() [3]layout.Point {
	dx := a.End.X - a.C2.X
	dy := a.End.Y - a.C2.Y
	n := math.Hypot(dx, dy)
	if n == 0 {
		dx, dy, n = 1, 0, 1
	}
	dx /= n
	dy /= n

	base := layout.Point{X: a.End.X - dx*arrowSize, Y: a.End.Y - dy*arrowSize}
	half := arrowSize / 2
	return [3]layout.Point{
		a.End,
		{X: base.X - dy*half, Y: base.Y + dx*half},
		{X: base.X + dy*half, Y: base.Y - dx*half},
	}
}

// DashSegment is one lit dash along a path, as arclength offsets from the
// path start.
type DashSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DashSegments computes the marching-ants overlay for a path of the given
// total length: dashes of length dash separated by gap, with the pattern
// shifted by phase ∈ [0, 1) of the total length. The first dash starts at
// (phase × total) mod (dash + gap), with the wrapped-around dash emitted so
// the head of the path stays lit as the pattern advances.
func DashSegments(total, dash, gap, phase float64) []DashSegment {
	if total <= 0 || dash <= 0 || gap < 0 {
		return nil
	}
	period := dash + gap

	start := math.Mod(phase*total, period)
	// Back up one period to cover [0, start) with the wrapped dash.
	start -= period

	var segs []DashSegment
	for s := start; s < total; s += period {
		a := math.Max(s, 0)
		b := math.Min(s+dash, total)
		if b > a {
			segs = append(segs, DashSegment{Start: a, End: b})
		}
	}
	return segs
}

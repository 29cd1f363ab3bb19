package render

import (
	"bytes"
	"fmt"

	"github.com/agentlens/agentlens/pkg/graph"
)

const svgMargin = 40.0

// node fill colors per type; unknown types share the "other" tint.
var typeFills = map[graph.NodeType]string{
	graph.TypeAgent:    "#dbeafe",
	graph.TypeSubAgent: "#e0e7ff",
	graph.TypeTool:     "#dcfce7",
	graph.TypeLLM:      "#fef3c7",
	graph.TypeUser:     "#fce7f3",
	graph.TypeOther:    "#f3f4f6",
}

// SVGOption configures the snapshot renderer.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	showMetrics bool
	showArrows  bool
}

// WithMetrics annotates node labels with call counts.
func WithMetrics() SVGOption { return func(r *svgRenderer) { r.showMetrics = true } }

// WithoutArrows suppresses back-edge arrowheads.
func WithoutArrows() SVGOption { return func(r *svgRenderer) { r.showArrows = false } }

// RenderSVG draws a static snapshot of the frame: node boxes, straight DAG
// edges, and dashed back-edge arcs with arrowheads. The viewBox is derived
// from the frame bounds plus a margin.
func RenderSVG(f Frame, opts ...SVGOption) []byte {
	r := svgRenderer{showArrows: true}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := f.Bounds()
	w := maxX - minX + 2*svgMargin
	h := maxY - minY + 2*svgMargin
	if w <= 2*svgMargin {
		w, h = 2*svgMargin, 2*svgMargin
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX-svgMargin, minY-svgMargin, w, h, w, h)

	for _, e := range f.Edges {
		fmt.Fprintf(&buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#9ca3af" stroke-width="1.5"/>`+"\n",
			e.Start.X, e.Start.Y, e.End.X, e.End.Y)
	}

	for _, a := range f.Arcs {
		fmt.Fprintf(&buf, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="#ef4444" stroke-width="1.5" stroke-dasharray="%.0f %.0f"/>`+"\n",
			a.Start.X, a.Start.Y, a.C1.X, a.C1.Y, a.C2.X, a.C2.Y, a.End.X, a.End.Y,
			DefaultDash, DefaultGap)
		if r.showArrows {
			tri := a.Arrowhead()
			fmt.Fprintf(&buf, `  <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="#ef4444"/>`+"\n",
				tri[0].X, tri[0].Y, tri[1].X, tri[1].Y, tri[2].X, tri[2].Y)
		}
	}

	for _, n := range f.Nodes {
		fill, ok := typeFills[n.Type]
		if !ok {
			fill = typeFills[graph.TypeOther]
		}
		fmt.Fprintf(&buf, `  <rect id="node-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="#374151"/>`+"\n",
			escapeXML(n.ID), n.X-n.W/2, n.Y-n.H/2, n.W, n.H, fill)
		label := n.DisplayLabel()
		if r.showMetrics && n.CallCount > 0 {
			label = fmt.Sprintf("%s (%d)", label, n.CallCount)
		}
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-size="12" font-family="sans-serif">%s</text>`+"\n",
			n.X, n.Y, escapeXML(label))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

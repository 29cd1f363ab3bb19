package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/agentlens/agentlens/pkg/graph"
)

// plainFormat asks graphviz for its line-oriented "plain" output, which
// carries one `node <name> <x> <y> <w> <h> ...` record per node with
// coordinates in inches.
const plainFormat = graphviz.Format("plain")

// pointsPerInch converts graphviz inches to layout pixels.
const pointsPerInch = 72.0

// GraphvizStrategy runs the dot layered-layout engine via goccy/go-graphviz
// and extracts raw node coordinates from its plain output.
type GraphvizStrategy struct{}

// Positions implements Strategy.
func (GraphvizStrategy) Positions(ctx context.Context, nodes []graph.Node, dagEdges []graph.Edge, hints Hints) (map[string]Point, error) {
	dot := ToDOT(nodes, dagEdges, hints)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	return parsePlain(buf.Bytes())
}

// ToDOT serializes the visible subgraph as Graphviz DOT source.
// Node boxes are fixed to the hint sizes so dot's spacing matches what the
// renderer will draw; back-edges must already be stripped from dagEdges.
func ToDOT(nodes []graph.Node, dagEdges []graph.Edge, hints Hints) string {
	dir := hints.Direction
	if dir == "" {
		dir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	fmt.Fprintf(&buf, "  ranksep=%.3f;\n", hints.RankSep/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.3f;\n", hints.NodeSep/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		s := hints.SizeFor(n.Type)
		fmt.Fprintf(&buf, "  %q [width=%.3f, height=%.3f];\n",
			n.ID, s.W/pointsPerInch, s.H/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, e := range dagEdges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// parsePlain extracts node positions from graphviz plain output.
// Format: "node name x y width height label style shape color fillcolor".
func parsePlain(out []byte) (map[string]Point, error) {
	pos := make(map[string]Point)

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "node ") {
			continue
		}
		fields := splitPlainFields(line)
		if len(fields) < 4 {
			continue
		}
		name := fields[1]
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("malformed plain record: %q", line)
		}
		pos[name] = Point{X: x * pointsPerInch, Y: y * pointsPerInch}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan plain output: %w", err)
	}
	return pos, nil
}

// splitPlainFields splits a plain-format line on spaces, honoring the
// double-quoting graphviz applies to names containing whitespace.
func splitPlainFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		case c == '\\' && inQuote && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

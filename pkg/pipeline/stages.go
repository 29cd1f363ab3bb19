package pipeline

import (
	"context"
	"encoding/json"

	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/render"
	"github.com/agentlens/agentlens/pkg/topology"
)

// ResolveVisible runs topology analysis and resolves the visible subgraph
// for the disclosure state in opts.
func ResolveVisible(g graph.Graph, opts Options) topology.VisibleGraph {
	res := topology.Analyze(g)

	expanded := make(map[string]bool, len(opts.ExpandIDs))
	if opts.ExpandAll {
		for _, n := range res.Nodes {
			expanded[n.ID] = true
		}
	} else {
		for _, id := range opts.ExpandIDs {
			expanded[id] = true
		}
	}
	return res.ResolveVisible(expanded)
}

// ComputeLayout computes node positions for a visible subgraph using the
// strategy named in opts.
func ComputeLayout(ctx context.Context, vis topology.VisibleGraph, opts Options) (map[string]layout.Point, error) {
	var strategy layout.Strategy
	switch opts.Strategy {
	case StrategyGrid:
		strategy = layout.GridStrategy{}
	default:
		strategy = layout.GraphvizStrategy{}
	}

	engine := layout.NewEngine(strategy, opts.Hints())
	pos, err := engine.Compute(ctx, vis.Nodes, vis.DAGEdges)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err,
			"computing %s layout for %d nodes", opts.Strategy, len(vis.Nodes))
	}
	return pos, nil
}

// RenderArtifacts renders the visible subgraph into every requested format.
func RenderArtifacts(vis topology.VisibleGraph, pos map[string]layout.Point, opts Options) (map[string][]byte, error) {
	frame := render.BuildFrame(vis, pos, opts.Hints(), opts.DashPhase)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case graph.FormatSVG:
			var svgOpts []render.SVGOption
			if opts.ShowMetrics {
				svgOpts = append(svgOpts, render.WithMetrics())
			}
			artifacts[format] = render.RenderSVG(frame, svgOpts...)
		case graph.FormatJSON:
			data, err := json.MarshalIndent(frame, "", "  ")
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encoding frame")
			}
			artifacts[format] = data
		case graph.FormatDOT:
			artifacts[format] = []byte(layout.ToDOT(vis.Nodes, vis.DAGEdges, opts.Hints()))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
		}
	}
	return artifacts, nil
}

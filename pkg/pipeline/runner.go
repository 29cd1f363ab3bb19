package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentlens/agentlens/pkg/cache"
	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/observability"
	"github.com/agentlens/agentlens/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete analyze → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{
		Stats: Stats{
			NodeCount: len(g.Nodes),
			EdgeCount: len(g.Edges),
		},
	}

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "encoding graph")
	}
	result.GraphHash = cache.Hash(graphData)

	// Stage 1: Analyze
	analyzeStart := time.Now()
	observability.Pipeline().OnAnalyzeStart(ctx, len(g.Nodes), len(g.Edges))
	vis, analyzeHit := r.resolveVisibleCached(ctx, g, result.GraphHash, opts)
	result.Visible = vis
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	result.Stats.VisibleNodes = len(vis.Nodes)
	result.Stats.BackEdgeCount = len(vis.BackEdges)
	result.CacheInfo.AnalyzeHit = analyzeHit
	observability.Pipeline().OnAnalyzeComplete(ctx, len(vis.BackEdges), result.Stats.AnalyzeTime, nil)

	r.Logger.Info("resolved visible subgraph",
		"nodes", len(vis.Nodes),
		"edges", len(vis.DAGEdges),
		"back_edges", len(vis.BackEdges),
		"duration", result.Stats.AnalyzeTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.Strategy, len(vis.Nodes))
	pos, layoutHit, err := r.LayoutWithCacheInfo(ctx, vis, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, opts.Strategy, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	result.Positions = pos
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"strategy", opts.Strategy,
		"positions", len(pos),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, vis, pos, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// resolveVisibleCached resolves the visible subgraph, serving from cache
// when possible. Analysis never fails, so no error is returned; a corrupt
// cache entry just falls through to recomputation.
func (r *Runner) resolveVisibleCached(ctx context.Context, g graph.Graph, graphHash string, opts Options) (topology.VisibleGraph, bool) {
	cacheKey := r.Keyer.TopologyKey(graphHash, opts.TopologyKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var vis topology.VisibleGraph
			if err := json.Unmarshal(data, &vis); err == nil {
				observability.Cache().OnCacheHit(ctx, "topo")
				return vis, true
			}
		}
		observability.Cache().OnCacheMiss(ctx, "topo")
	}

	vis := ResolveVisible(g, opts)

	if data, err := json.Marshal(vis); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTopology)
		observability.Cache().OnCacheSet(ctx, "topo", len(data))
	}
	return vis, false
}

// LayoutWithCacheInfo computes positions with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, vis topology.VisibleGraph, opts Options) (map[string]layout.Point, bool, error) {
	opts.SetLayoutDefaults()
	if err := ValidateStrategy(opts.Strategy); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	visData, err := json.Marshal(vis)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encoding visible subgraph")
	}
	visHash := cache.Hash(visData)
	cacheKey := r.Keyer.LayoutKey(visHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached map[string]layout.Point
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Corrupt entry, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	pos, err := ComputeLayout(ctx, vis, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(pos); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return pos, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, vis topology.VisibleGraph, opts Options) (map[string]layout.Point, error) {
	pos, _, err := r.LayoutWithCacheInfo(ctx, vis, opts)
	return pos, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, vis topology.VisibleGraph, pos map[string]layout.Point, opts Options) (map[string][]byte, bool, error) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// The artifact key hashes both the subgraph and its positions since
	// both feed the rendered frame.
	frameInput, err := json.Marshal(struct {
		Vis topology.VisibleGraph   `json:"vis"`
		Pos map[string]layout.Point `json:"pos"`
	}{vis, pos})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encoding frame input")
	}
	frameHash := cache.Hash(frameInput)

	// Try to get all formats from cache
	if !opts.Refresh {
		allCached := true
		artifacts := make(map[string][]byte)
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := RenderArtifacts(vis, pos, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, vis topology.VisibleGraph, pos map[string]layout.Point, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, vis, pos, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

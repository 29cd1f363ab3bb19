// Package pipeline provides the core visualization pipeline for AgentLens.
//
// This package implements the complete analyze → layout → render pipeline
// that can be used by CLI, API, and TUI components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Analyze: Classify edges, select roots, and resolve the visible
//     subgraph under the requested disclosure state
//  2. Layout: Compute node positions for the visible subgraph
//  3. Render: Generate output in various formats (SVG, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ExpandAll: true,
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentlens/agentlens/pkg/cache"
	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and TUI
// =============================================================================

const (
	// DefaultStrategy is the default layout strategy.
	DefaultStrategy = StrategyGraphviz

	// DefaultDirection is the default rank direction.
	DefaultDirection = "LR"
)

// Layout strategy names.
const (
	StrategyGraphviz = "graphviz"
	StrategyGrid     = "grid"
)

// ValidStrategies is the set of supported layout strategies.
var ValidStrategies = map[string]bool{
	StrategyGraphviz: true,
	StrategyGrid:     true,
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	graph.FormatSVG:  true,
	graph.FormatJSON: true,
	graph.FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Disclosure options
	ExpandIDs []string `json:"expand_ids,omitempty"` // Node ids whose children are revealed
	ExpandAll bool     `json:"expand_all,omitempty"` // Reveal the entire reachable graph

	// Layout options
	Strategy  string  `json:"strategy,omitempty"`
	Direction string  `json:"direction,omitempty"`
	RankSep   float64 `json:"rank_sep,omitempty"`
	NodeSep   float64 `json:"node_sep,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	ShowMetrics bool     `json:"show_metrics,omitempty"`
	DashPhase   float64  `json:"dash_phase,omitempty"` // Animation phase for back-edge dashes, in [0,1)

	// Refresh bypasses the cache for all stages.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Visible is the resolved visible subgraph.
	Visible topology.VisibleGraph

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Positions contains the computed node positions.
	Positions map[string]layout.Point

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int // Nodes in the input graph
	EdgeCount     int // Edges in the input graph
	VisibleNodes  int // Nodes in the visible subgraph
	BackEdgeCount int // Back edges in the visible subgraph
	AnalyzeTime   time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	AnalyzeHit bool // Whether the visible subgraph came from cache
	LayoutHit  bool // Whether positions came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks that a layout strategy is valid.
func ValidateStrategy(strategy string) error {
	if !ValidStrategies[strategy] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid strategy: %q (must be one of: graphviz, grid)", strategy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as
// calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, id := range o.ExpandIDs {
		if err := errors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{graph.FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Hints returns the layout hints derived from the options.
func (o *Options) Hints() layout.Hints {
	h := layout.DefaultHints()
	h.Direction = o.Direction
	if o.RankSep > 0 {
		h.RankSep = o.RankSep
	}
	if o.NodeSep > 0 {
		h.NodeSep = o.NodeSep
	}
	return h
}

// TopologyKeyOpts returns cache key options for the analyze stage.
// Expand ids are sorted so key generation is order-insensitive.
func (o *Options) TopologyKeyOpts() cache.TopologyKeyOpts {
	ids := slices.Clone(o.ExpandIDs)
	slices.Sort(ids)
	return cache.TopologyKeyOpts{
		ExpandIDs: ids,
		ExpandAll: o.ExpandAll,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Strategy:  o.Strategy,
		Direction: o.Direction,
		RankSep:   o.RankSep,
		NodeSep:   o.NodeSep,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		ShowMetrics: o.ShowMetrics,
		DashPhase:   o.DashPhase,
	}
}

// Package cache provides caching for expensive pipeline stages.
//
// The visualization pipeline has three cacheable stages, each keyed by a
// content hash of its input:
//   - Topology: cycle detection and root selection over a graph document
//   - Layout: node positions computed by the layout strategy
//   - Artifact: rendered output (SVG, JSON, DOT)
//
// Two implementations are provided: FileCache for CLI usage (entries on
// disk under the user's cache directory) and RedisCache for the server.
// NullCache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Topology and layout results are pure
// functions of their inputs so they keep long TTLs; artifacts embed
// style parameters that change more often.
const (
	TTLTopology = 30 * 24 * time.Hour
	TTLLayout   = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TopologyKeyOpts are the disclosure parameters that affect the visible
// subgraph derived from a topology analysis.
type TopologyKeyOpts struct {
	ExpandIDs []string `json:"expand_ids,omitempty"`
	ExpandAll bool     `json:"expand_all,omitempty"`
}

// LayoutKeyOpts are the layout parameters that affect node positions.
type LayoutKeyOpts struct {
	Strategy  string  `json:"strategy"`
	Direction string  `json:"direction,omitempty"`
	RankSep   float64 `json:"rank_sep,omitempty"`
	NodeSep   float64 `json:"node_sep,omitempty"`
}

// ArtifactKeyOpts are the rendering parameters that affect output bytes.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	ShowMetrics bool    `json:"show_metrics,omitempty"`
	DashPhase   float64 `json:"dash_phase,omitempty"`
}

// Keyer generates cache keys for pipeline stages. Keys incorporate the
// content hash of the stage input plus all options that influence the
// output, so a parameter change never serves a stale entry.
type Keyer interface {
	// TopologyKey generates a key for topology analysis results.
	TopologyKey(graphHash string, opts TopologyKeyOpts) string

	// LayoutKey generates a key for computed node positions.
	LayoutKey(topoHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for rendered artifacts.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TopologyKey generates a key for topology analysis results.
func (k *DefaultKeyer) TopologyKey(graphHash string, opts TopologyKeyOpts) string {
	return hashKey("topo", graphHash, opts)
}

// LayoutKey generates a key for computed node positions.
func (k *DefaultKeyer) LayoutKey(topoHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", topoHash, opts)
}

// ArtifactKey generates a key for rendered artifacts.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

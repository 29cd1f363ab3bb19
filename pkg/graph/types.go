package graph

import (
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeType classifies what a call-graph node represents.
type NodeType string

// Node types emitted by agent telemetry pipelines.
const (
	TypeAgent    NodeType = "agent"
	TypeSubAgent NodeType = "sub_agent"
	TypeTool     NodeType = "tool"
	TypeLLM      NodeType = "llm"
	TypeUser     NodeType = "user"
	TypeOther    NodeType = "other"
)

// Render formats for snapshot artifacts.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// =============================================================================
// Graph - Call Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for agent call graphs.
// Used for API payloads, storage, caching, and file import/export.
//
// A Graph is a snapshot: it may be partially inconsistent (edges referencing
// nodes that were removed between two telemetry records). Consumers are
// expected to degrade gracefully rather than reject such input.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// =============================================================================
// Node
// =============================================================================

// Node is one participant in the call graph: an agent, a tool, a model,
// or the human on the other end.
type Node struct {
	ID               string         `json:"id" bson:"id"`
	Label            string         `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	Type             NodeType       `json:"type,omitempty" bson:"type,omitempty"`
	IsRoot           bool           `json:"is_root,omitempty" bson:"is_root,omitempty"`
	IsUserEntryPoint bool           `json:"is_user_entry_point,omitempty" bson:"is_user_entry_point,omitempty"`
	CallCount        int            `json:"call_count,omitempty" bson:"call_count,omitempty"`
	ErrorCount       int            `json:"error_count,omitempty" bson:"error_count,omitempty"`
	TotalDurationMs  float64        `json:"total_duration_ms,omitempty" bson:"total_duration_ms,omitempty"`
	TokenCount       int            `json:"token_count,omitempty" bson:"token_count,omitempty"`
	Meta             map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// IsComposite reports whether the node can have callees worth disclosing
// (agents and sub-agents). Leaf types still accept edges; this only informs
// default sizing and iconography.
func (n *Node) IsComposite() bool {
	return n.Type == TypeAgent || n.Type == TypeSubAgent
}

// =============================================================================
// Edge
// =============================================================================

// Edge is one call relationship between two nodes. Multiple edges may share
// the same (From, To) pair; each occurrence is an independent record.
type Edge struct {
	ID           string         `json:"id,omitempty" bson:"id,omitempty"` // Synthetic instance id, assigned on import when absent
	From         string         `json:"from" bson:"from"`
	To           string         `json:"to" bson:"to"`
	CallCount    int            `json:"call_count,omitempty" bson:"call_count,omitempty"`
	AvgLatencyMs float64        `json:"avg_latency_ms,omitempty" bson:"avg_latency_ms,omitempty"`
	Meta         map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// =============================================================================
// Normalization
// =============================================================================

// Dedup returns a copy of the graph with duplicate node IDs removed.
// The first occurrence of each ID wins; edge records are left untouched.
func (g Graph) Dedup() Graph {
	seen := make(map[string]bool, len(g.Nodes))
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	return Graph{Nodes: nodes, Edges: g.Edges}
}

// EnsureEdgeIDs assigns a synthetic uuid to every edge without an ID, so
// parallel edges between the same node pair stay individually addressable.
// Edges that already carry an ID are left alone.
func (g *Graph) EnsureEdgeIDs() {
	for i := range g.Edges {
		if g.Edges[i].ID == "" {
			g.Edges[i].ID = uuid.NewString()
		}
	}
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

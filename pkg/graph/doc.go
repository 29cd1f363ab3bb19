// Package graph defines the serialization model for agent call graphs.
//
// A call graph is a snapshot of one agent execution: nodes are agents,
// sub-agents, tools, models, and user entry points; edges are the calls
// between them, annotated with runtime metrics. The format is JSON (with
// bson tags for the Mongo store) and is designed for round-trip fidelity:
// import → analyze → export → re-import produces identical results.
//
// Graphs arrive from live telemetry and may be transiently inconsistent.
// This package therefore normalizes rather than validates: ReadGraph
// deduplicates node IDs (first occurrence wins) and assigns synthetic
// instance IDs to edges, but never rejects a dangling edge - downstream
// analysis drops those silently.
package graph

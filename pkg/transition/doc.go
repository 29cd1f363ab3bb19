// Package transition interpolates between two visibility/layout snapshots
// of the call graph, producing temporally coherent intermediate frames when
// the user expands or collapses a node.
//
// Compute classifies every node as persisting, sprouting, or collapsing and
// fixes its interpolation endpoints once; PositionAt, OpacityAt, and
// VisibleAt are then pure reads parameterized by progress t ∈ [0, 1]. The
// host owns the animation clock and drives t forward; this package knows
// nothing about wall time, easing curves, or render trees.
package transition

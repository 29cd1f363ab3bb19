// Package layout positions visible call-graph nodes in 2D.
//
// The hierarchical algorithm itself lives behind the Strategy interface;
// the shipped implementations are GraphvizStrategy (the dot layered engine
// via goccy/go-graphviz) and GridStrategy (a deterministic pure-Go
// longest-path grid). The Engine wrapper owns what the strategies do not:
// it short-circuits empty input and recenters raw coordinates so every
// returned position map has its bounding-box midpoint at the origin.
//
// Callers must pass DAG edges only. Feeding cyclic edges into a layered
// algorithm produces degenerate layouts, so cycle removal (pkg/topology) is
// a hard precondition that is not re-validated here.
package layout

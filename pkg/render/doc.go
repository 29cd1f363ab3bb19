// Package render turns visible subgraphs and position maps into paintable
// artifacts: back-edge arc descriptors (cubic control geometry with
// collision-avoiding stagger, marching-ants dash segmentation, arrowhead
// triangles), assembled Frame values for JSON consumers, and a static SVG
// snapshot sink.
//
// The geometry here is purely downstream of pkg/topology and pkg/layout:
// it reads back-edge sets and positions, never graphs. Hosts that animate
// supply the dash phase each tick; the snapshot sink freezes it at zero.
package render

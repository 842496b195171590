// Package geometry lays out parallel edges and self-loops of a multigraph so
// they do not draw on top of each other.
//
// Edges connecting the same two nodes, in either direction, form a group
// keyed by the unordered endpoint pair. The pair is ordered with a numeric,
// locale-aware collation, so "Node2" comes before "Node10". Within a group,
// input order is the tie-break: the first edge is the one renderers show when
// curves are switched off, and rotations are numbered in that order.
//
//	out := geometry.Resolve(g)
//	e, _ := out.Edge("l1")
//	fmt.Println(e.Curve, e.Rotation, e.IsFirstLink)
//
// Geometry depends only on graph structure. Overlay and focus changes never
// require resolving again.
package geometry

// Package multigraph provides the directed multigraph behind the graph
// attribute engine.
//
// A [MultiGraph] is built once per network dataset with [Build] and never
// changes structure afterwards. It keeps nodes and edges in input order,
// indexes them by id and key for O(1) lookup, and tracks undirected
// adjacency for neighborhood queries.
//
// # Attributes
//
// Every node carries [NodeAttrs] and every edge [EdgeAttrs]. Three
// resolvers write disjoint fields on a clone of the graph:
//
//   - geometry: Curve, Rotation, IsFirstLink
//   - overlay: FC, Err
//   - focus: SubgraphVis (nodes and edges)
//
// Because the fields are disjoint, each resolver can be re-run alone when
// only its own trigger changes.
//
// # Errors
//
// [Build] rejects malformed input instead of dropping data:
//
//	g, err := multigraph.Build(ds.Nodes, ds.Links)
//	if errors.Is(err, multigraph.ErrDanglingReference) {
//	    // a link names an unknown node
//	}
package multigraph

// Package focus computes the neighborhood visibility mask for a focused node.
//
// Focusing on a node shows only its neighbors: nodes joined to it by an edge
// in either direction. The focused node itself stays hidden unless it has a
// self-loop, and an edge is shown only when both of its endpoints are shown.
// So the focused node's own edges disappear along with it.
package focus

import (
	"errors"

	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
)

// ErrFocusNodeNotFound is returned by [Resolve] when the focus id names no
// node. It is recoverable: the graph returned alongside it is unfocused.
var ErrFocusNodeNotFound = errors.New("focus node not found")

// None is the focus id meaning "no focus".
const None = ""

// Resolve returns a clone of g with SubgraphVis set on every node and edge.
//
// With nodeID == None every entity is visible. For an unknown nodeID the
// result is the same as for None and the error wraps ErrFocusNodeNotFound.
// Only SubgraphVis is written.
func Resolve(g *multigraph.MultiGraph, nodeID string) (*multigraph.MultiGraph, error) {
	if nodeID == None {
		return showAll(g), nil
	}
	if !g.HasNode(nodeID) {
		return showAll(g), perrors.Wrap(perrors.ErrCodeFocusNodeNotFound, ErrFocusNodeNotFound, "node %q", nodeID)
	}

	shown := Neighborhood(g, nodeID)
	out := g.Clone()
	out.UpdateNodes(func(n multigraph.Node) multigraph.NodeAttrs {
		n.SubgraphVis = shown[n.ID]
		return n.NodeAttrs
	})
	out.UpdateEdges(func(_ int, e multigraph.Edge) multigraph.EdgeAttrs {
		e.SubgraphVis = shown[e.Source] && shown[e.Target]
		return e.EdgeAttrs
	})
	return out, nil
}

// Neighborhood returns the set of node ids adjacent to nodeID in either
// direction. nodeID is in the set only if it has a self-loop.
func Neighborhood(g *multigraph.MultiGraph, nodeID string) map[string]bool {
	ns := g.Neighbors(nodeID)
	set := make(map[string]bool, len(ns))
	for _, id := range ns {
		set[id] = true
	}
	return set
}

func showAll(g *multigraph.MultiGraph) *multigraph.MultiGraph {
	out := g.Clone()
	out.UpdateNodes(func(n multigraph.Node) multigraph.NodeAttrs {
		n.SubgraphVis = true
		return n.NodeAttrs
	})
	out.UpdateEdges(func(_ int, e multigraph.Edge) multigraph.EdgeAttrs {
		e.SubgraphVis = true
		return e.EdgeAttrs
	})
	return out
}

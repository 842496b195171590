package multigraph

import (
	"errors"
	"slices"

	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/network"
)

var (
	// ErrInvalidIdentity is returned by [Build] when a node id or link key
	// is empty. The empty string is reserved as "no focus".
	ErrInvalidIdentity = errors.New("identity must not be empty")

	// ErrDuplicateIdentity is returned by [Build] when two nodes share an id
	// or two links share a key.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrDanglingReference is returned by [Build] when a link's source or
	// target does not name a node in the dataset.
	ErrDanglingReference = errors.New("dangling reference")
)

// NodeAttrs holds the derived attributes the engine attaches to a node.
type NodeAttrs struct {
	SubgraphVis bool `json:"subgraphVis"`
}

// EdgeAttrs holds the derived attributes the engine attaches to an edge.
// Geometry fields are written by the geometry resolver, FC/Err by the overlay
// merger and SubgraphVis by the focus resolver. The three sets are disjoint.
type EdgeAttrs struct {
	Curve       float64  `json:"curve"`
	Rotation    float64  `json:"rotation"`
	IsFirstLink bool     `json:"isFirstLink"`
	SubgraphVis bool     `json:"subgraphVis"`
	FC          *float64 `json:"fc"`
	Err         *float64 `json:"err"`
}

// HasFoldChange reports whether a measurement was merged onto the edge.
func (a EdgeAttrs) HasFoldChange() bool { return a.FC != nil }

// Node is a network node together with its derived attributes.
type Node struct {
	network.Node
	NodeAttrs
}

// Edge is a network link with resolved endpoint ids and derived attributes.
type Edge struct {
	Key                       string `json:"key"`
	Source                    string `json:"source"`
	Target                    string `json:"target"`
	SubstratePhosphosite      string `json:"substratePhosphosite"`
	EffectCode                string `json:"effectCode"`
	FullPhosphorylationEffect string `json:"fullPhosphorylationEffect"`
	EdgeAttrs
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// MultiGraph is a directed multigraph that permits parallel edges and
// self-loops. Nodes are keyed by id and edges by their own key; both keep
// insertion order, which is part of the tie-break contract for geometry.
//
// Structure is fixed once Build returns; only attribute records change.
// The zero value is not usable - use [Build] or [New].
// MultiGraph is not safe for concurrent mutation. Resolvers never mutate
// their input; they clone and return the clone.
type MultiGraph struct {
	nodes     []Node
	edges     []Edge
	nodeIndex map[string]int      // node id -> position in nodes
	edgeIndex map[string]int      // edge key -> position in edges
	neighbors map[string][]string // node id -> undirected neighbor ids, deduplicated
	adjacent  map[[2]string]struct{}
}

// New creates an empty multigraph. It is equivalent to Build(nil, nil).
func New() *MultiGraph {
	return &MultiGraph{
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string]int),
		neighbors: make(map[string][]string),
		adjacent:  make(map[[2]string]struct{}),
	}
}

// Build converts a raw node/link list into a multigraph.
//
// Node and link attributes are copied verbatim; derived attributes start at
// their zero values except SubgraphVis, which starts true everywhere.
// Build fails on the first malformed entity:
//
//   - ErrInvalidIdentity for an empty node id or link key
//   - ErrDuplicateIdentity for a repeated node id or link key
//   - ErrDanglingReference for a link endpoint that names no node
//
// The returned errors carry the matching pkg/errors code and the offending
// identity, and still match the sentinels via errors.Is.
func Build(nodes []network.Node, links []network.Link) (*MultiGraph, error) {
	g := New()
	g.nodes = make([]Node, 0, len(nodes))
	g.edges = make([]Edge, 0, len(links))

	for _, n := range nodes {
		if err := g.addNode(n); err != nil {
			return nil, err
		}
	}
	for _, l := range links {
		if err := g.addLink(l); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *MultiGraph) addNode(n network.Node) error {
	if n.ID == "" {
		return perrors.Wrap(perrors.ErrCodeInvalidIdentity, ErrInvalidIdentity, "node with empty id")
	}
	if _, exists := g.nodeIndex[n.ID]; exists {
		return perrors.Wrap(perrors.ErrCodeDuplicateIdentity, ErrDuplicateIdentity, "node id %q", n.ID)
	}
	g.nodeIndex[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, Node{Node: n, NodeAttrs: NodeAttrs{SubgraphVis: true}})
	return nil
}

func (g *MultiGraph) addLink(l network.Link) error {
	if l.Key == "" {
		return perrors.Wrap(perrors.ErrCodeInvalidIdentity, ErrInvalidIdentity, "link with empty key")
	}
	if _, exists := g.edgeIndex[l.Key]; exists {
		return perrors.Wrap(perrors.ErrCodeDuplicateIdentity, ErrDuplicateIdentity, "link key %q", l.Key)
	}
	src, dst := l.Source.String(), l.Target.String()
	if _, ok := g.nodeIndex[src]; !ok {
		return perrors.Wrap(perrors.ErrCodeDanglingReference, ErrDanglingReference, "link %q source %q", l.Key, src)
	}
	if _, ok := g.nodeIndex[dst]; !ok {
		return perrors.Wrap(perrors.ErrCodeDanglingReference, ErrDanglingReference, "link %q target %q", l.Key, dst)
	}

	g.edgeIndex[l.Key] = len(g.edges)
	g.edges = append(g.edges, Edge{
		Key:                       l.Key,
		Source:                    src,
		Target:                    dst,
		SubstratePhosphosite:      l.SubstratePhosphosite,
		EffectCode:                l.EffectCode,
		FullPhosphorylationEffect: l.FullPhosphorylationEffect,
		EdgeAttrs:                 EdgeAttrs{SubgraphVis: true},
	})
	g.addNeighbor(src, dst)
	if src != dst {
		g.addNeighbor(dst, src)
	}
	return nil
}

func (g *MultiGraph) addNeighbor(id, other string) {
	pair := [2]string{id, other}
	if _, ok := g.adjacent[pair]; ok {
		return
	}
	g.adjacent[pair] = struct{}{}
	g.neighbors[id] = append(g.neighbors[id], other)
}

// Clone returns a copy whose attribute records can be changed without
// affecting g. The structural indices are shared, since no operation
// changes structure after Build.
func (g *MultiGraph) Clone() *MultiGraph {
	return &MultiGraph{
		nodes:     slices.Clone(g.nodes),
		edges:     slices.Clone(g.edges),
		nodeIndex: g.nodeIndex,
		edgeIndex: g.edgeIndex,
		neighbors: g.neighbors,
		adjacent:  g.adjacent,
	}
}

// Node returns the node with the given id in O(1).
func (g *MultiGraph) Node(id string) (Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Edge returns the edge with the given key in O(1).
func (g *MultiGraph) Edge(key string) (Edge, bool) {
	i, ok := g.edgeIndex[key]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// HasNode reports whether id names a node.
func (g *MultiGraph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Nodes returns a copy of all nodes in insertion order.
func (g *MultiGraph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *MultiGraph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *MultiGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *MultiGraph) EdgeCount() int { return len(g.edges) }

// Neighbors returns the ids of nodes joined to id by an edge in either
// direction, in first-seen order. A node with a self-loop is its own
// neighbor. The returned slice must not be modified.
func (g *MultiGraph) Neighbors(id string) []string { return g.neighbors[id] }

// UpdateNodes calls fn for every node in insertion order and stores the
// attributes it returns.
func (g *MultiGraph) UpdateNodes(fn func(n Node) NodeAttrs) {
	for i := range g.nodes {
		g.nodes[i].NodeAttrs = fn(g.nodes[i])
	}
}

// UpdateEdges calls fn for every edge in insertion order and stores the
// attributes it returns.
func (g *MultiGraph) UpdateEdges(fn func(i int, e Edge) EdgeAttrs) {
	for i := range g.edges {
		g.edges[i].EdgeAttrs = fn(i, g.edges[i])
	}
}

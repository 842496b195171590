// Package forcegraph exports an attributed graph as the {nodes, links} JSON
// document that force-directed graph renderers consume.
//
// Every link carries both the resolved attributes (curve, rotation,
// isFirstLink, fc, err, subgraphVis) and the values derived from them under
// the current render options, so a renderer can draw without recomputing.
package forcegraph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/render"
)

// Document is the exported graph.
type Document struct {
	Generation string         `json:"generation,omitempty"`
	Focus      string         `json:"focus,omitempty"`
	Options    render.Options `json:"options"`
	Nodes      []Node         `json:"nodes"`
	Links      []Link         `json:"links"`
}

// Node is a node with its visibility and hover label.
type Node struct {
	multigraph.Node
	Visible bool   `json:"visible"`
	Label   string `json:"label"`
}

// Link is an edge with its drawing values.
type Link struct {
	multigraph.Edge
	Curvature   float64 `json:"curvature"`
	Visible     bool    `json:"visible"`
	Width       float64 `json:"width"`
	Particles   float64 `json:"particles"`
	ArrowLength float64 `json:"arrowLength"`
	Label       string  `json:"label"`
}

// Export builds the document for g under opts. Hidden entities are included
// with Visible false; renderers filter them.
func Export(g *multigraph.MultiGraph, opts render.Options) Document {
	nodes := g.Nodes()
	edges := g.Edges()

	doc := Document{
		Options: opts,
		Nodes:   make([]Node, len(nodes)),
		Links:   make([]Link, len(edges)),
	}
	for i, n := range nodes {
		doc.Nodes[i] = Node{
			Node:    n,
			Visible: render.NodeVisible(n),
			Label:   render.NodeLabel(n),
		}
	}
	for i, e := range edges {
		doc.Links[i] = Link{
			Edge:        e,
			Curvature:   render.Curvature(e, opts),
			Visible:     render.LinkVisible(e, opts),
			Width:       render.LinkWidth(e),
			Particles:   render.Particles(e),
			ArrowLength: render.ArrowLength,
			Label:       render.LinkLabel(g, e),
		}
	}
	return doc
}

// JSON returns d as indented JSON.
func (d Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode force graph: %w", err)
	}
	return data, nil
}

// Write encodes the document for g as indented JSON.
func Write(w io.Writer, g *multigraph.MultiGraph, opts render.Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g, opts)); err != nil {
		return fmt.Errorf("encode force graph: %w", err)
	}
	return nil
}

// Marshal returns the indented JSON document for g.
func Marshal(g *multigraph.MultiGraph, opts render.Options) ([]byte, error) {
	return Export(g, opts).JSON()
}

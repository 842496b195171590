// Package nodelink renders attributed interaction networks as static
// node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz. It is
// the offline counterpart of the interactive force-graph view: only visible
// nodes and edges are drawn, kinases appear as boxes, and edge pen width
// follows the merged fold change.
//
// # Usage
//
// Convert an attributed graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(snap.Graph, nodelink.Options{Options: render.DefaultOptions()})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

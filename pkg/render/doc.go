// Package render turns resolved graph attributes into drawing values.
//
// The engine computes structural attributes once per trigger. This package
// applies the viewer's settings to them: curve scaling, which edges to draw,
// edge width and particle counts from fold changes, and hover labels.
//
//	opts := render.DefaultOptions()
//	for _, e := range snap.Graph.Edges() {
//	    if !render.LinkVisible(e, opts) {
//	        continue
//	    }
//	    draw(e, render.Curvature(e, opts), e.Rotation, render.LinkWidth(e))
//	}
//
// Output formats live in subpackages:
//   - [forcegraph]: {nodes, links} JSON for force-directed renderers
//   - [nodelink]: Graphviz DOT and SVG
//
// [ToPDF] and [ToPNG] convert SVG output with rsvg-convert.
//
// [forcegraph]: github.com/matzehuels/phosphograph/pkg/render/forcegraph
// [nodelink]: github.com/matzehuels/phosphograph/pkg/render/nodelink
package render

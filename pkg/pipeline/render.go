package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/render/forcegraph"
	"github.com/matzehuels/phosphograph/pkg/render/nodelink"
)

// Render generates output artifacts for g in the requested formats.
// The DOT source is produced once and shared by every Graphviz format.
func Render(ctx context.Context, g *multigraph.MultiGraph, opts Options) (map[string][]byte, error) {
	ro := opts.renderOptions()

	var dot string
	if opts.NeedsGraphviz() || slices.Contains(opts.Formats, FormatDOT) {
		dot = nodelink.ToDOT(g, nodelink.Options{Options: ro, Detailed: opts.Detailed})
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			doc := forcegraph.Export(g, ro)
			doc.Focus = opts.Focus
			data, err = doc.JSON()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	render.Options

	// Detailed adds the site, effect and fold change to edge labels.
	// When false, edges are drawn without labels.
	Detailed bool
}

// ToDOT converts the visible part of an attributed graph to Graphviz DOT.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Kinases are drawn as filled boxes, other proteins as ellipses. Edge pen
// width follows the fold change; up-regulated edges are solid, down-regulated
// dashed. Hidden nodes and edges are omitted.
func ToDOT(g *multigraph.MultiGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !render.NodeVisible(n) {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !render.LinkVisible(e, opts.Options) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e, opts), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n multigraph.Node) []string {
	label := n.Name
	if label == "" {
		label = n.ID
	}
	attrs := []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("tooltip=%q", render.NodeLabel(n))}
	if n.IsKinase {
		attrs = append(attrs, "shape=box", "fillcolor=\"#F0B648\"")
	} else {
		attrs = append(attrs, "shape=ellipse")
	}
	return attrs
}

func edgeAttrs(e multigraph.Edge, opts Options) []string {
	attrs := []string{
		fmt.Sprintf("id=%q", e.Key),
		fmt.Sprintf("penwidth=%s", strconv.FormatFloat(render.LinkWidth(e), 'f', 2, 64)),
	}
	if e.HasFoldChange() && *e.FC < 0 {
		attrs = append(attrs, "style=dashed")
	}
	if opts.Detailed {
		attrs = append(attrs, fmt.Sprintf("label=%q", edgeLabel(e)))
	}
	return attrs
}

func edgeLabel(e multigraph.Edge) string {
	parts := []string{e.SubstratePhosphosite}
	if e.EffectCode != "" {
		parts = append(parts, e.EffectCode)
	}
	if e.HasFoldChange() {
		parts = append(parts, "FC "+render.FormatFC(*e.FC))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

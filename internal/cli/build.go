package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/pipeline"
	"github.com/matzehuels/phosphograph/pkg/render"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	network   string  // catalog entry, when no file is given
	overlay   string  // measurements file
	focus     string  // focus node id or name
	output    string  // output file (single format) or base path (multiple)
	formats   string  // comma-separated formats
	curve     float64 // curve amount in percent
	selfLoops bool    // draw self-loops
	detailed  bool    // edge labels in DOT-based formats
	scale     float64 // PNG scale
	noCache   bool
	refresh   bool
}

// buildCommand creates the build command: dataset in, artifacts out.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{
		curve:     render.DefaultOptions().CurveAmount,
		selfLoops: true,
		scale:     pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "build [dataset]",
		Short: "Attribute a network and write json, dot, svg, pdf or png",
		Long: `Build loads a kinase-substrate network, resolves parallel-edge geometry,
merges an optional fold-change overlay and focus, and writes the requested
artifacts. Without a dataset argument the configured default network is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runBuild(cmd, path, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.network, "network", "n", "", "network name from the config catalog")
	cmd.Flags().StringVar(&opts.overlay, "overlay", "", "fold-change measurements (JSON)")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "focus node id or name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&opts.curve, "curve", opts.curve, "curve amount in percent (0-100)")
	cmd.Flags().BoolVar(&opts.selfLoops, "self-loops", opts.selfLoops, "draw self-loops")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with site, effect and fold change (dot, svg, pdf, png)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// renderOptions starts from the configured render settings and applies
// any flags the user set explicitly.
func (c *CLI) renderOptions(cmd *cobra.Command, curve float64, selfLoops bool) *render.Options {
	ro := c.settings().Render
	if cmd.Flags().Changed("curve") {
		ro.CurveAmount = curve
	}
	if cmd.Flags().Changed("self-loops") {
		ro.ShowSelfLoops = selfLoops
	}
	return &ro
}

func (c *CLI) runBuild(cmd *cobra.Command, path string, opts *buildOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	name, file, err := c.dataset(path, opts.network)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Network:     name,
		DatasetPath: file,
		OverlayPath: opts.overlay,
		Refresh:     opts.refresh,
		Formats:     parseFormats(opts.formats),
		Render:      c.renderOptions(cmd, opts.curve, opts.selfLoops),
		Detailed:    opts.detailed,
		Scale:       opts.scale,
		Logger:      logger,
	}
	if opts.focus != "" {
		id, err := c.resolveFocus(ctx, runner, popts, opts.focus)
		if err != nil {
			return err
		}
		popts.Focus = id
	}

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Building %s...", name))
	spin.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		if spin.Cancelled() {
			spin.StopWithError(fmt.Sprintf("Build of %s cancelled", name))
		} else {
			spin.Stop()
		}
		return err
	}
	spin.Stop()
	prog.done("Built "+name, "formats", strings.Join(popts.Formats, ","), "cached", result.CacheInfo.RenderHit)

	p := newPrinter(cmd.OutOrStdout())
	p.success("Built %s", StyleHighlight.Render(name))
	p.stats(result.Stats, result.CacheInfo.RenderHit)
	if ov := result.Stats.Overlay; ov.Entries > 0 {
		p.detail("overlay: %d entries, %d exact, %d pan-specific, %d unmatched",
			ov.Entries, ov.Exact, ov.Fallback, ov.Unmatched)
	}
	if popts.Focus != "" {
		p.detail("focus: %s (%d visible nodes)", popts.Focus, result.Stats.VisibleNodes)
	}

	base := basePath(opts.output, file)
	for _, format := range popts.Formats {
		out := base + "." + format
		if len(popts.Formats) == 1 && opts.output != "" {
			out = opts.output
		}
		if err := writeArtifact(out, result.Artifacts[format]); err != nil {
			return err
		}
		p.file(out)
	}

	if !slices.Contains(popts.Formats, pipeline.FormatSVG) {
		p.nextStep("Render as SVG", fmt.Sprintf("%s build %s -f svg", appName, file))
	}
	return nil
}

// resolveFocus accepts a node id or an unambiguous node name.
func (c *CLI) resolveFocus(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, query string) (string, error) {
	snap, _, err := runner.Attribute(ctx, popts)
	if err != nil {
		return "", err
	}
	return resolveNode(snap.Graph, query)
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input and appends
// "_graph" so a JSON artifact never overwrites a JSON dataset.
// If output has a format extension (.svg, .dot, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input)) + "_graph"
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

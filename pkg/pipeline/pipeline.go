// Package pipeline runs the phosphograph build pipeline: load a network,
// attribute it and render it.
//
// This package implements the load → attribute → render pipeline shared by
// the CLI and the HTTP server, so both produce identical artifacts for the
// same inputs.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the network dataset and the optional overlay dataset
//  2. Attribute: Build the multigraph and resolve geometry, overlay and focus
//     through an [engine.Engine]
//  3. Render: Generate output in the requested formats (JSON, DOT, SVG, PDF, PNG)
//
// Rendered artifacts are cached under a key derived from the content hashes
// of the inputs, so a repeated build with unchanged files skips rendering.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DatasetPath: "kinase_network.json",
//	    OverlayPath: "fold_changes.json",
//	    Focus:       "P06493",
//	    Formats:     []string{"json", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/engine"
	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/render"
)

// DefaultScale is the PNG rasterization scale.
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Network     string `json:"network,omitempty"` // display name; defaults to the dataset path
	DatasetPath string `json:"dataset_path"`
	OverlayPath string `json:"overlay_path,omitempty"`
	Focus       string `json:"focus,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`

	// Render options
	Formats  []string        `json:"formats,omitempty"`
	Render   *render.Options `json:"render,omitempty"`   // nil uses render.DefaultOptions
	Detailed bool            `json:"detailed,omitempty"` // edge labels in DOT-based formats
	Scale    float64         `json:"scale,omitempty"`    // PNG only

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the attributed graph the artifacts were rendered from.
	Snapshot *engine.Snapshot

	// GraphKey identifies the attributed graph in the cache.
	GraphKey string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	VisibleNodes int
	Overlay      OverlayStats
	LoadTime     time.Duration
	RenderTime   time.Duration
}

// OverlayStats summarizes how the overlay matched.
type OverlayStats struct {
	Entries   int
	Exact     int
	Fallback  int
	Unmatched int
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills unset fields. It is idempotent.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Render == nil {
		def := render.DefaultOptions()
		o.Render = &def
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Network == "" {
		o.Network = o.DatasetPath
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks required fields, formats and render options.
func (o *Options) Validate() error {
	if o.DatasetPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "dataset path is required")
	}
	return o.ValidateForRender()
}

// ValidateForRender checks the options that shape artifacts. It does not
// require a dataset path, so an already attributed graph can be rendered.
func (o *Options) ValidateForRender() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	if o.Render == nil {
		return nil
	}
	return o.Render.Validate()
}

// ValidateAndSetDefaults applies defaults and validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

// NeedsGraphviz reports whether any requested format goes through Graphviz.
func (o *Options) NeedsGraphviz() bool {
	return slices.ContainsFunc(o.Formats, func(f string) bool {
		return f == FormatSVG || f == FormatPDF || f == FormatPNG
	})
}

// GraphKeyOpts returns cache key options for the attributed graph.
func (o *Options) GraphKeyOpts(overlayHash string) cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		OverlayHash: overlayHash,
		Focus:       o.Focus,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	ro := o.renderOptions()
	opts := cache.ArtifactKeyOpts{
		Format:        format,
		CurveAmount:   ro.CurveAmount,
		ShowSelfLoops: ro.ShowSelfLoops,
	}
	if format != FormatJSON {
		opts.Detailed = o.Detailed
	}
	return opts
}

func (o *Options) renderOptions() render.Options {
	if o.Render == nil {
		return render.DefaultOptions()
	}
	return *o.Render
}

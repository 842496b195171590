package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/engine"
	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
	"github.com/matzehuels/phosphograph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL applies to rendered artifacts. Zero uses cache.TTLArtifact.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → attribute → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1 and 2: Load and attribute
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.DatasetPath)
	snap, graphKey, err := r.Attribute(ctx, opts)
	nodes := 0
	if snap != nil {
		nodes = snap.Graph.NodeCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.DatasetPath, nodes, time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Snapshot = snap
	result.GraphKey = graphKey
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = snap.Graph.NodeCount()
	result.Stats.EdgeCount = snap.Graph.EdgeCount()
	result.Stats.VisibleNodes = snap.VisibleNodes()
	result.Stats.Overlay = OverlayStats{
		Entries:   snap.OverlayStats.Entries,
		Exact:     snap.OverlayStats.Exact,
		Fallback:  snap.OverlayStats.Fallback,
		Unmatched: snap.OverlayStats.Unmatched,
	}

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, snap.Graph, graphKey, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Attribute loads the dataset and overlay named in opts and runs them
// through a fresh engine. It returns the attributed snapshot and the cache
// key identifying it.
//
// An unknown focus node is not an error: the snapshot is unfocused and a
// warning is logged.
func (r *Runner) Attribute(ctx context.Context, opts Options) (*engine.Snapshot, string, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	dsData, err := readInput(opts.DatasetPath, "network")
	if err != nil {
		return nil, "", err
	}
	ds, err := network.ReadDataset(bytes.NewReader(dsData))
	if err != nil {
		return nil, "", err
	}

	var ms []network.Measurement
	var overlayHash string
	if opts.OverlayPath != "" {
		data, err := readInput(opts.OverlayPath, "overlay")
		if err != nil {
			return nil, "", err
		}
		if ms, err = network.ReadMeasurements(bytes.NewReader(data)); err != nil {
			return nil, "", err
		}
		overlayHash = cache.Hash(data)
	}

	eng := engine.New(opts.Logger)
	snap, err := eng.LoadDataset(ctx, opts.Network, ds)
	if err != nil {
		return nil, "", err
	}
	if ms != nil {
		snap = eng.SetOverlay(ctx, ms)
	}
	if opts.Focus != "" {
		// Engine.Focus logs unknown nodes and returns an unfocused snapshot.
		snap, _ = eng.Focus(ctx, opts.Focus)
	}

	key := r.Keyer.GraphKey(cache.Hash(dsData), opts.GraphKeyOpts(overlayHash))
	return snap, key, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// graphKey identifies g; artifacts are keyed beneath it per format and
// render settings.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *multigraph.MultiGraph, graphKey string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(graphKey, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				r.Logger.Warn("cache read failed", "format", format, "err", err)
			}
			if !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	rendered, err := Render(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(graphKey, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLArtifact
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func readInput(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s %s", kind, path)
		}
		return nil, fmt.Errorf("read %s %s: %w", kind, path, err)
	}
	return data, nil
}

// Package pkg provides the core libraries for phosphograph, a graph attribute
// engine for kinase-substrate phosphorylation networks.
//
// # Overview
//
// A network is a directed multigraph: proteins are nodes, phosphorylation
// events are edges, and two proteins may be joined by several edges (one per
// phosphosite) as well as by self-loops. Before such a graph can be drawn,
// every edge needs a geometry that keeps parallel edges apart, optional
// fold-change measurements need to be merged onto edges, and a focus node
// may restrict what is shown. The pkg directory is organized into:
//
//  1. [network] - Raw dataset and measurement types with JSON codecs
//  2. [multigraph] - The keyed multigraph and its attribute records
//  3. [geometry], [overlay], [focus] - The three attribute resolvers
//  4. [engine] - Snapshot state machine driven by dataset, overlay and focus triggers
//  5. [render] - Drawing values, labels and exporters (forcegraph JSON, Graphviz)
//  6. [pipeline] - Load → attribute → render with artifact caching
//  7. [server] - HTTP API over one engine
//
// # Architecture
//
// The data flow through phosphograph:
//
//	Dataset JSON ──► [multigraph.Build]
//	                      ↓
//	              [geometry.Resolve]   curve, rotation, isFirstLink
//	                      ↓
//	              [overlay.Apply]      fc, err  ◄── measurements JSON
//	                      ↓
//	              [focus.Resolve]      subgraphVis
//	                      ↓
//	              [engine.Snapshot] ──► forcegraph JSON / DOT / SVG / PDF / PNG
//
// Each resolver writes a disjoint set of attributes and returns a clone, so
// a change to one input recomputes only the stages downstream of it.
//
// # Quick Start
//
//	ds, _ := network.ReadDataset(f)
//	eng := engine.New(logger)
//	snap, err := eng.LoadDataset(ctx, "kinases", ds)
//	if err != nil {
//	    return err // duplicate or dangling ids
//	}
//	snap = eng.SetOverlay(ctx, measurements)
//	snap, _ = eng.Focus(ctx, "P06493")
//	doc := forcegraph.Export(snap.Graph, render.DefaultOptions())
//
// Or in one step, with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DatasetPath: "kinases.json",
//	    OverlayPath: "fc.json",
//	    Focus:       "P06493",
//	    Formats:     []string{"json", "svg"},
//	})
//
// # Supporting Packages
//
// [cache] - Artifact cache with file, redis and null backends.
//
// [config] - TOML configuration: network catalog, render defaults, cache and
// server settings.
//
// [errors] - Coded errors shared by every layer; the server maps codes to
// HTTP statuses.
//
// [observability] - Hook interfaces for engine, pipeline, cache and HTTP
// events; [observability/prom] implements them with Prometheus metrics.
//
// [search] - Case-insensitive node search for focus selection.
//
// [buildinfo] - Version information set via ldflags.
//
// # Testing
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/geometry/...     # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [network]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/network
// [multigraph]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/multigraph
// [multigraph.Build]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/multigraph#Build
// [geometry]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/geometry
// [geometry.Resolve]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/geometry#Resolve
// [overlay]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/overlay
// [overlay.Apply]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/overlay#Apply
// [focus]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/focus
// [focus.Resolve]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/focus#Resolve
// [engine]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/engine
// [engine.Snapshot]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/engine#Snapshot
// [render]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/observability/prom
// [search]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/search
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/phosphograph/pkg/buildinfo
package pkg

// Package engine owns the current attributed graph and applies the three
// recomputation triggers: dataset change, overlay change and focus change.
//
// Every trigger produces a new immutable [Snapshot]; readers holding an older
// snapshot are never affected. Triggers are serialized by the engine, so
// callers may invoke them from any goroutine.
//
// # Lifecycle
//
//	eng := engine.New(logger)
//	eng.LoadDataset(ctx, "kinases", ds)    // geometry, current overlay, focus reset
//	eng.SetOverlay(ctx, measurements)     // fc/err only
//	eng.Focus(ctx, "P06493")              // subgraphVis only
//	snap := eng.Snapshot()
//
// A dataset load starts a new generation. Focus requests computed against an
// older generation can be submitted with [Engine.FocusGeneration], which
// rejects them with ErrStaleGeneration instead of applying neighbor sets from
// a different network.
package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/focus"
	"github.com/matzehuels/phosphograph/pkg/geometry"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
	"github.com/matzehuels/phosphograph/pkg/observability"
	"github.com/matzehuels/phosphograph/pkg/overlay"
)

// ErrStaleGeneration is returned when a focus request names a generation
// that has been replaced by a newer dataset load.
var ErrStaleGeneration = errors.New("stale generation")

// Snapshot is one fully attributed graph state. Snapshots are immutable:
// callers must not call the Update methods on Graph.
type Snapshot struct {
	// Generation identifies the dataset load this snapshot descends from.
	Generation string

	// Network is the name the dataset was loaded under.
	Network string

	// Graph carries geometry, overlay and focus attributes.
	Graph *multigraph.MultiGraph

	// Focus is the focused node id, or empty when unfocused.
	Focus string

	// Overlay is the merged measurement set, nil when no overlay is loaded.
	Overlay []network.Measurement

	// OverlayStats summarizes the last overlay merge.
	OverlayStats overlay.Stats

	// UpdatedAt is when this snapshot was produced.
	UpdatedAt time.Time
}

// HasOverlay reports whether a measurement set is merged.
func (s *Snapshot) HasOverlay() bool { return s.Overlay != nil }

// VisibleNodes counts nodes with SubgraphVis set.
func (s *Snapshot) VisibleNodes() int {
	n := 0
	for _, node := range s.Graph.Nodes() {
		if node.SubgraphVis {
			n++
		}
	}
	return n
}

// Engine serializes triggers and publishes snapshots.
type Engine struct {
	mu       sync.Mutex
	current  *Snapshot
	resolver *geometry.Resolver
	logger   *log.Logger
}

// New creates an engine holding an empty network. A nil logger discards
// output.
func New(logger *log.Logger) *Engine {
	return NewWithResolver(logger, nil)
}

// NewWithResolver creates an engine that lays out edges with r.
// A nil r uses the default collation.
func NewWithResolver(logger *log.Logger, r *geometry.Resolver) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if r == nil {
		r = geometry.NewResolver(nil)
	}
	return &Engine{
		current: &Snapshot{
			Generation: uuid.NewString(),
			Graph:      multigraph.New(),
			UpdatedAt:  time.Now(),
		},
		resolver: r,
		logger:   logger,
	}
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Generation returns the id of the current dataset generation.
func (e *Engine) Generation() string {
	return e.Snapshot().Generation
}

// =============================================================================
// Dataset Trigger
// =============================================================================

// LoadDataset replaces the network. The new graph gets fresh geometry, the
// current overlay is merged onto it and focus is reset.
//
// A malformed dataset is rejected with a fatal error and the previous
// snapshot stays current.
func (e *Engine) LoadDataset(ctx context.Context, name string, ds network.Dataset) (*Snapshot, error) {
	start := time.Now()
	g, err := multigraph.Build(ds.Nodes, ds.Links)
	if err != nil {
		observability.Engine().OnDatasetLoaded(ctx, "", len(ds.Nodes), len(ds.Links), time.Since(start), err)
		e.logger.Error("rejected dataset", "network", name, "err", err)
		return nil, err
	}
	g = e.resolver.Resolve(g)

	e.mu.Lock()
	defer e.mu.Unlock()

	ms := e.current.Overlay
	g, stats := overlay.Apply(g, ms)

	next := &Snapshot{
		Generation:   uuid.NewString(),
		Network:      name,
		Graph:        g,
		Overlay:      ms,
		OverlayStats: stats,
		UpdatedAt:    time.Now(),
	}
	prevFocus := e.current.Focus
	e.current = next

	elapsed := time.Since(start)
	observability.Engine().OnDatasetLoaded(ctx, next.Generation, g.NodeCount(), g.EdgeCount(), elapsed, nil)
	e.logger.Info("loaded dataset",
		"network", name,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"generation", next.Generation,
		"duration", elapsed)
	if prevFocus != "" {
		e.logger.Debug("focus reset by dataset change", "previous", prevFocus)
	}
	return next, nil
}

// =============================================================================
// Overlay Trigger
// =============================================================================

// SetOverlay merges ms onto the current graph. A nil ms clears the overlay.
// The measurement set is kept and re-applied on later dataset loads.
func (e *Engine) SetOverlay(ctx context.Context, ms []network.Measurement) *Snapshot {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	g, stats := overlay.Apply(e.current.Graph, ms)
	next := e.derive(g)
	next.Overlay = ms
	next.OverlayStats = stats
	e.current = next

	elapsed := time.Since(start)
	observability.Engine().OnOverlayApplied(ctx, observability.OverlayCounts{
		Cleared:   stats.Cleared,
		Exact:     stats.Exact,
		Fallback:  stats.Fallback,
		Unmatched: stats.Unmatched,
	}, elapsed)
	if stats.Cleared {
		e.logger.Info("cleared overlay", "edges", g.EdgeCount())
	} else {
		e.logger.Info("applied overlay",
			"entries", stats.Entries,
			"exact", stats.Exact,
			"fallback", stats.Fallback,
			"unmatched", stats.Unmatched,
			"duration", elapsed)
	}
	return next
}

// ClearOverlay removes the overlay. It is equivalent to SetOverlay(ctx, nil).
func (e *Engine) ClearOverlay(ctx context.Context) *Snapshot {
	return e.SetOverlay(ctx, nil)
}

// =============================================================================
// Focus Trigger
// =============================================================================

// Focus restricts visibility to the neighborhood of nodeID. An empty nodeID
// clears focus.
//
// An unknown nodeID is recoverable: the returned snapshot is unfocused and
// the error wraps focus.ErrFocusNodeNotFound.
func (e *Engine) Focus(ctx context.Context, nodeID string) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focusLocked(ctx, nodeID)
}

// ClearFocus makes every node and edge visible.
func (e *Engine) ClearFocus(ctx context.Context) *Snapshot {
	snap, _ := e.Focus(ctx, focus.None)
	return snap
}

// FocusGeneration is Focus bound to a dataset generation. If the engine has
// loaded a newer dataset since generation was observed, the request is
// dropped and the current snapshot is returned with ErrStaleGeneration.
func (e *Engine) FocusGeneration(ctx context.Context, generation, nodeID string) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if generation != e.current.Generation {
		e.logger.Debug("dropped stale focus", "node", nodeID, "generation", generation, "current", e.current.Generation)
		return e.current, perrors.Wrap(perrors.ErrCodeStaleGeneration, ErrStaleGeneration, "generation %s", generation)
	}
	return e.focusLocked(ctx, nodeID)
}

func (e *Engine) focusLocked(ctx context.Context, nodeID string) (*Snapshot, error) {
	g, err := focus.Resolve(e.current.Graph, nodeID)
	next := e.derive(g)
	next.Focus = nodeID
	if err != nil {
		next.Focus = focus.None
	}
	e.current = next

	visible := next.VisibleNodes()
	observability.Engine().OnFocusChanged(ctx, nodeID, visible, err)
	switch {
	case err != nil:
		e.logger.Warn("focus node not found, showing full network", "node", nodeID)
	case nodeID == focus.None:
		e.logger.Debug("cleared focus")
	default:
		e.logger.Debug("focused", "node", nodeID, "visible", visible)
	}
	return next, err
}

// derive copies the current snapshot's identity onto a new graph. Callers
// hold e.mu.
func (e *Engine) derive(g *multigraph.MultiGraph) *Snapshot {
	cur := e.current
	return &Snapshot{
		Generation:   cur.Generation,
		Network:      cur.Network,
		Graph:        g,
		Focus:        cur.Focus,
		Overlay:      cur.Overlay,
		OverlayStats: cur.OverlayStats,
		UpdatedAt:    time.Now(),
	}
}

// Package overlay merges fold-change measurements onto multigraph edges.
//
// An edge is matched by its target node and substrate phosphosite. A
// measurement for exactly that site wins. Otherwise the first measurement
// for the target is used, preferring "Pan-specific" entries. Edges with no
// measurement for their target keep nil fc/err.
package overlay

import (
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
)

// Match describes how an edge's fold change was resolved.
type Match int

const (
	// Unmatched edges have no measurement for their target.
	Unmatched Match = iota
	// Fallback edges took the first measurement for their target.
	Fallback
	// Exact edges matched target and site.
	Exact
)

func (m Match) String() string {
	switch m {
	case Exact:
		return "exact"
	case Fallback:
		return "fallback"
	default:
		return "unmatched"
	}
}

// Stats summarizes one Apply call.
type Stats struct {
	Cleared   bool // measurements were nil
	Entries   int  // measurements considered
	Exact     int
	Fallback  int
	Unmatched int
}

// Matched returns the number of edges that received a fold change.
func (s Stats) Matched() int { return s.Exact + s.Fallback }

type siteKey struct {
	target, site string
}

// Index resolves edges against a measurement set in O(1) per edge.
type Index struct {
	byTarget map[string]network.Measurement
	bySite   map[siteKey]network.Measurement
	size     int
}

// NewIndex builds a lookup index over ms. ms is not modified.
//
// Pan-specific entries are considered before all others; among entries of
// the same kind, earlier input wins.
func NewIndex(ms []network.Measurement) *Index {
	idx := &Index{
		byTarget: make(map[string]network.Measurement),
		bySite:   make(map[siteKey]network.Measurement, len(ms)),
		size:     len(ms),
	}
	for _, m := range prioritize(ms) {
		if _, ok := idx.byTarget[m.TargetID]; !ok {
			idx.byTarget[m.TargetID] = m
		}
		k := siteKey{m.TargetID, m.Site}
		if _, ok := idx.bySite[k]; !ok {
			idx.bySite[k] = m
		}
	}
	return idx
}

// prioritize returns a copy of ms with Pan-specific entries first. The
// partition is stable.
func prioritize(ms []network.Measurement) []network.Measurement {
	out := make([]network.Measurement, 0, len(ms))
	for _, m := range ms {
		if m.IsPanSpecific() {
			out = append(out, m)
		}
	}
	for _, m := range ms {
		if !m.IsPanSpecific() {
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the measurement for an edge into target at site.
func (idx *Index) Lookup(target, site string) (network.Measurement, Match) {
	if m, ok := idx.bySite[siteKey{target, site}]; ok {
		return m, Exact
	}
	if m, ok := idx.byTarget[target]; ok {
		return m, Fallback
	}
	return network.Measurement{}, Unmatched
}

// Apply returns a clone of g with fc and err set from ms.
//
// A nil ms clears fc and err on every edge. An empty, non-nil ms is an
// uploaded dataset with no entries; it also leaves every edge unmatched.
// Only fc and err are written.
func Apply(g *multigraph.MultiGraph, ms []network.Measurement) (*multigraph.MultiGraph, Stats) {
	out := g.Clone()
	if ms == nil {
		out.UpdateEdges(func(_ int, e multigraph.Edge) multigraph.EdgeAttrs {
			e.FC, e.Err = nil, nil
			return e.EdgeAttrs
		})
		return out, Stats{Cleared: true, Unmatched: out.EdgeCount()}
	}

	idx := NewIndex(ms)
	stats := Stats{Entries: idx.size}
	out.UpdateEdges(func(_ int, e multigraph.Edge) multigraph.EdgeAttrs {
		m, match := idx.Lookup(e.Target, e.SubstratePhosphosite)
		switch match {
		case Exact:
			stats.Exact++
		case Fallback:
			stats.Fallback++
		default:
			stats.Unmatched++
			e.FC, e.Err = nil, nil
			return e.EdgeAttrs
		}
		fc, err := m.FC, m.Err
		e.FC, e.Err = &fc, &err
		return e.EdgeAttrs
	})
	return out, stats
}

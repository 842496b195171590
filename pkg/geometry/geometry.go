package geometry

import (
	"math"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
)

// Curve is the curvature assigned to parallel edges and self-loops.
const Curve = 0.5

// Resolve computes curve, rotation and isFirstLink for every edge of g using
// the default comparator. See [Resolver.Resolve].
func Resolve(g *multigraph.MultiGraph) *multigraph.MultiGraph {
	return NewResolver(nil).Resolve(g)
}

// Resolver attaches multi-edge geometry to a multigraph.
type Resolver struct {
	cmp *Comparator
}

// NewResolver returns a Resolver that groups and orients edges with cmp.
// A nil cmp uses [DefaultComparator].
func NewResolver(cmp *Comparator) *Resolver {
	if cmp == nil {
		cmp = defaultComparator
	}
	return &Resolver{cmp: cmp}
}

// Resolve returns a clone of g with geometry attached. g is not modified.
//
// Edges are grouped by their unordered endpoint pair. Within a group, input
// order decides numbering: the earliest edge is the first link, and the
// k-th edge (0-based) of a group of n gets rotation k/n·2π. An edge whose
// source sorts after its target is mirrored to π minus that value, so
// opposing edges bow to opposite sides. Groups of one get no curve.
// Self-loops always get [Curve]; their rotation follows the same rule.
//
// Only the geometry fields are written; fc, err and visibility pass through.
func (r *Resolver) Resolve(g *multigraph.MultiGraph) *multigraph.MultiGraph {
	out := g.Clone()
	edges := out.Edges()

	// Pass 1: group sizes.
	pairs := make([]Pair, len(edges))
	total := make(map[Pair]int, len(edges))
	for i, e := range edges {
		pairs[i] = r.cmp.Pair(e.Source, e.Target)
		total[pairs[i]]++
	}

	// Pass 2: position within group.
	seen := make(map[Pair]int, len(total))
	out.UpdateEdges(func(i int, e multigraph.Edge) multigraph.EdgeAttrs {
		p := pairs[i]
		numBefore := seen[p]
		seen[p]++

		attrs := e.EdgeAttrs
		attrs.IsFirstLink = numBefore == 0
		attrs.Curve, attrs.Rotation = 0, 0

		if n := total[p]; n > 1 {
			attrs.Curve = Curve
			attrs.Rotation = float64(numBefore) / float64(n) * 2 * math.Pi
			if r.cmp.Backwards(e.Source, e.Target) {
				attrs.Rotation = math.Pi - attrs.Rotation
			}
		}
		if e.IsSelfLoop() {
			attrs.Curve = Curve
		}
		return attrs
	})
	return out
}

// pairKey returns the display form of e's unordered pair key, e.g. "A_B".
func (r *Resolver) pairKey(e multigraph.Edge) string {
	return r.cmp.Pair(e.Source, e.Target).String()
}

// pairRotation expresses e's rotation in its pair's reference direction
// (Lo to Hi) instead of the edge's own direction, normalized to [0, 2π).
// Turning a curve by π around the axis flips the side it bows to, so a
// backwards edge drawn with rotation ρ in its own direction sits at ρ+π in
// the pair frame. Two edges overlap on screen only if their pair rotations
// coincide.
func (r *Resolver) pairRotation(e multigraph.Edge) float64 {
	rot := e.Rotation
	if r.cmp.Backwards(e.Source, e.Target) {
		rot += math.Pi
	}
	rot = math.Mod(rot, 2*math.Pi)
	if rot < 0 {
		rot += 2 * math.Pi
	}
	return rot
}

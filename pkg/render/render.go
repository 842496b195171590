package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
)

// =============================================================================
// Options - Render-Time Settings
// =============================================================================

const (
	// DefaultCurveAmount scales resolved curvature, in percent.
	DefaultCurveAmount = 50.0

	// SelfLoopCurvature is the minimum curvature of a self-loop, so loops
	// stay visible when curves are switched off.
	SelfLoopCurvature = 0.2

	// DefaultWidthFC stands in for fc when sizing edges with no measurement.
	DefaultWidthFC = 0.4

	// MinWidth keeps zero-fold-change edges clickable.
	MinWidth = 0.01

	// ParticleBase is the particle count of an edge with fc 0+.
	ParticleBase = 3.0

	// ArrowLength is the arrow head length passed to renderers.
	ArrowLength = 3.5
)

// Options controls how resolved attributes turn into drawing values.
type Options struct {
	// CurveAmount scales edge curvature, 0 to 100. At 0 only the first
	// edge of every parallel group is drawn.
	CurveAmount float64 `json:"curve_amount" toml:"curve_amount"`

	// ShowSelfLoops draws edges from a node to itself.
	ShowSelfLoops bool `json:"show_self_loops" toml:"show_self_loops"`
}

// DefaultOptions returns the settings the viewer starts with.
func DefaultOptions() Options {
	return Options{CurveAmount: DefaultCurveAmount, ShowSelfLoops: true}
}

// Validate checks that CurveAmount is a percentage.
func (o Options) Validate() error {
	if math.IsNaN(o.CurveAmount) || o.CurveAmount < 0 || o.CurveAmount > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "curve amount must be between 0 and 100, got %v", o.CurveAmount)
	}
	return nil
}

// =============================================================================
// Derived Values
// =============================================================================

// Curvature scales e.Curve by the curve amount. Self-loops never drop below
// SelfLoopCurvature.
func Curvature(e multigraph.Edge, o Options) float64 {
	c := e.Curve * o.CurveAmount / 100
	if e.IsSelfLoop() {
		return math.Max(c, SelfLoopCurvature)
	}
	return math.Max(c, 0)
}

// LinkVisible reports whether e is drawn. Hidden by focus, hidden
// self-loops, and non-first parallel edges without curvature are skipped;
// the last because they would draw exactly on top of the first.
func LinkVisible(e multigraph.Edge, o Options) bool {
	if !e.SubgraphVis {
		return false
	}
	if e.IsSelfLoop() && !o.ShowSelfLoops {
		return false
	}
	if o.CurveAmount > 0 {
		return true
	}
	return e.IsFirstLink || e.IsSelfLoop()
}

// NodeVisible reports whether n is drawn.
func NodeVisible(n multigraph.Node) bool { return n.SubgraphVis }

// LinkWidth is proportional to the absolute fold change.
func LinkWidth(e multigraph.Edge) float64 {
	fc := DefaultWidthFC
	if e.HasFoldChange() {
		fc = *e.FC
	}
	return math.Max(MinWidth, 2*math.Abs(fc))
}

// Particles returns the number of directional particles on e. Edges without
// a fold change, or with fc 0, have none; down-regulated edges get fewer.
func Particles(e multigraph.Edge) float64 {
	if !e.HasFoldChange() || *e.FC == 0 {
		return 0
	}
	return math.Max(0, ParticleBase+*e.FC)
}

// =============================================================================
// Labels
// =============================================================================

// NodeLabel returns the hover text for n.
//
//	CDK1
//	P06493: Cyclin-dependent kinase 1.
func NodeLabel(n multigraph.Node) string {
	return fmt.Sprintf("%s\n%s: %s.", n.Name, n.ID, n.Desc)
}

// LinkLabel returns the hover text for e. Endpoints are shown by name when
// g knows them.
//
//	CDK1 ⟶ TP53
//	Site: S315 Effect: +
//	FC: 1.25 ± 0.10
//	activity, induced.
func LinkLabel(g *multigraph.MultiGraph, e multigraph.Edge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ⟶ %s\n", displayName(g, e.Source), displayName(g, e.Target))
	fmt.Fprintf(&b, "Site: %s", e.SubstratePhosphosite)
	if e.EffectCode != "" {
		fmt.Fprintf(&b, " Effect: %s", e.EffectCode)
	}
	b.WriteByte('\n')
	if e.HasFoldChange() {
		fmt.Fprintf(&b, "FC: %s", FormatFC(*e.FC))
		if e.Err != nil {
			fmt.Fprintf(&b, " ± %.2f", *e.Err)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s.", e.FullPhosphorylationEffect)
	return b.String()
}

// FormatFC rounds a fold change to two decimals.
func FormatFC(fc float64) string {
	return fmt.Sprintf("%.2f", math.Round(fc*100)/100)
}

func displayName(g *multigraph.MultiGraph, id string) string {
	if g != nil {
		if n, ok := g.Node(id); ok && n.Name != "" {
			return n.Name
		}
	}
	return id
}

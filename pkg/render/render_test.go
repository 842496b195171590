package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
)

func ptr(f float64) *float64 { return &f }

func edgeWith(src, dst string, attrs multigraph.EdgeAttrs) multigraph.Edge {
	return multigraph.Edge{Key: "k", Source: src, Target: dst, EdgeAttrs: attrs}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		amount  float64
		wantErr bool
	}{
		{0, false},
		{50, false},
		{100, false},
		{-1, true},
		{101, true},
	}
	for _, tt := range tests {
		err := Options{CurveAmount: tt.amount}.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
		}
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestCurvature(t *testing.T) {
	tests := []struct {
		name   string
		edge   multigraph.Edge
		amount float64
		want   float64
	}{
		{"Parallel", edgeWith("A", "B", multigraph.EdgeAttrs{Curve: 0.5}), 50, 0.25},
		{"ParallelFull", edgeWith("A", "B", multigraph.EdgeAttrs{Curve: 0.5}), 100, 0.5},
		{"Straight", edgeWith("A", "B", multigraph.EdgeAttrs{}), 100, 0},
		{"SelfLoopFloor", edgeWith("A", "A", multigraph.EdgeAttrs{Curve: 0.5}), 0, SelfLoopCurvature},
		{"SelfLoopScaled", edgeWith("A", "A", multigraph.EdgeAttrs{Curve: 0.5}), 100, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Curvature(tt.edge, Options{CurveAmount: tt.amount}); got != tt.want {
				t.Errorf("Curvature = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkVisible(t *testing.T) {
	first := multigraph.EdgeAttrs{IsFirstLink: true, SubgraphVis: true}
	second := multigraph.EdgeAttrs{SubgraphVis: true}

	tests := []struct {
		name string
		edge multigraph.Edge
		opts Options
		want bool
	}{
		{"Curved", edgeWith("A", "B", second), Options{CurveAmount: 50}, true},
		{"StraightFirst", edgeWith("A", "B", first), Options{CurveAmount: 0}, true},
		{"StraightSecondHidden", edgeWith("A", "B", second), Options{CurveAmount: 0}, false},
		{"SelfLoopStraight", edgeWith("A", "A", second), Options{CurveAmount: 0, ShowSelfLoops: true}, true},
		{"SelfLoopOff", edgeWith("A", "A", first), Options{CurveAmount: 50}, false},
		{"FocusHidden", edgeWith("A", "B", multigraph.EdgeAttrs{IsFirstLink: true}), Options{CurveAmount: 50}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinkVisible(tt.edge, tt.opts); got != tt.want {
				t.Errorf("LinkVisible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkWidthAndParticles(t *testing.T) {
	tests := []struct {
		name      string
		fc        *float64
		width     float64
		particles float64
	}{
		{"NoMeasurement", nil, 0.8, 0},
		{"Zero", ptr(0), MinWidth, 0},
		{"Up", ptr(1.5), 3, 4.5},
		{"Down", ptr(-2), 4, 1},
		{"StronglyDown", ptr(-4), 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := edgeWith("A", "B", multigraph.EdgeAttrs{FC: tt.fc})
			if got := LinkWidth(e); got != tt.width {
				t.Errorf("LinkWidth = %v, want %v", got, tt.width)
			}
			if got := Particles(e); got != tt.particles {
				t.Errorf("Particles = %v, want %v", got, tt.particles)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	g, err := multigraph.Build(
		[]network.Node{
			{ID: "P06493", Name: "CDK1", Desc: "Cyclin-dependent kinase 1"},
			{ID: "P04637", Name: "TP53"},
		},
		[]network.Link{{Key: "l", Source: "P06493", Target: "P04637", SubstratePhosphosite: "S315", EffectCode: "+", FullPhosphorylationEffect: "activity, induced"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	n, _ := g.Node("P06493")
	if got, want := NodeLabel(n), "CDK1\nP06493: Cyclin-dependent kinase 1."; got != want {
		t.Errorf("NodeLabel = %q, want %q", got, want)
	}

	e, _ := g.Edge("l")
	got := LinkLabel(g, e)
	for _, want := range []string{"CDK1 ⟶ TP53", "Site: S315 Effect: +", "activity, induced."} {
		if !strings.Contains(got, want) {
			t.Errorf("LinkLabel missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "FC:") {
		t.Errorf("label without measurement shows FC:\n%s", got)
	}

	e.FC, e.Err = ptr(1.256), ptr(0.1)
	if got := LinkLabel(g, e); !strings.Contains(got, "FC: 1.26 ± 0.10") {
		t.Errorf("LinkLabel with fc:\n%s", got)
	}

	// Unknown endpoints fall back to ids.
	if got := LinkLabel(nil, e); !strings.HasPrefix(got, "P06493 ⟶ P04637") {
		t.Errorf("LinkLabel(nil) = %q", got)
	}
}

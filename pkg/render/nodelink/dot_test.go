package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/phosphograph/pkg/focus"
	"github.com/matzehuels/phosphograph/pkg/geometry"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
	"github.com/matzehuels/phosphograph/pkg/overlay"
	"github.com/matzehuels/phosphograph/pkg/render"
)

func testGraph(t *testing.T) *multigraph.MultiGraph {
	t.Helper()
	g, err := multigraph.Build(
		[]network.Node{
			{ID: "A", Name: "CDK1", IsKinase: true},
			{ID: "B", Name: "TP53"},
			{ID: "C"},
		},
		[]network.Link{
			{Key: "e1", Source: "A", Target: "B", SubstratePhosphosite: "S315", EffectCode: "+"},
			{Key: "e2", Source: "B", Target: "A"},
			{Key: "e3", Source: "A", Target: "C"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return geometry.Resolve(g)
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Options: render.DefaultOptions()})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, want := range []string{`"A" [label="CDK1"`, `"C" [label="C"`, `"A" -> "B"`, `"B" -> "A"`, `"A" -> "C"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s", want)
		}
	}
}

func TestToDOT_KinaseShape(t *testing.T) {
	g := testGraph(t)
	a, _ := g.Node("A")
	b, _ := g.Node("B")

	if !strings.Contains(strings.Join(nodeAttrs(a), " "), "shape=box") {
		t.Error("kinase should be a box")
	}
	if !strings.Contains(strings.Join(nodeAttrs(b), " "), "shape=ellipse") {
		t.Error("substrate should be an ellipse")
	}
}

func TestToDOT_HidesStackedParallelEdges(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Options: render.Options{CurveAmount: 0}})

	if strings.Contains(dot, `"B" -> "A"`) {
		t.Error("second parallel edge should be hidden without curvature")
	}
	if !strings.Contains(dot, `"A" -> "B"`) {
		t.Error("first parallel edge should stay visible")
	}
}

func TestToDOT_Focus(t *testing.T) {
	g, err := focus.Resolve(testGraph(t), "B")
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, Options{Options: render.DefaultOptions()})

	if !strings.Contains(dot, `"A" [`) {
		t.Error("neighbor A should be drawn")
	}
	if strings.Contains(dot, `"B" [`) || strings.Contains(dot, `"C" [`) {
		t.Error("focus node and non-neighbors should be omitted")
	}
	if strings.Contains(dot, "->") {
		t.Error("no edge has both endpoints among the neighbors")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g, _ := overlay.Apply(testGraph(t), []network.Measurement{{TargetID: "B", Site: "S315", FC: -1.5}})
	dot := ToDOT(g, Options{Options: render.DefaultOptions(), Detailed: true})

	if !strings.Contains(dot, `label="S315 + FC -1.50"`) {
		t.Errorf("detailed edge label missing:\n%s", dot)
	}
	if !strings.Contains(dot, "style=dashed") {
		t.Error("down-regulated edge should be dashed")
	}
	if !strings.Contains(dot, "penwidth=3.00") {
		t.Error("pen width should follow fold change")
	}
}

func TestEdgeLabel(t *testing.T) {
	e := multigraph.Edge{SubstratePhosphosite: "", EffectCode: ""}
	if got := edgeLabel(e); got != "" {
		t.Errorf("edgeLabel() empty edge = %q", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox() without viewBox changed input: %s", got)
	}
}

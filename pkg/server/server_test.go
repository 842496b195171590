package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/config"
	"github.com/matzehuels/phosphograph/pkg/engine"
	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/observability"
	"github.com/matzehuels/phosphograph/pkg/observability/prom"
	"github.com/matzehuels/phosphograph/pkg/pipeline"
	"github.com/matzehuels/phosphograph/pkg/render/forcegraph"
	"github.com/matzehuels/phosphograph/pkg/search"
)

const kinaseNetwork = `{
  "nodes": [
    {"id": "P06493", "name": "CDK1", "desc": "Cyclin-dependent kinase 1", "isKinase": true},
    {"id": "P04637", "name": "TP53", "desc": "Cellular tumor antigen p53"},
    {"id": "P28482", "name": "MAPK1", "desc": "Mitogen-activated protein kinase 1", "isKinase": true}
  ],
  "links": [
    {"key": "l1", "source": "P06493", "target": "P04637", "substratePhosphosite": "S15", "effectCode": "+", "fullPhosphorylationEffect": "activation"},
    {"key": "l2", "source": "P04637", "target": "P06493", "substratePhosphosite": "T18", "effectCode": "-", "fullPhosphorylationEffect": "inhibition"},
    {"key": "l3", "source": "P06493", "target": "P06493", "substratePhosphosite": "Y15"},
    {"key": "l4", "source": "P28482", "target": "P04637", "substratePhosphosite": "S46"}
  ]
}`

const smallNetwork = `{
  "nodes": [{"id": "A", "name": "AKT1"}, {"id": "B", "name": "GSK3B"}],
  "links": [{"key": "k", "source": "A", "target": "B", "substratePhosphosite": "S9"}]
}`

const duplicateNetwork = `{"nodes": [{"id": "A"}, {"id": "A"}], "links": []}`

const overlayData = `[
  {"targetid": "P04637", "site": "S15", "fc": 1.26, "err": 0.1},
  {"targetid": "P04637", "site": "Pan-specific", "fc": -0.5, "err": 0.2}
]`

type fixture struct {
	srv  *Server
	eng  *engine.Engine
	path string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kinases.json")
	if err := os.WriteFile(path, []byte(kinaseNetwork), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Networks = []config.Network{
		{Name: "kinases", Path: path},
		{Name: "missing", Path: filepath.Join(t.TempDir(), "nope.json")},
	}
	opts.Config = cfg
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	eng := engine.New(nil)
	return &fixture{srv: New(eng, opts), eng: eng, path: path}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) load(t *testing.T) Summary {
	t.Helper()
	rec := f.do(t, http.MethodPut, "/v1/network/kinases", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load network: %d %s", rec.Code, rec.Body)
	}
	return decode[Summary](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v\n%s", v, err, rec.Body)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code perrors.Code) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (%s)", rec.Code, status, rec.Body)
	}
	if got := decode[ErrorBody](t, rec).Error.Code; got != code {
		t.Errorf("code = %s, want %s", got, code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status   string  `json:"status"`
		Snapshot Summary `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Snapshot.Nodes != 0 || body.Snapshot.Generation == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestLoadNetwork(t *testing.T) {
	f := newFixture(t, Options{})

	sum := f.load(t)
	if sum.Network != "kinases" || sum.Nodes != 3 || sum.Edges != 4 || sum.VisibleNodes != 3 {
		t.Errorf("summary = %+v", sum)
	}

	assertError(t, f.do(t, http.MethodPut, "/v1/network/unknown", ""), http.StatusNotFound, perrors.ErrCodeNotFound)
	assertError(t, f.do(t, http.MethodPut, "/v1/network/missing", ""), http.StatusNotFound, perrors.ErrCodeFileNotFound)

	if got := f.eng.Snapshot().Network; got != "kinases" {
		t.Errorf("failed loads replaced the network: %q", got)
	}
}

func TestUploadDataset(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPut, "/v1/dataset?name=small", smallNetwork)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	first := decode[Summary](t, rec)
	if first.Network != "small" || first.Nodes != 2 {
		t.Errorf("summary = %+v", first)
	}

	assertError(t, f.do(t, http.MethodPut, "/v1/dataset", duplicateNetwork), http.StatusUnprocessableEntity, perrors.ErrCodeDuplicateIdentity)
	assertError(t, f.do(t, http.MethodPut, "/v1/dataset", "{not json"), http.StatusBadRequest, perrors.ErrCodeInvalidFormat)

	if got := f.eng.Generation(); got != first.Generation {
		t.Error("rejected upload replaced the snapshot")
	}
}

func TestGraphJSON(t *testing.T) {
	f := newFixture(t, Options{})
	sum := f.load(t)

	rec := f.do(t, http.MethodGet, "/v1/graph?curve=100", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(GenerationHeader); got != sum.Generation {
		t.Errorf("generation header = %q, want %q", got, sum.Generation)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	doc := decode[forcegraph.Document](t, rec)
	if len(doc.Nodes) != 3 || len(doc.Links) != 4 {
		t.Fatalf("document has %d nodes, %d links", len(doc.Nodes), len(doc.Links))
	}
	if doc.Options.CurveAmount != 100 {
		t.Errorf("curve override ignored: %+v", doc.Options)
	}
	for _, l := range doc.Links {
		if l.Key == "l2" && l.Curvature != 0.5 {
			t.Errorf("l2 curvature = %v, want 0.5", l.Curvature)
		}
	}
}

func TestGraphFormats(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(t, http.MethodGet, "/v1/graph?format=dot&self_loops=false", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	dot := rec.Body.String()
	if !strings.Contains(dot, `"P28482" -> "P04637"`) || strings.Contains(dot, `"P06493" -> "P06493"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}

	tests := []struct {
		name  string
		query string
	}{
		{"UnknownFormat", "format=gif"},
		{"CurveRange", "curve=150"},
		{"CurveNotNumber", "curve=lots"},
		{"SelfLoopsNotBool", "self_loops=maybe"},
		{"DetailedNotBool", "detailed=2x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, f.do(t, http.MethodGet, "/v1/graph?"+tt.query, ""), http.StatusBadRequest, perrors.ErrCodeInvalidInput)
		})
	}
}

func TestGraphCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{Runner: pipeline.NewRunner(c, nil, nil)})
	f.load(t)

	if got := f.do(t, http.MethodGet, "/v1/graph", "").Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first read X-Cache = %s", got)
	}
	if got := f.do(t, http.MethodGet, "/v1/graph", "").Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second read X-Cache = %s", got)
	}

	// Focus changes the attributed graph, so it must not be served stale.
	f.do(t, http.MethodPut, "/v1/focus/P28482", "")
	rec := f.do(t, http.MethodGet, "/v1/graph", "")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Error("focused graph served from the unfocused entry")
	}
	if doc := decode[forcegraph.Document](t, rec); doc.Focus != "P28482" {
		t.Errorf("focus = %q", doc.Focus)
	}
}

func TestOverlay(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(t, http.MethodPut, "/v1/overlay", overlayData)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	sum := decode[Summary](t, rec)
	want := OverlayState{Entries: 2, Exact: 1, Fallback: 1, Unmatched: 2}
	if sum.Overlay == nil || *sum.Overlay != want {
		t.Errorf("overlay = %+v, want %+v", sum.Overlay, want)
	}

	e := decode[EdgeResponse](t, f.do(t, http.MethodGet, "/v1/edges/l1", ""))
	if e.FC == nil || *e.FC != 1.26 || !strings.Contains(e.Label, "FC: 1.26 ± 0.10") {
		t.Errorf("l1 = %+v", e)
	}

	sum = decode[Summary](t, f.do(t, http.MethodDelete, "/v1/overlay", ""))
	if sum.Overlay != nil {
		t.Errorf("overlay after clear = %+v", sum.Overlay)
	}
	if e := decode[EdgeResponse](t, f.do(t, http.MethodGet, "/v1/edges/l1", "")); e.FC != nil {
		t.Error("fc survived overlay clear")
	}

	assertError(t, f.do(t, http.MethodPut, "/v1/overlay", `{"targetid": "x"}`), http.StatusBadRequest, perrors.ErrCodeInvalidFormat)
}

func TestFocus(t *testing.T) {
	f := newFixture(t, Options{})
	gen := f.load(t).Generation

	sum := decode[Summary](t, f.do(t, http.MethodPut, "/v1/focus/P28482?generation="+gen, ""))
	if sum.Focus != "P28482" || sum.VisibleNodes != 1 {
		t.Errorf("focused summary = %+v", sum)
	}

	assertError(t, f.do(t, http.MethodPut, "/v1/focus/Q99999", ""), http.StatusNotFound, perrors.ErrCodeFocusNodeNotFound)
	if snap := f.eng.Snapshot(); snap.Focus != "" || snap.VisibleNodes() != 3 {
		t.Errorf("unknown focus should fall back to the full network, got focus %q", snap.Focus)
	}

	f.do(t, http.MethodPut, "/v1/dataset", smallNetwork)
	assertError(t, f.do(t, http.MethodPut, "/v1/focus/A?generation="+gen, ""), http.StatusConflict, perrors.ErrCodeStaleGeneration)

	f.do(t, http.MethodPut, "/v1/focus/A", "")
	sum = decode[Summary](t, f.do(t, http.MethodDelete, "/v1/focus", ""))
	if sum.Focus != "" || sum.VisibleNodes != 2 {
		t.Errorf("cleared summary = %+v", sum)
	}
}

func TestNodeAndEdge(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	n := decode[NodeResponse](t, f.do(t, http.MethodGet, "/v1/nodes/P04637", ""))
	if n.Name != "TP53" || strings.Join(n.Neighbors, ",") != "P06493,P28482" {
		t.Errorf("node = %+v", n)
	}
	if !strings.HasPrefix(n.Label, "TP53\nP04637: ") {
		t.Errorf("label = %q", n.Label)
	}

	e := decode[EdgeResponse](t, f.do(t, http.MethodGet, "/v1/edges/l3", ""))
	if e.Source != "P06493" || e.Curvature != 0.25 || !e.Visible {
		t.Errorf("self-loop = %+v", e)
	}

	assertError(t, f.do(t, http.MethodGet, "/v1/nodes/nope", ""), http.StatusNotFound, perrors.ErrCodeNotFound)
	assertError(t, f.do(t, http.MethodGet, "/v1/edges/nope", ""), http.StatusNotFound, perrors.ErrCodeNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	results := decode[[]search.Result](t, f.do(t, http.MethodGet, "/v1/search?q=k1", ""))
	if len(results) != 2 || results[0].Name != "CDK1" || results[1].Name != "MAPK1" {
		t.Errorf("results = %+v", results)
	}
	if results := decode[[]search.Result](t, f.do(t, http.MethodGet, "/v1/search?q=k1&limit=1", "")); len(results) != 1 {
		t.Errorf("limit ignored: %+v", results)
	}
	if rec := f.do(t, http.MethodGet, "/v1/search?q=zzz", ""); strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty result body = %s", rec.Body)
	}
	assertError(t, f.do(t, http.MethodGet, "/v1/search?q=k&limit=-1", ""), http.StatusBadRequest, perrors.ErrCodeInvalidInput)
}

func TestNetworks(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	entries := decode[[]NetworkEntry](t, f.do(t, http.MethodGet, "/v1/networks", ""))
	if len(entries) != 2 || !entries[0].Current || entries[1].Current {
		t.Errorf("networks = %+v", entries)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom.New(reg).Install()
	t.Cleanup(observability.Reset)

	f := newFixture(t, Options{Gatherer: reg})
	f.load(t)
	f.do(t, http.MethodGet, "/v1/nodes/P04637", "")

	body := f.do(t, http.MethodGet, "/metrics", "").Body.String()
	for _, want := range []string{
		`phosphograph_http_requests_total{code="200",method="GET",route="/v1/nodes/{id}"} 1`,
		`phosphograph_dataset_nodes 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code perrors.Code
		want int
	}{
		{perrors.ErrCodeInvalidInput, http.StatusBadRequest},
		{perrors.ErrCodeInvalidFormat, http.StatusBadRequest},
		{perrors.ErrCodeDanglingReference, http.StatusUnprocessableEntity},
		{perrors.ErrCodeFocusNodeNotFound, http.StatusNotFound},
		{perrors.ErrCodeStaleGeneration, http.StatusConflict},
		{perrors.ErrCodeNetwork, http.StatusBadGateway},
		{perrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := StatusCode(perrors.New(tt.code, "x")); got != tt.want {
				t.Errorf("StatusCode = %d, want %d", got, tt.want)
			}
		})
	}
	if got := StatusCode(context.Canceled); got != http.StatusInternalServerError {
		t.Errorf("uncoded error = %d", got)
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t, Options{})
	first := f.load(t)
	ctx := context.Background()

	// Unchanged content is ignored.
	f.srv.reload(ctx, f.path)
	if f.eng.Generation() != first.Generation {
		t.Error("reload without changes started a new generation")
	}

	if err := os.WriteFile(f.path, []byte(duplicateNetwork), 0o644); err != nil {
		t.Fatal(err)
	}
	f.srv.reload(ctx, f.path)
	if f.eng.Generation() != first.Generation {
		t.Error("malformed file replaced the dataset")
	}

	if err := os.WriteFile(f.path, []byte(smallNetwork), 0o644); err != nil {
		t.Fatal(err)
	}
	f.srv.reload(ctx, filepath.Join(t.TempDir(), "other.json"))
	if f.eng.Generation() != first.Generation {
		t.Error("change to an unrelated file reloaded the dataset")
	}
	f.srv.reload(ctx, f.path)
	if snap := f.eng.Snapshot(); snap.Graph.NodeCount() != 2 || snap.Network != "kinases" {
		t.Errorf("reloaded snapshot: %d nodes, network %q", snap.Graph.NodeCount(), snap.Network)
	}
}

func TestReloadReportsRejection(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"IntegrityError", duplicateNetwork, "reload rejected"},
		{"PartialWrite", `{"nodes": [`, "reload failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := newFixture(t, Options{Logger: log.New(&buf)})
			first := f.load(t)

			if err := os.WriteFile(f.path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			f.srv.reload(context.Background(), f.path)
			if f.eng.Generation() != first.Generation {
				t.Error("bad file replaced the dataset")
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestSnapshotMatchesDatasetHash(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	hashes := map[int]string{
		3: cache.Hash([]byte(kinaseNetwork)),
		2: cache.Hash([]byte(smallNetwork)),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			data := kinaseNetwork
			if i%2 == 1 {
				data = smallNetwork
			}
			if _, err := f.srv.loadDataset(ctx, source{name: "upload", hash: cache.Hash([]byte(data))}, []byte(data)); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		snap, hash := f.srv.snapshot()
		if hash == "" {
			continue
		}
		if want := hashes[snap.Graph.NodeCount()]; hash != want {
			t.Errorf("snapshot with %d nodes paired with hash %s", snap.Graph.NodeCount(), hash)
			<-done
			return
		}
	}
}

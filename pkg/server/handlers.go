package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/engine"
	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/network"
	"github.com/matzehuels/phosphograph/pkg/pipeline"
	"github.com/matzehuels/phosphograph/pkg/render"
	"github.com/matzehuels/phosphograph/pkg/search"
)

// GenerationHeader carries the snapshot generation on graph responses.
const GenerationHeader = "X-Phosphograph-Generation"

// Summary describes a snapshot without its graph.
type Summary struct {
	Generation   string        `json:"generation"`
	Network      string        `json:"network"`
	Focus        string        `json:"focus,omitempty"`
	Nodes        int           `json:"nodes"`
	Edges        int           `json:"edges"`
	VisibleNodes int           `json:"visibleNodes"`
	Overlay      *OverlayState `json:"overlay,omitempty"`
}

// OverlayState reports how the current overlay matched.
type OverlayState struct {
	Entries   int `json:"entries"`
	Exact     int `json:"exact"`
	Fallback  int `json:"fallback"`
	Unmatched int `json:"unmatched"`
}

func summarize(snap *engine.Snapshot) Summary {
	sum := Summary{
		Generation:   snap.Generation,
		Network:      snap.Network,
		Focus:        snap.Focus,
		Nodes:        snap.Graph.NodeCount(),
		Edges:        snap.Graph.EdgeCount(),
		VisibleNodes: snap.VisibleNodes(),
	}
	if snap.HasOverlay() {
		st := snap.OverlayStats
		sum.Overlay = &OverlayState{Entries: st.Entries, Exact: st.Exact, Fallback: st.Fallback, Unmatched: st.Unmatched}
	}
	return sum
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"snapshot": summarize(s.engine.Snapshot()),
	})
}

// =============================================================================
// Graph Reads
// =============================================================================

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.graphOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, datasetHash := s.snapshot()
	opts.Focus = snap.Focus
	key := s.graphKey(snap, datasetHash, opts)

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), snap.Graph, key, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set(GenerationHeader, snap.Generation)
	w.Header().Set("X-Cache", map[bool]string{true: "HIT", false: "MISS"}[hit])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
}

// graphOptions reads format and render overrides from the query string.
func (s *Server) graphOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	ro := s.cfg.Render
	opts := pipeline.Options{
		Formats: []string{pipeline.FormatJSON},
		Render:  &ro,
	}
	if f := q.Get("format"); f != "" {
		if err := pipeline.ValidateFormat(f); err != nil {
			return opts, err
		}
		opts.Formats = []string{f}
	}
	if v := q.Get("curve"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "curve")
		}
		ro.CurveAmount = c
	}
	if v := q.Get("self_loops"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "self_loops")
		}
		ro.ShowSelfLoops = b
	}
	if v := q.Get("detailed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "detailed")
		}
		opts.Detailed = b
	}
	return opts, ro.Validate()
}

// snapshot returns the current snapshot with the content hash of the dataset
// it was built from. loadDataset swaps both under s.mu, so the pair is
// always consistent.
func (s *Server) snapshot() (*engine.Snapshot, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot(), s.current.hash
}

// graphKey identifies a snapshot's attributed graph by dataset content,
// overlay content and focus.
func (s *Server) graphKey(snap *engine.Snapshot, datasetHash string, opts pipeline.Options) string {
	if datasetHash == "" {
		datasetHash = snap.Generation
	}

	var overlayHash string
	if snap.HasOverlay() {
		if data, err := network.MarshalMeasurements(snap.Overlay); err == nil {
			overlayHash = cache.Hash(data)
		}
	}
	return s.runner.Keyer.GraphKey(datasetHash, opts.GraphKeyOpts(overlayHash))
}

// NodeResponse is a node with its neighbors.
type NodeResponse struct {
	multigraph.Node
	Label     string   `json:"label"`
	Neighbors []string `json:"neighbors"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g := s.engine.Snapshot().Graph
	n, ok := g.Node(id)
	if !ok {
		writeError(w, perrors.New(perrors.ErrCodeNotFound, "node %q not found", id))
		return
	}
	neighbors := g.Neighbors(id)
	if neighbors == nil {
		neighbors = []string{}
	}
	writeJSON(w, http.StatusOK, NodeResponse{Node: n, Label: render.NodeLabel(n), Neighbors: neighbors})
}

// EdgeResponse is an edge with its drawing values under the server's
// render defaults.
type EdgeResponse struct {
	multigraph.Edge
	Label     string  `json:"label"`
	Curvature float64 `json:"curvature"`
	Visible   bool    `json:"visible"`
}

func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	g := s.engine.Snapshot().Graph
	e, ok := g.Edge(key)
	if !ok {
		writeError(w, perrors.New(perrors.ErrCodeNotFound, "edge %q not found", key))
		return
	}
	writeJSON(w, http.StatusOK, EdgeResponse{
		Edge:      e,
		Label:     render.LinkLabel(g, e),
		Curvature: render.Curvature(e, s.cfg.Render),
		Visible:   render.LinkVisible(e, s.cfg.Render),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := search.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	results := search.Nodes(s.engine.Snapshot().Graph, r.URL.Query().Get("q"), limit)
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// NetworkEntry is one catalog entry.
type NetworkEntry struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	current := s.engine.Snapshot().Network
	out := make([]NetworkEntry, 0, len(s.cfg.Networks))
	for _, n := range s.cfg.Networks {
		out = append(out, NetworkEntry{Name: n.Name, Current: n.Name == current})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Triggers
// =============================================================================

func (s *Server) handleLoadNetwork(w http.ResponseWriter, r *http.Request) {
	snap, err := s.LoadNetwork(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(snap))
}

func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "read dataset"))
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	snap, err := s.loadDataset(r.Context(), source{name: name, hash: cache.Hash(data)}, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(snap))
}

func (s *Server) handleSetOverlay(w http.ResponseWriter, r *http.Request) {
	ms, err := network.ReadMeasurements(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(s.engine.SetOverlay(r.Context(), ms)))
}

func (s *Server) handleClearOverlay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summarize(s.engine.ClearOverlay(r.Context())))
}

// handleFocus focuses a node. With a generation query parameter the request
// is dropped with 409 if a newer dataset has been loaded since. An unknown
// node answers 404; the engine has already fallen back to no focus.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		snap *engine.Snapshot
		err  error
	)
	if gen := r.URL.Query().Get("generation"); gen != "" {
		snap, err = s.engine.FocusGeneration(r.Context(), gen, id)
	} else {
		snap, err = s.engine.Focus(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(snap))
}

func (s *Server) handleClearFocus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summarize(s.engine.ClearFocus(r.Context())))
}

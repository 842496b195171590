// Package server exposes the graph attribute engine over HTTP.
//
// The API is a thin layer over [engine.Engine]: PUT routes fire the dataset,
// overlay and focus triggers, GET routes read the current snapshot. Rendered
// graphs go through a [pipeline.Runner] so they share the configured cache
// with the CLI.
//
//	GET    /v1/health
//	GET    /v1/graph?format=json|dot|svg&curve=50&self_loops=true&detailed=false
//	GET    /v1/nodes/{id}
//	GET    /v1/edges/{key}
//	GET    /v1/networks
//	PUT    /v1/network/{name}
//	PUT    /v1/dataset?name=
//	PUT    /v1/overlay
//	DELETE /v1/overlay
//	PUT    /v1/focus/{id}?generation=
//	DELETE /v1/focus
//	GET    /v1/search?q=&limit=
//	GET    /metrics
//
// With watching enabled, a dataset loaded from the network catalog is
// reloaded whenever its file changes on disk.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/config"
	"github.com/matzehuels/phosphograph/pkg/engine"
	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/network"
	"github.com/matzehuels/phosphograph/pkg/pipeline"
)

// MaxBodyBytes bounds uploaded datasets and overlays.
const MaxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	// Config supplies the network catalog, render defaults and listen
	// address. Nil uses config.Default.
	Config *config.Config

	// Runner renders graph artifacts. Nil renders without a cache.
	Runner *pipeline.Runner

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// source records where the current dataset came from.
type source struct {
	name string
	path string // empty for uploaded datasets
	hash string
}

// Server serves one engine.
type Server struct {
	engine *engine.Engine
	cfg    *config.Config
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router

	mu      sync.Mutex
	current source
	watcher *Watcher
}

// New creates a server for eng. Call [Server.Handler] to mount it or
// [Server.Run] to listen.
func New(eng *engine.Engine, opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		engine: eng,
		cfg:    opts.Config,
		runner: opts.Runner,
		logger: opts.Logger,
	}
	s.router = s.routes(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) routes(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Handle("/metrics", metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/graph", s.handleGraph)
		r.Get("/nodes/{id}", s.handleNode)
		r.Get("/edges/{key}", s.handleEdge)
		r.Get("/networks", s.handleNetworks)
		r.Put("/network/{name}", s.handleLoadNetwork)
		r.Put("/dataset", s.handleUploadDataset)
		r.Put("/overlay", s.handleSetOverlay)
		r.Delete("/overlay", s.handleClearOverlay)
		r.Put("/focus/{id}", s.handleFocus)
		r.Delete("/focus", s.handleClearFocus)
		r.Get("/search", s.handleSearch)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// LoadNetwork loads a dataset from the network catalog. Selecting a network
// is a dataset-change trigger: geometry is recomputed and focus resets.
func (s *Server) LoadNetwork(ctx context.Context, name string) (*engine.Snapshot, error) {
	n, ok := s.cfg.Network(name)
	if !ok {
		return nil, perrors.New(perrors.ErrCodeNotFound, "network %q is not in the catalog", name)
	}
	data, err := os.ReadFile(n.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "network %s", n.Path)
		}
		return nil, err
	}
	return s.loadDataset(ctx, source{name: n.Name, path: n.Path, hash: cache.Hash(data)}, data)
}

func (s *Server) loadDataset(ctx context.Context, src source, data []byte) (*engine.Snapshot, error) {
	ds, err := network.ReadDataset(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.engine.LoadDataset(ctx, src.name, ds)
	if err != nil {
		return nil, err
	}
	s.current = src
	if s.watcher != nil {
		if err := s.watcher.Watch(src.path); err != nil {
			s.logger.Warn("cannot watch dataset", "path", src.path, "err", err)
		}
	}
	return snap, nil
}

// reload re-reads the current catalog dataset after a file change. A
// dataset that fails to build leaves the previous snapshot serving.
func (s *Server) reload(ctx context.Context, path string) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur.path != path {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("reload failed", "path", path, "err", err)
		return
	}
	hash := cache.Hash(data)
	if hash == cur.hash {
		return
	}
	if _, err := s.loadDataset(ctx, source{name: cur.name, path: path, hash: hash}, data); err != nil {
		if perrors.IsFatal(err) {
			s.logger.Error("reload rejected, keeping previous dataset", "path", path, "err", err)
		} else {
			// Usually a half-written file; the next write event retries.
			s.logger.Warn("reload failed, keeping previous dataset", "path", path, "err", err)
		}
		return
	}
	s.logger.Info("reloaded dataset", "network", cur.name, "path", path)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Server.Watch {
		w, err := NewWatcher(s.logger, DefaultDebounce)
		if err != nil {
			return err
		}
		defer w.Close()

		s.mu.Lock()
		s.watcher = w
		path := s.current.path
		s.mu.Unlock()
		if err := w.Watch(path); err != nil {
			s.logger.Warn("cannot watch dataset", "path", path, "err", err)
		}
		go w.Run(ctx, func(p string) { s.reload(ctx, p) })
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "watch", s.cfg.Server.Watch)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

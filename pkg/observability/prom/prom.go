// Package prom implements the observability hooks with Prometheus collectors.
//
//	m := prom.New(prometheus.DefaultRegisterer)
//	m.Install()
//	mux.Handle("/metrics", promhttp.Handler())
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/phosphograph/pkg/observability"
)

// Metrics holds the collectors. It implements every hook interface in
// package observability.
type Metrics struct {
	DatasetLoads   *prometheus.CounterVec
	DatasetNodes   prometheus.Gauge
	DatasetEdges   prometheus.Gauge
	LoadSeconds    prometheus.Histogram
	OverlayEdges   *prometheus.GaugeVec
	OverlayApplies prometheus.Counter
	FocusChanges   *prometheus.CounterVec
	VisibleNodes   prometheus.Gauge
	PipelineRuns   *prometheus.CounterVec
	CacheEvents    *prometheus.CounterVec
	CacheBytes     *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPSeconds    *prometheus.HistogramVec
}

var (
	_ observability.EngineHooks   = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_dataset_loads_total",
			Help: "Dataset rebuilds by outcome",
		}, []string{"result"}),
		DatasetNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "phosphograph_dataset_nodes",
			Help: "Nodes in the current dataset",
		}),
		DatasetEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "phosphograph_dataset_edges",
			Help: "Edges in the current dataset",
		}),
		LoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phosphograph_dataset_load_seconds",
			Help:    "Time to build and resolve a dataset",
			Buckets: prometheus.DefBuckets,
		}),
		OverlayEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "phosphograph_overlay_edges",
			Help: "Edges by overlay match kind after the last overlay change",
		}, []string{"match"}),
		OverlayApplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phosphograph_overlay_applies_total",
			Help: "Overlay merges and clears",
		}),
		FocusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_focus_changes_total",
			Help: "Focus changes by outcome",
		}, []string{"result"}),
		VisibleNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "phosphograph_visible_nodes",
			Help: "Nodes visible under the current focus",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_pipeline_stages_total",
			Help: "Pipeline stages by outcome",
		}, []string{"stage", "result"}),
		CacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_cache_events_total",
			Help: "Cache hits, misses and writes",
		}, []string{"key_type", "event"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}, []string{"key_type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosphograph_http_requests_total",
			Help: "HTTP responses by route and status",
		}, []string{"method", "route", "code"}),
		HTTPSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phosphograph_http_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.DatasetLoads, m.DatasetNodes, m.DatasetEdges, m.LoadSeconds,
		m.OverlayEdges, m.OverlayApplies, m.FocusChanges, m.VisibleNodes,
		m.PipelineRuns, m.CacheEvents, m.CacheBytes,
		m.HTTPRequests, m.HTTPSeconds,
	)
	return m
}

// Install registers m as the global engine, pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetEngineHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Engine
// =============================================================================

func (m *Metrics) OnDatasetLoaded(_ context.Context, _ string, nodes, edges int, d time.Duration, err error) {
	m.DatasetLoads.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	m.DatasetNodes.Set(float64(nodes))
	m.DatasetEdges.Set(float64(edges))
	m.LoadSeconds.Observe(d.Seconds())
}

func (m *Metrics) OnOverlayApplied(_ context.Context, c observability.OverlayCounts, _ time.Duration) {
	m.OverlayApplies.Inc()
	m.OverlayEdges.WithLabelValues("exact").Set(float64(c.Exact))
	m.OverlayEdges.WithLabelValues("fallback").Set(float64(c.Fallback))
	m.OverlayEdges.WithLabelValues("unmatched").Set(float64(c.Unmatched))
}

func (m *Metrics) OnFocusChanged(_ context.Context, nodeID string, visible int, err error) {
	switch {
	case err != nil:
		m.FocusChanges.WithLabelValues("not_found").Inc()
	case nodeID == "":
		m.FocusChanges.WithLabelValues("cleared").Inc()
	default:
		m.FocusChanges.WithLabelValues("focused").Inc()
	}
	m.VisibleNodes.Set(float64(visible))
}

// =============================================================================
// Pipeline
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	m.PipelineRuns.WithLabelValues("load", result(err)).Inc()
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	m.PipelineRuns.WithLabelValues("render", result(err)).Inc()
}

// =============================================================================
// Cache
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheEvents.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTP
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

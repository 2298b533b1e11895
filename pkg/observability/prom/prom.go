// Package prom implements the observability hooks with Prometheus metrics.
//
//	h := prom.New(prometheus.DefaultRegisterer)
//	observability.SetEngineHooks(h)
//	observability.SetCacheHooks(h)
//	mux.Handle("/metrics", promhttp.Handler())
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/graphreveal/pkg/observability"
)

// Hooks records engine and cache events as Prometheus metrics.
type Hooks struct {
	ingestTotal   *prometheus.CounterVec
	graphSize     *prometheus.GaugeVec
	deltaSeconds  *prometheus.HistogramVec
	deltaSize     *prometheus.HistogramVec
	previewTotal  *prometheus.CounterVec
	commitTotal   *prometheus.CounterVec
	commitSeconds *prometheus.HistogramVec
	commitChanges *prometheus.CounterVec
	settleTotal   *prometheus.CounterVec
	settleSeconds prometheus.Histogram
	cacheRequests *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_ingest_total",
			Help: "Entities seen by dataset loads",
		}, []string{"result"}),
		graphSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graphreveal_graph_size",
			Help: "Nodes and edges in the last loaded dataset",
		}, []string{"entity"}),
		deltaSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphreveal_delta_duration_seconds",
			Help:    "Time spent computing deltas",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
		}, []string{"mode", "direction"}),
		deltaSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphreveal_delta_size",
			Help:    "Nodes and edges toggled by computed deltas",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"mode"}),
		previewTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_preview_total",
			Help: "Previews shown",
		}, []string{"mode"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_commit_total",
			Help: "Commits by outcome",
		}, []string{"mode", "result"}),
		commitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphreveal_commit_duration_seconds",
			Help:    "Time spent applying commits",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
		}, []string{"mode"}),
		commitChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_commit_changes_total",
			Help: "Nodes shown and hidden by commits",
		}, []string{"change"}),
		settleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_settle_total",
			Help: "Layout settle requests",
		}, []string{"superseded"}),
		settleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphreveal_settle_duration_seconds",
			Help:    "Time from settle request to release",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 8),
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheSetBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphreveal_cache_set_bytes_total",
			Help: "Bytes written to the cache",
		}, []string{"key_type"}),
	}
	reg.MustRegister(
		h.ingestTotal, h.graphSize, h.deltaSeconds, h.deltaSize,
		h.previewTotal, h.commitTotal, h.commitSeconds, h.commitChanges,
		h.settleTotal, h.settleSeconds, h.cacheRequests, h.cacheSetBytes,
	)
	return h
}

func (h *Hooks) OnIngest(_ context.Context, nodes, edges, dropped int) {
	h.ingestTotal.WithLabelValues("loaded").Add(float64(nodes + edges))
	h.ingestTotal.WithLabelValues("dropped").Add(float64(dropped))
	h.graphSize.WithLabelValues("node").Set(float64(nodes))
	h.graphSize.WithLabelValues("edge").Set(float64(edges))
}

func (h *Hooks) OnDeltaComputed(_ context.Context, mode, direction string, size int, d time.Duration) {
	h.deltaSeconds.WithLabelValues(mode, direction).Observe(d.Seconds())
	h.deltaSize.WithLabelValues(mode).Observe(float64(size))
}

func (h *Hooks) OnPreview(_ context.Context, mode string, _ int) {
	h.previewTotal.WithLabelValues(mode).Inc()
}

func (h *Hooks) OnCommit(_ context.Context, mode string, shown, hidden int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.commitTotal.WithLabelValues(mode, result).Inc()
	if err != nil {
		return
	}
	h.commitSeconds.WithLabelValues(mode).Observe(d.Seconds())
	h.commitChanges.WithLabelValues("shown").Add(float64(shown))
	h.commitChanges.WithLabelValues("hidden").Add(float64(hidden))
}

func (h *Hooks) OnSettleStart(_ context.Context, _ int, superseded bool) {
	h.settleTotal.WithLabelValues(strconv.FormatBool(superseded)).Inc()
}

func (h *Hooks) OnSettleComplete(_ context.Context, d time.Duration) {
	h.settleSeconds.Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.EngineHooks = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
)

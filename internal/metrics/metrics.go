// Package metrics wires Prometheus collectors into the observability hooks
// and serves the scrape endpoint for the API server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topolens/topolens/pkg/observability"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pipelineStageRuns   *prometheus.CounterVec
	pipelineStageTime   *prometheus.HistogramVec
	cacheOps            *prometheus.CounterVec
	graphNodes          prometheus.Histogram
}

// New creates a fresh Metrics registry with HTTP, pipeline, and cache
// metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topolens",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the API server",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topolens",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the API server",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	pipelineStageRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topolens",
		Name:      "pipeline_stage_runs_total",
		Help:      "Total pipeline stage executions by stage and outcome",
	}, []string{"stage", "outcome"})

	pipelineStageTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topolens",
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"stage"})

	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topolens",
		Name:      "cache_operations_total",
		Help:      "Cache hits, misses, and writes by pipeline stage key",
	}, []string{"key_type", "op"})

	graphNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "topolens",
		Name:      "graph_nodes",
		Help:      "Node counts of built topology graphs",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		pipelineStageRuns,
		pipelineStageTime,
		cacheOps,
		graphNodes,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		pipelineStageRuns:   pipelineStageRuns,
		pipelineStageTime:   pipelineStageTime,
		cacheOps:            cacheOps,
		graphNodes:          graphNodes,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Register installs the pipeline and cache collectors as the process-wide
// observability hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(&pipelineCollector{m: m})
	observability.SetCacheHooks(&cacheCollector{m: m})
}

func (m *Metrics) observeStage(stage string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.pipelineStageRuns.WithLabelValues(stage, outcome).Inc()
	m.pipelineStageTime.WithLabelValues(stage).Observe(duration.Seconds())
}

// pipelineCollector feeds pipeline hook events into Prometheus.
type pipelineCollector struct {
	observability.NoopPipelineHooks
	m *Metrics
}

func (c *pipelineCollector) OnBuildComplete(_ context.Context, _ string, nodeCount int, duration time.Duration, err error) {
	c.m.observeStage("build", duration, err)
	if err == nil {
		c.m.graphNodes.Observe(float64(nodeCount))
	}
}

func (c *pipelineCollector) OnLayoutComplete(_ context.Context, duration time.Duration, err error) {
	c.m.observeStage("layout", duration, err)
}

func (c *pipelineCollector) OnRenderComplete(_ context.Context, _ []string, duration time.Duration, err error) {
	c.m.observeStage("render", duration, err)
}

// cacheCollector feeds cache hook events into Prometheus.
type cacheCollector struct {
	observability.NoopCacheHooks
	m *Metrics
}

func (c *cacheCollector) OnCacheHit(_ context.Context, keyType string) {
	c.m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *cacheCollector) OnCacheMiss(_ context.Context, keyType string) {
	c.m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *cacheCollector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.m.cacheOps.WithLabelValues(keyType, "set").Inc()
}

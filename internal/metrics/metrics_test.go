package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/topolens/topolens/pkg/observability"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/healthz", http.StatusOK, 12*time.Millisecond)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	if !strings.Contains(body, "topolens_http_requests_total") {
		t.Fatalf("expected http_requests_total metric to be present")
	}
	if !strings.Contains(body, "topolens_http_requests_total{method=\"GET\",path=\"/healthz\",status=\"200\"} 1") {
		t.Fatalf("expected labeled request counter to be incremented; body=%s", body)
	}
}

func TestRegisterFeedsHookEvents(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	m := New()
	m.Register()

	ctx := context.Background()
	observability.Pipeline().OnBuildComplete(ctx, "snap-1", 42, 10*time.Millisecond, nil)
	observability.Pipeline().OnLayoutComplete(ctx, 5*time.Millisecond, nil)
	observability.Cache().OnCacheHit(ctx, "graph")
	observability.Cache().OnCacheMiss(ctx, "layout")
	observability.Cache().OnCacheSet(ctx, "artifact", 2048)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	for _, want := range []string{
		"topolens_pipeline_stage_runs_total{outcome=\"ok\",stage=\"build\"} 1",
		"topolens_pipeline_stage_runs_total{outcome=\"ok\",stage=\"layout\"} 1",
		"topolens_cache_operations_total{key_type=\"graph\",op=\"hit\"} 1",
		"topolens_cache_operations_total{key_type=\"layout\",op=\"miss\"} 1",
		"topolens_cache_operations_total{key_type=\"artifact\",op=\"set\"} 1",
		"topolens_graph_nodes_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

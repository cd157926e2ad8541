package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topolens/topolens/internal/metrics"
	"github.com/topolens/topolens/pkg/cache"
	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/store"
	"github.com/topolens/topolens/pkg/topo"
)

func testSnapshotJSON(t *testing.T) []byte {
	t.Helper()
	snap := inventory.Snapshot{
		VMs: []inventory.VM{
			{ID: "vm-a", Name: "web-01", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "POWERED_ON"},
			{ID: "vm-b", Name: "db-01", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "POWERED_OFF"},
		},
		Hosts: []inventory.Host{
			{ID: "h1", Name: "H1", Provider: "vmware", Cluster: "C1"},
		},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	st := store.NewMemoryStore()
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	h := NewHandler(logger, st, runner, metrics.New(), 0, nil)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func createSnapshot(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/snapshots?name=scan", "application/json", bytes.NewReader(testSnapshotJSON(t)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	require.NotEmpty(t, rec.ID)
	return rec.ID
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSnapshotLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	// List includes it, without the payload
	resp, err := http.Get(srv.URL + "/api/v1/snapshots")
	require.NoError(t, err)
	var list struct {
		Snapshots []store.Record `json:"snapshots"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list.Snapshots, 1)
	assert.Equal(t, id, list.Snapshots[0].ID)
	assert.Equal(t, "scan", list.Snapshots[0].Name)
	assert.Equal(t, 2, list.Snapshots[0].VMCount)
	assert.Empty(t, list.Snapshots[0].Snapshot.VMs)

	// Get returns the payload
	resp, err = http.Get(srv.URL + "/api/v1/snapshots/" + id)
	require.NoError(t, err)
	var rec store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Len(t, rec.Snapshot.VMs, 2)

	// Delete
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/snapshots/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone now
	resp, err = http.Get(srv.URL + "/api/v1/snapshots/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSnapshotRejectsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/snapshots", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_SNAPSHOT", body.Error.Code)
}

func TestCreateSnapshotRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/snapshots", "application/json", strings.NewReader(`{"bogus": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGraphEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var g topo.Graph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	// env + provider + cluster + host + 2 vms
	assert.Len(t, g.Nodes, 6)
	assert.Equal(t, 2, g.Stats.VMs)
}

func TestGraphEndpointFocus(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/graph?focus=vm:vmware:vm-a:h1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var g topo.Graph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	// vm-a and its ancestor chain only
	assert.Len(t, g.Nodes, 5)
	assert.Equal(t, 1, g.Stats.VMs)
}

func TestGraphEndpointBadFocus(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/graph?focus=rack:oops")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLayoutEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/layout?width=1200&height=900")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lay struct {
		Nodes []struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		} `json:"nodes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lay))
	assert.Len(t, lay.Nodes, 6)
}

func TestLayoutEndpointBadWidth(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/layout?width=banana")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenderEndpointSVG(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/render?format=svg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<svg "))
}

func TestRenderEndpointUsesConfiguredTheme(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	st := store.NewMemoryStore()
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	th := scene.DefaultTheme()
	th.Background = "#123456"
	h := NewHandler(logger, st, runner, metrics.New(), 0, &th)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/render?format=svg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fill="#123456"`)
}

func TestRenderEndpointDOT(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/render?format=dot&detailed=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "digraph topology")
	assert.Contains(t, string(body), "total: 2")
}

func TestRenderEndpointBadFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSnapshot(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/" + id + "/render?format=webp")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSnapshotIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/snapshots/does-not-exist/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Generate one request first so a counter exists
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "topolens_http_requests_total")
}

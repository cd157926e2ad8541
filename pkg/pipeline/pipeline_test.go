package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topolens/topolens/pkg/cache"
	"github.com/topolens/topolens/pkg/inventory"
)

func testSnapshot() inventory.Snapshot {
	return inventory.Snapshot{
		VMs: []inventory.VM{
			{ID: "vm-a", Name: "web-01", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "POWERED_ON"},
			{ID: "vm-b", Name: "db-01", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "POWERED_OFF"},
			{ID: "vm-c", Name: "etl-01", Provider: "ovirt", Cluster: "C2", Host: "H2", Environment: "staging", PowerState: "POWERED_ON"},
		},
		Hosts: []inventory.Host{
			{ID: "h1", Name: "H1", Provider: "vmware", Cluster: "C1", CPUUsagePct: inventory.Float64(40)},
			{ID: "h2", Name: "H2", Provider: "ovirt", Cluster: "C2"},
		},
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, []string{FormatSVG}, opts.Formats)
	assert.Equal(t, DefaultScale, opts.Scale)
	assert.NotNil(t, opts.Logger)

	// Idempotent
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad focus", Options{Focus: "rack:prod"}},
		{"bad format", Options{Formats: []string{"webp"}}},
		{"negative canvas", Options{Width: -5, Height: 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.ValidateAndSetDefaults())
		})
	}
}

func TestExecuteProducesArtifacts(t *testing.T) {
	r := NewRunner(cache.NewNullCache(), nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), testSnapshot(), Options{
		Formats: []string{FormatSVG, FormatDOT, FormatJSON},
	})
	require.NoError(t, err)

	// 2 envs + 2 providers + 2 clusters + 2 hosts + 3 vms
	assert.Equal(t, 11, res.Stats.NodeCount)
	assert.NotEmpty(t, res.GraphHash)
	assert.Len(t, res.Layout.Nodes, 11)

	svg := string(res.Artifacts[FormatSVG])
	assert.True(t, strings.HasPrefix(svg, "<svg "), "svg artifact should be an SVG document")
	assert.Contains(t, svg, "<circle")

	dot := string(res.Artifacts[FormatDOT])
	assert.Contains(t, dot, "digraph topology")
	assert.Contains(t, dot, `"env:prod"`)

	assert.NotEmpty(t, res.Artifacts[FormatJSON])

	assert.False(t, res.CacheInfo.BuildHit)
	assert.False(t, res.CacheInfo.LayoutHit)
	assert.False(t, res.CacheInfo.RenderHit)
}

func TestExecuteIsDeterministic(t *testing.T) {
	r := NewRunner(cache.NewNullCache(), nil, nil)
	defer r.Close()

	a, err := r.Execute(context.Background(), testSnapshot(), Options{Formats: []string{FormatSVG}})
	require.NoError(t, err)
	b, err := r.Execute(context.Background(), testSnapshot(), Options{Formats: []string{FormatSVG}})
	require.NoError(t, err)

	if !bytes.Equal(a.Artifacts[FormatSVG], b.Artifacts[FormatSVG]) {
		t.Error("identical inputs should render identical SVG bytes")
	}
	assert.Equal(t, a.GraphHash, b.GraphHash)
}

func TestExecuteCacheHits(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, testSnapshot(), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.BuildHit)

	second, err := r.Execute(ctx, testSnapshot(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.BuildHit, "second build should hit cache")
	assert.True(t, second.CacheInfo.LayoutHit, "second layout should hit cache")
	assert.True(t, second.CacheInfo.RenderHit, "second render should hit cache")

	assert.Equal(t, first.GraphHash, second.GraphHash)
	assert.Equal(t, first.Artifacts[FormatSVG], second.Artifacts[FormatSVG])

	// Refresh bypasses the cache
	opts.Refresh = true
	third, err := r.Execute(ctx, testSnapshot(), opts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.BuildHit)
}

func TestExecuteWithFocus(t *testing.T) {
	r := NewRunner(cache.NewNullCache(), nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), testSnapshot(), Options{
		Focus:   "provider:prod:vmware",
		Formats: []string{FormatJSON},
	})
	require.NoError(t, err)

	// prod env, vmware provider, C1, H1, two vms
	assert.Equal(t, 6, res.Stats.NodeCount)
	for _, n := range res.Graph.Nodes {
		assert.NotEqual(t, "env:staging", n.ID, "staging subtree should be filtered out")
	}
}

func TestBuildStageAlone(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	g, err := r.Build(context.Background(), testSnapshot(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 11, len(g.Nodes))

	lay, err := r.ComputeLayout(context.Background(), g, Options{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.Len(t, lay.Nodes, 11)
}

package cli

import (
	"testing"

	"github.com/topolens/topolens/pkg/config"
	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

func viewTestGraph() topo.Graph {
	vms := []inventory.VM{
		{Name: "vm-a", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "powered_on"},
	}
	hosts := []inventory.Host{
		{Name: "H1", Provider: "vmware", Cluster: "C1"},
	}
	return topo.Build(vms, hosts, nil)
}

func TestViewerEngineHonorsSceneConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.LODNear = 0.5

	e := newViewerEngine(cfg)
	e.Resize(800, 600, 1)
	e.SetGraph(viewTestGraph())

	lay := e.Layout()
	var vm *layout.Node
	for i := range lay.Nodes {
		if lay.Nodes[i].Type == topo.KindVM {
			vm = &lay.Nodes[i]
		}
	}
	if vm == nil {
		t.Fatal("vm not placed")
	}

	// Scale 1 sits above the lowered near threshold, so aiming straight at
	// the vm must pick it up.
	sx, sy := e.Camera().ToScreen(vm.X, vm.Y)
	n, ok := e.HitTest(sx, sy)
	if !ok || n.Type != topo.KindVM {
		t.Errorf("vm not hit with lod_near=0.5: got %v ok=%v", n.ID, ok)
	}

	// With the defaults scale 1 is the mid band and vms are not
	// hit-testable.
	d := newViewerEngine(config.Default())
	d.Resize(800, 600, 1)
	d.SetGraph(viewTestGraph())
	if n, ok := d.HitTest(sx, sy); ok && n.Type == topo.KindVM {
		t.Errorf("vm hit with default thresholds: %s", n.ID)
	}
}

func TestViewerEngineUsesConfiguredTheme(t *testing.T) {
	cfg := config.Default()
	cfg.Theme.Background = "#123456"

	e := newViewerEngine(cfg)
	e.Resize(80, 48, 1)

	c := newCellCanvas(80, 24)
	e.Frame(c)
	if got := c.pixels[0]; got != scene.Color("#123456") {
		t.Errorf("background pixel = %s, want configured #123456", got)
	}
}

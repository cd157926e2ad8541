package topo

import (
	"testing"

	"github.com/topolens/topolens/pkg/inventory"
)

func focusFixture() Graph {
	vms := []inventory.VM{
		{Name: "a", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "powered_on"},
		{Name: "b", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "powered_off"},
		{Name: "c", Provider: "vmware", Cluster: "C1", Host: "H2", Environment: "prod", PowerState: "powered_on"},
		{Name: "d", Provider: "ovirt", Cluster: "C2", Host: "H3", Environment: "prod", PowerState: "powered_on"},
	}
	return Build(vms, nil, nil)
}

func TestFilterByFocusHost(t *testing.T) {
	g := focusFixture()
	hostID := "host:prod:vmware:c1:h1"

	sub := FilterByFocus(g, hostID)

	wantKept := []string{
		"env:prod",
		"provider:prod:vmware",
		"cluster:prod:vmware:c1",
		hostID,
		"vm:vmware:a:h1",
		"vm:vmware:b:h1",
	}
	if len(sub.Nodes) != len(wantKept) {
		t.Fatalf("subgraph has %d nodes, want %d: %v", len(sub.Nodes), len(wantKept), nodeIDs(sub))
	}
	for _, id := range wantKept {
		if sub.NodeByID(id) == nil {
			t.Errorf("expected %s in subgraph", id)
		}
	}

	// Sibling host and its vm are excluded.
	for _, id := range []string{"host:prod:vmware:c1:h2", "vm:vmware:c:h2", "provider:prod:ovirt"} {
		if sub.NodeByID(id) != nil {
			t.Errorf("unexpected %s in subgraph", id)
		}
	}

	if sub.Stats.VMs != 2 || sub.Stats.Hosts != 1 {
		t.Errorf("stats = %+v, want recomputed vms:2 hosts:1", sub.Stats)
	}

	// Every surviving link has both endpoints in the subgraph.
	for _, l := range sub.Links {
		if sub.NodeByID(l.Source) == nil || sub.NodeByID(l.Target) == nil {
			t.Errorf("dangling link %s -> %s", l.Source, l.Target)
		}
	}
}

func TestFilterByFocusEnv(t *testing.T) {
	g := focusFixture()
	sub := FilterByFocus(g, "env:prod")

	// Focusing the root keeps everything.
	if len(sub.Nodes) != len(g.Nodes) {
		t.Errorf("env focus kept %d of %d nodes", len(sub.Nodes), len(g.Nodes))
	}
}

func TestFilterByFocusAbsent(t *testing.T) {
	g := focusFixture()

	for _, id := range []string{"", "host:nope"} {
		sub := FilterByFocus(g, id)
		if len(sub.Nodes) != len(g.Nodes) || len(sub.Links) != len(g.Links) {
			t.Errorf("focus %q: expected unchanged graph", id)
		}
	}
}

package cli

import (
	"strings"
	"testing"

	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

func TestSeekScalesCoverAllKinds(t *testing.T) {
	for _, k := range topo.Kinds {
		if seekScales[k] <= 0 {
			t.Errorf("seekScales missing kind %q", k)
		}
	}
	// Inner levels zoom in further than outer ones
	if seekScales[topo.KindVM] <= seekScales[topo.KindEnv] {
		t.Error("vm seek scale should exceed env seek scale")
	}
}

func TestDescribeNode(t *testing.T) {
	tests := []struct {
		name string
		node layout.Node
		want string
	}{
		{
			name: "vm with power state",
			node: layout.Node{Node: topo.Node{Type: topo.KindVM, Name: "web-01", PowerState: "POWERED_ON"}},
			want: "vm web-01 · POWERED_ON",
		},
		{
			name: "host with vm count",
			node: layout.Node{Node: topo.Node{Type: topo.KindHost, Name: "esx-1", Meta: &topo.Meta{VMCount: 12}}},
			want: "host esx-1 · 12 vms",
		},
		{
			name: "cluster with aggregates",
			node: layout.Node{Node: topo.Node{Type: topo.KindCluster, Name: "C1", Meta: &topo.Meta{Total: 5, On: 3, Off: 2}}},
			want: "cluster C1 · 5 vms (3 on, 2 off)",
		},
		{
			name: "env without meta",
			node: layout.Node{Node: topo.Node{Type: topo.KindEnv, Name: "prod"}},
			want: "env prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeNode(&tt.node); got != tt.want {
				t.Errorf("describeNode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewerHelpLineMentionsQuit(t *testing.T) {
	m := viewerModel{}
	if !strings.Contains(m.helpLine(), "q quit") {
		t.Error("help line should mention the quit key")
	}
}

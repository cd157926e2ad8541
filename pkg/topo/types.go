// Package topo builds the typed topology graph that drives the map view.
//
// The builder consumes flat, best-effort inventory records (VMs and hosts
// across multiple providers) and produces a deduplicated five-level
// node/edge graph:
//
//	env → provider → cluster → host → vm
//
// with per-node aggregated counters. The build is a pure, idempotent fold
// over its inputs: identical inputs yield identical node ids and counters,
// and input order does not affect the resulting node set, edge set, or
// aggregates. That stability is what keeps selection and camera focus
// pinned to the same node across inventory refreshes.
//
// Building never fails. Missing or malformed fields degrade to fallback
// literals because inventory feeds are best-effort; the worst case is an
// odd-looking graph, never an error.
package topo

// Kind is one of the five node types in the hierarchy.
type Kind string

// Node kinds, outermost first.
const (
	KindEnv      Kind = "env"
	KindProvider Kind = "provider"
	KindCluster  Kind = "cluster"
	KindHost     Kind = "host"
	KindVM       Kind = "vm"
)

// Kinds lists all node kinds in hierarchy order.
var Kinds = []Kind{KindEnv, KindProvider, KindCluster, KindHost, KindVM}

// Meta carries aggregated counters for a node.
//
// Env, provider and cluster nodes use Total/On/Off/Providers; host nodes use
// VMCount. Counters accumulate monotonically during the build and, once the
// build completes, equal the number of vm descendants reachable from the
// node — except VMCount, where an explicit host-reported count overrides the
// derived one.
type Meta struct {
	Total     int            `json:"total" bson:"total"`
	On        int            `json:"on" bson:"on"`
	Off       int            `json:"off" bson:"off"`
	Providers map[string]int `json:"providers,omitempty" bson:"providers,omitempty"`
	VMCount   int            `json:"vmCount,omitempty" bson:"vmCount,omitempty"`
}

// Node is a single element of the topology graph.
//
// Exactly one parent-link field is set per kind: EnvID on providers,
// ProviderID on clusters, ClusterID on hosts, HostID on vms. Env nodes have
// no parent. Positions are deliberately absent here — they are assigned by
// the layout step, keeping builder output immutable per input set.
type Node struct {
	ID   string `json:"id" bson:"id"`
	Type Kind   `json:"type" bson:"type"`
	Name string `json:"name" bson:"name"`

	EnvID      string `json:"envId,omitempty" bson:"envId,omitempty"`
	ProviderID string `json:"providerId,omitempty" bson:"providerId,omitempty"`
	ClusterID  string `json:"clusterId,omitempty" bson:"clusterId,omitempty"`
	HostID     string `json:"hostId,omitempty" bson:"hostId,omitempty"`

	Meta *Meta `json:"meta,omitempty" bson:"meta,omitempty"`

	// Live metrics, present on host and vm nodes only. Pointer fields are
	// nil when the feed did not report a value.
	PowerState      string   `json:"power_state,omitempty" bson:"power_state,omitempty"`
	CPUUsagePct     *float64 `json:"cpu_usage_pct,omitempty" bson:"cpu_usage_pct,omitempty"`
	RAMUsagePct     *float64 `json:"ram_usage_pct,omitempty" bson:"ram_usage_pct,omitempty"`
	Health          string   `json:"health,omitempty" bson:"health,omitempty"`
	ConnectionState string   `json:"connection_state,omitempty" bson:"connection_state,omitempty"`

	// SourceID is a back-reference to the originating inventory record,
	// empty when the record carried no id.
	SourceID string `json:"sourceId,omitempty" bson:"sourceId,omitempty"`
}

// ParentID returns the id of the node's parent, or "" for env nodes.
func (n *Node) ParentID() string {
	switch n.Type {
	case KindProvider:
		return n.EnvID
	case KindCluster:
		return n.ProviderID
	case KindHost:
		return n.ClusterID
	case KindVM:
		return n.HostID
	}
	return ""
}

// Link is a parent→child edge.
type Link struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// Stats counts nodes by kind.
type Stats struct {
	Envs      int `json:"envs" bson:"envs"`
	Providers int `json:"providers" bson:"providers"`
	Clusters  int `json:"clusters" bson:"clusters"`
	Hosts     int `json:"hosts" bson:"hosts"`
	VMs       int `json:"vms" bson:"vms"`
}

// Count returns the stat for a single kind.
func (s Stats) Count(k Kind) int {
	switch k {
	case KindEnv:
		return s.Envs
	case KindProvider:
		return s.Providers
	case KindCluster:
		return s.Clusters
	case KindHost:
		return s.Hosts
	case KindVM:
		return s.VMs
	}
	return 0
}

// Total returns the overall node count.
func (s Stats) Total() int {
	return s.Envs + s.Providers + s.Clusters + s.Hosts + s.VMs
}

// Graph is the builder output: deduplicated nodes, parent→child links, and
// node counts by kind.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Links []Link `json:"links" bson:"links"`
	Stats Stats  `json:"stats" bson:"stats"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// computeStats recounts nodes by kind. The result must always equal a
// filter-and-count over Nodes; there is no separate bookkeeping to drift.
func computeStats(nodes []Node) Stats {
	var s Stats
	for i := range nodes {
		switch nodes[i].Type {
		case KindEnv:
			s.Envs++
		case KindProvider:
			s.Providers++
		case KindCluster:
			s.Clusters++
		case KindHost:
			s.Hosts++
		case KindVM:
			s.VMs++
		}
	}
	return s
}

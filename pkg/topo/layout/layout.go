// Package layout assigns 2-D coordinates to topology nodes.
//
// The algorithm is deterministic radial nesting, not force-directed physics:
// environments sit on a circle around the origin, providers orbit their
// environment, clusters orbit their provider, hosts orbit their cluster,
// and vms scatter around their host. All jitter comes from the stable
// string hash in pkg/topo, so identical inputs always reproduce identical
// coordinates and a node that survives a rebuild does not visually jump.
package layout

import (
	"math"

	"github.com/topolens/topolens/pkg/topo"
)

// Radii fractions of min(width, height) per ring level, and the vm scatter
// band in pixels.
const (
	envRadiusFrac      = 0.26
	providerRadiusFrac = 0.17
	clusterRadiusFrac  = 0.11
	hostRadiusFrac     = 0.06

	vmScatterMin = 10.0
	vmScatterMax = 26.0
)

// Node is a topology node with its assigned world coordinate.
type Node struct {
	topo.Node
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Link is an edge with resolved endpoint coordinates.
type Link struct {
	Source string  `json:"source" bson:"source"`
	Target string  `json:"target" bson:"target"`
	X1     float64 `json:"x1" bson:"x1"`
	Y1     float64 `json:"y1" bson:"y1"`
	X2     float64 `json:"x2" bson:"x2"`
	Y2     float64 `json:"y2" bson:"y2"`
}

// Layout is the positioned graph.
type Layout struct {
	Nodes []Node     `json:"nodes" bson:"nodes"`
	Links []Link     `json:"links" bson:"links"`
	Stats topo.Stats `json:"stats" bson:"stats"`
}

// NodeByID returns the positioned node with the given id, or nil.
func (l *Layout) NodeByID(id string) *Node {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i]
		}
	}
	return nil
}

// Compute lays out the graph for a canvas of the given size. It is pure:
// identical inputs produce identical output. A zero or unmeasured canvas
// yields an empty layout rather than garbage coordinates.
func Compute(nodes []topo.Node, links []topo.Link, width, height float64) Layout {
	if width <= 0 || height <= 0 {
		return Layout{}
	}

	minDim := math.Min(width, height)

	byKind := partition(nodes)
	pos := make(map[string][2]float64, len(nodes))
	out := Layout{Stats: topo.Stats{}}

	place := func(n topo.Node, x, y float64) {
		pos[n.ID] = [2]float64{x, y}
		out.Nodes = append(out.Nodes, Node{Node: n, X: x, Y: y})
	}

	// Environments on a circle around the origin.
	envs := byKind[topo.KindEnv]
	for i, n := range envs {
		angle := 2 * math.Pi * float64(i) / float64(len(envs))
		r := envRadiusFrac * minDim
		place(n, r*math.Cos(angle), r*math.Sin(angle))
	}

	ring(byKind[topo.KindProvider], pos, providerRadiusFrac*minDim, place)
	ring(byKind[topo.KindCluster], pos, clusterRadiusFrac*minDim, place)
	ring(byKind[topo.KindHost], pos, hostRadiusFrac*minDim, place)

	// VMs scatter around their host with hash-seeded angle and radius; the
	// position carries no meaning beyond "belongs to this host".
	for _, n := range byKind[topo.KindVM] {
		parent, ok := pos[n.HostID]
		if !ok {
			continue
		}
		angle := float64(topo.HashString(n.ID)%360) * math.Pi / 180
		r := vmScatterMin + float64(topo.HashString(n.ID+":r")%int(vmScatterMax-vmScatterMin+1))
		place(n, parent[0]+r*math.Cos(angle), parent[1]+r*math.Sin(angle))
	}

	// Endpoint pairs; a link whose endpoint was never placed is dropped.
	for _, l := range links {
		a, okA := pos[l.Source]
		b, okB := pos[l.Target]
		if !okA || !okB {
			continue
		}
		out.Links = append(out.Links, Link{
			Source: l.Source, Target: l.Target,
			X1: a[0], Y1: a[1], X2: b[0], Y2: b[1],
		})
	}

	out.Stats = statsOf(out.Nodes)
	return out
}

// ring places one partition of nodes on circles around their parents'
// coordinates. Members of a parent group are spaced evenly with a
// hash-derived angular offset per node, so sibling rings from different
// parents do not align artificially.
func ring(nodes []topo.Node, pos map[string][2]float64, radius float64, place func(topo.Node, float64, float64)) {
	groups := map[string][]topo.Node{}
	order := []string{}
	for _, n := range nodes {
		p := n.ParentID()
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], n)
	}

	for _, parentID := range order {
		parent, ok := pos[parentID]
		if !ok {
			continue
		}
		members := groups[parentID]
		for i, n := range members {
			offset := float64(topo.HashString(n.ID)%360) * math.Pi / 180 * 0.15
			angle := 2*math.Pi*float64(i)/float64(len(members)) + offset
			place(n, parent[0]+radius*math.Cos(angle), parent[1]+radius*math.Sin(angle))
		}
	}
}

func statsOf(nodes []Node) topo.Stats {
	var s topo.Stats
	for i := range nodes {
		switch nodes[i].Type {
		case topo.KindEnv:
			s.Envs++
		case topo.KindProvider:
			s.Providers++
		case topo.KindCluster:
			s.Clusters++
		case topo.KindHost:
			s.Hosts++
		case topo.KindVM:
			s.VMs++
		}
	}
	return s
}

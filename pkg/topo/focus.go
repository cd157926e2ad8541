package topo

// FilterByFocus extracts the ancestor/descendant-closed subgraph around one
// node: the focus node itself, everything reachable walking child links
// forward, and everything reachable walking parent links backward. Sibling
// subtrees are excluded.
//
// If focusID is empty or not present in the graph, the input is returned
// unchanged — an absent focus target is a no-op, not an error.
func FilterByFocus(g Graph, focusID string) Graph {
	if focusID == "" || g.NodeByID(focusID) == nil {
		return g
	}

	children := make(map[string][]string, len(g.Links))
	parents := make(map[string][]string, len(g.Links))
	for _, l := range g.Links {
		children[l.Source] = append(children[l.Source], l.Target)
		parents[l.Target] = append(parents[l.Target], l.Source)
	}

	keep := map[string]bool{focusID: true}
	walk(focusID, children, keep)
	walk(focusID, parents, keep)

	nodes := make([]Node, 0, len(keep))
	for i := range g.Nodes {
		if keep[g.Nodes[i].ID] {
			nodes = append(nodes, g.Nodes[i])
		}
	}
	links := make([]Link, 0, len(g.Links))
	for _, l := range g.Links {
		if keep[l.Source] && keep[l.Target] {
			links = append(links, l)
		}
	}

	return Graph{Nodes: nodes, Links: links, Stats: computeStats(nodes)}
}

// walk marks everything reachable from start over adj into seen.
func walk(start string, adj map[string][]string, seen map[string]bool) {
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
}

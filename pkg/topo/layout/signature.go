package layout

import (
	"fmt"

	"github.com/topolens/topolens/pkg/topo"
)

// Signature is the cheap re-layout change-detector: per-kind node counts,
// first and last node id, and the canvas size. It deliberately is not a full
// diff — a middle-of-list content change that keeps counts and boundary ids
// intact will not trigger a re-layout. That trade has been acceptable in
// practice because inventory refreshes rebuild the graph wholesale, which
// almost always moves a boundary id or a count.
func Signature(nodes []topo.Node, links []topo.Link, width, height float64) string {
	counts := map[topo.Kind]int{}
	for i := range nodes {
		counts[nodes[i].Type]++
	}
	first, last := "", ""
	if len(nodes) > 0 {
		first = nodes[0].ID
		last = nodes[len(nodes)-1].ID
	}
	return fmt.Sprintf("%d:%d:%d:%d:%d|%d|%s|%s|%gx%g",
		counts[topo.KindEnv], counts[topo.KindProvider], counts[topo.KindCluster],
		counts[topo.KindHost], counts[topo.KindVM], len(links), first, last, width, height)
}

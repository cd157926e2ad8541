package layout

import (
	"sort"
	"strings"
	"unicode"

	"github.com/topolens/topolens/pkg/topo"
)

// partition splits nodes by kind and sorts each partition by display name
// with a numeric-aware comparison, so "host-2" sorts before "host-10". The
// sort is what makes ring placement reproducible regardless of the order
// records arrived in.
func partition(nodes []topo.Node) map[topo.Kind][]topo.Node {
	byKind := map[topo.Kind][]topo.Node{}
	for _, n := range nodes {
		byKind[n.Type] = append(byKind[n.Type], n)
	}
	for _, part := range byKind {
		sort.SliceStable(part, func(a, b int) bool {
			if c := naturalCompare(part[a].Name, part[b].Name); c != 0 {
				return c < 0
			}
			// Ids break ties so equal names still order deterministically.
			return part[a].ID < part[b].ID
		})
	}
	return byKind
}

// naturalCompare orders strings case-insensitively, comparing digit runs by
// numeric value.
func naturalCompare(a, b string) int {
	ar, br := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		ca, cb := ar[i], br[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			ia, ja := i, j
			for ia < len(ar) && unicode.IsDigit(ar[ia]) {
				ia++
			}
			for ja < len(br) && unicode.IsDigit(br[ja]) {
				ja++
			}
			na := strings.TrimLeft(string(ar[i:ia]), "0")
			nb := strings.TrimLeft(string(br[j:ja]), "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			i, j = ia, ja
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ar[i:]) < len(br[j:]):
		return -1
	case len(ar[i:]) > len(br[j:]):
		return 1
	}
	return 0
}

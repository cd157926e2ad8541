package scene

import "github.com/topolens/topolens/pkg/topo"

// LOD is the level-of-detail band selected by the camera scale.
type LOD int

// Bands, coarsest first.
const (
	// LODFar draws env/provider/cluster only.
	LODFar LOD = iota
	// LODMid adds hosts.
	LODMid
	// LODNear adds vms.
	LODNear
)

// String returns the band name for logs.
func (l LOD) String() string {
	switch l {
	case LODFar:
		return "far"
	case LODMid:
		return "mid"
	case LODNear:
		return "near"
	}
	return "unknown"
}

// LevelFor picks the band for a camera scale. Flicker exactly at the
// boundary scales is accepted.
func LevelFor(scale, far, near float64) LOD {
	switch {
	case scale < far:
		return LODFar
	case scale < near:
		return LODMid
	default:
		return LODNear
	}
}

// Visible reports whether a node kind is drawn and hit-testable at this
// band.
func (l LOD) Visible(k topo.Kind) bool {
	switch k {
	case topo.KindEnv, topo.KindProvider, topo.KindCluster:
		return true
	case topo.KindHost:
		return l >= LODMid
	case topo.KindVM:
		return l >= LODNear
	}
	return false
}

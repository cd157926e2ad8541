package scene

import "time"

// Config carries the interaction and level-of-detail tunables.
//
// The LOD thresholds and label cutoffs are configuration, not derived
// invariants: the defaults below are the values the map shipped with, and a
// config file may override them.
type Config struct {
	// LODFar is the scale below which only env/provider/cluster nodes are
	// drawn and hit-testable.
	LODFar float64
	// LODNear is the scale at or above which vm nodes join the scene.
	// Hosts appear in the band [LODFar, LODNear).
	LODNear float64

	// ClusterLabelMax is the visible-cluster count at or below which every
	// cluster gets a label even without hover or selection.
	ClusterLabelMax int
	// HostBadgeMin is the vm count above which a host gets a "+N" badge at
	// mid LOD.
	HostBadgeMin int

	// MinScale and MaxScale clamp the camera zoom.
	MinScale float64
	MaxScale float64
	// WheelStep is the per-tick zoom factor (its inverse zooms out).
	WheelStep float64

	// SeekIdle is how long after the last user interaction the camera may
	// start easing toward an external target.
	SeekIdle time.Duration
	// SeekRate is the fraction of remaining distance covered per frame
	// while seeking. The approach is exponential: it converges
	// asymptotically and never fires a "done" event.
	SeekRate float64

	// DragThreshold is the pointer displacement in px beyond which a
	// press-move-release counts as a drag rather than a click.
	DragThreshold float64

	// HitSlop multiplies a node's radius for hit-testing, using the same
	// radius formula as drawing so selection and visuals agree.
	HitSlop float64

	// HaloUsagePct is the cpu/ram usage at or above which a node gets a
	// translucent warning halo.
	HaloUsagePct float64
}

// DefaultConfig returns the shipped tunables.
func DefaultConfig() Config {
	return Config{
		LODFar:          0.9,
		LODNear:         2.2,
		ClusterLabelMax: 18,
		HostBadgeMin:    24,
		MinScale:        0.25,
		MaxScale:        6,
		WheelStep:       1.1,
		SeekIdle:        900 * time.Millisecond,
		SeekRate:        0.08,
		DragThreshold:   4,
		HitSlop:         1.4,
		HaloUsagePct:    85,
	}
}

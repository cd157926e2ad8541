package topo

// HashString is the stable 32-bit rolling string hash used everywhere the
// map needs deterministic jitter: layout angles, vm scatter, pulse phases.
//
// The algorithm is hash = hash*31 + char with 32-bit wraparound, absolute
// value taken at the end. It must not be swapped for another hash or a PRNG:
// an id that reappears across rebuilds has to keep the same jittered
// position and phase, or nodes visually jump on every refresh.
func HashString(s string) int {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}

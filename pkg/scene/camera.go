package scene

// Camera is the pan/zoom transform mapping world coordinates to screen
// coordinates: screen = world*Scale + Offset.
//
// The camera is plain mutable state shared by the frame loop and the pointer
// handlers. Both run on the same goroutine (the render loop is cooperative,
// see Engine), so there is deliberately no synchronization here.
type Camera struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// ToScreen maps a world coordinate to screen space.
func (c Camera) ToScreen(wx, wy float64) (float64, float64) {
	return wx*c.Scale + c.OffsetX, wy*c.Scale + c.OffsetY
}

// ToWorld inverts the transform, mapping a screen coordinate to world space.
func (c Camera) ToWorld(sx, sy float64) (float64, float64) {
	return (sx - c.OffsetX) / c.Scale, (sy - c.OffsetY) / c.Scale
}

// ZoomAt scales the camera by factor, clamped to [min, max], keeping the
// world point under the given screen coordinate fixed — classic
// zoom-to-cursor.
func (c *Camera) ZoomAt(sx, sy, factor, min, max float64) {
	next := c.Scale * factor
	if next < min {
		next = min
	}
	if next > max {
		next = max
	}
	if next == c.Scale {
		return
	}
	wx, wy := c.ToWorld(sx, sy)
	c.Scale = next
	c.OffsetX = sx - wx*c.Scale
	c.OffsetY = sy - wy*c.Scale
}

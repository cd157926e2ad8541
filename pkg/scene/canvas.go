package scene

// Canvas is the drawing surface the engine renders one frame onto. All
// coordinates are device pixels: the engine applies the camera transform
// and the device-pixel-ratio scaling before calling these methods, so
// implementations stay dumb.
//
// Implementations: SVG and PNG sinks under scene/sink, and the terminal
// cell canvas in the viewer.
type Canvas interface {
	// Clear wipes the surface to the background color.
	Clear(bg Color)

	// Line draws a straight segment. Used for edges: thin, translucent,
	// non-interactive.
	Line(x1, y1, x2, y2 float64, col Color, alpha, width float64)

	// Circle draws a filled circle.
	Circle(x, y, r float64, col Color, alpha float64)

	// Ring draws an unfilled circle outline.
	Ring(x, y, r float64, col Color, alpha, width float64)

	// Hexagon draws a filled regular hexagon (flat-topped). Providers are
	// the only hexagonal node kind.
	Hexagon(x, y, r float64, col Color, alpha float64)

	// Label draws text on a rounded pill background, horizontally centered
	// at x with the pill's vertical center at y.
	Label(x, y float64, text string, fg, bg Color, alpha float64)
}

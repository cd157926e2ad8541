package cli

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/topolens/topolens/pkg/scene"
)

// cellCanvas implements scene.Canvas on a terminal cell grid. Each cell
// packs two vertically stacked pixels rendered with the upper half block
// ("▀"): the foreground colors the top pixel, the background the bottom.
// A canvas of cols × rows cells therefore exposes a cols × 2·rows pixel
// surface to the engine.
type cellCanvas struct {
	cols, rows int // terminal cells
	bg         scene.Color
	pixels     []scene.Color // cols × 2·rows, row-major
	labels     []cellLabel
}

// cellLabel is a deferred text overlay. Labels are stamped over the pixel
// grid at render time so they stay crisp instead of being rasterized.
type cellLabel struct {
	x, y   float64 // pixel coordinates, x is the horizontal center
	text   string
	fg, bg scene.Color
}

// newCellCanvas creates a canvas for a terminal area of cols × rows cells.
func newCellCanvas(cols, rows int) *cellCanvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &cellCanvas{
		cols:   cols,
		rows:   rows,
		pixels: make([]scene.Color, cols*rows*2),
	}
}

// PixelSize returns the pixel surface the engine should be resized to.
func (c *cellCanvas) PixelSize() (w, h float64) {
	return float64(c.cols), float64(c.rows * 2)
}

func (c *cellCanvas) Clear(bg scene.Color) {
	c.bg = bg
	for i := range c.pixels {
		c.pixels[i] = bg
	}
	c.labels = c.labels[:0]
}

func (c *cellCanvas) Line(x1, y1, x2, y2 float64, col scene.Color, alpha, width float64) {
	// Bresenham over the pixel grid; width is ignored because a terminal
	// pixel is already thicker than any edge the engine draws.
	x, y := int(math.Round(x1)), int(math.Round(y1))
	ex, ey := int(math.Round(x2)), int(math.Round(y2))
	dx, dy := abs(ex-x), -abs(ey-y)
	sx, sy := 1, 1
	if x > ex {
		sx = -1
	}
	if y > ey {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x, y, col, alpha)
		if x == ex && y == ey {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (c *cellCanvas) Circle(x, y, r float64, col scene.Color, alpha float64) {
	c.fillDisc(x, y, r, func(d float64) bool { return d <= r }, col, alpha)
}

func (c *cellCanvas) Ring(x, y, r float64, col scene.Color, alpha, width float64) {
	half := math.Max(width/2, 0.6)
	c.fillDisc(x, y, r+half, func(d float64) bool { return d >= r-half && d <= r+half }, col, alpha)
}

func (c *cellCanvas) Hexagon(x, y, r float64, col scene.Color, alpha float64) {
	// Vertices match the SVG sink: flat-topped, first point at π/6.
	var vx, vy [6]float64
	for i := 0; i < 6; i++ {
		a := math.Pi/6 + float64(i)*math.Pi/3
		vx[i] = x + r*math.Cos(a)
		vy[i] = y + r*math.Sin(a)
	}
	c.fillDisc(x, y, r, func(float64) bool { return true }, col, alpha, func(px, py float64) bool {
		return inConvexPolygon(px, py, vx[:], vy[:])
	})
}

func (c *cellCanvas) Label(x, y float64, text string, fg, bg scene.Color, alpha float64) {
	if alpha <= 0.05 || text == "" {
		return
	}
	c.labels = append(c.labels, cellLabel{x: x, y: y, text: text, fg: fg, bg: bg})
}

// fillDisc visits every pixel in the bounding square of (x, y, r) and sets
// those accepted by the distance predicate and, when given, the extra
// point predicate.
func (c *cellCanvas) fillDisc(x, y, r float64, keep func(d float64) bool, col scene.Color, alpha float64, inside ...func(px, py float64) bool) {
	minX := int(math.Floor(x - r))
	maxX := int(math.Ceil(x + r))
	minY := int(math.Floor(y - r))
	maxY := int(math.Ceil(y + r))
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx, fy := float64(px)+0.5, float64(py)+0.5
			if !keep(math.Hypot(fx-x, fy-y)) {
				continue
			}
			if len(inside) > 0 && !inside[0](fx, fy) {
				continue
			}
			c.set(px, py, col, alpha)
		}
	}
}

// set blends a pixel toward col by alpha, clipping out-of-bounds writes.
func (c *cellCanvas) set(x, y int, col scene.Color, alpha float64) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows*2 {
		return
	}
	i := y*c.cols + x
	c.pixels[i] = blendColor(c.pixels[i], col, alpha)
}

// =============================================================================
// Rendering
// =============================================================================

// cell is one resolved terminal cell: a rune plus its two colors.
type cell struct {
	ch     rune
	fg, bg scene.Color
}

// Render composes the pixel grid and label overlays into styled terminal
// lines.
func (c *cellCanvas) Render() string {
	grid := make([]cell, c.cols*c.rows)
	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			grid[row*c.cols+col] = cell{
				ch: '▀',
				fg: c.pixels[(row*2)*c.cols+col],
				bg: c.pixels[(row*2+1)*c.cols+col],
			}
		}
	}

	for _, l := range c.labels {
		c.stamp(grid, l)
	}

	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		c.renderRow(&b, grid[row*c.cols:(row+1)*c.cols])
	}
	return b.String()
}

// stamp writes a label's runes over the grid, centered at the label's
// pixel x with one padding cell on each side.
func (c *cellCanvas) stamp(grid []cell, l cellLabel) {
	row := int(l.y) / 2
	if row < 0 || row >= c.rows {
		return
	}
	runes := []rune(" " + l.text + " ")
	start := int(l.x) - len(runes)/2
	for i, r := range runes {
		col := start + i
		if col < 0 || col >= c.cols {
			continue
		}
		grid[row*c.cols+col] = cell{ch: r, fg: l.fg, bg: l.bg}
	}
}

// renderRow emits one terminal line, batching runs of identical color
// pairs into a single styled segment to keep the escape-code volume down.
func (c *cellCanvas) renderRow(b *strings.Builder, row []cell) {
	var run strings.Builder
	var fg, bg scene.Color
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(string(fg))).
			Background(lipgloss.Color(string(bg)))
		b.WriteString(style.Render(run.String()))
		run.Reset()
	}
	for i, cl := range row {
		if i == 0 || cl.fg != fg || cl.bg != bg {
			flush()
			fg, bg = cl.fg, cl.bg
		}
		run.WriteRune(cl.ch)
	}
	flush()
}

// =============================================================================
// Color math
// =============================================================================

// blendColor mixes src over dst at the given opacity and returns the
// resulting hex color. Invalid colors pass through src unchanged.
func blendColor(dst, src scene.Color, alpha float64) scene.Color {
	if alpha >= 1 {
		return src
	}
	if alpha <= 0 {
		return dst
	}
	dr, dg, db, ok1 := parseHex(dst)
	sr, sg, sb, ok2 := parseHex(src)
	if !ok1 || !ok2 {
		return src
	}
	mix := func(d, s int) int {
		return int(float64(d) + (float64(s)-float64(d))*alpha)
	}
	return hexColor(mix(dr, sr), mix(dg, sg), mix(db, sb))
}

// parseHex decodes "#rrggbb" into channel values.
func parseHex(c scene.Color) (r, g, b int, ok bool) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

// hexColor formats channel values back into "#rrggbb".
func hexColor(r, g, b int) scene.Color {
	clamp := func(v int) uint32 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint32(v)
	}
	v := clamp(r)<<16 | clamp(g)<<8 | clamp(b)
	out := strconv.FormatUint(uint64(v), 16)
	return scene.Color("#" + strings.Repeat("0", 6-len(out)) + out)
}

// inConvexPolygon reports whether (px, py) lies inside the convex polygon
// given by its vertices in order.
func inConvexPolygon(px, py float64, vx, vy []float64) bool {
	sign := 0.0
	for i := range vx {
		j := (i + 1) % len(vx)
		cross := (vx[j]-vx[i])*(py-vy[i]) - (vy[j]-vy[i])*(px-vx[i])
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ scene.Canvas = (*cellCanvas)(nil)

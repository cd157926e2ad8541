// Package sink provides offscreen scene.Canvas implementations: an SVG
// string builder and a PNG path that shells out to rsvg-convert.
package sink

import (
	"bytes"
	"fmt"
	"math"

	"github.com/topolens/topolens/pkg/scene"
)

const labelFontSize = 11.0

// SVG is a scene.Canvas that accumulates one frame as an SVG document.
// Coordinates arrive in device pixels, so the viewBox maps 1:1.
type SVG struct {
	width  float64
	height float64
	buf    bytes.Buffer
}

// NewSVG returns an empty SVG surface of the given pixel size.
func NewSVG(width, height float64) *SVG {
	return &SVG{width: width, height: height}
}

// Bytes closes the document and returns it. The surface stays usable:
// further draw calls append to the same frame.
func (s *SVG) Bytes() []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.width, s.height, s.width, s.height)
	out.Write(s.buf.Bytes())
	out.WriteString("</svg>\n")
	return out.Bytes()
}

func (s *SVG) Clear(bg scene.Color) {
	s.buf.Reset()
	fmt.Fprintf(&s.buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		s.width, s.height, bg)
}

func (s *SVG) Line(x1, y1, x2, y2 float64, col scene.Color, alpha, width float64) {
	fmt.Fprintf(&s.buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%.3f" stroke-width="%.2f"/>`+"\n",
		x1, y1, x2, y2, col, alpha, width)
}

func (s *SVG) Circle(x, y, r float64, col scene.Color, alpha float64) {
	fmt.Fprintf(&s.buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.3f"/>`+"\n",
		x, y, r, col, alpha)
}

func (s *SVG) Ring(x, y, r float64, col scene.Color, alpha, width float64) {
	fmt.Fprintf(&s.buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-opacity="%.3f" stroke-width="%.2f"/>`+"\n",
		x, y, r, col, alpha, width)
}

func (s *SVG) Hexagon(x, y, r float64, col scene.Color, alpha float64) {
	var pts bytes.Buffer
	for i := 0; i < 6; i++ {
		a := math.Pi/6 + float64(i)*math.Pi/3
		if i > 0 {
			pts.WriteByte(' ')
		}
		fmt.Fprintf(&pts, "%.2f,%.2f", x+r*math.Cos(a), y+r*math.Sin(a))
	}
	fmt.Fprintf(&s.buf, `  <polygon points="%s" fill="%s" fill-opacity="%.3f"/>`+"\n",
		pts.String(), col, alpha)
}

func (s *SVG) Label(x, y float64, text string, fg, bg scene.Color, alpha float64) {
	// Pill sized by a fixed per-glyph advance; close enough for a
	// monospace-ish UI font at this size.
	w := float64(len([]rune(text)))*labelFontSize*0.62 + 12
	h := labelFontSize + 8
	fmt.Fprintf(&s.buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.1f" fill="%s" fill-opacity="%.3f"/>`+"\n",
		x-w/2, y-h/2, w, h, h/2, bg, alpha*0.85)
	fmt.Fprintf(&s.buf, `  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="%.1f" fill="%s" fill-opacity="%.3f">%s</text>`+"\n",
		x, y, labelFontSize, fg, alpha, escapeXML(text))
}

func escapeXML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

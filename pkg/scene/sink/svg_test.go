package sink

import (
	"strings"
	"testing"
)

func TestSVGDocumentShape(t *testing.T) {
	s := NewSVG(800, 600)
	s.Clear("#10141a")
	s.Line(0, 0, 100, 50, "#5a6478", 0.18, 1)
	s.Circle(40, 40, 12, "#4fc1e9", 0.9)
	s.Ring(40, 40, 18, "#ffd166", 0.9, 2)
	s.Hexagon(120, 80, 18, "#a0d468", 0.9)
	s.Label(40, 60, "prod", "#e8ecf4", "#1d2430", 1)

	doc := string(s.Bytes())

	for _, want := range []string{
		`viewBox="0 0 800.0 600.0"`,
		`<rect x="0" y="0" width="800.0" height="600.0" fill="#10141a"/>`,
		`<line `,
		`<circle cx="40.00" cy="40.00" r="12.00" fill="#4fc1e9"`,
		`stroke="#ffd166"`,
		`<polygon points="`,
		`>prod</text>`,
		`</svg>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestSVGClearResetsFrame(t *testing.T) {
	s := NewSVG(100, 100)
	s.Clear("#000000")
	s.Circle(10, 10, 5, "#ffffff", 1)
	s.Clear("#000000")

	doc := string(s.Bytes())
	if strings.Contains(doc, "<circle") {
		t.Errorf("circle from previous frame survived Clear:\n%s", doc)
	}
}

func TestSVGHexagonHasSixPoints(t *testing.T) {
	s := NewSVG(100, 100)
	s.Clear("#000000")
	s.Hexagon(50, 50, 10, "#ffffff", 1)

	doc := string(s.Bytes())
	start := strings.Index(doc, `points="`)
	if start < 0 {
		t.Fatalf("no polygon in:\n%s", doc)
	}
	rest := doc[start+len(`points="`):]
	pts := rest[:strings.Index(rest, `"`)]
	if got := len(strings.Fields(pts)); got != 6 {
		t.Errorf("hexagon has %d points, want 6: %q", got, pts)
	}
}

func TestSVGLabelEscapesMarkup(t *testing.T) {
	s := NewSVG(100, 100)
	s.Clear("#000000")
	s.Label(50, 50, `a<b&"c"`, "#ffffff", "#000000", 1)

	doc := string(s.Bytes())
	if !strings.Contains(doc, "a&lt;b&amp;&quot;c&quot;") {
		t.Errorf("label not escaped:\n%s", doc)
	}
}

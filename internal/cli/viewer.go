package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

// frameInterval paces the viewer's redraw loop.
const frameInterval = time.Second / 30

// panStep is the keyboard pan distance in pixels. It must exceed the
// engine's drag threshold or the simulated drag degrades into a click.
const panStep = 24.0

// frameTickMsg triggers the next engine frame.
type frameTickMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// seekScales are the zoom levels the camera eases to when focusing a node
// of each kind: outer levels want an overview, vms want close-up detail.
var seekScales = map[topo.Kind]float64{
	topo.KindEnv:      0.7,
	topo.KindProvider: 1.2,
	topo.KindCluster:  1.8,
	topo.KindHost:     2.6,
	topo.KindVM:       3.2,
}

// viewerModel is the bubbletea model driving the interactive map.
type viewerModel struct {
	engine *scene.Engine
	canvas *cellCanvas
	title  string

	cols, rows int // drawable cells, excluding the two footer lines
	ready      bool
	frame      string
}

// newViewerModel creates a viewer around a prepared engine.
func newViewerModel(engine *scene.Engine, title string) viewerModel {
	return viewerModel{engine: engine, title: title}
}

func (m viewerModel) Init() tea.Cmd {
	return frameTick()
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := !m.ready
		m.cols = msg.Width
		m.rows = msg.Height - 2
		if m.rows < 4 {
			m.rows = 4
		}
		m.canvas = newCellCanvas(m.cols, m.rows)
		w, h := m.canvas.PixelSize()
		m.engine.Resize(w, h, 1)
		if first {
			// Ease out to an overview: terminal pixel surfaces are small,
			// so scale 1 starts closer than is useful.
			m.engine.SetTarget(&scene.Target{Scale: 0.5})
		}
		m.ready = true

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case frameTickMsg:
		if m.ready {
			m.engine.Frame(m.canvas)
			m.frame = m.canvas.Render()
		}
		return m, frameTick()
	}
	return m, nil
}

func (m viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cx, cy := m.center()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		m.engine.Wheel(-1, cx, cy)
	case "-", "_":
		m.engine.Wheel(1, cx, cy)
	case "left", "h":
		m.pan(panStep, 0)
	case "right", "l":
		m.pan(-panStep, 0)
	case "up", "k":
		m.pan(0, panStep)
	case "down", "j":
		m.pan(0, -panStep)
	case "f", "enter":
		m.focusSelected()
	case "esc":
		m.engine.Select("")
		m.engine.SetFocus("")
		m.engine.SetTarget(nil)
	}
	return m, nil
}

// pan nudges the camera by simulating a short drag from the screen center.
func (m viewerModel) pan(dx, dy float64) {
	cx, cy := m.center()
	m.engine.PointerDown(cx, cy)
	m.engine.PointerMove(cx+dx, cy+dy)
	m.engine.PointerUp()
}

// focusSelected installs a focus ring and camera seek on the selection.
func (m viewerModel) focusSelected() {
	id := m.engine.SelectedID()
	if id == "" {
		return
	}
	m.engine.SetFocus(id)
	lay := m.engine.Layout()
	if n := lay.NodeByID(id); n != nil {
		scale := seekScales[n.Type]
		if scale == 0 {
			scale = 1
		}
		m.engine.SetTarget(&scene.Target{X: n.X, Y: n.Y, Scale: scale})
	}
}

func (m viewerModel) handleMouse(msg tea.MouseMsg) {
	// Terminal cells are one pixel wide and two pixels tall.
	px, py := float64(msg.X), float64(msg.Y*2)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.engine.PointerDown(px, py)
		case tea.MouseButtonWheelUp:
			m.engine.Wheel(-1, px, py)
		case tea.MouseButtonWheelDown:
			m.engine.Wheel(1, px, py)
		}
	case tea.MouseActionMotion:
		m.engine.PointerMove(px, py)
	case tea.MouseActionRelease:
		m.engine.PointerUp()
	}
}

func (m viewerModel) center() (float64, float64) {
	return float64(m.cols) / 2, float64(m.rows)
}

func (m viewerModel) View() string {
	if !m.ready {
		return StyleDim.Render("measuring terminal...")
	}
	return m.frame + "\n" + m.statusLine() + "\n" + m.helpLine()
}

// statusLine shows the title plus the selected node, if any.
func (m viewerModel) statusLine() string {
	line := StyleTitle.Render(m.title)
	id := m.engine.SelectedID()
	if id == "" {
		return line
	}
	lay := m.engine.Layout()
	n := lay.NodeByID(id)
	if n == nil {
		return line
	}
	return line + StyleDim.Render("  ·  ") + StyleValue.Render(describeNode(n))
}

// describeNode formats a one-line summary for the status bar.
func describeNode(n *layout.Node) string {
	s := fmt.Sprintf("%s %s", n.Type, n.Name)
	switch {
	case n.Type == topo.KindVM:
		if n.PowerState != "" {
			s += " · " + n.PowerState
		}
	case n.Type == topo.KindHost:
		if n.Meta != nil {
			s += fmt.Sprintf(" · %d vms", n.Meta.VMCount)
		}
	default:
		if n.Meta != nil {
			s += fmt.Sprintf(" · %d vms (%d on, %d off)", n.Meta.Total, n.Meta.On, n.Meta.Off)
		}
	}
	return s
}

func (m viewerModel) helpLine() string {
	return StyleDim.Render("drag/arrows pan · wheel/+- zoom · click select · f focus · esc clear · q quit")
}

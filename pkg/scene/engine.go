// Package scene implements the render and interaction engine of the
// topology map: camera model, level-of-detail policy, per-frame drawing,
// pointer hit-testing, and selection callbacks.
//
// The engine is single-threaded by design. It is driven by an external
// frame scheduler (the terminal viewer ticks it, a headless caller steps it
// directly); pointer handlers and the frame callback mutate the same plain
// camera/drag state and must run on the same goroutine. There are no locks
// — introducing them would only hide misuse.
//
// Drawing goes through the Canvas interface, so the same engine renders to
// SVG, PNG, and terminal cells, and tests can capture draw calls.
package scene

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

// Node radii in world units. Hosts grow with sqrt(vmCount), capped; the
// upper levels get a gentler boost from their aggregate totals.
const (
	radiusEnv      = 26.0
	radiusProvider = 18.0
	radiusCluster  = 12.0
	radiusHost     = 8.0
	radiusVM       = 3.5

	hostBoostCap  = 10.0
	groupBoostCap = 8.0

	labelMaxRunes = 22
	pulseHz       = 0.8
)

// Target is an externally supplied camera destination. While set, the
// camera eases toward it whenever the user has been idle long enough.
type Target struct {
	X     float64
	Y     float64
	Scale float64
}

// Callbacks connect the engine to its host.
type Callbacks struct {
	// OnSelectNode fires when a click (pointer up without drag) lands on a
	// node.
	OnSelectNode func(layout.Node)

	// OnUserInteraction fires on drag-start and wheel, letting the host
	// suppress auto camera-seek.
	OnUserInteraction func()

	// OnNodePositionsReady fires once per layout-signature change with the
	// freshly positioned nodes, for host-built id→position indexes.
	OnNodePositionsReady func([]layout.Node)
}

// Engine owns the scene state: graph, layout, camera, hover/selection, and
// the frame clock.
type Engine struct {
	cfg   Config
	theme Theme
	cb    Callbacks
	clock func() time.Time

	width  float64 // CSS px
	height float64
	dpr    float64
	sized  bool

	nodes []topo.Node
	links []topo.Link
	lay   layout.Layout
	sig   string

	// byID indexes positioned nodes; toneOf maps every node id to its
	// environment's tone color.
	byID   map[string]*layout.Node
	toneOf map[string]Color

	cam    Camera
	target *Target

	lastInteraction time.Time
	start           time.Time

	drag struct {
		active bool
		moved  bool
		startX float64
		startY float64
		lastX  float64
		lastY  float64
	}

	hoverID    string
	selectedID string
	focusID    string

	hasPulse bool
}

// New creates an engine with the given tunables, palette, and callbacks.
// Zero-value callbacks are fine; the engine checks before calling.
func New(cfg Config, theme Theme, cb Callbacks) *Engine {
	e := &Engine{
		cfg:   cfg,
		theme: theme,
		cb:    cb,
		clock: time.Now,
		dpr:   1,
		cam:   Camera{Scale: 1},
	}
	e.start = e.clock()
	return e
}

// SetClock replaces the time source. Tests use a fake clock to step easing
// and pulse deterministically.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
	e.start = clock()
}

// =============================================================================
// Inputs
// =============================================================================

// SetGraph replaces the node/edge set. The layout recomputes only when the
// graph's identity signature actually changed.
func (e *Engine) SetGraph(g topo.Graph) {
	e.nodes = g.Nodes
	e.links = g.Links
	e.relayout()
}

// Resize updates the canvas size and device pixel ratio. The first resize
// centers the camera on the world origin, where the layout roots its rings.
func (e *Engine) Resize(width, height, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	e.width, e.height, e.dpr = width, height, dpr
	if !e.sized && width > 0 && height > 0 {
		e.sized = true
		e.cam = Camera{Scale: 1, OffsetX: width / 2, OffsetY: height / 2}
	}
	e.relayout()
}

// SetFocus sets the node that gets the animated breathing ring. Unknown ids
// are kept verbatim and simply never match.
func (e *Engine) SetFocus(id string) { e.focusID = id }

// Select sets the current selection (static emphasis ring) without firing
// the selection callback.
func (e *Engine) Select(id string) { e.selectedID = id }

// SelectedID returns the current selection.
func (e *Engine) SelectedID() string { return e.selectedID }

// SetTarget installs (or clears, with nil) the camera seek target.
func (e *Engine) SetTarget(t *Target) { e.target = t }

// Camera returns the current camera transform.
func (e *Engine) Camera() Camera { return e.cam }

// Layout returns the current positioned layout.
func (e *Engine) Layout() layout.Layout { return e.lay }

// relayout recomputes positions when the signature changed and rebuilds the
// per-layout indexes.
func (e *Engine) relayout() {
	sig := layout.Signature(e.nodes, e.links, e.width, e.height)
	if sig == e.sig {
		return
	}
	e.sig = sig
	e.lay = layout.Compute(e.nodes, e.links, e.width, e.height)

	e.byID = make(map[string]*layout.Node, len(e.lay.Nodes))
	e.hasPulse = false
	for i := range e.lay.Nodes {
		n := &e.lay.Nodes[i]
		e.byID[n.ID] = n
		if n.Type == topo.KindVM && classifyState(n.PowerState) == stateOn {
			e.hasPulse = true
		}
	}
	e.buildTones()

	if _, ok := e.byID[e.hoverID]; !ok {
		e.hoverID = ""
	}

	if e.cb.OnNodePositionsReady != nil && len(e.lay.Nodes) > 0 {
		e.cb.OnNodePositionsReady(e.lay.Nodes)
	}
}

// buildTones assigns each environment an ordered tone and propagates it to
// descendants by walking parent links.
func (e *Engine) buildTones() {
	e.toneOf = make(map[string]Color, len(e.lay.Nodes))
	envIdx := 0
	for i := range e.lay.Nodes {
		if e.lay.Nodes[i].Type == topo.KindEnv {
			e.toneOf[e.lay.Nodes[i].ID] = e.theme.tone(envIdx)
			envIdx++
		}
	}
	for i := range e.lay.Nodes {
		n := &e.lay.Nodes[i]
		if n.Type == topo.KindEnv {
			continue
		}
		e.toneOf[n.ID] = e.resolveTone(n)
	}
}

func (e *Engine) resolveTone(n *layout.Node) Color {
	cur := n
	for depth := 0; depth < 8; depth++ {
		if tone, ok := e.toneOf[cur.ID]; ok {
			return tone
		}
		parent, ok := e.byID[cur.Node.ParentID()]
		if !ok {
			break
		}
		cur = parent
	}
	return e.theme.Neutral
}

// =============================================================================
// Pointer interaction
// =============================================================================

// PointerDown starts a potential drag at a screen coordinate (CSS px).
func (e *Engine) PointerDown(x, y float64) {
	e.drag.active = true
	e.drag.moved = false
	e.drag.startX, e.drag.startY = x, y
	e.drag.lastX, e.drag.lastY = x, y
	e.touch()
	if e.cb.OnUserInteraction != nil {
		e.cb.OnUserInteraction()
	}
}

// PointerMove pans while dragging; otherwise it updates hover via
// hit-testing.
func (e *Engine) PointerMove(x, y float64) {
	if e.drag.active {
		e.cam.OffsetX += x - e.drag.lastX
		e.cam.OffsetY += y - e.drag.lastY
		e.drag.lastX, e.drag.lastY = x, y
		if math.Hypot(x-e.drag.startX, y-e.drag.startY) > e.cfg.DragThreshold {
			e.drag.moved = true
		}
		e.touch()
		return
	}
	if n, ok := e.HitTest(x, y); ok {
		e.hoverID = n.ID
	} else {
		e.hoverID = ""
	}
}

// PointerUp ends a drag. A press-release that never exceeded the drag
// threshold while a node is hovered counts as a click and fires selection.
func (e *Engine) PointerUp() {
	wasClick := e.drag.active && !e.drag.moved
	e.drag.active = false
	if !wasClick || e.hoverID == "" {
		return
	}
	n, ok := e.byID[e.hoverID]
	if !ok {
		return
	}
	e.selectedID = n.ID
	if e.cb.OnSelectNode != nil {
		e.cb.OnSelectNode(*n)
	}
}

// Wheel zooms by one tick at the given cursor position. Negative delta
// zooms in.
func (e *Engine) Wheel(delta, x, y float64) {
	factor := e.cfg.WheelStep
	if delta > 0 {
		factor = 1 / e.cfg.WheelStep
	}
	e.cam.ZoomAt(x, y, factor, e.cfg.MinScale, e.cfg.MaxScale)
	e.touch()
	if e.cb.OnUserInteraction != nil {
		e.cb.OnUserInteraction()
	}
}

func (e *Engine) touch() { e.lastInteraction = e.clock() }

// HitTest maps a screen coordinate to the nearest node visible at the
// current LOD whose distance is within HitSlop × its radius. The radius
// formula is shared with drawing so selection and visuals agree.
func (e *Engine) HitTest(x, y float64) (layout.Node, bool) {
	wx, wy := e.cam.ToWorld(x, y)
	lod := LevelFor(e.cam.Scale, e.cfg.LODFar, e.cfg.LODNear)

	var best *layout.Node
	bestDist := math.Inf(1)
	for i := range e.lay.Nodes {
		n := &e.lay.Nodes[i]
		if !lod.Visible(n.Type) || math.IsNaN(n.X) || math.IsNaN(n.Y) {
			continue
		}
		d := math.Hypot(wx-n.X, wy-n.Y)
		if d <= e.cfg.HitSlop*e.radiusOf(n) && d < bestDist {
			best, bestDist = n, d
		}
	}
	if best == nil {
		return layout.Node{}, false
	}
	return *best, true
}

// =============================================================================
// Frame loop
// =============================================================================

// Frame advances camera easing and draws one frame onto the canvas. The
// host's scheduler calls this once per animation frame; exactly one call
// may be in flight (single-threaded access).
func (e *Engine) Frame(c Canvas) {
	now := e.clock()
	e.stepCamera(now)
	e.draw(c, now)
}

// Animating reports whether a redraw-on-change host should keep scheduling
// frames: an active drag, an installed seek target, a focus ring, or any
// pulse-bearing powered-on vm.
func (e *Engine) Animating() bool {
	return e.drag.active || e.target != nil || e.focusID != "" || e.hasPulse
}

// stepCamera eases 8% of the remaining distance toward the seek target each
// frame once the user has been idle past SeekIdle. The approach converges
// asymptotically; the target stays installed until replaced or cleared.
func (e *Engine) stepCamera(now time.Time) {
	if e.target == nil || e.drag.active {
		return
	}
	if now.Sub(e.lastInteraction) < e.cfg.SeekIdle {
		return
	}
	t := e.target
	e.cam.Scale += (t.Scale - e.cam.Scale) * e.cfg.SeekRate
	// Offsets chase the screen position that would center the target point.
	wantX := e.width/2 - t.X*e.cam.Scale
	wantY := e.height/2 - t.Y*e.cam.Scale
	e.cam.OffsetX += (wantX - e.cam.OffsetX) * e.cfg.SeekRate
	e.cam.OffsetY += (wantY - e.cam.OffsetY) * e.cfg.SeekRate
}

func (e *Engine) draw(c Canvas, now time.Time) {
	c.Clear(e.theme.Background)
	if len(e.lay.Nodes) == 0 {
		return
	}

	lod := LevelFor(e.cam.Scale, e.cfg.LODFar, e.cfg.LODNear)
	t := now.Sub(e.start).Seconds()

	// Edges first: both endpoints must be visible at the current LOD.
	for _, l := range e.lay.Links {
		src, okS := e.byID[l.Source]
		dst, okD := e.byID[l.Target]
		if !okS || !okD || !lod.Visible(src.Type) || !lod.Visible(dst.Type) {
			continue
		}
		x1, y1 := e.proj(l.X1, l.Y1)
		x2, y2 := e.proj(l.X2, l.Y2)
		c.Line(x1, y1, x2, y2, e.theme.Edge, 0.18, e.dpr)
	}

	visibleClusters := 0
	for i := range e.lay.Nodes {
		if e.lay.Nodes[i].Type == topo.KindCluster {
			visibleClusters++
		}
	}

	// Nodes in array order; no z-sort.
	for i := range e.lay.Nodes {
		n := &e.lay.Nodes[i]
		if !lod.Visible(n.Type) || math.IsNaN(n.X) || math.IsNaN(n.Y) {
			continue
		}
		e.drawNode(c, n, lod, t, visibleClusters)
	}
}

func (e *Engine) drawNode(c Canvas, n *layout.Node, lod LOD, t float64, visibleClusters int) {
	sx, sy := e.proj(n.X, n.Y)
	r := e.radiusOf(n) * e.cam.Scale * e.dpr
	tone := e.toneOf[n.ID]
	alpha := e.nodeAlpha(n, t)

	if n.Type == topo.KindProvider {
		c.Hexagon(sx, sy, r, tone, alpha)
	} else {
		c.Circle(sx, sy, r, tone, alpha)
	}

	// Scale-independent warning halo at high cpu/ram usage.
	if e.overloaded(n) {
		c.Ring(sx, sy, r+6*e.dpr, e.theme.Halo, 0.35, 2*e.dpr)
	}

	if n.ID == e.focusID {
		breath := 8 + 3*math.Sin(2*math.Pi*0.55*t)
		c.Ring(sx, sy, r+breath*e.dpr, e.theme.Focus, 0.8, 2*e.dpr)
	}
	if n.ID == e.selectedID {
		c.Ring(sx, sy, r+4*e.dpr, e.theme.Selection, 0.9, 2*e.dpr)
	}

	if lod == LODMid && n.Type == topo.KindHost && n.Meta != nil && n.Meta.VMCount > e.cfg.HostBadgeMin {
		badge := "+" + strconv.Itoa(n.Meta.VMCount)
		c.Label(sx+r, sy-r, badge, e.theme.Label, e.theme.LabelBG, 0.9)
	}

	if e.labelVisible(n, lod, visibleClusters) {
		c.Label(sx, sy+r+10*e.dpr, truncateLabel(n.Name), e.theme.Label, e.theme.LabelBG, 0.85)
	}
}

// labelVisible applies the per-kind label policy.
func (e *Engine) labelVisible(n *layout.Node, lod LOD, visibleClusters int) bool {
	emphasized := n.ID == e.selectedID || n.ID == e.hoverID
	switch n.Type {
	case topo.KindEnv, topo.KindProvider:
		return true
	case topo.KindCluster:
		return emphasized || visibleClusters <= e.cfg.ClusterLabelMax
	case topo.KindHost:
		return lod != LODFar && emphasized
	case topo.KindVM:
		return n.ID == e.selectedID
	}
	return false
}

// nodeAlpha modulates fill opacity: powered-on vms pulse on a hash-seeded
// sine phase, powered-off vms are dimmed, everything else is steady.
func (e *Engine) nodeAlpha(n *layout.Node, t float64) float64 {
	if n.Type != topo.KindVM {
		return 0.9
	}
	switch classifyState(n.PowerState) {
	case stateOn:
		phase := float64(topo.HashString(n.ID)%628) / 100
		return 0.6 + 0.3*math.Sin(2*math.Pi*pulseHz*t+phase)
	case stateOff:
		return 0.3
	default:
		return 0.75
	}
}

// overloaded reports cpu or ram usage at/above the halo threshold. Missing
// or NaN metrics skip the effect rather than crash the loop.
func (e *Engine) overloaded(n *layout.Node) bool {
	check := func(p *float64) bool {
		return p != nil && !math.IsNaN(*p) && *p >= e.cfg.HaloUsagePct
	}
	return check(n.CPUUsagePct) || check(n.RAMUsagePct)
}

// radiusOf is the single radius formula shared by drawing and hit-testing.
// World units; the camera scale applies at draw time.
func (e *Engine) radiusOf(n *layout.Node) float64 {
	switch n.Type {
	case topo.KindEnv:
		return radiusEnv + groupBoost(n.Meta, 0.35)
	case topo.KindProvider:
		return radiusProvider + groupBoost(n.Meta, 0.3)
	case topo.KindCluster:
		return radiusCluster + groupBoost(n.Meta, 0.25)
	case topo.KindHost:
		boost := 0.0
		if n.Meta != nil {
			boost = 1.6 * math.Sqrt(float64(n.Meta.VMCount))
			if boost > hostBoostCap {
				boost = hostBoostCap
			}
		}
		return radiusHost + boost
	default:
		return radiusVM
	}
}

func groupBoost(m *topo.Meta, factor float64) float64 {
	if m == nil || m.Total <= 0 {
		return 0
	}
	boost := factor * math.Sqrt(float64(m.Total))
	if boost > groupBoostCap {
		boost = groupBoostCap
	}
	return boost
}

// proj maps world to device pixels: camera transform, then DPR scaling.
func (e *Engine) proj(wx, wy float64) (float64, float64) {
	sx, sy := e.cam.ToScreen(wx, wy)
	return sx * e.dpr, sy * e.dpr
}

// =============================================================================
// Small helpers
// =============================================================================

type vmState int

const (
	stateOther vmState = iota
	stateOn
	stateOff
)

func classifyState(s string) vmState {
	switch {
	case strings.EqualFold(s, "powered_on"):
		return stateOn
	case strings.EqualFold(s, "powered_off"):
		return stateOff
	default:
		return stateOther
	}
}

// truncateLabel cuts display text to the label budget with an ellipsis.
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= labelMaxRunes {
		return s
	}
	return string(runes[:labelMaxRunes-1]) + "…"
}

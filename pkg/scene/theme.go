package scene

// Color is a hex color string ("#rrggbb"). Sinks translate it to their own
// color model; the engine never does color math.
type Color string

// Theme is the small palette the map draws with: ordered tone colors for
// deterministic environment coloring plus a handful of fixed roles.
type Theme struct {
	Background Color `json:"background" toml:"background"`
	Neutral    Color `json:"neutral" toml:"neutral"`
	Edge       Color `json:"edge" toml:"edge"`
	Label      Color `json:"label" toml:"label"`
	LabelBG    Color `json:"label_bg" toml:"label_bg"`
	Halo       Color `json:"halo" toml:"halo"`
	Focus      Color `json:"focus" toml:"focus"`
	Selection  Color `json:"selection" toml:"selection"`

	// Tones color environments in order of appearance; the i-th environment
	// (sorted by name) takes Tones[i % len(Tones)]. Descendants inherit
	// their environment's tone.
	Tones []Color `json:"tones" toml:"tones"`
}

// DefaultTheme returns the shipped palette.
func DefaultTheme() Theme {
	return Theme{
		Background: "#10141a",
		Neutral:    "#8a93a5",
		Edge:       "#5a6478",
		Label:      "#e8ecf4",
		LabelBG:    "#1d2430",
		Halo:       "#ff5d5d",
		Focus:      "#ffd166",
		Selection:  "#ffffff",
		Tones: []Color{
			"#4fc1e9",
			"#a0d468",
			"#ac92ec",
			"#ffce54",
			"#48cfad",
			"#ed5565",
			"#5d9cec",
			"#fc6e51",
		},
	}
}

// tone returns the i-th tone, falling back to Neutral when the palette is
// empty.
func (t Theme) tone(i int) Color {
	if len(t.Tones) == 0 {
		return t.Neutral
	}
	return t.Tones[i%len(t.Tones)]
}

// Package export renders a topology graph as a static node-link diagram:
// Graphviz DOT text, or SVG/PNG via the Graphviz layout engine. This is the
// non-interactive complement to the scene engine, useful for docs and CI
// artifacts.
package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/topolens/topolens/pkg/scene/sink"
	"github.com/topolens/topolens/pkg/topo"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes power counters and usage metrics in node labels.
	// When false, only the node name is shown.
	Detailed bool
}

var kindShapes = map[topo.Kind]string{
	topo.KindEnv:      "doublecircle",
	topo.KindProvider: "hexagon",
	topo.KindCluster:  "ellipse",
	topo.KindHost:     "box",
	topo.KindVM:       "circle",
}

// ToDOT converts a topology graph to Graphviz DOT format. The resulting
// DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(g *topo.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph topology {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.Source, l.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n topo.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}

	parts := []string{string(n.Type)}
	if n.Meta != nil {
		parts = append(parts, fmt.Sprintf("total: %d", n.Meta.Total))
		if n.Meta.On > 0 || n.Meta.Off > 0 {
			parts = append(parts, fmt.Sprintf("on: %d / off: %d", n.Meta.On, n.Meta.Off))
		}
		if n.Type == topo.KindHost {
			parts = append(parts, fmt.Sprintf("vms: %d", n.Meta.VMCount))
		}
	}
	if n.CPUUsagePct != nil {
		parts = append(parts, fmt.Sprintf("cpu: %.0f%%", *n.CPUUsagePct))
	}

	return n.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n topo.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if s, ok := kindShapes[n.Type]; ok {
		attrs = append(attrs, fmt.Sprintf("shape=%s", s))
	}
	if n.Type == topo.KindVM && n.PowerState != "" && strings.EqualFold(n.PowerState, "powered_off") {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [RenderPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [sink.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return sink.ToPNG(svg, scale)
}

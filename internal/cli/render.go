package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
)

// renderCommand creates the render command for generating map artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [snapshot.json]",
		Short: "Render a topology map to SVG, PNG, DOT, or JSON",
		Long: `Render a topology map to SVG, PNG, DOT, or JSON.

The render command runs the full pipeline: build the graph, compute the
radial layout, and rasterize the map. SVG is the primary output; PNG is
rendered from the SVG (requires rsvg-convert), DOT emits a Graphviz
digraph of the containment tree, and JSON exports the computed layout.

Pass multiple formats comma-separated (e.g. -f svg,png) to generate
several files from one run. Results are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			opts.Refresh = refresh
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and re-render")

	// Pipeline flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "restrict the graph to a node's subtree (node id)")
	cmd.Flags().IntVar(&opts.Width, "width", pipeline.DefaultWidth, "canvas width")
	cmd.Flags().IntVar(&opts.Height, "height", pipeline.DefaultHeight, "canvas height")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster scale factor (png)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include aggregate counts in dot labels")

	return cmd
}

// runRender loads the snapshot and runs the full pipeline.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	snap, err := inventory.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.SnapshotID = input
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering topology map...")
	spinner.Start()

	result, err := runner.Execute(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	}); err != nil {
		return err
	}

	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.RenderHit)
	printNewline()
	printNextStep("Explore", "topolens view "+input)

	return nil
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{
	pipeline.FormatSVG:  true,
	pipeline.FormatPNG:  true,
	pipeline.FormatDOT:  true,
	pipeline.FormatJSON: true,
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
// This is used when generating multiple files (e.g. map.svg, map.png).
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Strip known format extensions from output path
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes each rendered format to disk. With a single format
// and an explicit output path, the artifact goes exactly there; otherwise
// paths are derived as <base>.<format>.
func writeArtifacts(p artifactWriteParams) error {
	if len(p.formats) == 1 && p.output != "" && filepath.Ext(p.output) != "" {
		data := p.artifacts[p.formats[0]]
		if err := os.WriteFile(p.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p.output, err)
		}
		printSuccess("Render complete")
		printFile(p.output)
		return nil
	}

	base := basePath(p.output, p.input)
	printSuccess("Render complete")
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := fmt.Sprintf("%s.%s", base, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

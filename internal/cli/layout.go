package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
)

// layoutCommand creates the layout command for computing radial layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Compute the radial layout for a snapshot's topology",
		Long: `Compute the radial layout for a snapshot's topology.

The layout command builds the topology graph and places every node on the
deterministic radial map: environments on the outer ring, providers,
clusters, and hosts on progressively smaller rings, and vms scattered
around their host. The output is a layout.json file with absolute
positions for the given canvas size.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and recompute")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "restrict the graph to a node's subtree (node id)")
	cmd.Flags().IntVar(&opts.Width, "width", pipeline.DefaultWidth, "canvas width")
	cmd.Flags().IntVar(&opts.Height, "height", pipeline.DefaultHeight, "canvas height")

	return cmd
}

// runLayout builds the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
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

	g, err := runner.Build(ctx, snap, opts)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	lay, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := writeJSONFile(lay, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(lay.Nodes), len(lay.Links), cacheHit)
	printNewline()
	printNextStep("Render", "topolens render "+input)

	return nil
}

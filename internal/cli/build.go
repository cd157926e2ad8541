package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
)

// buildCommand creates the build command for folding snapshots into graphs.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output  string
		focus   string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "build [snapshot.json]",
		Short: "Build a topology graph from an inventory snapshot",
		Long: `Build a topology graph from an inventory snapshot.

The build command reads a flat inventory snapshot (vms, hosts, and optional
kpi seeds) and folds it into the five-level topology graph: environment,
provider, cluster, host, vm. The output is a graph.json file that feeds the
'layout' and 'render' commands.

Pass --focus with a node id (e.g. provider:prod:vmware) to restrict the
graph to that node's subtree plus its ancestor chain.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args[0], output, focus, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	cmd.Flags().StringVar(&focus, "focus", "", "restrict the graph to a node's subtree (node id)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and rebuild")

	return cmd
}

// runBuild loads the snapshot, builds the graph, and writes output.
func (c *CLI) runBuild(ctx context.Context, input, output, focus string, noCache, refresh bool) error {
	snap, err := inventory.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}
	c.Logger.Infof("Loaded snapshot: %d vms, %d hosts", len(snap.VMs), len(snap.Hosts))

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		SnapshotID: input,
		Focus:      focus,
		Refresh:    refresh,
		Logger:     c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Building topology...")
	spinner.Start()

	g, cacheHit, err := runner.BuildWithCacheInfo(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return fmt.Errorf("build graph: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".graph.json"
	}

	if err := writeJSONFile(g, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Graph built")
	printFile(outputPath)
	printStats(len(g.Nodes), len(g.Links), cacheHit)
	printNewline()
	printNextStep("Compute layout", "topolens layout "+input)

	return nil
}

// writeJSONFile marshals v with indentation and writes it to path.
func writeJSONFile(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

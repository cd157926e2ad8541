package cli

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/topolens/topolens/pkg/config"
	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
	"github.com/topolens/topolens/pkg/scene"
)

// viewCommand creates the view command for the interactive terminal map.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		focus      string
		noCache    bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "view [snapshot.json]",
		Short: "Explore a topology map interactively in the terminal",
		Long: `Explore a topology map interactively in the terminal.

The view command builds the topology graph and opens a full-screen map:
drag or use the arrow keys to pan, scroll or press +/- to zoom, click a
node to select it, and press f to install a focus ring and let the camera
ease toward the selection. Zooming changes the level of detail: far out
only environments and providers are drawn, close in every vm appears.

Press q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], focus, configPath, noCache)
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "restrict the graph to a node's subtree (node id)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file (scene and theme sections)")

	return cmd
}

// runView builds the graph and hands it to the bubbletea viewer.
func (c *CLI) runView(ctx context.Context, input, focus, configPath string, noCache bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	snap, err := inventory.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	g, err := runner.Build(ctx, snap, pipeline.Options{
		SnapshotID: input,
		Focus:      focus,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	prog.done(fmt.Sprintf("Built graph with %d nodes", len(g.Nodes)))

	engine := newViewerEngine(cfg)
	engine.SetGraph(*g)
	if focus != "" {
		engine.SetFocus(focus)
	}

	model := newViewerModel(engine, filepath.Base(input))
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

// newViewerEngine builds the scene engine from the configured tunables and
// palette, falling back to the engine defaults for anything unset.
func newViewerEngine(cfg config.Config) *scene.Engine {
	return scene.New(cfg.EngineConfig(), cfg.Theme, scene.Callbacks{})
}

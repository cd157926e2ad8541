package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/topolens/topolens/internal/httpapi"
	"github.com/topolens/topolens/internal/metrics"
	"github.com/topolens/topolens/pkg/cache"
	"github.com/topolens/topolens/pkg/config"
	"github.com/topolens/topolens/pkg/pipeline"
	"github.com/topolens/topolens/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the topology HTTP API server",
		Long: `Run the topology HTTP API server.

The server stores uploaded inventory snapshots and serves graphs, layouts,
and rendered artifacts under /api/v1/snapshots. Prometheus metrics are
exposed on /metrics.

Configuration is read from a TOML file (see --config); every field is
optional and falls back to a built-in default. The store backend can be
in-memory or MongoDB, and the pipeline cache can be disabled, on-disk, or
Redis-backed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// runServe wires the configured store, cache, and metrics into the server
// and blocks until the context is canceled.
func (c *CLI) runServe(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("initialize store (%s): %w", cfg.Store.Backend, err)
	}
	defer func() { _ = st.Close(context.Background()) }()
	c.Logger.Info("snapshot store ready", "backend", cfg.Store.Backend)
	if cfg.Store.Backend == "memory" {
		printWarning("Using the in-memory store; snapshots are lost on restart")
	}

	cc, err := newServeCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache (%s): %w", cfg.Cache.Backend, err)
	}
	c.Logger.Info("pipeline cache ready", "backend", cfg.Cache.Backend)

	m := metrics.New()
	m.Register()

	runner := pipeline.NewRunner(cc, nil, c.Logger)
	defer runner.Close()

	h := httpapi.NewHandler(c.Logger, st, runner, m, cfg.Server.MaxBodyBytes, &cfg.Theme)
	srv := httpapi.NewServer(c.Logger, h.Router(), cfg.Server)
	return srv.ListenAndServe(ctx)
}

// newStore builds the configured snapshot store backend.
func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return store.NewMemoryStore(), nil
	}
}

// newServeCache builds the configured pipeline cache backend.
func newServeCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return nil, err
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return cache.NewNullCache(), nil
	}
}

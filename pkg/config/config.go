// Package config loads application configuration from a TOML file layered
// over built-in defaults. Every field is optional: an empty file (or no
// file at all) yields a fully usable configuration.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/scene"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Scene  SceneConfig  `toml:"scene"`
	Theme  scene.Theme  `toml:"theme"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     duration `toml:"read_timeout"`
	WriteTimeout    duration `toml:"write_timeout"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
}

// StoreConfig selects and configures the snapshot store backend.
type StoreConfig struct {
	// Backend is "memory" or "mongo".
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// CacheConfig selects and configures the pipeline cache backend.
type CacheConfig struct {
	// Backend is "null", "file", or "redis".
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           duration `toml:"ttl"`
}

// SceneConfig carries the interaction tunables for the scene engine.
// Zero values fall back to the engine defaults.
type SceneConfig struct {
	LODFar          float64  `toml:"lod_far"`
	LODNear         float64  `toml:"lod_near"`
	MinScale        float64  `toml:"min_scale"`
	MaxScale        float64  `toml:"max_scale"`
	SeekIdle        duration `toml:"seek_idle"`
	ClusterLabelMax int      `toml:"cluster_label_max"`
	HostBadgeMin    int      `toml:"host_badge_min"`
}

// duration wraps time.Duration so TOML can parse "900ms" style strings.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Duration returns the wrapped value.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     duration(15 * time.Second),
			WriteTimeout:    duration(30 * time.Second),
			ShutdownTimeout: duration(10 * time.Second),
			MaxBodyBytes:    64 << 20,
		},
		Store: StoreConfig{
			Backend:  "memory",
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "topolens",
		},
		Cache: CacheConfig{
			Backend:   "null",
			RedisAddr: "localhost:6379",
			TTL:       duration(24 * time.Hour),
		},
		Theme: scene.DefaultTheme(),
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %q not found", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %q", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %q", path)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want memory or mongo)", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case "null", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want null, file, or redis)", c.Cache.Backend)
	}

	return nil
}

// EngineConfig materializes the engine configuration, applying engine
// defaults for any field left at zero.
func (c Config) EngineConfig() scene.Config {
	out := scene.DefaultConfig()
	s := c.Scene
	if s.LODFar > 0 {
		out.LODFar = s.LODFar
	}
	if s.LODNear > 0 {
		out.LODNear = s.LODNear
	}
	if s.MinScale > 0 {
		out.MinScale = s.MinScale
	}
	if s.MaxScale > 0 {
		out.MaxScale = s.MaxScale
	}
	if s.SeekIdle > 0 {
		out.SeekIdle = s.SeekIdle.Duration()
	}
	if s.ClusterLabelMax > 0 {
		out.ClusterLabelMax = s.ClusterLabelMax
	}
	if s.HostBadgeMin > 0 {
		out.HostBadgeMin = s.HostBadgeMin
	}
	return out
}

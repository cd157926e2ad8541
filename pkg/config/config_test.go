package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topolens/topolens/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topolens.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "null", cfg.Cache.Backend)
	assert.NotEmpty(t, cfg.Theme.Tones)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9090"
read_timeout = "5s"

[store]
backend = "mongo"
mongo_uri = "mongodb://db:27017"

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "1h"

[scene]
lod_far = 1.2
seek_idle = "500ms"

[theme]
background = "#000000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.MongoURI)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Duration())
	assert.Equal(t, "#000000", string(cfg.Theme.Background))

	// Unset fields keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout.Duration())

	eng := cfg.EngineConfig()
	assert.Equal(t, 1.2, eng.LODFar)
	assert.Equal(t, 500*time.Millisecond, eng.SeekIdle)
	assert.Equal(t, 2.2, eng.LODNear)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestLoadBadTOML(t *testing.T) {
	path := writeConfig(t, "[server\naddr=")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestLoadUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "sqlite"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestEngineConfigZeroSceneKeepsDefaults(t *testing.T) {
	cfg := Default()
	eng := cfg.EngineConfig()

	assert.Equal(t, 0.9, eng.LODFar)
	assert.Equal(t, 2.2, eng.LODNear)
	assert.Equal(t, 900*time.Millisecond, eng.SeekIdle)
	assert.Equal(t, 24, eng.HostBadgeMin)
}

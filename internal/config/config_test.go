package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Zero(t, cfg.Server.TriggerCooldown, "默认不限流")
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 200, cfg.Engine.ProductChunkSize)
	assert.Equal(t, 100, cfg.Engine.StoreChunkSize)
	assert.Equal(t, 24*time.Hour, cfg.Engine.DedupWindow)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENGINE_SERVER_PORT", "9090")
	t.Setenv("ENGINE_DATABASE_DRIVER", "sqlite")
	t.Setenv("ENGINE_DATABASE_DSN", "engine.db")
	t.Setenv("ENGINE_ENGINE_DEDUP_WINDOW", "12h")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "engine.db", cfg.Database.DSN)
	assert.Equal(t, 12*time.Hour, cfg.Engine.DedupWindow)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := `
database:
  driver: sqlite
  dsn: file:engine.db
scheduler:
  ranking_spec: "0 */5 * * * *"
engine:
  product_chunk_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.RankingSpec)
	assert.Equal(t, 50, cfg.Engine.ProductChunkSize)
	// 未配置的字段保持默认
	assert.Equal(t, 100, cfg.Engine.StoreChunkSize)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("ENGINE_DATABASE_DRIVER", "oracle")

	_, err := Load("")
	assert.Error(t, err)
}

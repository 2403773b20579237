package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultBaseURL, c.API.BaseURL)
	assert.Equal(t, "Knots", c.Marker)
	assert.Equal(t, 21, c.Table.Rows)
	assert.Equal(t, 21*time.Minute, c.Snapshot.TTL)
	assert.Equal(t, 3*time.Second, c.Snapshot.HitDelay)
	assert.Equal(t, 24*time.Hour, c.Backfill.TTL)
	assert.Equal(t, 12, c.Backfill.PageCap)
	assert.Equal(t, time.Second, c.Backfill.PageDelay)
	assert.Equal(t, Week, c.Backfill.Spacing)
	assert.False(t, c.Backfill.SortSummaries)
	assert.Equal(t, BackendFile, c.Cache.Backend)
	require.NoError(t, c.Validate())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	c := Default()
	c.Marker = "Ocean"
	c.Backfill.PageCap = 4
	c.Snapshot.HitDelay = 0
	c.Cache.Backend = BackendMemory
	require.NoError(t, c.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ocean", got.Marker)
	assert.Equal(t, 4, got.Backfill.PageCap)
	assert.Equal(t, time.Duration(0), got.Snapshot.HitDelay)
	assert.Equal(t, BackendMemory, got.Cache.Backend)
	assert.Equal(t, 21*time.Minute, got.Snapshot.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, Default().Save(path))

	t.Setenv("KNOTWATCH_MARKER", "Bitcoin Knots")
	t.Setenv("KNOTWATCH_BACKFILL_PAGE_CAP", "3")
	t.Setenv("KNOTWATCH_SNAPSHOT_TTL", "5m")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin Knots", got.Marker)
	assert.Equal(t, 3, got.Backfill.PageCap)
	assert.Equal(t, 5*time.Minute, got.Snapshot.TTL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoad_DefaultLocationAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMarker, got.Marker)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("api:\n  base_url: http://plain.example\ntable:\n  rows: 0\ncache:\n  backend: redis\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "table.rows")
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestCacheDir(t *testing.T) {
	c := Default()
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	dir, err := c.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/state", "knotwatch"), dir)

	c.Cache.Dir = "/var/cache/kw"
	dir, err = c.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/kw", dir)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("KNOTWATCH_MARKER=Libre\nKNOTWATCH_TABLE_ROWS=5\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("KNOTWATCH_MARKER")
		_ = os.Unsetenv("KNOTWATCH_TABLE_ROWS")
	})

	LoadEnv(filepath.Join(dir, "missing.env"), envFile)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Libre", cfg.Marker)
	assert.Equal(t, 5, cfg.Table.Rows)
}

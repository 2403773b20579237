package kvcache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { logger.UseTestMode() }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time           { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type point struct {
	Timestamp   int64 `json:"timestamp"`
	MarkerCount int   `json:"markerCount"`
}

func TestRead_ExpiryBoundary(t *testing.T) {
	clk := &clock{t: time.UnixMilli(1_700_000_000_000)}
	c := New(NewMemory(), WithClock(clk.Now))
	ttl := 21 * time.Minute

	require.NoError(t, c.Write(KeyLatestSnapshot, []point{{Timestamp: 1, MarkerCount: 2}}))

	clk.Advance(ttl - time.Millisecond)
	got, ok := Read[[]point](c, KeyLatestSnapshot, ttl)
	require.True(t, ok, "valid at T+D-1")
	assert.Equal(t, []point{{Timestamp: 1, MarkerCount: 2}}, got)

	clk.Advance(time.Millisecond)
	_, ok = Read[[]point](c, KeyLatestSnapshot, ttl)
	assert.False(t, ok, "invalid at T+D")
}

func TestRead_MissingKey(t *testing.T) {
	c := New(NewMemory())
	_, ok := Read[string](c, "nothing-here", time.Hour)
	assert.False(t, ok)
}

func TestRead_CorruptEntryIsMiss(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(KeyHistoricalSeries, []byte("{not json")))
	c := New(m)

	_, ok := Read[[]point](c, KeyHistoricalSeries, time.Hour)
	assert.False(t, ok)
}

func TestRead_WrongShapeIsMiss(t *testing.T) {
	c := New(NewMemory())
	require.NoError(t, c.Write(KeyHistoricalSeries, "a string"))

	_, ok := Read[[]point](c, KeyHistoricalSeries, time.Hour)
	assert.False(t, ok)
}

func TestWrite_Overwrites(t *testing.T) {
	clk := &clock{t: time.UnixMilli(1_000_000)}
	c := New(NewMemory(), WithClock(clk.Now))

	require.NoError(t, c.Write(KeyHistoricalSeries, []point{{Timestamp: 1}}))
	clk.Advance(25 * time.Hour)
	require.NoError(t, c.Write(KeyHistoricalSeries, []point{{Timestamp: 2}}))

	got, ok := Read[[]point](c, KeyHistoricalSeries, 24*time.Hour)
	require.True(t, ok)
	assert.Equal(t, int64(2), got[0].Timestamp)
}

func TestInspect(t *testing.T) {
	clk := &clock{t: time.UnixMilli(5_000_000)}
	c := New(NewMemory(), WithClock(clk.Now))

	st := c.Inspect(KeyLatestSnapshot, time.Minute)
	assert.False(t, st.Present)

	require.NoError(t, c.Write(KeyLatestSnapshot, map[string]int{"a": 1}))
	clk.Advance(90 * time.Second)

	st = c.Inspect(KeyLatestSnapshot, time.Minute)
	assert.True(t, st.Present)
	assert.False(t, st.Fresh)
	assert.Equal(t, 90*time.Second, st.Age)
	assert.Equal(t, time.UnixMilli(5_000_000), st.StoredAt)
	assert.Positive(t, st.Size)
}

func TestDelete(t *testing.T) {
	c := New(NewMemory())
	require.NoError(t, c.Write(KeyLatestSnapshot, 1))
	require.NoError(t, c.Delete(KeyLatestSnapshot))
	_, ok := Read[int](c, KeyLatestSnapshot, time.Hour)
	assert.False(t, ok)
}

func TestFS_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	require.NoError(t, err)

	c := New(fs)
	require.NoError(t, c.Write(KeyHistoricalSeries, []point{{Timestamp: 9, MarkerCount: 4}}))

	again, err := NewFS(dir)
	require.NoError(t, err)
	got, ok := Read[[]point](New(again), KeyHistoricalSeries, time.Hour)
	require.True(t, ok)
	assert.Equal(t, 4, got[0].MarkerCount)
	assert.FileExists(t, filepath.Join(dir, KeyHistoricalSeries+".json"))
}

func TestFS_FallbackToDisk(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Set("k", []byte("v1")))

	fs.dropHot()
	v, ok, err := fs.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))
}

func TestFS_RejectsUnsafeKeys(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.Error(t, fs.Set("../escape", []byte("x")))
	_, _, err = fs.Get("a/b")
	require.Error(t, err)
}

func TestFS_DeleteMissingIsNoop(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Delete("never-written"))
}

func TestLevelDB_Roundtrip(t *testing.T) {
	ldb, err := NewLevelDB(filepath.Join(t.TempDir(), "cache.ldb"))
	require.NoError(t, err)

	c := New(ldb)
	defer func() { require.NoError(t, c.Close()) }()

	_, ok := Read[[]point](c, KeyHistoricalSeries, time.Hour)
	assert.False(t, ok)

	require.NoError(t, c.Write(KeyHistoricalSeries, []point{{Timestamp: 3, MarkerCount: 1}}))
	got, ok := Read[[]point](c, KeyHistoricalSeries, time.Hour)
	require.True(t, ok)
	assert.Equal(t, int64(3), got[0].Timestamp)

	require.NoError(t, c.Delete(KeyHistoricalSeries))
	_, ok = Read[[]point](c, KeyHistoricalSeries, time.Hour)
	assert.False(t, ok)
}

func TestOpen_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendLevelDB} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Cache.Backend = backend
			cfg.Cache.Dir = t.TempDir()

			c, err := Open(cfg)
			require.NoError(t, err)
			defer func() { require.NoError(t, c.Close()) }()

			require.NoError(t, c.Write(KeyLatestSnapshot, "x"))
			got, ok := Read[string](c, KeyLatestSnapshot, time.Minute)
			require.True(t, ok)
			assert.Equal(t, "x", got)
		})
	}

	cfg := config.Default()
	cfg.Cache.Backend = "redis"
	_, err := Open(cfg)
	require.Error(t, err)
}

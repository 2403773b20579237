package internal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes/bitnodestest"
	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/render"
	"github.com/MrSnakeDoc/knotwatch/internal/service"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day = int64(86400)
	t0  = int64(1721900000)
)

// setup points every command at a fake crawler API with an in-memory cache
// and captures rendered output.
func setup(t *testing.T) (*bitnodestest.Server, *bytes.Buffer) {
	t.Helper()
	logger.UseTestMode()

	api := bitnodestest.New()
	t.Cleanup(api.Close)
	api.Latest = bitnodestest.MakeSnapshot(t0, "/Satoshi:27.0.0/", "/Knots:27.1/", "/Satoshi:27.0.0/")
	api.Pages = [][]int64{{t0, t0 - 3*day, t0 - 7*day}}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("KNOTWATCH_API_BASE_URL", api.BaseURL())
	t.Setenv("KNOTWATCH_CACHE_BACKEND", config.BackendMemory)
	t.Setenv("KNOTWATCH_SNAPSHOT_HIT_DELAY", "0s")
	t.Setenv("KNOTWATCH_BACKFILL_PAGE_DELAY", "0s")

	prev := newHTTPClient
	newHTTPClient = func(time.Duration) service.HTTPClient { return api.Client() }
	t.Cleanup(func() { newHTTPClient = prev })

	var buf bytes.Buffer
	logger.SetTableOutput(&buf)
	t.Cleanup(func() { logger.SetTableOutput(nil) })

	return api, &buf
}

func run(args ...string) error {
	root := NewRootCmd()
	root.SetArgs(append(args, "--silent"))
	_, err := root.ExecuteC()
	return err
}

func TestVersionsCmd(t *testing.T) {
	api, out := setup(t)

	require.NoError(t, run("versions"))

	text := utils.StripANSI(out.String())
	assert.Contains(t, text, "27.0.0")
	assert.Contains(t, text, "Knots:27.1")
	assert.Contains(t, text, "33.33%")
	assert.NotContains(t, text, "/Satoshi:")
	assert.Equal(t, 1, api.Hits("latest"))
	assert.Equal(t, 0, api.Hits("listing"))
}

func TestVersionsCmd_JSONLimit(t *testing.T) {
	_, out := setup(t)

	require.NoError(t, run("versions", "--json", "--limit", "1"))

	var v render.SummaryView
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, 1, v.MarkerCount)
	assert.Equal(t, 2, v.OtherCount)
	require.Len(t, v.Versions, 1)
	assert.Equal(t, "27.0.0", v.Versions[0].Name)
}

func TestVersionsCmd_NegativeLimit(t *testing.T) {
	setup(t)
	assert.ErrorIs(t, run("versions", "--limit", "-1"), middleware.ErrLogged)
}

func TestHistoryCmd_CSVFile(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "out", "history.csv")

	require.NoError(t, run("history", "--csv", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,date,marker_count\n"+
		"1721295200,2024-07-18,1\n"+
		"1721900000,2024-07-25,1\n", string(data))
}

func TestHistoryCmd_CSVWithJSON(t *testing.T) {
	api, _ := setup(t)
	err := run("history", "--csv", "x.csv", "--json")
	assert.ErrorIs(t, err, middleware.ErrLogged)
	assert.Equal(t, 0, api.TotalHits())
}

func TestShowCmd_JSON(t *testing.T) {
	_, out := setup(t)

	require.NoError(t, run("show", "--json"))

	var v showView
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	require.NotNil(t, v.Summary)
	assert.Equal(t, 1, v.Summary.MarkerCount)
	assert.Len(t, v.History, 2)
	assert.Empty(t, v.Errors)
}

func TestShowCmd_OneSectionFails(t *testing.T) {
	api, out := setup(t)
	api.FailKind = "latest"

	err := run("show")
	assert.ErrorIs(t, err, middleware.ErrLogged)

	text := utils.StripANSI(out.String())
	assert.Contains(t, text, "Latest snapshot unavailable")
	assert.Contains(t, text, "2024-07-18")
	assert.Contains(t, text, "2024-07-25")
}

func TestShowCmd_NoHistory(t *testing.T) {
	api, _ := setup(t)
	require.NoError(t, run("show", "--no-history"))
	assert.Equal(t, 0, api.Hits("listing"))
}

func TestChartCmd(t *testing.T) {
	setup(t)
	dir := t.TempDir()

	require.NoError(t, run("chart", "--out", dir, "--history"))

	for _, name := range []string{"pie.png", "history.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), name)
	}
}

func TestChartCmd_RequiresOut(t *testing.T) {
	setup(t)
	err := run("chart")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "out" not set`)
}

func TestChartCmd_EmptySnapshot(t *testing.T) {
	api, _ := setup(t)
	api.Latest = bitnodestest.MakeSnapshot(t0)

	assert.ErrorIs(t, run("chart", "--out", t.TempDir()), middleware.ErrLogged)
}

func TestInitCmd(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "knotwatch", "config.yml")

	require.NoError(t, run("init", "--config", path))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMarker, cfg.Marker)

	assert.ErrorIs(t, run("init", "--config", path), middleware.ErrLogged)
	require.NoError(t, run("init", "--config", path, "--force"))
}

func TestCacheCmd_StatusAndClear(t *testing.T) {
	api, out := setup(t)
	t.Setenv("KNOTWATCH_CACHE_BACKEND", config.BackendFile)
	t.Setenv("KNOTWATCH_CACHE_DIR", t.TempDir())

	require.NoError(t, run("versions"))
	require.NoError(t, run("versions"))
	assert.Equal(t, 1, api.Hits("latest"), "second run is served from the file cache")

	out.Reset()
	require.NoError(t, run("cache", "status"))
	text := utils.StripANSI(out.String())
	assert.Contains(t, text, "latest-snapshot")
	assert.Contains(t, text, "fresh")
	assert.Contains(t, text, "empty")

	root := NewRootCmd()
	root.SetIn(strings.NewReader("n\n"))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"cache", "clear", "--silent"})
	require.NoError(t, root.Execute())
	out.Reset()
	require.NoError(t, run("cache", "status"))
	assert.Contains(t, utils.StripANSI(out.String()), "fresh", "answering no keeps the cache")

	require.NoError(t, run("cache", "clear", "--yes"))
	out.Reset()
	require.NoError(t, run("cache", "status"))
	assert.NotContains(t, utils.StripANSI(out.String()), "fresh")
}

func TestCacheCmd_RefusesNoCache(t *testing.T) {
	setup(t)
	assert.ErrorIs(t, run("cache", "clear", "--no-cache"), middleware.ErrLogged)
}

func TestVersionCmd(t *testing.T) {
	_, out := setup(t)
	require.NoError(t, run("version"))
	assert.Contains(t, out.String(), "Version:")
}

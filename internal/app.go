package internal

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/kvcache"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/service"
	"github.com/MrSnakeDoc/knotwatch/internal/snapshot"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
	"github.com/spf13/cobra"
)

// newHTTPClient builds the transport for the crawler API.
var newHTTPClient = func(timeout time.Duration) service.HTTPClient {
	return service.NewHTTPClient(timeout)
}

// app holds what the data commands share for one invocation.
type app struct {
	cfg     *config.Config
	cache   *kvcache.Cache
	client  *bitnodes.Client
	metrics *metrics.Recorder
}

// newApp reads the config and recorder placed in the context by the
// middlewares and opens the cache.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := middleware.Get[*config.Config](cmd, middleware.CtxKeyConfig)
	if err != nil {
		return nil, err
	}
	rec, err := middleware.Get[*metrics.Recorder](cmd, middleware.CtxKeyMetrics)
	if err != nil {
		return nil, err
	}

	cache, err := kvcache.Open(cfg, kvcache.WithMetrics(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &app{
		cfg:     cfg,
		cache:   cache,
		client:  bitnodes.New(cfg.API.BaseURL, newHTTPClient(cfg.API.Timeout), rec),
		metrics: rec,
	}, nil
}

func (a *app) close() {
	utils.Close(a.cache)
}

func (a *app) fetcher() *snapshot.Fetcher {
	return snapshot.New(a.client, a.cache, a.cfg.Snapshot.TTL, a.cfg.Snapshot.HitDelay)
}

func (a *app) backfiller() *backfill.Backfiller {
	return backfill.New(a.client, a.cache, backfill.Options{
		Marker:        a.cfg.Marker,
		TTL:           a.cfg.Backfill.TTL,
		PageCap:       a.cfg.Backfill.PageCap,
		PageDelay:     a.cfg.Backfill.PageDelay,
		Spacing:       a.cfg.Backfill.Spacing,
		SortSummaries: a.cfg.Backfill.SortSummaries,
	})
}

// dashboard wires the requested pipelines; a skipped one stays Idle.
func (a *app) dashboard(withSnapshot, withHistory bool) *dashboard.Dashboard {
	var (
		snaps dashboard.SnapshotSource
		hist  dashboard.HistorySource
	)
	if withSnapshot {
		snaps = a.fetcher()
	}
	if withHistory {
		hist = a.backfiller()
	}
	return dashboard.New(snaps, hist, a.cfg.Marker, a.metrics)
}

// dataCommand is the middleware chain of every command that reads the API.
var dataCommand = middleware.UseMiddlewareChain(middleware.LoadConfig, middleware.WithMetrics)

// Package backfill rebuilds the marker-count time series from the paginated
// snapshot listing, sampling roughly one snapshot per week.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/kvcache"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
)

// Point is one sample of the series.
type Point struct {
	Timestamp   int64 `json:"timestamp"`
	MarkerCount int   `json:"markerCount"`
}

// Time converts the unix timestamp for rendering.
func (p Point) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// Source is the part of the API client the backfill needs.
type Source interface {
	FirstPageURL() string
	Listing(ctx context.Context, pageURL string) (*bitnodes.Listing, error)
	Snapshot(ctx context.Context, snapshotURL string) (*bitnodes.Snapshot, error)
}

type Options struct {
	Marker        string
	TTL           time.Duration
	PageCap       int
	PageDelay     time.Duration
	Spacing       time.Duration
	SortSummaries bool
}

type Backfiller struct {
	source Source
	cache  *kvcache.Cache
	opts   Options
	sleep  utils.Sleeper
}

func New(src Source, cache *kvcache.Cache, opts Options) *Backfiller {
	return &Backfiller{
		source: src,
		cache:  cache,
		opts:   opts,
		sleep:  utils.Sleep,
	}
}

// WithSleeper swaps the inter-page delay implementation (tests).
func (b *Backfiller) WithSleeper(s utils.Sleeper) *Backfiller {
	b.sleep = s
	return b
}

// Run returns the series ascending by timestamp. A fresh cached series is
// returned without any request. Any failure aborts the whole run and
// nothing is cached.
func (b *Backfiller) Run(ctx context.Context) ([]Point, error) {
	if pts, ok := kvcache.Read[[]Point](b.cache, kvcache.KeyHistoricalSeries, b.opts.TTL); ok {
		logger.Debug("historical series served from cache (%d points)", len(pts))
		return pts, nil
	}

	summaries, err := b.walk(ctx)
	if err != nil {
		return nil, err
	}

	if b.opts.SortSummaries {
		SortNewestFirst(summaries)
	}
	if err := CheckOrder(summaries); err != nil {
		logger.Warn("%v; weekly spacing is not guaranteed", err)
	}

	kept := Space(summaries, b.opts.Spacing)
	logger.Debug("backfill: kept %d of %d snapshots", len(kept), len(summaries))

	points := make([]Point, 0, len(kept))
	for _, s := range kept {
		snap, err := b.source.Snapshot(ctx, s.URL)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.Timestamp, err)
		}
		points = append(points, Point{
			Timestamp:   s.Timestamp,
			MarkerCount: aggregate.MarkerCount(snap, b.opts.Marker),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	if err := b.cache.Write(kvcache.KeyHistoricalSeries, points); err != nil {
		logger.Debug("failed to cache historical series: %v", err)
	}
	return points, nil
}

// walk follows next links from the first page, fetching at most PageCap
// pages with PageDelay between consecutive page requests.
func (b *Backfiller) walk(ctx context.Context) ([]bitnodes.Summary, error) {
	var summaries []bitnodes.Summary

	pageURL := b.source.FirstPageURL()
	for page := 0; page < b.opts.PageCap && pageURL != ""; page++ {
		if page > 0 {
			if err := b.sleep(ctx, b.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		listing, err := b.source.Listing(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page+1, err)
		}
		logger.DebugKV("listing page", "page", page+1, "results", len(listing.Results))

		summaries = append(summaries, listing.Results...)

		next, err := resolve(pageURL, listing.NextURL())
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page+1, err)
		}
		pageURL = next
	}
	return summaries, nil
}

var errBadNext = errors.New("invalid next link")

// resolve turns a possibly relative next link into an absolute URL.
func resolve(current, next string) (string, error) {
	if next == "" {
		return "", nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadNext, err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadNext, err)
	}
	return base.ResolveReference(ref).String(), nil
}

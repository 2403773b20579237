// Package snapshot provides the latest crawler snapshot, cache first.
package snapshot

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
	"github.com/MrSnakeDoc/knotwatch/internal/kvcache"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
)

// Source is the part of the API client the fetcher needs.
type Source interface {
	Latest(ctx context.Context) (*bitnodes.Snapshot, error)
}

type Fetcher struct {
	source   Source
	cache    *kvcache.Cache
	ttl      time.Duration
	hitDelay time.Duration
	sleep    utils.Sleeper
}

func New(src Source, cache *kvcache.Cache, ttl, hitDelay time.Duration) *Fetcher {
	return &Fetcher{
		source:   src,
		cache:    cache,
		ttl:      ttl,
		hitDelay: hitDelay,
		sleep:    utils.Sleep,
	}
}

// WithSleeper swaps the delay implementation (tests).
func (f *Fetcher) WithSleeper(s utils.Sleeper) *Fetcher {
	f.sleep = s
	return f
}

// Fetch returns the latest snapshot. A fresh cache entry is served after
// the hit delay so both paths feel alike; otherwise one request is made and
// its result cached. Errors are returned as-is, there is no retry.
func (f *Fetcher) Fetch(ctx context.Context) (*bitnodes.Snapshot, error) {
	if snap, ok := kvcache.Read[*bitnodes.Snapshot](f.cache, kvcache.KeyLatestSnapshot, f.ttl); ok && snap != nil {
		logger.Debug("latest snapshot served from cache (ts=%d, nodes=%d)", snap.Timestamp, len(snap.Nodes))
		if err := f.sleep(ctx, f.hitDelay); err != nil {
			return nil, err
		}
		return snap, nil
	}

	snap, err := f.source.Latest(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Write(kvcache.KeyLatestSnapshot, snap); err != nil {
		logger.Debug("failed to cache latest snapshot: %v", err)
	}
	logger.Debug("latest snapshot fetched (ts=%d, nodes=%d)", snap.Timestamp, len(snap.Nodes))
	return snap, nil
}

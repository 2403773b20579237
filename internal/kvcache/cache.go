// Package kvcache keeps JSON values in a key-value backend and decides their
// freshness from the time they were written, independent of the storage.
package kvcache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
)

// Keys in use.
const (
	KeyLatestSnapshot   = "latest-snapshot"
	KeyHistoricalSeries = "historical-series"
)

// Backend is the storage mechanism behind a Cache.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Entry is the stored envelope.
type Entry struct {
	Value          json.RawMessage `json:"value"`
	StoredAtMillis int64           `json:"storedAtMillis"`
}

type Cache struct {
	backend Backend
	now     func() time.Time
	metrics *metrics.Recorder
}

type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = rec }
}

func New(b Backend, opts ...Option) *Cache {
	c := &Cache{backend: b, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Read returns the value under key if it was stored less than ttl ago.
// Backend failures and undecodable entries count as misses.
func Read[T any](c *Cache, key string, ttl time.Duration) (T, bool) {
	var zero T

	entry, ok := c.entry(key)
	if !ok {
		c.metrics.CacheLookup(key, "miss")
		return zero, false
	}

	if !fresh(c.now(), entry.StoredAtMillis, ttl) {
		logger.Debug("cache %s: stale (age=%s, ttl=%s)", key, c.age(entry), ttl)
		c.metrics.CacheLookup(key, "stale")
		return zero, false
	}

	var out T
	if err := json.Unmarshal(entry.Value, &out); err != nil {
		logger.Debug("cache %s: undecodable value, ignoring: %v", key, err)
		c.metrics.CacheLookup(key, "miss")
		return zero, false
	}

	c.metrics.CacheLookup(key, "hit")
	return out, true
}

// Write stores value under key stamped with the current time, replacing any
// previous entry.
func (c *Cache) Write(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %s: encode value: %w", key, err)
	}
	data, err := json.Marshal(Entry{Value: raw, StoredAtMillis: c.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("cache %s: encode entry: %w", key, err)
	}
	if err := c.backend.Set(key, data); err != nil {
		return fmt.Errorf("cache %s: write: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(key string) error {
	if err := c.backend.Delete(key); err != nil {
		return fmt.Errorf("cache %s: delete: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.backend.Close()
}

// Status describes one key for `cache status`.
type Status struct {
	Key      string
	Present  bool
	StoredAt time.Time
	Age      time.Duration
	TTL      time.Duration
	Fresh    bool
	Size     int
}

func (c *Cache) Inspect(key string, ttl time.Duration) Status {
	st := Status{Key: key, TTL: ttl}
	entry, ok := c.entry(key)
	if !ok {
		return st
	}
	st.Present = true
	st.StoredAt = time.UnixMilli(entry.StoredAtMillis)
	st.Age = c.age(entry)
	st.Fresh = fresh(c.now(), entry.StoredAtMillis, ttl)
	st.Size = len(entry.Value)
	return st
}

func (c *Cache) entry(key string) (Entry, bool) {
	data, ok, err := c.backend.Get(key)
	if err != nil {
		logger.Debug("cache %s: backend read failed: %v", key, err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		logger.Debug("cache %s: corrupt entry, ignoring: %v", key, err)
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) age(e Entry) time.Duration {
	return time.Duration(c.now().UnixMilli()-e.StoredAtMillis) * time.Millisecond
}

// fresh holds while now - storedAt < ttl, at millisecond resolution.
func fresh(now time.Time, storedAtMillis int64, ttl time.Duration) bool {
	return now.UnixMilli()-storedAtMillis < ttl.Milliseconds()
}

// Package gridcache provides a two-tier (memory + disk) cache with uniform
// time-based expiry, built for F1 statistics fetchers that want to avoid
// redundant API and telemetry calls.
//
// Example usage:
//
//	cache, err := gridcache.New(
//	    gridcache.WithDir("app_cache"),
//	    gridcache.WithTTL(24*time.Hour),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	if data, ok := cache.Get(ctx, "jolpica/2024/5/results"); ok {
//	    // cache hit
//	}
//
// Lookups check the memory tier first and fall back to the persisted tier,
// promoting fresh disk records back into memory. Expiry is lazy: entries
// are discarded when next read, so no background sweep is required for
// correctness. A Cache is safe for concurrent use by multiple goroutines.
package gridcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/apexanalytics/gridcache/internal/disktier"
	"github.com/apexanalytics/gridcache/internal/memtier"
	"github.com/apexanalytics/gridcache/internal/record"
	"github.com/apexanalytics/gridcache/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("gridcache: cache closed")
)

// Cache is a two-tier key-value cache: a bounded in-process table backed by
// one persisted record file per key. All entries share the cache's TTL.
type Cache struct {
	ttl    time.Duration
	stats  stats.Collector
	logger *zap.Logger
	now    func() time.Time

	// mu guards the memory table and the per-key disk read-modify-write
	// sequences that reconcile the two tiers.
	mu   sync.Mutex
	mem  *memtier.Table
	disk *disktier.Store

	closed atomic.Bool
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports per-tier entry counts and hit/miss totals.
// Diagnostic only; values may be stale by the time they are read.
type Stats struct {
	MemoryEntries int
	DiskEntries   int
	DiskBytes     int64
	Hits          int64
	Misses        int64
}

// New creates a Cache with the given options, creating the cache directory
// if it does not exist. Directory creation failure is the one hard
// initialization error: without it no persistence is possible.
func New(opts ...Option) (*Cache, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	disk, err := disktier.New(cfg.dir, cfg.codec, cfg.scheme, cfg.logger.Named("disk"))
	if err != nil {
		return nil, err
	}

	c := &Cache{
		ttl:    cfg.ttl,
		stats:  cfg.stats,
		logger: cfg.logger,
		now:    cfg.now,
		mem:    memtier.New(cfg.memoryCapacity),
		disk:   disk,
	}

	c.logger.Debug("cache initialized",
		zap.String("dir", cfg.dir),
		zap.Duration("ttl", cfg.ttl),
		zap.Int("memoryCapacity", cfg.memoryCapacity),
		zap.String("naming", cfg.scheme.Name()),
	)

	return c, nil
}

// Get returns the cached value for key, or false on a miss.
//
// The memory tier is checked first; a fresh hit costs no I/O. On a memory
// miss the persisted record is consulted and, when fresh, promoted into
// memory. Expired entries in either tier are removed on the way through.
// Read-path failures (unreadable or corrupt record files) degrade to a
// miss and are logged, never returned.
//
// The returned slice is shared with the cache; callers must not modify it.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if e, ok := c.mem.Get(key); ok {
		if now.Sub(e.CreatedAt) < c.ttl {
			c.hit()
			return e.Value, true
		}
		c.mem.Delete(key)
		c.stats.IncCounter(stats.MetricExpired, 1)
	}

	rec, err := c.disk.Read(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, disktier.ErrNotFound):
			// Plain miss.
		case errors.Is(err, disktier.ErrCorrupt):
			c.logger.Warn("corrupt cache record, discarding",
				zap.String("key", key),
				zap.Error(err),
			)
			c.stats.IncCounter(stats.MetricCorrupt, 1)
			if rmErr := c.disk.Remove(key); rmErr != nil {
				c.logger.Warn("failed to discard corrupt record",
					zap.String("key", key),
					zap.Error(rmErr),
				)
			}
		default:
			c.logger.Warn("cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		c.miss()
		return nil, false
	}

	if rec.Expired(now, c.ttl) {
		if err := c.disk.Remove(key); err != nil {
			c.logger.Warn("failed to remove expired record",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		c.stats.IncCounter(stats.MetricExpired, 1)
		c.miss()
		return nil, false
	}

	// Promote the fresh disk record, keeping its original timestamp so the
	// memory copy is never considered fresher than what was written.
	c.promote(key, rec.Value, rec.CreatedAt)
	c.stats.IncCounter(stats.MetricDiskHits, 1)
	c.hit()
	return rec.Value, true
}

// Set stores value under key in both tiers, stamping the current time.
//
// The memory write always takes effect. A persisted-write failure is
// returned but does not roll it back: the memory tier stays authoritative
// for the key until the next successful write or process restart.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.put(key, value, now)
	c.stats.IncCounter(stats.MetricWrites, 1)

	rec := &record.Record{Value: value, CreatedAt: now}
	if err := c.disk.Write(ctx, key, rec); err != nil {
		c.logger.Warn("cache persist failed, entry is memory-only",
			zap.String("key", key),
			zap.Error(err),
		)
		c.stats.IncCounter(stats.MetricWriteFailures, 1)
		return fmt.Errorf("persisting %q: %w", key, err)
	}
	return nil
}

// SetEphemeral stores value under key in the memory tier only. Used for
// payloads that cannot be meaningfully serialized, such as live provider
// session handles.
func (c *Cache) SetEphemeral(key string, value []byte) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, c.now())
}

// Delete removes key from both tiers. Absent keys are a no-op; only a
// failure to remove an existing persisted file is reported.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.Delete(key)
	return c.disk.Remove(key)
}

// Clear empties the memory tier and removes every persisted record in the
// cache's namespace. It returns the number of record files removed, giving
// callers a disk-reclamation signal; memory-only removals are not counted.
// Safe to call on an empty cache.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.Clear()
	c.stats.SetGauge(stats.MetricMemoryEntries, 0)
	return c.disk.RemoveAll()
}

// Sweep removes every persisted record whose age meets or exceeds the TTL,
// treating unparseable records as expired. It is a disk-reclamation
// optimization only; Get performs the same expiry lazily.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.disk.Sweep(ctx, c.now(), c.ttl)
}

// Stats returns current cache statistics for diagnostic display.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	memEntries := c.mem.Len()
	diskEntries, diskBytes, err := c.disk.Scan()
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("cache directory scan failed", zap.Error(err))
	} else {
		c.stats.SetGauge(stats.MetricDiskBytes, diskBytes)
	}

	return Stats{
		MemoryEntries: memEntries,
		DiskEntries:   diskEntries,
		DiskBytes:     diskBytes,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
	}
}

// SizeBytes returns the total bytes occupied by persisted records.
func (c *Cache) SizeBytes() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, size, err := c.disk.Scan()
	return size, err
}

// TTL returns the cache's expiry duration.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Dir returns the cache's root directory.
func (c *Cache) Dir() string {
	return c.disk.Root()
}

// Close marks the cache closed. Subsequent Gets miss and writes return
// ErrClosed. Closing twice returns ErrClosed.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// put writes into the memory tier and records eviction/gauge metrics.
// Callers must hold mu.
func (c *Cache) put(key string, value []byte, createdAt time.Time) {
	if evicted, ok := c.mem.Put(key, value, createdAt); ok {
		c.logger.Debug("evicted oldest memory entry", zap.String("key", evicted))
		c.stats.IncCounter(stats.MetricEvictions, 1)
	}
	c.stats.SetGauge(stats.MetricMemoryEntries, int64(c.mem.Len()))
}

// promote copies a fresh disk record into the memory tier. Callers must
// hold mu.
func (c *Cache) promote(key string, value []byte, createdAt time.Time) {
	c.put(key, value, createdAt)
}

func (c *Cache) hit() {
	c.hits.Add(1)
	c.stats.IncCounter(stats.MetricHits, 1)
}

func (c *Cache) miss() {
	c.misses.Add(1)
	c.stats.IncCounter(stats.MetricMisses, 1)
}

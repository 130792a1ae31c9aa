// Package gridcachefx provides an fx module wiring one shared cache per
// application. Components that need caching take the *gridcache.Cache by
// injection instead of reaching for global state.
package gridcachefx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache"
	"github.com/apexanalytics/gridcache/internal/stats"
	"github.com/apexanalytics/gridcache/internal/stats/logger"
)

// Module provides a *gridcache.Cache built from a Config.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("gridcache",
	fx.Provide(
		newStatsCollector,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("gridcache.stats"))
}

// Config holds the cache settings an application supplies.
// Zero fields fall back to the library defaults.
type Config struct {
	Dir            string
	TTL            time.Duration
	MemoryCapacity int
	Compress       bool // compress persisted records with zstd
	HashedNames    bool // hash-derived record filenames
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *gridcache.Cache
}

func newCache(p Params) (Result, error) {
	opts := []gridcache.Option{
		gridcache.WithLogger(p.Logger.Named("gridcache")),
		gridcache.WithStats(p.Collector),
	}
	if p.Config.Dir != "" {
		opts = append(opts, gridcache.WithDir(p.Config.Dir))
	}
	if p.Config.TTL > 0 {
		opts = append(opts, gridcache.WithTTL(p.Config.TTL))
	}
	if p.Config.MemoryCapacity > 0 {
		opts = append(opts, gridcache.WithMemoryCapacity(p.Config.MemoryCapacity))
	}
	if p.Config.Compress {
		opts = append(opts, gridcache.WithZstdCompression())
	}
	if p.Config.HashedNames {
		opts = append(opts, gridcache.WithHashedFilenames())
	}

	cache, err := gridcache.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache}, nil
}

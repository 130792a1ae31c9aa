package gridcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache/internal/codec"
	"github.com/apexanalytics/gridcache/internal/codec/gzipcodec"
	"github.com/apexanalytics/gridcache/internal/codec/noopcodec"
	"github.com/apexanalytics/gridcache/internal/codec/zstdcodec"
	"github.com/apexanalytics/gridcache/internal/naming"
	"github.com/apexanalytics/gridcache/internal/naming/hashname"
	"github.com/apexanalytics/gridcache/internal/naming/safename"
	"github.com/apexanalytics/gridcache/internal/stats"
)

// Defaults applied by New when the corresponding option is not given.
const (
	// DefaultDir is the default cache directory.
	DefaultDir = "cache"

	// DefaultTTL is the default expiry window.
	DefaultTTL = 24 * time.Hour

	// DefaultMemoryCapacity is the default memory-tier entry bound.
	DefaultMemoryCapacity = 50
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	dir            string
	ttl            time.Duration
	memoryCapacity int
	codec          codec.Codec
	scheme         naming.Scheme
	stats          stats.Collector
	logger         *zap.Logger
	now            func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		dir:            DefaultDir,
		ttl:            DefaultTTL,
		memoryCapacity: DefaultMemoryCapacity,
		codec:          noopcodec.New(),
		scheme:         safename.New(),
		stats:          stats.NewNoop(),
		logger:         zap.NewNop(),
		now:            time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithDir sets the root directory for persisted records.
// Default is "cache".
func WithDir(dir string) Option {
	return optionFunc(func(o *options) {
		o.dir = dir
	})
}

// WithTTL sets the expiry duration applied uniformly to all entries.
// Default is 24 hours.
func WithTTL(ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.ttl = ttl
	})
}

// WithMemoryCapacity bounds the number of memory-tier entries. When an
// insertion would exceed the bound, the oldest-written entry is evicted;
// evicted entries remain retrievable from disk until their TTL elapses.
// Default is 50.
func WithMemoryCapacity(n int) Option {
	return optionFunc(func(o *options) {
		o.memoryCapacity = n
	})
}

// WithZstdCompression compresses persisted records with zstd.
// Records are stored uncompressed by default.
func WithZstdCompression() Option {
	return optionFunc(func(o *options) {
		o.codec = zstdcodec.New()
	})
}

// WithGzipCompression compresses persisted records with gzip.
func WithGzipCompression() Option {
	return optionFunc(func(o *options) {
		o.codec = gzipcodec.New()
	})
}

// WithHashedFilenames derives record filenames from an FNV-1a hash of the
// key instead of character substitution, trading human-readable filenames
// for collision resistance. Note that switching schemes orphans records
// written under the other scheme until they are swept or cleared.
func WithHashedFilenames() Option {
	return optionFunc(func(o *options) {
		o.scheme = hashname.New()
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithClock sets the time source used for timestamps and expiry checks.
// Intended for tests; defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.now = now
		}
	})
}

// Package stats provides a unified interface for collecting cache metrics.
package stats

// Metric names used throughout the library.
const (
	// Lookup metrics.
	MetricHits      = "gridcache_hits_total"
	MetricMisses    = "gridcache_misses_total"
	MetricDiskHits  = "gridcache_disk_hits_total"
	MetricExpired   = "gridcache_expired_total"
	MetricCorrupt   = "gridcache_corrupt_records_total"
	MetricEvictions = "gridcache_evictions_total"

	// Write metrics.
	MetricWrites        = "gridcache_writes_total"
	MetricWriteFailures = "gridcache_write_failures_total"

	// Tier gauges.
	MetricMemoryEntries = "gridcache_memory_entries"
	MetricDiskBytes     = "gridcache_disk_bytes"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

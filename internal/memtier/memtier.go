// Package memtier implements the bounded in-process tier of the cache.
//
// The table is not safe for concurrent use on its own; the owning cache
// serializes access across both tiers with a single lock.
package memtier

import "time"

// Entry is a value plus the timestamp of its last write.
type Entry struct {
	Value     []byte
	CreatedAt time.Time
}

// Table is a capacity-bounded key-to-entry mapping.
//
// When an insertion of a new key would exceed capacity, the entry with the
// oldest CreatedAt is evicted first; ties break by key order so eviction is
// deterministic.
type Table struct {
	capacity int
	entries  map[string]Entry
}

// New creates a table holding at most capacity entries.
// A capacity below 1 is treated as 1.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	return &Table{
		capacity: capacity,
		entries:  make(map[string]Entry, capacity),
	}
}

// Get returns the entry for key, if present. No freshness check is applied;
// expiry is the owning cache's concern.
func (t *Table) Get(key string) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Put inserts or overwrites the entry for key, copying the value.
// It returns the key evicted to make room, if any. Overwriting an existing
// key never evicts.
func (t *Table) Put(key string, value []byte, createdAt time.Time) (evicted string, ok bool) {
	if _, exists := t.entries[key]; !exists && len(t.entries) >= t.capacity {
		evicted, ok = t.oldest()
		if ok {
			delete(t.entries, evicted)
		}
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	t.entries[key] = Entry{Value: copied, CreatedAt: createdAt}
	return evicted, ok
}

// Delete removes the entry for key. No-op if absent.
func (t *Table) Delete(key string) {
	delete(t.entries, key)
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.entries = make(map[string]Entry, t.capacity)
}

// Len returns the number of entries currently held.
func (t *Table) Len() int {
	return len(t.entries)
}

// oldest returns the key with the smallest CreatedAt, breaking timestamp
// ties by key order.
func (t *Table) oldest() (string, bool) {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, e := range t.entries {
		if !found || e.CreatedAt.Before(oldestAt) || (e.CreatedAt.Equal(oldestAt) && key < oldestKey) {
			oldestKey = key
			oldestAt = e.CreatedAt
			found = true
		}
	}
	return oldestKey, found
}

package gridcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeClock is a manually-advanced time source for expiry tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	opts = append([]Option{WithDir(t.TempDir())}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	want := []byte(`{"value":42}`)
	if err := c.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() returned absent for freshly set key")
	}
	if string(got) != string(want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}
}

func TestCache_Get_Miss(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get(context.Background(), "never-set"); ok {
		t.Error("Get() returned present for unknown key")
	}
}

func TestCache_Get_DiskFallback(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "k", []byte("persisted")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	// A fresh cache over the same directory has an empty memory tier, so
	// this lookup exercises the promotion path.
	second, err := New(WithDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	got, ok := second.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() returned absent for persisted key")
	}
	if string(got) != "persisted" {
		t.Errorf("Get() = %q, want %q", got, "persisted")
	}
	if n := second.Stats().MemoryEntries; n != 1 {
		t.Errorf("MemoryEntries after promotion = %d, want 1", n)
	}
}

func TestCache_Expiry_MemoryTier(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, WithTTL(time.Minute), WithClock(clock.Now))
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Error("Get() returned absent before TTL elapsed")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() returned present after TTL elapsed")
	}
}

func TestCache_Expiry_DiskTier(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clock := newFakeClock()

	first, err := New(WithDir(dir), WithTTL(time.Minute), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	clock.Advance(2 * time.Minute)

	// Disk-only path: the entry was never in this cache's memory tier.
	second, err := New(WithDir(dir), WithTTL(time.Minute), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	if _, ok := second.Get(ctx, "k"); ok {
		t.Error("Get() returned present for expired disk record")
	}

	// Lazy expiry deletes the record file.
	if n := second.Stats().DiskEntries; n != 0 {
		t.Errorf("DiskEntries after expired Get() = %d, want 0", n)
	}
}

func TestCache_Delete_Idempotent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() returned present after Delete()")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() repeated error = %v", err)
	}
}

func TestCache_Delete_DiskOnlyEntry(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	second, err := New(WithDir(dir))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	if err := second.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, ok := second.Get(ctx, "k"); ok {
		t.Error("Get() returned present after deleting disk-only entry")
	}
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	// Safe on an empty cache.
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Clear() on empty cache = %d, want 0", n)
	}

	keys := []string{"a", "b", "c", "d"}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	n, err = c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != len(keys) {
		t.Errorf("Clear() = %d, want %d", n, len(keys))
	}

	for _, key := range keys {
		if _, ok := c.Get(ctx, key); ok {
			t.Errorf("Get(%q) returned present after Clear()", key)
		}
	}

	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".cache") {
			t.Errorf("record file %q still present after Clear()", entry.Name())
		}
	}
}

func TestCache_Clear_DoesNotCountMemoryOnly(t *testing.T) {
	c := newTestCache(t)

	c.SetEphemeral("session", []byte("handle"))

	n, err := c.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Clear() = %d, want 0 (memory-only removals are not counted)", n)
	}
	if _, ok := c.Get(context.Background(), "session"); ok {
		t.Error("Get() returned present after Clear()")
	}
}

func TestCache_EvictionBound(t *testing.T) {
	const capacity = 3
	clock := newFakeClock()
	c := newTestCache(t, WithMemoryCapacity(capacity), WithClock(clock.Now))
	ctx := context.Background()

	keys := []string{"first", "second", "third", "fourth"}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
		clock.Advance(time.Second)
	}

	if n := c.Stats().MemoryEntries; n != capacity {
		t.Errorf("MemoryEntries = %d, want %d", n, capacity)
	}

	// The oldest-written key was evicted from memory but persisted, so Get
	// still finds it via promotion.
	got, ok := c.Get(ctx, "first")
	if !ok {
		t.Fatal("Get() returned absent for evicted-but-persisted key")
	}
	if string(got) != "first" {
		t.Errorf("Get() = %q, want %q", got, "first")
	}
}

func TestCache_EvictionBound_EphemeralNotRetrievable(t *testing.T) {
	const capacity = 2
	clock := newFakeClock()
	c := newTestCache(t, WithMemoryCapacity(capacity), WithClock(clock.Now))
	ctx := context.Background()

	c.SetEphemeral("session", []byte("handle"))
	clock.Advance(time.Second)
	if err := c.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if err := c.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatal(err)
	}

	// "session" was the oldest write and never persisted: once evicted it
	// is gone for good.
	if _, ok := c.Get(ctx, "session"); ok {
		t.Error("Get() returned present for evicted ephemeral entry")
	}
}

func TestCache_SetEphemeral_NotPersisted(t *testing.T) {
	c := newTestCache(t)

	c.SetEphemeral("session", []byte("handle"))

	if got, ok := c.Get(context.Background(), "session"); !ok || string(got) != "handle" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, "handle")
	}
	if n := c.Stats().DiskEntries; n != 0 {
		t.Errorf("DiskEntries = %d, want 0", n)
	}
}

func TestCache_CorruptRecord_DegradesToMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("good")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Overwrite the record file with garbage and drop the memory copy so
	// the next Get must go to disk.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(c.Dir(), "k.cache")
	if err := os.WriteFile(path, []byte("\x00garbage\xff"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() returned present for corrupt record")
	}

	// The bad file self-heals and the key is writable again.
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("corrupt record file still present: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("fresh")); err != nil {
		t.Fatalf("Set() after corruption error = %v", err)
	}
	if got, ok := c.Get(ctx, "k"); !ok || string(got) != "fresh" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, "fresh")
	}
}

func TestCache_UnsafeKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	keys := []string{
		"jolpica/2024/5/results",
		`fastf1\2024\Monaco:Q`,
		"standings:drivers:2024",
	}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}
	for _, key := range keys {
		got, ok := c.Get(ctx, key)
		if !ok || string(got) != key {
			t.Errorf("Get(%q) = (%q, %v), want value back", key, got, ok)
		}
	}
}

func TestCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, WithTTL(time.Minute), WithClock(clock.Now))
	ctx := context.Background()

	if err := c.Set(ctx, "old", []byte("1")); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Minute)
	if err := c.Set(ctx, "new", []byte("2")); err != nil {
		t.Fatal(err)
	}

	n, err := c.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if got := c.Stats().DiskEntries; got != 1 {
		t.Errorf("DiskEntries after Sweep() = %d, want 1", got)
	}
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("some payload")); err != nil {
		t.Fatal(err)
	}
	c.Get(ctx, "k")       // hit
	c.Get(ctx, "missing") // miss

	s := c.Stats()
	if s.MemoryEntries != 1 {
		t.Errorf("MemoryEntries = %d, want 1", s.MemoryEntries)
	}
	if s.DiskEntries != 1 {
		t.Errorf("DiskEntries = %d, want 1", s.DiskEntries)
	}
	if s.DiskBytes <= 0 {
		t.Errorf("DiskBytes = %d, want > 0", s.DiskBytes)
	}
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}

	size, err := c.SizeBytes()
	if err != nil {
		t.Fatalf("SizeBytes() error = %v", err)
	}
	if size != s.DiskBytes {
		t.Errorf("SizeBytes() = %d, want %d", size, s.DiskBytes)
	}
}

func TestCache_HashedFilenames(t *testing.T) {
	c := newTestCache(t, WithHashedFilenames())
	ctx := context.Background()

	// These keys collide under substitution naming.
	if err := c.Set(ctx, "a/b", []byte("slash")); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "a_b", []byte("underscore")); err != nil {
		t.Fatal(err)
	}

	if got, _ := c.Get(ctx, "a/b"); string(got) != "slash" {
		t.Errorf("Get(a/b) = %q, want %q", got, "slash")
	}
	if got, _ := c.Get(ctx, "a_b"); string(got) != "underscore" {
		t.Errorf("Get(a_b) = %q, want %q", got, "underscore")
	}
	if n := c.Stats().DiskEntries; n != 2 {
		t.Errorf("DiskEntries = %d, want 2", n)
	}
}

func TestCache_ZstdCompression_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(WithDir(dir), WithZstdCompression())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := strings.Repeat("lap telemetry ", 500)
	if err := first.Set(ctx, "laps", []byte(want)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	second, err := New(WithDir(dir), WithZstdCompression())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	got, ok := second.Get(ctx, "laps")
	if !ok || string(got) != want {
		t.Errorf("Get() after zstd round-trip: ok = %v, len = %d, want len %d", ok, len(got), len(want))
	}
}

func TestCache_Close(t *testing.T) {
	c, err := New(WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Close() second call error = %v, want ErrClosed", err)
	}

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() returned present after Close()")
	}
	if err := c.Set(ctx, "k", []byte("v")); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after Close() error = %v, want ErrClosed", err)
	}
	if _, err := c.Clear(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear() after Close() error = %v, want ErrClosed", err)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t, WithMemoryCapacity(8))
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			key := string(rune('a' + id))
			for j := 0; j < 50; j++ {
				if err := c.Set(ctx, key, []byte(key)); err != nil {
					t.Errorf("Set(%q) error = %v", key, err)
					return
				}
				if got, ok := c.Get(ctx, key); !ok || string(got) != key {
					t.Errorf("Get(%q) = (%q, %v)", key, got, ok)
					return
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

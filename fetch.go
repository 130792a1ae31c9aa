package gridcache

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// Fetch returns the value for key, calling fn to produce it on a miss and
// storing the result for subsequent callers. Values round-trip through
// JSON, so T must be JSON-serializable.
//
// Concurrent misses for the same key are collapsed into a single fn call;
// late arrivals share the first caller's result. A persisted-write failure
// after a successful fetch is logged, not returned: the value is served
// from memory regardless.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	result, err, _ := c.flight.Do(key, func() (any, error) {
		// Another caller may have filled the key while we waited.
		if v, ok := lookup[T](ctx, c, key); ok {
			return v, nil
		}

		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("gridcache: encoding %q: %w", key, err)
		}
		// A persist failure leaves the value memory-only; Set logs it.
		_ = c.Set(ctx, key, data)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// lookup reads and decodes a cached value. An undecodable cached payload is
// deleted so the next fetch can repopulate it.
func lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	data, ok := c.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		_ = c.Delete(ctx, key)
		return v, false
	}
	return v, true
}

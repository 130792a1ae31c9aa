// Package record defines the persisted-record format for cache entries.
//
// A record holds exactly two fields, the opaque value and its write
// timestamp, so that a later read can reconstruct the entry and evaluate
// expiry without any external metadata.
package record

import (
	"io"
	"time"

	json "github.com/goccy/go-json"
)

// Record is the on-disk representation of a cache entry.
type Record struct {
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Age returns how old the record is relative to now.
func (r *Record) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// Expired reports whether the record's age meets or exceeds ttl.
func (r *Record) Expired(now time.Time, ttl time.Duration) bool {
	return r.Age(now) >= ttl
}

// Encode writes the record to w as JSON.
func Encode(w io.Writer, r *Record) error {
	return json.NewEncoder(w).Encode(r)
}

// Decode reads a record from r.
// Any malformed input yields an error; callers treat that as corruption.
func Decode(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

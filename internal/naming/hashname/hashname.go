// Package hashname implements filename mapping via an FNV-1a hash of the
// raw key.
//
// Unlike substitution-based mapping, distinct keys cannot collide short of
// a hash collision, at the cost of filenames that are not human-readable.
package hashname

import (
	"fmt"

	"github.com/apexanalytics/gridcache/internal/naming"
)

// Compile-time check that Scheme implements naming.Scheme.
var _ naming.Scheme = (*Scheme)(nil)

// Scheme derives filenames from the FNV-1a 64-bit hash of the key.
type Scheme struct{}

// New creates a new hash-based scheme.
func New() *Scheme {
	return &Scheme{}
}

// Name returns the scheme name.
func (s *Scheme) Name() string {
	return "fnv64"
}

// FileName returns the FNV-1a 64-bit hash of the key as 16 hex digits.
func (s *Scheme) FileName(key string) string {
	return fmt.Sprintf("%016x", fnv1a64(key))
}

// fnv1a64 computes the FNV-1a 64-bit hash of a string.
func fnv1a64(s string) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211 // FNV prime
	}
	return h
}

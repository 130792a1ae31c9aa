// Package safename implements filename mapping by character substitution.
//
// Every filesystem-unsafe character in the key is replaced with an
// underscore. Two distinct keys can map to the same filename (for example
// "a/b" and "a_b"); this collision risk is accepted. Use hashname for a
// collision-resistant mapping.
package safename

import (
	"strings"

	"github.com/apexanalytics/gridcache/internal/naming"
)

// Compile-time check that Scheme implements naming.Scheme.
var _ naming.Scheme = (*Scheme)(nil)

// Scheme replaces unsafe characters with underscores.
type Scheme struct{}

// New creates a new substitution scheme.
func New() *Scheme {
	return &Scheme{}
}

// Name returns the scheme name.
func (s *Scheme) Name() string {
	return "safename"
}

// FileName replaces path separators and other characters that are invalid
// or special in filenames with underscores.
func (s *Scheme) FileName(key string) string {
	if key == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, key)
}

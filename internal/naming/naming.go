// Package naming defines the scheme interface for mapping cache keys to
// persisted-record filenames.
package naming

// Scheme maps an arbitrary cache key to a filesystem-safe filename.
type Scheme interface {
	// Name returns a human-readable name for this scheme.
	Name() string

	// FileName returns the base filename (no extension) for a key.
	//
	// Keys are caller-chosen and may contain path separators or other
	// characters that are unsafe in filenames; implementations must
	// return a name that is safe as a single path component and
	// deterministic for a given key.
	FileName(key string) string
}

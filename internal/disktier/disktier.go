// Package disktier implements the persisted tier of the cache: one record
// file per key inside a root directory.
//
// Records are written atomically (temp file + rename) and read back through
// the configured codec. The tier itself applies no expiry; it only reports
// record timestamps, except for Sweep which removes records older than a
// given TTL.
package disktier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache/internal/codec"
	"github.com/apexanalytics/gridcache/internal/naming"
	"github.com/apexanalytics/gridcache/internal/record"
)

// Sentinel errors for well-defined read outcomes.
var (
	// ErrNotFound indicates no record exists for the key.
	ErrNotFound = errors.New("disktier: record not found")

	// ErrCorrupt indicates a record file exists but cannot be decoded.
	ErrCorrupt = errors.New("disktier: corrupt record")
)

// recordExt is the fixed extension appended to every sanitized key.
// The codec extension, if any, follows it, e.g. "name.cache.zst".
const recordExt = ".cache"

// Store is a directory of persisted cache records.
type Store struct {
	root   string
	codec  codec.Codec
	scheme naming.Scheme
	logger *zap.Logger
}

// New creates a store rooted at dir, creating the directory if absent.
// Failure to create the directory is a hard error: no persistence is
// possible at all without it.
func New(dir string, c codec.Codec, scheme naming.Scheme, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{
		root:   dir,
		codec:  c,
		scheme: scheme,
		logger: logger,
	}, nil
}

// Read returns the persisted record for key.
// Returns ErrNotFound if no record exists and ErrCorrupt if the file
// cannot be decompressed or decoded.
func (s *Store) Read(ctx context.Context, key string) (*record.Record, error) {
	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}

	reader, err := s.codec.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer reader.Close()

	rec, err := record.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec, nil
}

// Write persists a record for key, overwriting any existing file.
// The record is written to a temp file and renamed into place so readers
// never observe a partial write.
func (s *Store) Write(ctx context.Context, key string, rec *record.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tmp, err := os.CreateTemp(s.root, ".gridcache-*")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	tmpName := tmp.Name()

	// Hide the file's Close from the codec so the temp file is closed
	// exactly once, below.
	err = s.encodeTo(struct{ io.Writer }{tmp}, rec)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing record: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing record: %w", err)
	}
	return nil
}

// Remove deletes the persisted record for key.
// Returns nil if no record exists; only failure to remove an existing file
// is an error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing record: %w", err)
	}
	return nil
}

// RemoveAll deletes every record file belonging to this store's namespace
// and returns the number removed. Files that fail to delete are skipped,
// with the first failure reported alongside the count.
func (s *Store) RemoveAll() (int, error) {
	names, err := s.list()
	if err != nil {
		return 0, err
	}

	var removed int
	var firstErr error
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.root, name)); err != nil {
			s.logger.Warn("failed to remove record file",
				zap.String("file", name),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// Sweep removes every record whose age meets or exceeds ttl, plus any
// record that cannot be decoded (fail-safe cleanup). Returns the number of
// files removed.
func (s *Store) Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	names, err := s.list()
	if err != nil {
		return 0, err
	}

	var removed int
	for _, name := range names {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		path := filepath.Join(s.root, name)
		rec, err := s.readFile(path)
		if err == nil && !rec.Expired(now, ttl) {
			continue
		}
		if err != nil {
			s.logger.Debug("sweeping unreadable record", zap.String("file", name), zap.Error(err))
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to sweep record file",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed, nil
}

// Scan returns the number of record files in the namespace and their total
// size in bytes.
func (s *Store) Scan() (count int, size int64, err error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.suffix()) {
			continue
		}
		count++
		info, err := entry.Info()
		if err != nil {
			continue
		}
		size += info.Size()
	}
	return count, size, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// path returns the record file path for a key.
func (s *Store) path(key string) string {
	return filepath.Join(s.root, s.scheme.FileName(key)+s.suffix())
}

// suffix returns the full filename suffix including the codec extension.
func (s *Store) suffix() string {
	if ext := s.codec.Extension(); ext != "" {
		return recordExt + "." + ext
	}
	return recordExt
}

// list returns the names of all record files in the namespace.
func (s *Store) list() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.suffix()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// readFile decodes a record straight from a file path, used by Sweep.
func (s *Store) readFile(path string) (*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reader, err := s.codec.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return record.Decode(reader)
}

// encodeTo compresses and encodes a record onto w.
func (s *Store) encodeTo(w io.Writer, rec *record.Record) error {
	writer, err := s.codec.Writer(w)
	if err != nil {
		return err
	}
	if err := record.Encode(writer, rec); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

package cache

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// headerSize is the length of the expiry stamp in front of every entry.
const headerSize = 8

// FileCache keeps one file per entry under a directory, for CLI runs.
//
// Entries are grouped by key kind (the text before the first ':', such as
// "graph" or "artifact") so a cache directory can be inspected by hand.
// Each file holds an 8-byte big-endian expiry in Unix nanoseconds (0 for
// none) followed by the raw value, which keeps PNG and PDF artifacts
// byte-for-byte.
type FileCache struct {
	dir string
}

// NewFileCache opens a cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the entry for key. Expired or truncated entries are removed
// and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if len(raw) < headerSize {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(raw[:headerSize])); exp != 0 && time.Now().UnixNano() > exp {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return raw[headerSize:], true, nil
}

// Set writes the entry through a temporary file so concurrent readers
// never see a partial value.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	buf := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint64(buf, uint64(exp))
	copy(buf[headerSize:], data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. A missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear empties the cache directory but keeps the directory itself.
func (c *FileCache) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Close() error { return nil }

// path maps key to <dir>/<kind>/<hash[:2]>/<hash[2:]>.
func (c *FileCache) path(key string) string {
	kind := "misc"
	if i := strings.IndexByte(key, ':'); i > 0 {
		kind = key[:i]
	}
	h := Hash([]byte(key))
	return filepath.Join(c.dir, kind, h[:2], h[2:])
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)

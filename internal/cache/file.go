package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps one file per key. Expiry is judged by file mtime against
// the TTL given at Get time, so entries written by older runs are honoured.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache creates the directory if needed.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".cache")
}

func (c *FileCache) Get(_ context.Context, key string) ([]byte, error) {
	p := c.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("stat cache entry: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, ErrMiss
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return data, nil
}

// Set writes atomically via a temp file. The ttl argument is ignored; the
// cache-wide TTL applies.
func (c *FileCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return os.Rename(tmp, c.path(key))
}

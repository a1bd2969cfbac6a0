// Package cache stores fetched OpenAPI documents under the XDG cache
// directory.
//
// Entries are JSON files named by the SHA-256 of their URL and carry the
// ETag of the response, so the loader can revalidate them with conditional
// requests. Expired entries are removed by Prune.
//
// # Cache Locations
//
//   - Linux: ~/.cache/cliwizard/specs/
//   - macOS: ~/Library/Caches/cliwizard/specs/
//   - Windows: %LOCALAPPDATA%\cliwizard\specs\
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cliwizard/cliwizard/pkg/openapi"
)

// ErrCacheMiss is returned when a cache entry is not found.
var ErrCacheMiss = errors.New("cache miss")

// SpecCache is a file-backed openapi.SpecCache.
type SpecCache struct {
	// BaseDir is the cache directory
	BaseDir string
	// DefaultTTL is used by IsValid and Prune when no TTL is given
	DefaultTTL time.Duration
}

var _ openapi.SpecCache = (*SpecCache)(nil)

// Stats summarizes the cache contents.
type Stats struct {
	Dir          string
	TotalEntries int
	TotalSize    int64
	Oldest       time.Time
	Newest       time.Time
}

// Dir returns the spec cache directory of appName.
func Dir(appName string) string {
	return filepath.Join(xdg.CacheHome, appName, "specs")
}

// NewSpecCache opens (creating if needed) the spec cache of appName.
func NewSpecCache(appName string) (*SpecCache, error) {
	return NewSpecCacheAt(Dir(appName))
}

// NewSpecCacheAt opens a spec cache rooted at dir.
func NewSpecCacheAt(dir string) (*SpecCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &SpecCache{
		BaseDir:    dir,
		DefaultTTL: 5 * time.Minute,
	}, nil
}

// Get retrieves a cached spec by URL.
func (c *SpecCache) Get(ctx context.Context, key string) (*openapi.CachedSpec, error) {
	spec, err := readEntry(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	return spec, err
}

// Set stores a spec. The entry is written to a temporary file and renamed
// into place, so readers never see a partial entry.
func (c *SpecCache) Set(ctx context.Context, key string, spec *openapi.CachedSpec) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.BaseDir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate removes a cached spec. A missing entry is not an error.
func (c *SpecCache) Invalidate(ctx context.Context, key string) error {
	return removeEntry(c.path(key))
}

// IsValid reports whether cached is younger than ttl (DefaultTTL when zero).
func (c *SpecCache) IsValid(cached *openapi.CachedSpec, ttl time.Duration) bool {
	return cached != nil && time.Since(cached.FetchedAt) < c.ttl(ttl)
}

// Clear removes every cached spec and returns how many were removed.
func (c *SpecCache) Clear(ctx context.Context) (int, error) {
	entries, err := c.entries()
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := removeEntry(e.path); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// Prune removes entries older than ttl (DefaultTTL when zero). Unreadable
// entries are removed too.
func (c *SpecCache) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	entries, err := c.entries()
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, e := range entries {
		if spec, err := readEntry(e.path); err == nil && c.IsValid(spec, ttl) {
			continue
		}
		if removeEntry(e.path) == nil {
			pruned++
		}
	}
	return pruned, nil
}

// Stats returns cache statistics. Ages come from file modification times.
func (c *SpecCache) Stats(ctx context.Context) (*Stats, error) {
	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	stats := &Stats{Dir: c.BaseDir, TotalEntries: len(entries)}
	for _, e := range entries {
		stats.TotalSize += e.size
		if stats.Oldest.IsZero() || e.modified.Before(stats.Oldest) {
			stats.Oldest = e.modified
		}
		if e.modified.After(stats.Newest) {
			stats.Newest = e.modified
		}
	}
	return stats, nil
}

type entry struct {
	path     string
	size     int64
	modified time.Time
}

// entries lists the cache entry files of BaseDir. Other files are ignored.
func (c *SpecCache) entries() ([]entry, error) {
	dir, err := os.ReadDir(c.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	var out []entry
	for _, d := range dir {
		if d.IsDir() || filepath.Ext(d.Name()) != ".json" {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, entry{
			path:     filepath.Join(c.BaseDir, d.Name()),
			size:     info.Size(),
			modified: info.ModTime(),
		})
	}
	return out, nil
}

func (c *SpecCache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return c.DefaultTTL
	}
	return ttl
}

func (c *SpecCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.BaseDir, hex.EncodeToString(sum[:])+".json")
}

func readEntry(path string) (*openapi.CachedSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec openapi.CachedSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("corrupt cache entry %s: %w", filepath.Base(path), err)
	}
	return &spec, nil
}

func removeEntry(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

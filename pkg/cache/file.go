package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// FileCache keeps one JSON file per entry under a directory. Entries are
// written to a temporary file and renamed into place, so readers never see
// a partial entry.
type FileCache struct {
	dir string

	// mu serializes index read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the root directory.
func (c *FileCache) Dir() string { return c.dir }

type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the entry for key. Corrupt and expired entries are removed
// and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data under key.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := cacheEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return writeAtomic(c.path(key), raw)
}

// Delete removes key. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error { return nil }

// Prune removes expired and corrupt entries and returns how many were removed.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == "index" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".json") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var entry cacheEntry
		if json.Unmarshal(raw, &entry) != nil || entry.expired(now) {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Clear removes every entry and index.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// path spreads entries over subdirectories named by the first two hex
// characters of the key hash.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

// =============================================================================
// Index
// =============================================================================

func (c *FileCache) indexPath(index string) string {
	return filepath.Join(c.dir, "index", Hash([]byte(index))+".json")
}

func (c *FileCache) readIndex(index string) ([]string, error) {
	raw, err := os.ReadFile(c.indexPath(index))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, nil
	}
	return members, nil
}

func (c *FileCache) writeIndex(index string, members []string) error {
	raw, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return writeAtomic(c.indexPath(index), raw)
}

func (c *FileCache) AddMember(ctx context.Context, index, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	members, err := c.readIndex(index)
	if err != nil {
		return err
	}
	if slices.Contains(members, member) {
		return nil
	}
	return c.writeIndex(index, append(members, member))
}

func (c *FileCache) RemoveMember(ctx context.Context, index, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	members, err := c.readIndex(index)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(members, func(m string) bool { return m == member })
	return c.writeIndex(index, kept)
}

func (c *FileCache) Members(ctx context.Context, index string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readIndex(index)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
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

var _ IndexedCache = (*FileCache)(nil)

// Package cache persists per-file scan results keyed by content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/reach/pkg/models"
)

// Cache stores models.FileScan values on disk. A scan is reused only while
// the file content hash and the scan settings both match. Safe for
// concurrent use.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	version string
	now     func() time.Time
}

// Entry is the on-disk form of one cached scan.
type Entry struct {
	Hash      string          `json:"hash"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Scan      models.FileScan `json:"scan"`
}

// New creates a new cache instance. version identifies the scan settings;
// entries written under another version are ignored. A ttlHours of zero
// keeps entries until the content changes.
func New(dir string, ttlHours int, enabled bool, version string) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		version: version,
		now:     time.Now,
	}, nil
}

// Disabled returns a cache that never hits and never writes.
func Disabled() *Cache {
	return &Cache{}
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Version derives a settings version from arbitrary parts.
func Version(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Lookup returns the cached scan of file when its content hash matches.
func (c *Cache) Lookup(file, hash string) (models.FileScan, bool) {
	if !c.Enabled() {
		return models.FileScan{}, false
	}

	path := c.keyPath(file)
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FileScan{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.FileScan{}, false
	}
	if entry.Hash != hash || entry.Version != c.version || entry.Scan.File != file {
		return models.FileScan{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		_ = os.Remove(path)
		return models.FileScan{}, false
	}
	return entry.Scan, true
}

// Store records the scan of file under its content hash.
func (c *Cache) Store(file, hash string, scan models.FileScan) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(Entry{
		Hash:      hash,
		Version:   c.version,
		Timestamp: c.now(),
		Scan:      scan,
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*")
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
	return os.Rename(tmp.Name(), c.keyPath(file))
}

// Invalidate removes the entry of file. A missing entry is not an error.
func (c *Cache) Invalidate(file string) error {
	if !c.Enabled() {
		return nil
	}
	if err := os.Remove(c.keyPath(file)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a file path to an entry path.
func (c *Cache) keyPath(file string) string {
	hash := blake3.Sum256([]byte(file))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}

// Package cache stores rendered reports on disk, keyed by project, output
// format and settings, and validated against a fingerprint of the analyzed
// sources.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/phobologic/callmap/internal/discover"
)

// Cache provides file-based caching for rendered output.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached output.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache in dir. A disabled cache never hits and never writes.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
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
	}, nil
}

// Key derives a cache key from the parts that select an output.
func Key(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(strconv.Itoa(len(p)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Fingerprint hashes the path and content of every file, in path order.
// Any added, removed or edited file changes the result.
func Fingerprint(root string, files []discover.FileEntry) (string, error) {
	sorted := append([]discover.FileEntry(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := blake3.New()
	for _, f := range sorted {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return "", err
		}
		_, _ = h.Write([]byte(f.Path))
		_, _ = h.Write([]byte{0})
		sum := blake3.Sum256(data)
		_, _ = h.Write(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetWithHash returns the entry for key if its hash matches and it has not
// expired.
func (c *Cache) GetWithHash(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != hash {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Data, true
}

// SetWithHash stores data under key with the hash used for validation.
func (c *Cache) SetWithHash(key, hash string, data []byte) error {
	if !c.enabled {
		return nil
	}

	entryData, err := json.Marshal(Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), entryData, 0o600)
}

// Clear removes all cache entries. The cache stays usable.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const indexFileName = "cache_index.json"

// indexFile is the on-disk shape of cache_index.json. The hit and miss
// counters live here so `cache stats` reports them across invocations.
type indexFile struct {
	Entries map[string]entry `json:"entries"`
	Hits    int              `json:"hits"`
	Misses  int              `json:"misses"`
}

// Stats reports cache effectiveness for the `cache stats` command.
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	Size   int `json:"size"`
}

type entry struct {
	ProjectRoot string    `json:"project_root"`
	Name        string    `json:"name"`
	Timestamp   time.Time `json:"timestamp"`
	TTLSec      int       `json:"ttl"`
}

// Cache is a content-addressed result cache stored as JSON files under a
// directory, with an index file, TTL-based invalidation and a size cap.
// Entries are keyed by (project root, name, content hash) so any content
// change produces a miss rather than a stale hit.
type Cache struct {
	dir        string
	maxEntries int

	mu    sync.Mutex
	index map[string]entry
	stats Stats
}

// Open loads or creates a cache under dir. A corrupt index is discarded.
func Open(dir string, maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c := &Cache{
		dir:        dir,
		maxEntries: maxEntries,
		index:      make(map[string]entry),
	}
	if data, err := os.ReadFile(filepath.Join(dir, indexFileName)); err == nil {
		var idx indexFile
		if err := json.Unmarshal(data, &idx); err == nil && idx.Entries != nil {
			c.index = idx.Entries
			c.stats.Hits = idx.Hits
			c.stats.Misses = idx.Misses
		}
	}
	c.stats.Size = len(c.index)
	return c, nil
}

func cacheKey(projectRoot, name, contentHash string) string {
	sum := sha256.Sum256([]byte(projectRoot + ":" + name + ":" + contentHash))
	return hex.EncodeToString(sum[:])
}

// HashContent returns the content hash used as part of a cache key.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get loads a cached value into v. It returns false on a miss, an expired
// entry, or an unreadable cache file (which is then dropped).
func (c *Cache) Get(projectRoot, name, contentHash string, v interface{}) bool {
	key := cacheKey(projectRoot, name, contentHash)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		_ = c.saveIndexLocked()
		return false
	}
	if time.Since(e.Timestamp) > time.Duration(e.TTLSec)*time.Second {
		c.stats.Misses++
		c.removeLocked(key)
		return false
	}
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		c.stats.Misses++
		c.removeLocked(key)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.stats.Misses++
		c.removeLocked(key)
		return false
	}
	c.stats.Hits++
	_ = c.saveIndexLocked()
	return true
}

// Put stores v under (projectRoot, name, contentHash) with the given TTL.
// When the cache is full the oldest fifth of entries is evicted first.
func (c *Cache) Put(projectRoot, name, contentHash string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	key := cacheKey(projectRoot, name, contentHash)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[key]; !exists && len(c.index) >= c.maxEntries {
		c.evictOldestLocked()
	}
	if err := os.WriteFile(c.entryPath(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	c.index[key] = entry{
		ProjectRoot: projectRoot,
		Name:        name,
		Timestamp:   time.Now(),
		TTLSec:      int(ttl / time.Second),
	}
	c.stats.Size = len(c.index)
	return c.saveIndexLocked()
}

// evictOldestLocked removes the oldest 20% of entries, at least one.
func (c *Cache) evictOldestLocked() {
	type aged struct {
		key string
		ts  time.Time
	}
	all := make([]aged, 0, len(c.index))
	for k, e := range c.index {
		all = append(all, aged{k, e.Timestamp})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ts.Before(all[j].ts) })

	n := len(all) / 5
	if n < 1 {
		n = 1
	}
	for i := 0; i < n && i < len(all); i++ {
		c.removeLocked(all[i].key)
	}
}

func (c *Cache) removeLocked(key string) {
	_ = os.Remove(c.entryPath(key))
	delete(c.index, key)
	c.stats.Size = len(c.index)
	_ = c.saveIndexLocked()
}

func (c *Cache) saveIndexLocked() error {
	data, err := json.Marshal(indexFile{
		Entries: c.index,
		Hits:    c.stats.Hits,
		Misses:  c.stats.Misses,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, indexFileName), data, 0644)
}

// Clear removes every entry and the index.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.index {
		_ = os.Remove(c.entryPath(key))
	}
	c.index = make(map[string]entry)
	c.stats = Stats{}
	return c.saveIndexLocked()
}

// Stats returns a copy of the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

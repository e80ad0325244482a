// Package cache memoizes the results of numbering, extraction and diff
// calls. Entries are keyed by a digest of the input content and the call
// parameters and evicted least-recently-used once the byte budget is
// exceeded.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Default limits.
const (
	DefaultMaxBytes      = 32 << 20
	DefaultCompressAbove = 4 << 10
)

// Options configures a Cache. Zero values select the defaults; a negative
// CompressAbove disables compression and a zero TTL keeps entries until
// they are evicted.
type Options struct {
	MaxBytes      int64
	CompressAbove int
	TTL           time.Duration
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Bytes     int64
}

// Cache is a bounded LRU cache. It is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	opts  Options
	items map[Key]*list.Element
	lru   *list.List
	bytes int64
	stats Stats
	now   func() time.Time
}

type cacheEntry struct {
	key        Key
	compressed []byte
	value      any
	size       int64
	expires    time.Time
}

// entryOverhead approximates the bookkeeping cost of one entry.
const entryOverhead = 96

// New creates a cache with the given options.
func New(opts Options) *Cache {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.CompressAbove == 0 {
		opts.CompressAbove = DefaultCompressAbove
	}
	return &Cache{
		opts:  opts,
		items: make(map[Key]*list.Element),
		lru:   list.New(),
		now:   time.Now,
	}
}

var (
	defaultMu    sync.RWMutex
	defaultCache = New(Options{})
)

// Default returns the process-wide cache used by the engine packages.
func Default() *Cache {
	defaultMu.RLock()
	c := defaultCache
	defaultMu.RUnlock()
	return c
}

// SetDefault replaces the process-wide cache. A nil cache restores a fresh
// cache with default options.
func SetDefault(c *Cache) {
	if c == nil {
		c = New(Options{})
	}
	defaultMu.Lock()
	defaultCache = c
	defaultMu.Unlock()
}

// GetString returns the string stored under k.
func (c *Cache) GetString(k Key) (string, bool) {
	e, ok := c.lookup(k)
	if !ok {
		return "", false
	}
	if e.compressed != nil {
		data, err := decompressZstd(e.compressed)
		if err != nil {
			c.Delete(k)
			return "", false
		}
		return string(data), true
	}
	s, _ := e.value.(string)
	return s, true
}

// SetString stores s under k, compressing it when it is larger than the
// configured threshold.
func (c *Cache) SetString(k Key, s string) {
	e := &cacheEntry{key: k, value: s, size: int64(len(s))}
	if c.opts.CompressAbove > 0 && len(s) > c.opts.CompressAbove {
		if data, err := compressZstd([]byte(s)); err == nil && len(data) < len(s) {
			e.value = nil
			e.compressed = data
			e.size = int64(len(data))
		}
	}
	c.insert(e)
}

// Get returns an arbitrary value stored with Set.
func (c *Cache) Get(k Key) (any, bool) {
	e, ok := c.lookup(k)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores an arbitrary value. size is the caller's estimate of the
// memory the value retains and counts against the byte budget.
func (c *Cache) Set(k Key, v any, size int64) {
	c.insert(&cacheEntry{key: k, value: v, size: size})
}

// Delete removes k from the cache.
func (c *Cache) Delete(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[k]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*list.Element)
	c.lru.Init()
	c.bytes = 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.lru.Len()
	s.Bytes = c.bytes
	return s
}

func (c *Cache) lookup(k Key) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[k]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.removeElement(elem)
		c.stats.Misses++
		return nil, false
	}
	c.lru.MoveToFront(elem)
	c.stats.Hits++
	return entry, true
}

func (c *Cache) insert(e *cacheEntry) {
	e.size += entryOverhead
	if c.opts.TTL > 0 {
		e.expires = c.now().Add(c.opts.TTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[e.key]; ok {
		c.removeElement(elem)
	}
	if e.size > c.opts.MaxBytes {
		return
	}
	for c.bytes+e.size > c.opts.MaxBytes && c.lru.Len() > 0 {
		c.evictOldest()
	}
	c.items[e.key] = c.lru.PushFront(e)
	c.bytes += e.size
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	elem := c.lru.Back()
	if elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache.
// Must be called with lock held.
func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.bytes -= entry.size
}

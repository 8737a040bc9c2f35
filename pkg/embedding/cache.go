package embedding

import (
	"container/list"
	"strings"
	"sync"
)

// DefaultCacheSize bounds the embedding cache when no explicit capacity is configured.
const DefaultCacheSize = 500

// Cache is a strict LRU over computed embedding vectors, keyed by normalized
// query text. Queries that differ only in case or whitespace share one entry,
// so "What is divorce?" and "what   is divorce?" cost a single embed call.
//
// All operations are O(1) and safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	index    map[string]*list.Element
}

type cacheEntry struct {
	key    string
	vector []float32
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// NormalizeKey lowercases, trims, and collapses internal whitespace runs to a
// single space, so trivially-different spellings of a query hit the same entry.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Get returns the cached vector for text and refreshes its recency.
func (c *Cache) Get(text string) ([]float32, bool) {
	key := NormalizeKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).vector, true
}

// Set stores the vector for text. An existing key is overwritten and
// refreshed without growing the cache; inserting a new key at capacity
// evicts the least recently used entry first.
func (c *Cache) Set(text string, vector []float32) {
	key := NormalizeKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		elem.Value.(*cacheEntry).vector = vector
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*cacheEntry).key)
		}
	}

	c.index[key] = c.order.PushFront(&cacheEntry{key: key, vector: vector})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[string]*list.Element, c.capacity)
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

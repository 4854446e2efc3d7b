// Package cache provides a small generic LRU cache for device resources.
//
// Entries can own resources that must be released explicitly (GPU
// textures, samplers). The eviction callback runs for every entry that
// leaves the cache, whether by capacity eviction, Delete or Clear.
//
//	c := cache.New[string, *Texture](8, func(_ string, t *Texture) { t.Destroy() })
//	tex, err := c.GetOrCreate(path, func() (*Texture, error) { return upload(path) })
package cache

import "sync"

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 16

// LRU is a thread-safe least-recently-used cache with a hard capacity.
//
// The eviction callback is called with the cache lock held; it must not
// call back into the cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	order    recency[K]
	capacity int
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[K comparable, V any] struct {
	value V
	node  *node[K]
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most capacity entries. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		entries:  make(map[K]*entry[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *LRU[K, V]) getLocked(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(e.node)
	return e.value, true
}

// Set stores value under key, evicting the least recently used entries
// while the cache is over capacity. Replacing a value evicts the old one.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

func (c *LRU[K, V]) setLocked(key K, value V) {
	if e, ok := c.entries[key]; ok {
		old := e.value
		e.value = value
		c.order.moveToFront(e.node)
		c.evict(key, old)
		return
	}
	for c.order.len >= c.capacity {
		oldest, ok := c.order.removeOldest()
		if !ok {
			break
		}
		e := c.entries[oldest]
		delete(c.entries, oldest)
		c.evict(oldest, e.value)
	}
	c.entries[key] = &entry[K, V]{value: value, node: c.order.pushFront(key)}
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the lock, so concurrent callers never create the same
// key twice. A failed create stores nothing.
func (c *LRU[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.getLocked(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.setLocked(key, v)
	return v, nil
}

// Delete removes key and reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(e.node)
	delete(c.entries, key)
	c.evict(key, e.value)
	return true
}

// Clear removes every entry, oldest first.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		key, ok := c.order.removeOldest()
		if !ok {
			break
		}
		e := c.entries[key]
		delete(c.entries, key)
		c.evict(key, e.value)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *LRU[K, V]) evict(key K, value V) {
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

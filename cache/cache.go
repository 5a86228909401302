// Package cache provides a sharded LRU cache bounded by the total cost of
// its values, used to keep derived bitmaps between preview frames.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// ShardCount is the number of shards. Must be a power of 2.
const ShardCount = 16

const shardMask = ShardCount - 1

// Hasher computes the hash that selects a key's shard.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher mixes an integer key so that nearby keys spread across
// shards.
func Uint64Hasher(u uint64) uint64 {
	u ^= u >> 33
	u *= 0xff51afd7ed558ccd
	u ^= u >> 33
	return u
}

// Stats is a snapshot of cache statistics.
type Stats struct {
	Len       int
	Cost      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a thread-safe LRU cache split into ShardCount shards. Each
// shard holds at most Budget/ShardCount cost units; a value costing more
// than a shard's budget is returned but not kept.
type Cache[K comparable, V any] struct {
	shards      [ShardCount]shard[K, V]
	hasher      Hasher[K]
	cost        func(V) int64
	budget      int64
	shardBudget int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	lru     lruList[K, V]
	cost    int64
}

// New returns a cache holding values up to a total cost of budget. cost
// reports the cost of a value; nil counts every value as 1.
func New[K comparable, V any](budget int64, hasher Hasher[K], cost func(V) int64) *Cache[K, V] {
	if cost == nil {
		cost = func(V) int64 { return 1 }
	}
	if budget < ShardCount {
		budget = ShardCount
	}
	c := &Cache[K, V]{
		hasher:      hasher,
		cost:        cost,
		budget:      budget,
		shardBudget: budget / ShardCount,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*lruNode[K, V])
	}
	return c
}

func (c *Cache[K, V]) shard(key K) *shard[K, V] {
	return &c.shards[c.hasher(key)&shardMask]
}

// Get returns the value cached under key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shard(key)
	s.mu.Lock()
	n, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.MoveToFront(n)
	v := n.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting least recently used entries of the
// key's shard to stay within budget.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.store(s, key, value)
}

// GetOrCreate returns the value cached under key, creating and storing it
// on a miss. create runs with the shard locked, so concurrent callers of
// the same key create it once.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		s.lru.MoveToFront(n)
		c.hits.Add(1)
		return n.value
	}
	c.misses.Add(1)
	value := create()
	c.store(s, key, value)
	return value
}

func (c *Cache[K, V]) store(s *shard[K, V], key K, value V) {
	cost := c.cost(value)
	if old, ok := s.entries[key]; ok {
		s.lru.Remove(old)
		s.cost -= old.cost
		delete(s.entries, key)
	}
	if cost > c.shardBudget {
		return
	}
	for s.cost+cost > c.shardBudget {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		s.lru.Remove(oldest)
		s.cost -= oldest.cost
		delete(s.entries, oldest.key)
		c.evictions.Add(1)
	}
	n := &lruNode[K, V]{key: key, value: value, cost: cost}
	s.lru.PushFront(n)
	s.entries[key] = n
	s.cost += cost
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.Remove(n)
	s.cost -= n.cost
	delete(s.entries, key)
	return true
}

// Clear removes every entry. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.entries = make(map[K]*lruNode[K, V])
		s.lru.Clear()
		s.cost = 0
		s.mu.Unlock()
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	st := Stats{
		Budget:    c.budget,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		st.Len += len(s.entries)
		st.Cost += s.cost
		s.mu.Unlock()
	}
	return st
}

// ResetStats zeroes the hit, miss and eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

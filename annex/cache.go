package annex

import "sync"

// Cache is a read-mostly, concurrency-safe map from PGN to its decoded
// layout. Reads never block each other; a write locks only for the
// duration of the map mutation. Concurrent writers racing on the same PGN
// both succeed — whichever completes last wins, which is fine because a
// given PGN's layout is supposed to be deterministic across sources.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint16]SpecPGN
}

// NewCache returns an empty cache ready for use.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint16]SpecPGN)}
}

// Get returns the cached layout for pgn, if present.
func (c *Cache) Get(pgn uint16) (SpecPGN, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.entries[pgn]
	return spec, ok
}

// Put inserts or overwrites the layout for pgn.
func (c *Cache) Put(pgn uint16, spec SpecPGN) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pgn] = spec
}

// Snapshot returns a shallow copy of the cache's contents at the time of
// the call, suitable for attaching to a Batch without holding a reference
// into the live cache.
func (c *Cache) Snapshot() map[uint16]SpecPGN {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint16]SpecPGN, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Len reports the number of cached PGNs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

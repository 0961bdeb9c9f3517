// Package pagecache is the Page Cache: a bounded mapping from page index to
// the deserialised page, evicted LRU-by-last-access. It is not an
// authoritative copy of anything — every mutation that goes through it must
// still be paired with a Backend write by the caller (dagindex.DagIndex)
// before its critical section releases.
package pagecache

import (
	"sync"

	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
)

type entry struct {
	lastAccess int64
	record     dagindexapi.PageRecord
}

// Cache is a bounded, LRU-by-last-access map of page index to PageRecord.
// It is safe for concurrent use; callers needing atomicity across a
// lookup+insert pair (as DagIndex does) still hold their own named lock
// around the pair, since the cache itself only guarantees each individual
// call is race-free.
type Cache struct {
	mtx      sync.Mutex
	capacity int
	entries  map[dagindexapi.PageIndex]*entry
	clock    int64
}

// New creates a Cache bounded to capacity pages.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[dagindexapi.PageIndex]*entry, capacity),
	}
}

// Lookup returns the cached page for pageIndex, bumping its last-access
// time, or (nil, false) on a miss.
func (c *Cache) Lookup(pageIndex dagindexapi.PageIndex) (dagindexapi.PageRecord, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, ok := c.entries[pageIndex]
	if !ok {
		return nil, false
	}
	c.clock++
	e.lastAccess = c.clock
	return e.record, true
}

// Insert stores record for pageIndex, evicting the least-recently-accessed
// entries first if the cache is at capacity.
func (c *Cache) Insert(pageIndex dagindexapi.PageIndex, record dagindexapi.PageRecord) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, exists := c.entries[pageIndex]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked(len(c.entries) - c.capacity + 1)
	}

	c.clock++
	c.entries[pageIndex] = &entry{lastAccess: c.clock, record: record}
}

// Invalidate removes pageIndex from the cache, if present. Nothing in the
// index calls it: Rebuild builds a new DagIndex, whose cache starts empty.
func (c *Cache) Invalidate(pageIndex dagindexapi.PageIndex) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.entries, pageIndex)
}

// Len returns the number of pages currently cached.
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the n least-recently-accessed entries. Callers
// must hold c.mtx.
func (c *Cache) evictOldestLocked(n int) {
	for ; n > 0 && len(c.entries) > 0; n-- {
		var oldestKey dagindexapi.PageIndex
		var oldestAccess int64
		first := true
		for k, e := range c.entries {
			if first || e.lastAccess < oldestAccess {
				oldestKey = k
				oldestAccess = e.lastAccess
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}
}

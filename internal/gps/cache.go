// Package gps keeps the most recent GPS fix available to the capture path.
package gps

import (
	"sync/atomic"

	"firestige.xyz/wardriver/internal/core"
)

// Cache is a single-writer, many-reader cell holding the latest fix.
// Readers always observe one complete Fix published by the writer.
type Cache struct {
	cur atomic.Pointer[core.Fix]
}

// NewCache returns a cache seeded with the (0,0,0) "no fix yet" value.
func NewCache() *Cache {
	c := &Cache{}
	c.cur.Store(&core.Fix{})
	return c
}

// Load returns a copy of the current fix.
func (c *Cache) Load() core.Fix {
	return *c.cur.Load()
}

// Publish replaces the cached fix unless fix is the sentinel or unchanged.
// It reports whether the cache was updated.
func (c *Cache) Publish(fix core.Fix) bool {
	if !fix.Valid() {
		return false
	}
	for {
		old := c.cur.Load()
		if *old == fix {
			return false
		}
		next := fix
		if c.cur.CompareAndSwap(old, &next) {
			return true
		}
	}
}

// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// cacheKey identifies a compiled expression. The same query text compiled
// for different function types produces different expressions.
type cacheKey struct {
	query string
	typ   reflect.Type
}

// Cache holds compiled expressions keyed by their exact query text and
// function type. Failed compilations are not cached. Entries are never
// evicted; use Reset to drop them.
//
// The mutex must be locked when accessing entries.
type Cache struct {
	entries map[cacheKey]any
	mutex   sync.RWMutex

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats reports the use of a Cache.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: map[cacheKey]any{}}
}

// typeOf returns the reflect.Type of F, which may be an interface type.
func typeOf[F any]() reflect.Type {
	return reflect.TypeOf((*F)(nil)).Elem()
}

// defaultCache backs CompileCached with a nil cache and the query helpers.
var defaultCache = NewCache()

// DefaultCache returns the package level cache used by Where, Select,
// OrderBy and First.
func DefaultCache() *Cache {
	return defaultCache
}

// CompileCached returns the expression compiled from query for the function
// type F, compiling it only if c does not already hold it. If c is nil the
// default cache is used.
func CompileCached[F any](c *Cache, query string) (*Expression[F], error) {
	if c == nil {
		c = defaultCache
	}
	key := cacheKey{query: query, typ: typeOf[F]()}

	c.mutex.RLock()
	cached, ok := c.entries[key]
	c.mutex.RUnlock()
	if ok {
		c.hits.Add(1)
		return cached.(*Expression[F]), nil
	}

	c.misses.Add(1)
	e, err := Compile[F](query)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	// Check if an expression has been inserted by someone else since we last
	// checked.
	if cached, ok := c.entries[key]; ok {
		return cached.(*Expression[F]), nil
	}
	c.entries[key] = e
	return e, nil
}

// Len returns the number of expressions in the cache.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts of the cache and its size.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}

// Reset removes every expression from the cache and zeroes its counters.
func (c *Cache) Reset() {
	c.mutex.Lock()
	c.entries = map[cacheKey]any{}
	c.mutex.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr

// ReturnsError reports whether the function type of e ends in an error
// result.
func ReturnsError[F any](e *Expression[F]) bool {
	return e.returnsErr
}

// CacheEntry returns the expression cached under query for F, if any.
func CacheEntry[F any](c *Cache, query string) (*Expression[F], bool) {
	key := cacheKey{query: query, typ: typeOf[F]()}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.(*Expression[F]), true
}

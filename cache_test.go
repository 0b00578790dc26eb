// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr_test

import (
	"sync"

	. "gopkg.in/check.v1"

	"github.com/canonical/lambdaexpr"
)

type CacheSuite struct{}

var _ = Suite(&CacheSuite{})

func (s *CacheSuite) TestCompileCachedReuse(c *C) {
	cache := lambdaexpr.NewCache()
	const query = `x => x.WorkHours > 20`

	e1, err := lambdaexpr.CompileCached[func(*Teacher) bool](cache, query)
	c.Assert(err, IsNil)
	e2, err := lambdaexpr.CompileCached[func(*Teacher) bool](cache, query)
	c.Assert(err, IsNil)
	c.Check(e1 == e2, Equals, true)

	cached, ok := lambdaexpr.CacheEntry[func(*Teacher) bool](cache, query)
	c.Assert(ok, Equals, true)
	c.Check(cached == e1, Equals, true)

	c.Check(cache.Stats(), Equals, lambdaexpr.CacheStats{Hits: 1, Misses: 1, Entries: 1})
	c.Check(cache.Len(), Equals, 1)
}

func (s *CacheSuite) TestCacheKeyIncludesFunctionType(c *C) {
	cache := lambdaexpr.NewCache()
	const query = `x => x.WorkHours > 20`

	e1, err := lambdaexpr.CompileCached[func(*Teacher) bool](cache, query)
	c.Assert(err, IsNil)
	e2, err := lambdaexpr.CompileCached[func(*Teacher) (bool, error)](cache, query)
	c.Assert(err, IsNil)
	c.Check(lambdaexpr.ReturnsError(e1), Equals, false)
	c.Check(lambdaexpr.ReturnsError(e2), Equals, true)
	c.Check(cache.Len(), Equals, 2)

	// The query text is matched exactly.
	_, err = lambdaexpr.CompileCached[func(*Teacher) bool](cache, `x => x.WorkHours  > 20`)
	c.Assert(err, IsNil)
	c.Check(cache.Stats(), Equals, lambdaexpr.CacheStats{Hits: 0, Misses: 3, Entries: 3})
}

func (s *CacheSuite) TestFailedCompileNotCached(c *C) {
	cache := lambdaexpr.NewCache()
	for i := 0; i < 2; i++ {
		_, err := lambdaexpr.CompileCached[func(*Teacher) bool](cache, `x => x.Nope`)
		c.Assert(err, ErrorMatches, `cannot compile expression: unknown member .*`)
	}
	c.Check(cache.Stats(), Equals, lambdaexpr.CacheStats{Hits: 0, Misses: 2, Entries: 0})
	_, ok := lambdaexpr.CacheEntry[func(*Teacher) bool](cache, `x => x.Nope`)
	c.Check(ok, Equals, false)
}

func (s *CacheSuite) TestReset(c *C) {
	cache := lambdaexpr.NewCache()
	_, err := lambdaexpr.CompileCached[func(*Teacher) int](cache, `x => x.WorkHours`)
	c.Assert(err, IsNil)
	_, err = lambdaexpr.CompileCached[func(*Teacher) int](cache, `x => x.WorkHours`)
	c.Assert(err, IsNil)
	cache.Reset()
	c.Check(cache.Stats(), Equals, lambdaexpr.CacheStats{})
}

func (s *CacheSuite) TestNilCacheUsesDefault(c *C) {
	const query = `x => x.WorkHours * 2 + 1`
	e, err := lambdaexpr.CompileCached[func(*Teacher) int](nil, query)
	c.Assert(err, IsNil)
	cached, ok := lambdaexpr.CacheEntry[func(*Teacher) int](lambdaexpr.DefaultCache(), query)
	c.Assert(ok, Equals, true)
	c.Check(cached == e, Equals, true)
}

func (s *CacheSuite) TestConcurrentCompile(c *C) {
	cache := lambdaexpr.NewCache()
	const query = `x => x.Age ?? x.WorkHours ?? 0`
	const workers = 16

	var wg sync.WaitGroup
	results := make([]*lambdaexpr.Expression[func(*Teacher) int], workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = lambdaexpr.CompileCached[func(*Teacher) int](cache, query)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		c.Assert(errs[i], IsNil)
		// Every caller ends up with the single cached expression.
		c.Check(results[i] == results[0], Equals, true)
		c.Check(results[i].Func()(&Teacher{WorkHours: i}), Equals, i)
	}
	stats := cache.Stats()
	c.Check(stats.Entries, Equals, 1)
	c.Check(stats.Hits+stats.Misses, Equals, uint64(workers))
}

// Package cache provides the bounded statement cache spec.md §4.3
// describes: CompiledStatement keyed by a stable fingerprint, LRU eviction
// with a soft TTL, and a single-flight guarantee so concurrent misses for
// the same key compile at most once.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/sqlspec/sqlspec"
)

// Key is the cache key spec.md §4.3 defines: raw SQL fingerprint combined
// with dialect, target parameter style, transformation flags, and filter
// fingerprints — everything that changes the compiled output, nothing that
// changes per execution (no parameter values).
type Key struct {
	Fingerprint string
}

// Options configures a Cache's size and TTL.
type Options struct {
	MaxEntries int
	TTL        time.Duration // 0 disables the soft TTL; entries live until evicted by size.
}

// Cache is a bounded LRU of sqlspec.CompiledStatement, safe for concurrent
// use. A miss triggers compilation via the Compile func passed to Get; two
// concurrent misses for the same Key share one compilation, per spec.md
// §4.3's single-flight requirement.
type Cache struct {
	lru   *expirable.LRU[string, sqlspec.CompiledStatement]
	group singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New builds a Cache. A MaxEntries of zero or less means unlimited size.
func New(opts Options) *Cache {
	c := &Cache{}

	size := opts.MaxEntries
	if size <= 0 {
		size = 0 // expirable.NewLRU treats size<=0 as unlimited
	}

	c.lru = expirable.NewLRU[string, sqlspec.CompiledStatement](size, func(key string, _ sqlspec.CompiledStatement) {
		c.evictions.Add(1)
	}, opts.TTL)

	return c
}

// CompileFunc produces the CompiledStatement for a cache miss.
type CompileFunc func(ctx context.Context) (sqlspec.CompiledStatement, error)

// Get returns the cached CompiledStatement for key, compiling it via
// compile on a miss. Concurrent Get calls for the same key during a miss
// block on the in-flight compile rather than each invoking compile, per
// spec.md §4.3.
func (c *Cache) Get(ctx context.Context, key Key, compile CompileFunc) (sqlspec.CompiledStatement, error) {
	if stmt, ok := c.lru.Get(key.Fingerprint); ok {
		c.hits.Add(1)
		return stmt, nil
	}

	c.misses.Add(1)

	v, err, _ := c.group.Do(key.Fingerprint, func() (any, error) {
		if stmt, ok := c.lru.Get(key.Fingerprint); ok {
			return stmt, nil
		}

		stmt, err := compile(ctx)
		if err != nil {
			return sqlspec.CompiledStatement{}, err
		}

		c.lru.Add(key.Fingerprint, stmt)

		return stmt, nil
	})
	if err != nil {
		return sqlspec.CompiledStatement{}, err
	}

	return v.(sqlspec.CompiledStatement), nil
}

// Put inserts compiled under key directly, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache) Put(key Key, compiled sqlspec.CompiledStatement) {
	c.lru.Add(key.Fingerprint, compiled)
}

// Invalidate clears every entry. Intended for test hooks and dialect
// hot-swap, per spec.md §4.3.
func (c *Cache) Invalidate() {
	c.lru.Purge()
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

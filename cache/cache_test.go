package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestGetCompilesOnceOnMiss(t *testing.T) {
	c := New(Options{MaxEntries: 10})

	var compiles atomic.Int64
	compile := func(ctx context.Context) (sqlspec.CompiledStatement, error) {
		compiles.Add(1)
		return sqlspec.CompiledStatement{SQL: "SELECT 1"}, nil
	}

	key := Key{Fingerprint: "abc"}

	stmt, err := c.Get(context.Background(), key, compile)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt.SQL)

	stmt2, err := c.Get(context.Background(), key, compile)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt2.SQL)

	assert.Equal(t, int64(1), compiles.Load())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGetSingleFlightsConcurrentMisses(t *testing.T) {
	c := New(Options{MaxEntries: 10})

	var compiles atomic.Int64
	started := make(chan struct{})
	proceed := make(chan struct{})

	compile := func(ctx context.Context) (sqlspec.CompiledStatement, error) {
		compiles.Add(1)
		close(started)
		<-proceed
		return sqlspec.CompiledStatement{SQL: "SELECT 1"}, nil
	}

	key := Key{Fingerprint: "shared"}

	var wg sync.WaitGroup
	results := make([]sqlspec.CompiledStatement, 4)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stmt, err := c.Get(context.Background(), key, compile)
			assert.NoError(t, err)
			results[i] = stmt
		}(i)
	}

	<-started
	time.Sleep(10 * time.Millisecond)
	close(proceed)
	wg.Wait()

	assert.Equal(t, int64(1), compiles.Load())
	for _, r := range results {
		assert.Equal(t, "SELECT 1", r.SQL)
	}
}

func TestGetPropagatesCompileError(t *testing.T) {
	c := New(Options{MaxEntries: 10})

	wantErr := errors.New("compile failed")
	compile := func(ctx context.Context) (sqlspec.CompiledStatement, error) {
		return sqlspec.CompiledStatement{}, wantErr
	}

	_, err := c.Get(context.Background(), Key{Fingerprint: "x"}, compile)
	assert.Error(t, err)
}

func TestPutAndInvalidate(t *testing.T) {
	c := New(Options{MaxEntries: 10})

	c.Put(Key{Fingerprint: "k1"}, sqlspec.CompiledStatement{SQL: "A"})
	c.Put(Key{Fingerprint: "k2"}, sqlspec.CompiledStatement{SQL: "B"})
	assert.Equal(t, 2, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}

func TestEvictionAtCapacity(t *testing.T) {
	c := New(Options{MaxEntries: 2})

	c.Put(Key{Fingerprint: "k1"}, sqlspec.CompiledStatement{SQL: "A"})
	c.Put(Key{Fingerprint: "k2"}, sqlspec.CompiledStatement{SQL: "B"})
	c.Put(Key{Fingerprint: "k3"}, sqlspec.CompiledStatement{SQL: "C"})

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestNewKeyDiffersByTargetStyle(t *testing.T) {
	stmt := sqlspec.NewStatement("SELECT * FROM t WHERE id = :id")

	k1 := NewKey(stmt, sqlspec.StyleNumeric)
	k2 := NewKey(stmt, sqlspec.StyleQmark)

	assert.NotEqual(t, k1.Fingerprint, k2.Fingerprint)
}

package driver

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/cache"
)

// Dialer opens one new backend connection, returning a RawExecutor and
// Adapter pair ready for NewSession. Each backend adapter package supplies
// its own Dialer built from sqlspec.Database's DSN.
type Dialer func(ctx context.Context, db sqlspec.Database) (RawExecutor, Adapter, error)

// Pool is a generic, backend-agnostic connection pool implementing
// sqlspec.Pool: max sizing, idle eviction, and acquire-timeout, built
// once per backend adapter over its Dialer (spec.md §4.7 "pool lifecycle:
// start/shutdown"). It does not read Database.MinSize: no connection is
// dialed before the first Acquire.
type Pool struct {
	dial   Dialer
	db     sqlspec.Database
	cache  *cache.Cache

	mu       sync.Mutex
	idle     *list.List // of *pooledSession
	inUse    int
	closed   bool
	waiters  []chan struct{}
}

type pooledSession struct {
	session  *Session
	lastUsed time.Time
}

// NewPool starts a Pool for db, dialing connections lazily on Acquire and
// sharing one Statement cache across every Session it hands out.
func NewPool(db sqlspec.Database, dial Dialer) *Pool {
	maxEntries := 512

	return &Pool{
		dial:  dial,
		db:    db,
		cache: cache.New(cache.Options{MaxEntries: maxEntries}),
		idle:  list.New(),
	}
}

// Acquire returns an idle Session if one is available and unexpired,
// otherwise dials a new one, blocking until ctx's deadline or the pool's
// AcquireTTL if at MaxSize capacity.
func (p *Pool) Acquire(ctx context.Context) (sqlspec.Conn, error) {
	deadline := time.Now().Add(p.acquireTimeout())
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	for {
		p.mu.Lock()

		if p.closed {
			p.mu.Unlock()
			return nil, sqlspec.NewError(sqlspec.KindConnectivityError, "pool is closed", sqlspec.ErrPoolClosed)
		}

		if e := p.idle.Front(); e != nil {
			p.idle.Remove(e)
			ps := e.Value.(*pooledSession)

			if p.db.IdleTTL > 0 && time.Since(ps.lastUsed) > p.db.IdleTTL {
				p.mu.Unlock()
				_ = ps.session.Close()

				continue
			}

			p.inUse++
			p.mu.Unlock()

			return ps.session, nil
		}

		if p.db.MaxSize <= 0 || p.inUse < p.db.MaxSize {
			p.inUse++
			p.mu.Unlock()

			session, err := p.dialSession(ctx)
			if err != nil {
				p.mu.Lock()
				p.inUse--
				p.mu.Unlock()

				return nil, err
			}

			return session, nil
		}

		wait := make(chan struct{})
		p.waiters = append(p.waiters, wait)
		p.mu.Unlock()

		select {
		case <-wait:
			continue
		case <-ctx.Done():
			return nil, sqlspec.NewError(sqlspec.KindPoolExhausted, "context canceled while waiting for a connection", ctx.Err())
		case <-time.After(time.Until(deadline)):
			return nil, sqlspec.NewError(sqlspec.KindPoolExhausted, "timed out waiting for an available connection", nil)
		}
	}
}

func (p *Pool) dialSession(ctx context.Context) (*Session, error) {
	exec, adapter, err := p.dial(ctx, p.db)
	if err != nil {
		return nil, sqlspec.NewError(sqlspec.KindConnectivityError, "failed to open connection", err)
	}

	var s *Session
	s = NewSession(exec, adapter, p.cache, func() { p.release(s) })

	return s, nil
}

func (p *Pool) release(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inUse--

	if p.closed {
		go func() { _ = s.Close() }()
		return
	}

	p.idle.PushBack(&pooledSession{session: s, lastUsed: time.Now()})

	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		close(w)
	}
}

func (p *Pool) acquireTimeout() time.Duration {
	if p.db.AcquireTTL > 0 {
		return p.db.AcquireTTL
	}

	return 30 * time.Second
}

// Cache returns the Statement cache every Session from this Pool shares,
// so a caller can report cache.Stats alongside pool connection stats.
func (p *Pool) Cache() *cache.Cache {
	return p.cache
}

// Stats reports a point-in-time snapshot of the pool's connection counts.
func (p *Pool) Stats() sqlspec.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return sqlspec.PoolStats{
		InUse: p.inUse,
		Idle:  p.idle.Len(),
		Max:   p.db.MaxSize,
	}
}

// Close shuts down every idle Session and marks the Pool closed; Sessions
// currently checked out are closed as they're released.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true

	var toClose []*Session

	for e := p.idle.Front(); e != nil; e = e.Next() {
		toClose = append(toClose, e.Value.(*pooledSession).session)
	}

	p.idle.Init()

	for _, w := range p.waiters {
		close(w)
	}

	p.waiters = nil
	p.mu.Unlock()

	var firstErr error

	for _, s := range toClose {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

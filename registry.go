package sqlspec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Connector builds a driver-specific Pool for a Database configuration.
// Backend adapters call RegisterConnector from an init() function to make
// themselves available by driver name, the same way database/sql drivers
// register themselves by name.
type Connector interface {
	Connect(db Database) (Pool, error)
}

// Pool is the minimal lifecycle the Registry needs from a connection pool:
// scoped acquisition, point-in-time stats, and shutdown. The richer
// per-verb Session contract (execute, transactions, stack execution) is
// specified by the driver package; Registry only brokers access to it.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Stats() PoolStats
	Close() error
}

// Conn is satisfied by every driver adapter's Session. Release returns the
// connection to its Pool without closing the underlying socket; Close
// (from io.Closer) tears it down entirely.
type Conn interface {
	io.Closer
	Release()
}

// PoolStats is a point-in-time snapshot of a Pool's connection counts.
type PoolStats struct {
	InUse int
	Idle  int
	Max   int
}

var (
	connectorsMu sync.RWMutex
	connectors   = map[string]Connector{}
)

// RegisterConnector makes a Connector available under driver name. Panics
// on a duplicate registration of the same name, matching database/sql's
// driver registry behavior.
func RegisterConnector(name string, c Connector) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()

	if _, exists := connectors[name]; exists {
		panic("sqlspec: Connector already registered for driver " + name)
	}

	connectors[name] = c
}

func connectorFor(name string) (Connector, bool) {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()

	c, ok := connectors[name]

	return c, ok
}

// Registry owns every configured Database's Pool, building each lazily on
// first use and tearing them all down together via CloseAll.
type Registry struct {
	mu      sync.Mutex
	configs map[string]Database
	pools   map[string]Pool
}

// NewRegistry builds a Registry from the databases declared in cfg. No
// pools are created until Pool or Acquire is called for a given name.
func NewRegistry(cfg *Config) *Registry {
	configs := make(map[string]Database, len(cfg.Databases))
	for k, v := range cfg.Databases {
		configs[k] = v
	}

	return &Registry{configs: configs, pools: make(map[string]Pool)}
}

// Pool returns the named database's Pool, constructing it via the
// registered Connector on first call.
func (r *Registry) Pool(name string) (Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[name]; ok {
		return p, nil
	}

	db, ok := r.configs[name]
	if !ok {
		return nil, NewError(KindConfigError, fmt.Sprintf("no database configured under name %q", name), nil)
	}

	connector, ok := connectorFor(db.Driver)
	if !ok {
		return nil, NewError(KindConfigError, fmt.Sprintf("no connector registered for driver %q", db.Driver), ErrUnknownDriver)
	}

	pool, err := connector.Connect(db)
	if err != nil {
		return nil, NewError(KindConnectivityError, fmt.Sprintf("failed to build pool for database %q", name), err)
	}

	r.pools[name] = pool

	return pool, nil
}

// Acquire returns a Conn from the named database's Pool, building the Pool
// on first use. The caller must call Release (or Close) when done.
func (r *Registry) Acquire(ctx context.Context, name string) (Conn, error) {
	pool, err := r.Pool(name)
	if err != nil {
		return nil, err
	}

	return pool.Acquire(ctx)
}

// WithConn acquires a Conn for name, passes it to fn, and releases it
// regardless of whether fn returns an error. This is the scoped-acquisition
// primitive: callers who want begin/commit/rollback-on-panic semantics
// build Session.Transaction on top of it in the driver package.
func (r *Registry) WithConn(ctx context.Context, name string, fn func(Conn) error) error {
	conn, err := r.Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}

// CloseAll shuts down every pool the Registry has built so far, collecting
// every close error rather than stopping at the first.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for name, pool := range r.pools {
		if err := pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing pool %q: %w", name, err))
		}
	}

	r.pools = make(map[string]Pool)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

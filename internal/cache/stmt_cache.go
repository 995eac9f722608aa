// Package cache keeps the prepared statements of synthesized SQL, keyed by the
// statement text the driver receives, with least-recently-used eviction.
package cache

import (
	"container/list"
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of prepared statements kept when no capacity
// is configured.
const DefaultCapacity = 256

// Preparer prepares a statement. *sql.DB and *sql.Conn implement it.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StmtCache is a concurrency-safe LRU of prepared statements. Statements are
// handed out under a lease: an evicted or replaced statement is closed once
// its last lease is released.
type StmtCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	sql     string
	stmt    *sql.Stmt
	refs    int
	retired bool
}

// New creates a cache holding at most capacity statements; capacity <= 0
// means DefaultCapacity.
func New(capacity int) *StmtCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &StmtCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get leases the statement prepared for query and marks it recently used.
// The caller must call release once it is done with the statement.
func (c *StmtCache) Get(query string) (stmt *sql.Stmt, release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[query]
	if !ok {
		c.misses.Add(1)
		return nil, nil, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	e := elem.Value.(*entry)
	return e.stmt, c.lease(e), true
}

// Put stores stmt for query and leases it, evicting the least recently used
// statement when full. When query is already cached the cached statement is
// kept and leased instead, and stmt is closed.
func (c *StmtCache) Put(query string, stmt *sql.Stmt) (*sql.Stmt, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[query]; ok {
		e := elem.Value.(*entry)
		if e.stmt != stmt {
			_ = stmt.Close()
		}
		c.order.MoveToFront(elem)
		return e.stmt, c.lease(e)
	}

	if c.order.Len() >= c.capacity {
		c.evict()
	}
	e := &entry{sql: query, stmt: stmt}
	c.entries[query] = c.order.PushFront(e)
	return stmt, c.lease(e)
}

// Prepare leases the cached statement for query, preparing and caching it
// through p on a miss.
func (c *StmtCache) Prepare(ctx context.Context, p Preparer, query string) (*sql.Stmt, func(), error) {
	if stmt, release, ok := c.Get(query); ok {
		return stmt, release, nil
	}
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	stmt, release := c.Put(query, stmt)
	return stmt, release, nil
}

// lease must be called with the lock held. The returned func is idempotent.
func (c *StmtCache) lease(e *entry) func() {
	e.refs++
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.refs--
			if e.retired && e.refs == 0 {
				_ = e.stmt.Close()
			}
		})
	}
}

// retire drops elem and closes its statement unless it is leased. It must be
// called with the lock held.
func (c *StmtCache) retire(elem *list.Element) {
	e := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.entries, e.sql)
	e.retired = true
	if e.refs == 0 {
		_ = e.stmt.Close()
	}
}

// evict must be called with the lock held.
func (c *StmtCache) evict() {
	if elem := c.order.Back(); elem != nil {
		c.retire(elem)
		c.evictions.Add(1)
	}
}

// Clear drops every cached statement. Leased statements are closed on their
// last release.
func (c *StmtCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		c.retire(elem)
		elem = next
	}
}

// Stats holds cache counters.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns a snapshot of the cache counters.
func (c *StmtCache) Stats() Stats {
	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}

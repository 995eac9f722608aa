package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func prepare(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()
	mock.ExpectPrepare(query)
	stmt, err := db.Prepare(query)
	require.NoError(t, err)
	return stmt
}

func assertClosed(t *testing.T, stmt *sql.Stmt) {
	t.Helper()
	_, err := stmt.Exec()
	assert.ErrorContains(t, err, "statement is closed")
}

func TestNew_Capacity(t *testing.T) {
	assert.Equal(t, 10, New(10).Stats().Capacity)
	assert.Equal(t, DefaultCapacity, New(0).Stats().Capacity)
	assert.Equal(t, DefaultCapacity, New(-1).Stats().Capacity)
}

func TestStmtCache_GetPut(t *testing.T) {
	db, mock := newMock(t)
	c := New(4)

	_, _, ok := c.Get("select 1")
	assert.False(t, ok)

	stmt := prepare(t, db, mock, "select 1")
	_, release := c.Put("select 1", stmt)
	release()

	got, release, ok := c.Get("select 1")
	require.True(t, ok)
	assert.Same(t, stmt, got)
	release()
	release()

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)
}

func TestStmtCache_EvictsLeastRecentlyUsed(t *testing.T) {
	db, mock := newMock(t)
	c := New(2)

	a := prepare(t, db, mock, "select a")
	b := prepare(t, db, mock, "select b")
	d := prepare(t, db, mock, "select d")

	_, ra := c.Put("select a", a)
	_, rb := c.Put("select b", b)
	ra()
	rb()
	_, ra, _ = c.Get("select a")
	ra()
	_, rd := c.Put("select d", d)
	rd()

	_, _, ok := c.Get("select b")
	assert.False(t, ok, "b was least recently used")
	assertClosed(t, b)
	_, ra, ok = c.Get("select a")
	assert.True(t, ok)
	ra()
	_, rd, ok = c.Get("select d")
	assert.True(t, ok)
	rd()
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestStmtCache_LeaseOutlivesEviction(t *testing.T) {
	db, mock := newMock(t)
	mock.MatchExpectationsInOrder(false)
	c := New(1)
	ctx := context.Background()

	mock.ExpectPrepare("update a").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("update b")

	a, releaseA, err := c.Prepare(ctx, db, "update a")
	require.NoError(t, err)
	_, releaseB, err := c.Prepare(ctx, db, "update b")
	require.NoError(t, err)
	releaseB()
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	_, err = a.ExecContext(ctx)
	require.NoError(t, err, "a leased statement stays open after eviction")

	releaseA()
	assertClosed(t, a)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStmtCache_ConcurrentMissKeepsCachedStatement(t *testing.T) {
	db, mock := newMock(t)
	c := New(4)

	first := prepare(t, db, mock, "select 1")
	second := prepare(t, db, mock, "select 1")

	got, r1 := c.Put("select 1", first)
	assert.Same(t, first, got)
	got, r2 := c.Put("select 1", second)
	assert.Same(t, first, got, "the cached statement wins")
	assertClosed(t, second)

	r1()
	r2()
	assert.Equal(t, 1, c.Stats().Size)
}

func TestStmtCache_Prepare(t *testing.T) {
	db, mock := newMock(t)
	c := New(4)
	ctx := context.Background()

	mock.ExpectPrepare("select count(*) from `user`")
	first, release, err := c.Prepare(ctx, db, "select count(*) from `user`")
	require.NoError(t, err)
	release()

	second, release, err := c.Prepare(ctx, db, "select count(*) from `user`")
	require.NoError(t, err)
	release()
	assert.Same(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectPrepare("select broken").WillReturnError(errors.New("syntax error"))
	_, _, err = c.Prepare(ctx, db, "select broken")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestStmtCache_Clear(t *testing.T) {
	db, mock := newMock(t)
	c := New(4)

	a := prepare(t, db, mock, "select a")
	b := prepare(t, db, mock, "select b")
	_, ra := c.Put("select a", a)
	_, rb := c.Put("select b", b)
	ra()

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	_, _, ok := c.Get("select b")
	assert.False(t, ok)
	assertClosed(t, a)

	rb()
	assertClosed(t, b)
}

func TestStmtCache_Concurrent(t *testing.T) {
	db, mock := newMock(t)
	c := New(8)

	queries := make([]string, 8)
	for i := range queries {
		queries[i] = fmt.Sprintf("select %d", i)
		_, release := c.Put(queries[i], prepare(t, db, mock, queries[i]))
		release()
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, release, ok := c.Get(queries[(g+i)%len(queries)])
				assert.True(t, ok)
				release()
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, uint64(1600), c.Stats().Hits)
}

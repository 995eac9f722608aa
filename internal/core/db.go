// Package core executes synthesized statements against database/sql and
// composes them into the command operations of an entity.
package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/sqlassist/internal/analyzer"
	"github.com/coregx/sqlassist/internal/cache"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/logger"
	"github.com/coregx/sqlassist/internal/statement"
	"github.com/coregx/sqlassist/internal/tracer"
)

// Outcome is what the database answered to one statement.
type Outcome struct {
	// Rows holds the records of a query.
	Rows []Record
	// RowsAffected is the affected-row count of an exec or batch, or the
	// number of returned rows.
	RowsAffected int64
	// GeneratedID is the key of an id-returning insert, nil when none.
	GeneratedID any
}

// Executor submits successful statement results to a database. It must
// refuse failed results without contacting the database.
type Executor interface {
	Execute(ctx context.Context, r statement.Result) (Outcome, error)
}

// DB executes statements over a *sql.DB with prepared-statement caching,
// logging and tracing.
type DB struct {
	sqlDB      *sql.DB
	driverName string
	dialect    dialects.Dialect
	stmts      *cache.StmtCache
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	health     *healthChecker
	interval   time.Duration
	newID      func() string
}

// Option is a functional option for configuring DB.
type Option func(*DB)

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime sets the maximum lifetime of a connection.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(db *DB) {
		db.sqlDB.SetConnMaxLifetime(d)
	}
}

// WithStmtCacheCapacity sets the prepared statement cache capacity.
func WithStmtCacheCapacity(capacity int) Option {
	return func(db *DB) {
		db.stmts = cache.New(capacity)
	}
}

// WithoutStmtCache executes statements without preparing them first.
func WithoutStmtCache() Option {
	return func(db *DB) {
		db.stmts = nil
	}
}

// WithLogger sets the logger of executed statements.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithSensitiveFields replaces the column names whose statements have their
// parameters masked in logs.
func WithSensitiveFields(fields ...string) Option {
	return func(db *DB) {
		db.sanitizer = logger.NewSanitizer(fields)
	}
}

// WithTracer sets the tracer receiving one span per executed statement.
func WithTracer(t tracer.Tracer) Option {
	return func(db *DB) {
		if t != nil {
			db.tracer = t
		}
	}
}

// WithHealthCheck pings the database every interval in the background.
func WithHealthCheck(interval time.Duration) Option {
	return func(db *DB) {
		db.interval = interval
	}
}

// WithIDGenerator replaces the generator of statement ids.
func WithIDGenerator(gen func() string) Option {
	return func(db *DB) {
		if gen != nil {
			db.newID = gen
		}
	}
}

// Open opens a database and resolves the dialect registered for driverName.
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	if _, ok := dialects.Lookup(driverName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, driverName)
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return WrapDB(sqlDB, driverName, opts...)
}

// WrapDB wraps an existing *sql.DB; driverName selects the dialect.
func WrapDB(sqlDB *sql.DB, driverName string, opts ...Option) (*DB, error) {
	d, ok := dialects.Lookup(driverName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, driverName)
	}
	db := &DB{
		sqlDB:      sqlDB,
		driverName: driverName,
		dialect:    d,
		stmts:      cache.New(cache.DefaultCapacity),
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     &tracer.NoopTracer{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.interval > 0 {
		db.health = newHealthChecker(db.sqlDB, db.logger, db.interval)
		db.health.start()
	}
	return db, nil
}

// Close stops the health checker, closes cached statements and the database.
func (db *DB) Close() error {
	if db.health != nil {
		db.health.shutdown()
	}
	if db.stmts != nil {
		db.stmts.Clear()
	}
	return db.sqlDB.Close()
}

// Dialect returns the dialect of the database.
func (db *DB) Dialect() dialects.Dialect { return db.dialect }

// SQLDB returns the underlying *sql.DB.
func (db *DB) SQLDB() *sql.DB { return db.sqlDB }

// Ping verifies the connection.
func (db *DB) Ping(ctx context.Context) error { return db.sqlDB.PingContext(ctx) }

// IsHealthy reports the outcome of the last background health check. It is
// always true when no health check is configured.
func (db *DB) IsHealthy() bool {
	return db.Health().Healthy
}

// LastHealthCheck returns the time of the last background ping, the zero
// time when none ran.
func (db *DB) LastHealthCheck() time.Time {
	return db.Health().LastCheck
}

// Health returns the status of the background health checks.
func (db *DB) Health() HealthStatus {
	if db.health == nil {
		return HealthStatus{Healthy: true}
	}
	return db.health.snapshot()
}

// CacheStats returns the prepared statement cache counters.
func (db *DB) CacheStats() cache.Stats {
	if db.stmts == nil {
		return cache.Stats{}
	}
	return db.stmts.Stats()
}

// Execute submits r according to its kind. A failed r returns
// ErrStatementFailed without any database call, as does any r while the
// last background health check failed, with ErrUnhealthy.
func (db *DB) Execute(ctx context.Context, r statement.Result) (Outcome, error) {
	if !r.Succeeded() {
		db.logger.Warn("refusing to execute failed statement",
			"op", r.Op(),
			"table", r.Table(),
			"error", r.Err(),
		)
		return Outcome{}, fmt.Errorf("%w: %w", ErrStatementFailed, r.Err())
	}
	if h := db.Health(); !h.Healthy {
		db.logger.Warn("refusing statement on unhealthy database",
			"op", r.Op(),
			"table", r.Table(),
			"failures", h.Failures,
		)
		return Outcome{}, fmt.Errorf("%w: %w", ErrUnhealthy, h.LastError)
	}
	id := db.newID()
	query := dialects.Rebind(db.dialect, r.SQL())
	ctx, span := db.tracer.StartSpan(ctx, tracer.SpanName(r.Op()))
	defer span.End()

	start := time.Now()
	out, err := db.dispatch(ctx, query, r)
	elapsed := time.Since(start)

	tracer.AddStatementAttributes(span, &tracer.StatementInfo{
		ID:       id,
		Op:       r.Op(),
		SQL:      query,
		Database: db.dialect.Name(),
		Table:    r.Table(),
		Duration: elapsed,
		Rows:     out.RowsAffected,
		Error:    err,
	})
	db.logExecution(id, query, r, out, err, elapsed)
	return out, err
}

// Explain returns the execution plan of r without executing it. A batch is
// explained with its first parameter tuple.
func (db *DB) Explain(ctx context.Context, r statement.Result) (*analyzer.Plan, error) {
	if !r.Succeeded() {
		return nil, fmt.Errorf("%w: %w", ErrStatementFailed, r.Err())
	}
	a, err := analyzer.ForDialect(db.dialect.Name())
	if err != nil {
		return nil, err
	}
	params := r.Params()
	if r.Kind() == statement.KindBatch {
		params = r.BatchParams()[0]
	}
	query := dialects.Rebind(db.dialect, r.SQL())
	plan, err := a.Explain(ctx, db.sqlDB, query, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Op(), err)
	}
	db.logger.Debug("statement explained",
		"op", r.Op(),
		"sql", query,
		"full_scan", plan.FullScan,
		"index", plan.IndexName,
	)
	return plan, nil
}

func (db *DB) dispatch(ctx context.Context, query string, r statement.Result) (Outcome, error) {
	switch r.Kind() {
	case statement.KindQuery:
		records, err := db.query(ctx, query, r.Params())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Rows: records, RowsAffected: int64(len(records))}, nil

	case statement.KindExec:
		res, err := db.exec(ctx, query, r.Params())
		if err != nil {
			return Outcome{}, err
		}
		n, _ := res.RowsAffected()
		return Outcome{RowsAffected: n}, nil

	case statement.KindInsertLastID:
		res, err := db.exec(ctx, query, r.Params())
		if err != nil {
			return Outcome{}, err
		}
		n, _ := res.RowsAffected()
		id, err := res.LastInsertId()
		if err != nil {
			return Outcome{RowsAffected: n}, fmt.Errorf("last insert id: %w", err)
		}
		return Outcome{RowsAffected: n, GeneratedID: id}, nil

	case statement.KindInsertReturning:
		records, err := db.query(ctx, query, r.Params())
		if err != nil {
			return Outcome{}, err
		}
		// a conflicting upsert that does nothing returns no row
		if len(records) == 0 {
			return Outcome{}, nil
		}
		return Outcome{RowsAffected: int64(len(records)), GeneratedID: firstValue(records[0])}, nil

	case statement.KindBatch:
		var total int64
		for i, params := range r.BatchParams() {
			res, err := db.exec(ctx, query, params)
			if err != nil {
				return Outcome{RowsAffected: total}, fmt.Errorf("batch row %d: %w", i, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return Outcome{RowsAffected: total}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: kind %s", ErrUnexpectedResult, r.Kind())
	}
}

// firstValue returns the only value of a single-column record.
func firstValue(rec Record) any {
	for _, v := range rec {
		return v
	}
	return nil
}

// query runs a row-returning statement and materializes its records before
// the prepared statement lease is released.
func (db *DB) query(ctx context.Context, query string, args []any) ([]Record, error) {
	if db.stmts == nil {
		rows, err := db.sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()
		return scanRecords(rows)
	}
	stmt, release, err := db.stmts.Prepare(ctx, db.sqlDB, query)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer release()
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (db *DB) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if db.stmts == nil {
		return db.sqlDB.ExecContext(ctx, query, args...)
	}
	stmt, release, err := db.stmts.Prepare(ctx, db.sqlDB, query)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer release()
	return stmt.ExecContext(ctx, args...)
}

func (db *DB) logExecution(id, query string, r statement.Result, out Outcome, err error, elapsed time.Duration) {
	args := []any{
		"statement_id", id,
		"op", r.Op(),
		"sql", query,
		"duration_ms", elapsed.Milliseconds(),
		"database", db.dialect.Name(),
	}
	if r.Kind() == statement.KindBatch {
		args = append(args, "batch_size", len(r.BatchParams()))
	} else {
		args = append(args, "params", db.sanitizer.Format(query, r.Params()))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			db.logger.Warn("statement canceled", append(args, "error", err)...)
			return
		}
		db.logger.Error("statement execution failed", append(args, "error", err)...)
		return
	}
	db.logger.Info("statement executed", append(args, "rows", out.RowsAffected)...)
}

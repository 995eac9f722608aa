package core

import "errors"

// Errors returned by statement execution.
var (
	// ErrNoRows is returned when a single-row lookup finds nothing.
	ErrNoRows = errors.New("no rows in result set")
	// ErrStatementFailed is returned, wrapping the synthesis error, when a
	// failed statement result is handed to the executor. Nothing is sent to
	// the database in that case.
	ErrStatementFailed = errors.New("refusing to execute failed statement")
	// ErrUnsupportedDialect is returned when no dialect is registered for the
	// driver name.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrUnexpectedResult is returned when the database answers in a shape the
	// operation cannot interpret, such as a non-numeric count.
	ErrUnexpectedResult = errors.New("unexpected statement result")
	// ErrUnhealthy is returned, wrapping the ping error, while the last
	// background health check failed. Nothing is sent to the database.
	ErrUnhealthy = errors.New("database is unhealthy")
)

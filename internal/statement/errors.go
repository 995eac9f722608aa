package statement

import (
	"errors"
	"fmt"

	"github.com/coregx/sqlassist/internal/dialects"
)

var (
	// ErrStatementBuild marks a recoverable synthesis failure: unreadable
	// field values, a scoped update or delete without predicates, nothing to
	// set, or a missing primary-key value.
	ErrStatementBuild = errors.New("statement build failed")

	// ErrUnsupportedOperation marks a capability the dialect does not have.
	ErrUnsupportedOperation = dialects.ErrUnsupported
)

func buildError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStatementBuild, fmt.Sprintf(format, args...))
}

func wrapBuild(err error) error {
	if errors.Is(err, ErrStatementBuild) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStatementBuild, err)
}

// IsUnsupported reports whether err is an unsupported dialect capability.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

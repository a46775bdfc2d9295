// internal/store/errors.go
package store

import (
	"context"
	stderrors "errors"

	"advisory-engine/internal/common/errors"
)

// queryError classifies a failed read or scan. Deadline expiry gets its own
// code so callers can tell a slow database from a broken one.
func queryError(queryName string, err error) *errors.StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryName)
	}
	return errors.NewQueryExecutionFailedError(queryName, err)
}

// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package mdxair

import (
	"errors"
	"fmt"
)

// ErrStatementClosed is returned by every operation on a closed
// PreparedStatement except Close itself.
var ErrStatementClosed = errors.New("statement is closed")

// InvalidParameterIndexError reports a parameter index outside the 1..N
// range of the statement.
type InvalidParameterIndexError struct {
	Index int
	// Count is the number of parameters the statement declares.
	Count int
}

func (e *InvalidParameterIndexError) Error() string {
	return fmt.Sprintf("parameter index %d out of range 1..%d", e.Index, e.Count)
}

// ExecutionError wraps a data access or default evaluation failure during
// Execute. The statement remains usable afterwards: bindings are exactly
// as they were before the failed call and Execute may simply be retried.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cannot execute statement: %s", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

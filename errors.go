package cellgraph

import (
	"errors"
	"fmt"
)

// AppErrorCode represents gRPC-style error codes for structural failures.
// formula evaluation errors are values (FormulaError), not AppErrors.
type AppErrorCode int

const (
	// InvalidArgument indicates the caller supplied malformed input, such as
	// formula text that does not parse.
	InvalidArgument AppErrorCode = 3

	// FailedPrecondition indicates the operation was rejected because
	// committing it would break a sheet invariant.
	FailedPrecondition AppErrorCode = 9

	// OutOfRange means a position outside the grid bounds was used.
	OutOfRange AppErrorCode = 11

	// Internal errors. Means some invariants expected by underlying
	// system has been broken, such as a grammar emitting a malformed
	// event stream.
	Internal AppErrorCode = 13
)

var (
	ErrInvalidPosition    = errors.New("invalid position")
	ErrFormulaInvalid     = errors.New("formula is invalid")
	ErrCircularDependency = errors.New("circular dependency")
)

// AppError represents errors at the application level (not formula
// evaluation errors). Err is the sentinel matched by errors.Is.
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func invalidPositionError(pos Position) *AppError {
	return NewApplicationError(OutOfRange,
		fmt.Sprintf("%v: (%d, %d)", ErrInvalidPosition, pos.Row, pos.Col), ErrInvalidPosition)
}

func formulaInvalidError(format string, args ...any) *AppError {
	return NewApplicationError(InvalidArgument,
		fmt.Sprintf("%v: %s", ErrFormulaInvalid, fmt.Sprintf(format, args...)), ErrFormulaInvalid)
}

// malformedEventsError reports a grammar that broke its contract. it still
// wraps ErrFormulaInvalid since the formula could not be built.
func malformedEventsError(format string, args ...any) *AppError {
	return NewApplicationError(Internal,
		fmt.Sprintf("%v: malformed event stream: %s", ErrFormulaInvalid, fmt.Sprintf(format, args...)), ErrFormulaInvalid)
}

func circularDependencyError(pos Position) *AppError {
	return NewApplicationError(FailedPrecondition,
		fmt.Sprintf("%v: %s would depend on itself", ErrCircularDependency, pos), ErrCircularDependency)
}

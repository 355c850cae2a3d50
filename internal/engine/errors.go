package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEngines is returned when a registry is built without engines.
	ErrNoEngines = errors.New("no registered database engines")

	// ErrUnknownEngine is returned when a lookup names no registered engine.
	ErrUnknownEngine = errors.New("unknown database engine")

	// ErrDuplicateEngine is returned when two descriptors share a name.
	ErrDuplicateEngine = errors.New("duplicate database engine")

	// ErrColumnCount is returned by Query when the result has a different
	// number of columns than the type string.
	ErrColumnCount = errors.New("wrong number of result columns")

	// ErrUnknownType is returned when a type string holds a character other
	// than 'T', 'I' or 'R'.
	ErrUnknownType = errors.New("unknown type character")
)

// Op identifies an engine operation.
type Op string

const (
	OpConnect    Op = "connect"
	OpStatement  Op = "statement"
	OpQuery      Op = "query"
	OpDisconnect Op = "disconnect"
)

// Error records which engine operation failed.
type Error struct {
	Op     Op
	Engine string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ColumnCountError reports a type string that does not fit the result.
func ColumnCountError(want, got int) error {
	return fmt.Errorf("%w: expected %d but got %d", ErrColumnCount, want, got)
}

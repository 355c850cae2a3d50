// Package engine defines the contract between the script interpreter and the
// database engines it tests.
//
// An Engine exposes five operations: Connect, Statement, Query, FreeResults
// and Disconnect. The interpreter never inspects why an operation failed,
// only whether it did, so every engine is interchangeable behind the
// interface.
//
// Engines are published through a Descriptor (a name, opaque auxiliary data
// and the Engine itself) and collected in an immutable Registry that is
// built once at startup and passed explicitly to the driver.
package engine

import (
	"context"
	"fmt"

	"github.com/agnosticeng/panicsafe"
)

// Handle is an opaque connection value returned by Connect and passed back
// to every later call on the same engine.
type Handle any

// Engine is implemented by every backend under test.
type Engine interface {
	// Connect opens a connection and leaves the target database empty.
	// aux is the descriptor's auxiliary data; connection may be empty, in
	// which case the engine picks its own default.
	Connect(ctx context.Context, aux any, connection string) (Handle, error)

	// Statement runs one non-query SQL statement.
	Statement(ctx context.Context, h Handle, sql string) error

	// Query runs one query and returns its cells in row-major order. types
	// holds one of 'T', 'I' or 'R' per result column; a column count that
	// differs from len(types) is an error. Cells are rendered with Render.
	Query(ctx context.Context, h Handle, sql string, types string) ([]string, error)

	// FreeResults releases cells returned by Query. It must accept nil.
	FreeResults(h Handle, cells []string)

	// Disconnect closes the connection. Engines remove any on-disk
	// artifacts here or at the next Connect.
	Disconnect(ctx context.Context, h Handle) error
}

// Descriptor names an engine and carries its auxiliary configuration.
type Descriptor struct {
	Name   string
	Aux    any
	Engine Engine
}

// The Descriptor methods below call through to the engine, turning panics
// raised inside a driver into errors and tagging failures with the
// operation and engine name.

// Connect opens a connection with the descriptor's auxiliary data.
func (d Descriptor) Connect(ctx context.Context, connection string) (Handle, error) {
	var h Handle
	err := panicsafe.Recover(func() (err error) {
		h, err = d.Engine.Connect(ctx, d.Aux, connection)
		return err
	})
	if err != nil {
		return nil, d.wrap(OpConnect, err)
	}
	return h, nil
}

// Statement runs sql on h.
func (d Descriptor) Statement(ctx context.Context, h Handle, sql string) error {
	err := panicsafe.Recover(func() error {
		return d.Engine.Statement(ctx, h, sql)
	})
	return d.wrap(OpStatement, err)
}

// Query runs sql on h and returns the rendered cells.
func (d Descriptor) Query(ctx context.Context, h Handle, sql, types string) ([]string, error) {
	if err := ValidateTypes(types); err != nil {
		return nil, d.wrap(OpQuery, err)
	}
	var cells []string
	err := panicsafe.Recover(func() (err error) {
		cells, err = d.Engine.Query(ctx, h, sql, types)
		return err
	})
	if err != nil {
		return nil, d.wrap(OpQuery, err)
	}
	if len(cells)%len(types) != 0 {
		d.Engine.FreeResults(h, cells)
		return nil, d.wrap(OpQuery, fmt.Errorf("%w: %d cells do not fill rows of %d", ErrColumnCount, len(cells), len(types)))
	}
	return cells, nil
}

// FreeResults releases cells returned by Query.
func (d Descriptor) FreeResults(h Handle, cells []string) {
	d.Engine.FreeResults(h, cells)
}

// Disconnect closes h.
func (d Descriptor) Disconnect(ctx context.Context, h Handle) error {
	err := panicsafe.Recover(func() error {
		return d.Engine.Disconnect(ctx, h)
	})
	return d.wrap(OpDisconnect, err)
}

func (d Descriptor) wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Engine: d.Name, Err: err}
}

// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/sqllogictest/internal/engine"
)

// ErrNoSuchQuery is returned by Engine.Query for SQL that was never scripted.
var ErrNoSuchQuery = errors.New("no scripted result for query")

// Rows is a scripted query result.
type Rows struct {
	Columns int
	Cells   []string
	Err     error
}

// Engine is an in-memory engine whose answers are scripted by SQL text.
//
// Statements succeed unless scripted to fail. Queries must be scripted with
// AddQuery or FailQuery. The engine records every call so tests can check
// ordering and that result sets are released.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Engine struct {
	mu sync.Mutex

	statements map[string]error
	queries    map[string]Rows

	connectErr    error
	disconnectErr error

	executed    []string
	live        int
	maxLive     int
	connects    int
	disconnects int
	lastConn    string
}

type conn struct{ id int }

// NewEngine creates an engine with nothing scripted.
func NewEngine() *Engine {
	return &Engine{
		statements: make(map[string]error),
		queries:    make(map[string]Rows),
	}
}

// Descriptor wraps the engine in a descriptor called name.
func (e *Engine) Descriptor(name string) engine.Descriptor {
	return engine.Descriptor{Name: name, Engine: e}
}

// FailStatement makes sql fail with err.
func (e *Engine) FailStatement(sql string, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statements[sql] = err
	return e
}

// AddQuery scripts sql to return cells in rows of the given width.
func (e *Engine) AddQuery(sql string, columns int, cells ...string) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries[sql] = Rows{Columns: columns, Cells: cells}
	return e
}

// FailQuery makes sql fail with err.
func (e *Engine) FailQuery(sql string, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries[sql] = Rows{Err: err}
	return e
}

// FailConnect makes every Connect fail with err.
func (e *Engine) FailConnect(err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectErr = err
	return e
}

// FailDisconnect makes every Disconnect fail with err.
func (e *Engine) FailDisconnect(err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnectErr = err
	return e
}

func (e *Engine) Connect(ctx context.Context, aux any, connection string) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connects++
	e.lastConn = connection
	if e.connectErr != nil {
		return nil, e.connectErr
	}
	return &conn{id: e.connects}, nil
}

func (e *Engine) Statement(ctx context.Context, h engine.Handle, sql string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := h.(*conn); !ok {
		return fmt.Errorf("bad handle %T", h)
	}
	e.executed = append(e.executed, sql)
	return e.statements[sql]
}

func (e *Engine) Query(ctx context.Context, h engine.Handle, sql, types string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := h.(*conn); !ok {
		return nil, fmt.Errorf("bad handle %T", h)
	}
	e.executed = append(e.executed, sql)

	rows, ok := e.queries[sql]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchQuery, sql)
	}
	if rows.Err != nil {
		return nil, rows.Err
	}
	if rows.Columns != len(types) {
		return nil, engine.ColumnCountError(len(types), rows.Columns)
	}

	e.live++
	if e.live > e.maxLive {
		e.maxLive = e.live
	}
	return append([]string(nil), rows.Cells...), nil
}

func (e *Engine) FreeResults(h engine.Handle, cells []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live > 0 {
		e.live--
	}
}

func (e *Engine) Disconnect(ctx context.Context, h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnects++
	return e.disconnectErr
}

// Executed returns every statement and query seen, in order.
func (e *Engine) Executed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.executed...)
}

// Live returns the number of result sets not yet released.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// MaxLive returns the largest number of result sets alive at once.
func (e *Engine) MaxLive() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxLive
}

// Connects returns how many times Connect was called.
func (e *Engine) Connects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connects
}

// Disconnects returns how many times Disconnect was called.
func (e *Engine) Disconnects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disconnects
}

// LastConnection returns the connection string of the latest Connect.
func (e *Engine) LastConnection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastConn
}

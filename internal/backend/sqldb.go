package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	slogctx "github.com/veqryn/slog-context"

	"github.com/roach88/sqllogictest/internal/engine"
)

// ErrNoDialect is returned by Connect when the descriptor carries no
// *Dialect.
var ErrNoDialect = errors.New("descriptor has no SQL dialect")

// Dialect adapts SQL to one database/sql driver.
type Dialect struct {
	// Name is the engine name used on the command line.
	Name string

	// Driver is the database/sql driver name.
	Driver string

	// DefaultDSN is used when no connection string is given.
	DefaultDSN string

	// Prepare may rewrite the DSN before it is opened. The returned
	// function runs after the database is closed.
	Prepare func(dsn string) (string, func() error, error)

	// Open opens dsn. Nil means sql.Open(Driver, dsn).
	Open func(dsn string) (*sql.DB, error)

	// Init statements run once per connection, before Reset.
	Init []string

	// Reset brings the database to an empty state.
	Reset func(ctx context.Context, db *sql.DB) error
}

func (d *Dialect) open(dsn string) (*sql.DB, error) {
	if d.Open != nil {
		return d.Open(dsn)
	}
	return sql.Open(d.Driver, dsn)
}

// SQL is an engine.Engine over database/sql. Its auxiliary data must be a
// *Dialect.
type SQL struct{}

var _ engine.Engine = SQL{}

// Conn is the handle returned by SQL.Connect.
type Conn struct {
	DB      *sql.DB
	DSN     string
	dialect *Dialect
	cleanup func() error
}

// Connect opens dsn, or the dialect's default, on a single pooled
// connection and empties the database. A single connection keeps
// in-memory databases and session state visible to every statement.
func (SQL) Connect(ctx context.Context, aux any, connection string) (engine.Handle, error) {
	d, ok := aux.(*Dialect)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: got %T", ErrNoDialect, aux)
	}

	dsn := connection
	if dsn == "" {
		dsn = d.DefaultDSN
	}

	cleanup := func() error { return nil }
	if d.Prepare != nil {
		var err error
		dsn, cleanup, err = d.Prepare(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare database: %w", err)
		}
	}

	db, err := d.open(dsn)
	if err != nil {
		return nil, withCleanup(fmt.Errorf("failed to open database: %w", err), cleanup)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Conn{DB: db, DSN: dsn, dialect: d, cleanup: cleanup}
	if err := c.init(ctx); err != nil {
		return nil, withCleanup(err, c.close)
	}

	slogctx.FromCtx(ctx).Debug("database ready", "engine", d.Name, "driver", d.Driver)
	return c, nil
}

func (c *Conn) init(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range c.dialect.Init {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	if c.dialect.Reset != nil {
		if err := c.dialect.Reset(ctx, c.DB); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}
	return nil
}

// withCleanup runs cleanup after a failure and keeps both errors.
func withCleanup(err error, cleanup func() error) error {
	if cerr := cleanup(); cerr != nil {
		return multierror.Append(err, cerr)
	}
	return err
}

func (c *Conn) close() error {
	var result *multierror.Error
	if err := c.DB.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.cleanup(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func conn(h engine.Handle) (*Conn, error) {
	c, ok := h.(*Conn)
	if !ok || c == nil {
		return nil, fmt.Errorf("not a database/sql handle: %T", h)
	}
	return c, nil
}

// Statement executes stmt.
func (SQL) Statement(ctx context.Context, h engine.Handle, stmt string) error {
	c, err := conn(h)
	if err != nil {
		return err
	}
	_, err = c.DB.ExecContext(ctx, stmt)
	return err
}

// Query runs query and renders every value with engine.Render according to
// the column's type character.
func (SQL) Query(ctx context.Context, h engine.Handle, query, types string) ([]string, error) {
	c, err := conn(h)
	if err != nil {
		return nil, err
	}

	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) != len(types) {
		return nil, engine.ColumnCountError(len(types), len(cols))
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	cells := []string{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			cells = append(cells, engine.Render(v, types[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cells, nil
}

// FreeResults is a no-op: rows are closed before Query returns.
func (SQL) FreeResults(engine.Handle, []string) {}

// Disconnect closes the database and runs the dialect's cleanup.
func (SQL) Disconnect(ctx context.Context, h engine.Handle) error {
	c, err := conn(h)
	if err != nil {
		return err
	}
	slogctx.FromCtx(ctx).Debug("closing database", "engine", c.dialect.Name)
	return c.close()
}

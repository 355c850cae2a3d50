package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

// object is a table or view found in the target database.
type object struct {
	Name string
	View bool
}

// dropStatement returns the DROP statement for o.
func (o object) dropStatement(quote func(string) string) string {
	kind := "TABLE"
	if o.View {
		kind = "VIEW"
	}
	return fmt.Sprintf("DROP %s IF EXISTS %s", kind, quote(o.Name))
}

// listObjects runs query, which must return (name, type) rows where type
// is "VIEW" for views and anything else for tables.
func listObjects(ctx context.Context, db *sql.DB, query string) ([]object, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var objects []object
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		objects = append(objects, object{Name: name, View: strings.EqualFold(kind, "VIEW")})
	}
	return objects, rows.Err()
}

// dropAll returns a reset hook that drops every object listed by query.
// Views go first so no table is dropped while a view still depends on it.
// Every drop is attempted; failures are collected.
func dropAll(query string, quote func(string) string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		objects, err := listObjects(ctx, db, query)
		if err != nil {
			return err
		}

		views, tables := lo.FilterReject(objects, func(o object, _ int) bool { return o.View })

		var result *multierror.Error
		for _, o := range append(views, tables...) {
			if _, err := db.ExecContext(ctx, o.dropStatement(quote)); err != nil {
				result = multierror.Append(result, fmt.Errorf("drop %s: %w", o.Name, err))
			}
		}
		return result.ErrorOrNil()
	}
}

// quoteDouble quotes an identifier the standard SQL way.
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteBacktick quotes an identifier for MySQL and ClickHouse.
func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

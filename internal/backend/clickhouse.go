package backend

import (
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouse talks to a server over the native protocol. The connection
// string is a clickhouse:// DSN; the database it names is emptied on
// connect.
var ClickHouse = &Dialect{
	Name:       "clickhouse",
	Driver:     "clickhouse",
	DefaultDSN: "clickhouse://127.0.0.1:9000/default",
	Open:       openClickHouse,
	Reset: dropAll(
		`SELECT name, if(engine = 'View', 'VIEW', 'TABLE')
		 FROM system.tables
		 WHERE database = currentDatabase()`,
		quoteBacktick,
	),
}

func openClickHouse(dsn string) (*sql.DB, error) {
	chopts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	chopts.MaxOpenConns = 1
	return clickhouse.OpenDB(chopts), nil
}

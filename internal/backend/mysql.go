package backend

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL talks to a MySQL-compatible server. The default connection string
// expects a local server with an sqllogictest user and database.
var MySQL = &Dialect{
	Name:       "mysql",
	Driver:     "mysql",
	DefaultDSN: "sqllogictest:password@tcp(127.0.0.1:3306)/sqllogictest",
	Open:       openMySQL,
	Reset: dropAll(
		`SELECT table_name, IF(table_type = 'VIEW', 'VIEW', 'TABLE')
		 FROM information_schema.tables
		 WHERE table_schema = DATABASE()`,
		quoteBacktick,
	),
}

// openMySQL enables multi-statement execution so a statement record may
// hold several statements, as the other engines allow.
func openMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.MultiStatements = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

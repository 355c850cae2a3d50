package backend

import (
	_ "github.com/duckdb/duckdb-go/v2"
)

// DuckDB runs in process. An empty connection string opens an in-memory
// database; otherwise it is a database file path.
var DuckDB = &Dialect{
	Name:   "duckdb",
	Driver: "duckdb",
	Reset: dropAll(
		`SELECT table_name, CASE table_type WHEN 'VIEW' THEN 'VIEW' ELSE 'TABLE' END
		 FROM information_schema.tables
		 WHERE table_schema = current_schema()`,
		quoteDouble,
	),
}

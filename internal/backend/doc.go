// Package backend provides the database engines a script can run against.
//
// Every engine is the same database/sql adapter, SQL, parameterized by a
// Dialect carried as the descriptor's auxiliary data. A Dialect names the
// driver, the default connection string and how to bring a fresh
// connection to an empty database.
//
// Registered engines, in registry order:
//
//   - sqlite (default): mattn/go-sqlite3. Each connection gets a new
//     database file in the temp directory unless one is given.
//   - duckdb: duckdb-go, in memory unless a file is given.
//   - clickhouse: clickhouse-go over the native protocol.
//   - mysql: go-sql-driver/mysql.
//
// Server engines drop every table and view in the target database when
// they connect, so point them at a database reserved for testing.
package backend

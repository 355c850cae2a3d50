package backend

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the default engine.
//
// The connection string is a database file path. An empty string creates
// a fresh file in the temp directory that is removed on disconnect. A
// named file is deleted before opening so every script starts empty, and
// is left in place afterwards for inspection. ":memory:" and "file:" URIs
// are passed to the driver untouched.
var SQLite = &Dialect{
	Name:    "sqlite",
	Driver:  "sqlite3",
	Prepare: prepareSQLite,
	Init: []string{
		"PRAGMA synchronous = OFF",
		"PRAGMA busy_timeout = 5000",
	},
	Reset: dropAll(
		`SELECT name, CASE type WHEN 'view' THEN 'VIEW' ELSE 'TABLE' END
		 FROM sqlite_master
		 WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'`,
		quoteDouble,
	),
}

// sqliteSidecars are the suffixes of files SQLite keeps next to a database.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

func prepareSQLite(dsn string) (string, func() error, error) {
	nop := func() error { return nil }

	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn, nop, nil
	}

	if dsn == "" {
		path := TempDatabasePath()
		return path, func() error { return removeSQLiteFiles(path) }, nil
	}

	if err := removeSQLiteFiles(dsn); err != nil {
		return "", nil, err
	}
	return dsn, nop, nil
}

// TempDatabasePath returns a new, unused database path in the temp
// directory.
func TempDatabasePath() string {
	return filepath.Join(os.TempDir(), "slt-"+uuid.NewString()+".db")
}

// removeSQLiteFiles deletes path and its journal files. Missing files are
// not an error.
func removeSQLiteFiles(path string) error {
	var result *multierror.Error
	for _, suffix := range sqliteSidecars {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

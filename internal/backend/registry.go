package backend

import (
	"github.com/samber/lo"

	"github.com/roach88/sqllogictest/internal/engine"
)

// Dialects returns every built-in dialect, default first.
func Dialects() []*Dialect {
	return []*Dialect{SQLite, DuckDB, ClickHouse, MySQL}
}

// Descriptors wraps every dialect in an engine descriptor.
func Descriptors() []engine.Descriptor {
	return lo.Map(Dialects(), func(d *Dialect, _ int) engine.Descriptor {
		return engine.Descriptor{Name: d.Name, Aux: d, Engine: SQL{}}
	})
}

// Registry builds the startup engine table. SQLite is the default.
func Registry() (*engine.Registry, error) {
	return engine.NewRegistry(Descriptors()...)
}

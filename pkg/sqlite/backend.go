// Package sqlite is the public entry point for the SQLite mark store. It
// hides the implementation in internal/sqlite behind types.Backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/markable/internal/sqlite"
	"github.com/mesh-intelligence/markable/pkg/registry"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// ErrNotSQLite is returned by Resolvers for a backend this package did not
// create.
var ErrNotSQLite = errors.New("backend is not a sqlite backend")

// NewBackend creates a new SQLite backend. The backend is not attached; call
// Attach with a Config to open the database.
//
// Example:
//
//	backend := sqlite.NewBackend(logger)
//	err := backend.Attach(types.Config{
//	    Backend:     types.BackendSQLite,
//	    DataDir:     ".markable-db",
//	    UniqueMarks: true,
//	})
//	defer backend.Detach()
func NewBackend(logger *logrus.Logger) types.Backend {
	return sqlite.NewBackend(logger)
}

// Open creates a backend attached to the database file at path.
func Open(path string, unique bool, logger *logrus.Logger) (types.Backend, error) {
	b, err := sqlite.Open(path, unique, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Resolvers builds a table resolver for every located type. The tables must
// live in the backend's database, which must be attached.
func Resolvers(backend types.Backend, tables map[string]registry.Location) (types.Resolvers, error) {
	b, ok := backend.(interface{ DB() *sql.DB })
	if !ok {
		return nil, ErrNotSQLite
	}
	db := b.DB()
	if db == nil {
		return nil, types.ErrDetached
	}

	out := make(types.Resolvers, len(tables))
	for typeID, loc := range tables {
		r, err := sqlite.NewTableResolver(db, loc.Table, loc.IDColumn)
		if err != nil {
			return nil, fmt.Errorf("resolver for %s: %w", typeID, err)
		}
		out[typeID] = r
	}
	return out, nil
}

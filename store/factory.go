package store

import (
	"fmt"

	"github.com/nemopss/budgetly/db"
	"github.com/nemopss/budgetly/store/memory"
	"github.com/nemopss/budgetly/store/sqlite"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

var (
	_ Store = (*db.Storage)(nil)
	_ Store = (*sqlite.Database)(nil)
	_ Store = (*memory.Store)(nil)
)

// Options selects and locates a backend.
type Options struct {
	Backend     string
	PostgresURL string
	SQLitePath  string
}

// Open connects to the configured backend. Postgres and sqlite schemas are migrated on open.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendPostgres, "":
		s, err := db.NewStorage(opts.PostgresURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := sqlite.NewDatabase(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", opts.Backend)
	}
}

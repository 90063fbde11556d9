package store

import (
	"context"

	"github.com/rotisserie/eris"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverXLSX     = "xlsx"
)

// Options selects and configures a store driver.
type Options struct {
	Driver      string
	DatabaseURL string // postgres connection string
	Path        string // sqlite database or xlsx workbook path
	Pool        *PoolConfig
}

// Open creates the configured store and runs its migration.
func Open(ctx context.Context, opts Options) (ClaimStore, error) {
	var (
		st  ClaimStore
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, eris.New("store: sqlite requires a path")
		}
		st, err = NewSQLite(opts.Path)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires a database_url")
		}
		st, err = NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	case DriverXLSX:
		if opts.Path == "" {
			return nil, eris.New("store: xlsx requires a path")
		}
		st = NewXLSX(opts.Path)
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

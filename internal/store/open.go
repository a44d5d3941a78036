package store

import (
	"context"
	"fmt"

	"github.com/t569/scanapi/pkg/errors"
)

// Options selects and configures a store implementation.
type Options struct {
	Driver string // "sqlite" (default) or "memory"
	Path   string // database file for sqlite; ":memory:" for a private in-memory db
	// MaxOpenConns bounds concurrent sessions for sqlite. Zero means 1.
	MaxOpenConns int
}

// Open constructs the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.Path == "" {
			return nil, errors.NewConfigError("store", "database path is required for the sqlite driver", nil)
		}
		return OpenSQLite(ctx, opts.Path, opts.MaxOpenConns)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, errors.NewConfigError("store", fmt.Sprintf("unknown driver %q", opts.Driver), nil)
	}
}

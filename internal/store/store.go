// Package store persists endpoint records.
//
// Callers acquire a Session for the duration of one logical operation and
// release it on every exit path:
//
//	sess, err := st.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer sess.Release()
package store

import (
	"context"

	"github.com/t569/scanapi/pkg/endpoints"
)

// Store hands out sessions against the record storage.
type Store interface {
	// Acquire returns a session bound to a single underlying connection.
	Acquire(ctx context.Context) (Session, error)
	// Ping reports whether the storage is reachable.
	Ping(ctx context.Context) error
	// Close releases all resources held by the store.
	Close() error
}

// Session is a scoped handle on the store. It is not safe for concurrent use.
type Session interface {
	// GetByName returns the record with the exact name, or a NotFoundError.
	GetByName(ctx context.Context, name string) (*endpoints.Record, error)
	// Insert writes a new record. It assigns ID and timestamps when unset and
	// returns a ConflictError when the name is already taken.
	Insert(ctx context.Context, rec *endpoints.Record) error
	// List returns records in insertion order.
	List(ctx context.Context, skip, limit int) ([]*endpoints.Record, error)
	// Update replaces url, digest and artifact of the record with rec.ID.
	Update(ctx context.Context, rec *endpoints.Record) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Release returns the session to the store. It is safe to call twice.
	Release() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

const resourceEndpoint = "endpoint"

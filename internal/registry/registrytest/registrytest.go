// Package registrytest builds registries for tests: in-memory store,
// minimum bcrypt cost, default QR encoder.
package registrytest

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/t569/scanapi/internal/registry"
	"github.com/t569/scanapi/internal/store"
	"github.com/t569/scanapi/pkg/artifact"
	"github.com/t569/scanapi/pkg/credential"
)

// New returns a registry over st, or over a fresh MemoryStore when st is nil.
func New(t testing.TB, st store.Store, opts ...registry.Option) *registry.Registry {
	t.Helper()

	if st == nil {
		st = store.NewMemory()
	}
	hasher, err := credential.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	enc, err := artifact.NewQREncoder(artifact.DefaultOptions())
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	reg, err := registry.New(st, hasher, enc, opts...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// Package credential turns plaintext endpoint secrets into one-way digests
// and checks secrets against stored digests.
package credential

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"

	"github.com/t569/scanapi/pkg/errors"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = bcrypt.DefaultCost

// Hasher is the one-way credential contract used by the registry.
type Hasher interface {
	// Hash returns a salted digest of secret. Two calls with the same
	// secret return different digests.
	Hash(secret string) ([]byte, error)

	// Verify reports whether secret reproduces digest. Malformed digests
	// verify as false.
	Verify(secret string, digest []byte) bool
}

// BcryptHasher implements Hasher with bcrypt. The salt and cost are
// embedded in the digest itself.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, which must lie within
// bcrypt's accepted range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.NewConfigError("credential", "bcrypt cost out of range", nil)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash implements Hasher. The secret is reduced with SHA-256 first, so
// secrets of any length hash and no byte past bcrypt's 72-byte limit is
// ignored.
func (h *BcryptHasher) Hash(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(prehash(secret), h.cost)
}

// Verify implements Hasher.
func (h *BcryptHasher) Verify(secret string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, prehash(secret)) == nil
}

// prehash returns the base64 SHA-256 of secret, 44 bytes long.
func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Package password implements the one-way digest guarding mockup reads.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used by the server.
const DefaultCost = 12

// MaxLength is the longest password bcrypt accepts.
const MaxLength = 72

// ErrTooLong is returned for passwords bcrypt cannot digest.
var ErrTooLong = errors.New("password must be at most 72 bytes")

// Gate hashes and verifies mockup passwords.
type Gate struct {
	cost int
}

// New returns a Gate using the given bcrypt cost. Out of range costs fall
// back to DefaultCost.
func New(cost int) *Gate {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Gate{cost: cost}
}

// Hash returns the digest of plaintext.
func (g *Gate) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), g.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches digest. A mismatch is a normal
// outcome, not an error. Callers must not call Verify for an absent digest.
func (g *Gate) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

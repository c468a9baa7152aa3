// Package idgen produces the opaque identifiers used for mockups, comments
// and version snapshots.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// largest multiple of len(alphabet) that fits in a byte; bytes at or above it
// are rejected so every symbol is equally likely.
const rejectAbove = 256 - 256%len(alphabet)

// NanoID returns a Generator of base-36 IDs of the given length.
// Short and URL-safe, used for share links.
func NanoID(length int) Generator {
	return func() string {
		out := make([]byte, 0, length)
		buf := make([]byte, length*2)
		for len(out) < length {
			if _, err := rand.Read(buf); err != nil {
				panic("idgen: crypto/rand failed: " + err.Error())
			}
			for _, b := range buf {
				if int(b) >= rejectAbove {
					continue
				}
				out = append(out, alphabet[int(b)%len(alphabet)])
				if len(out) == length {
					break
				}
			}
		}
		return string(out)
	}
}

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings.
// They sort by creation time, which keeps comment listings in insertion order.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Set groups the generators for each kind of record.
type Set struct {
	Mockup   Generator
	Comment  Generator
	Snapshot Generator
}

// DefaultSet uses 10-character share ids for mockups and UUIDv7 elsewhere.
func DefaultSet() Set {
	return Set{
		Mockup:   NanoID(10),
		Comment:  UUIDv7(),
		Snapshot: UUIDv7(),
	}
}

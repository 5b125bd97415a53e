package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("crypto: empty password")
	// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("crypto: password exceeds 72 bytes")
)

// Hasher hashes and verifies passwords with bcrypt. The zero value uses DefaultCost.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher for the given cost. Out of range costs fall back to
// DefaultCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{Cost: cost}
}

// Hash returns a salted bcrypt hash of plain. Two calls with the same input yield
// different hashes.
func (h Hasher) Hash(plain string) ([]byte, error) {
	if plain == "" {
		return nil, ErrEmptyPassword
	}
	if len(plain) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	cost := h.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(plain), cost)
}

// Verify reports whether plain matches hash.
func (h Hasher) Verify(plain string, hash []byte) bool {
	return ComparePassword(hash, plain) == nil
}

// ComparePassword compares plaintext to hashed secret.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}

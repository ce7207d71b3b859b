package authsvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-todo/internal/domain"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	// Hash returns a salted digest of the plaintext. Hashing the same
	// plaintext twice yields different digests.
	Hash(plaintext string) ([]byte, error)

	// Verify reports whether plaintext matches digest.
	Verify(plaintext string, digest []byte) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

// NewBcryptHasher creates a BcryptHasher, clamping cost to the range bcrypt accepts.
func NewBcryptHasher(cost int) BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.DefaultCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	return BcryptHasher{Cost: cost}
}

// Hash implements PasswordHasher.Hash.
func (h BcryptHasher) Hash(plaintext string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrPasswordTooLong
		}

		return nil, fmt.Errorf("generate hash: %w", err)
	}

	return digest, nil
}

// Verify implements PasswordHasher.Verify. Mismatches and malformed digests report false.
func (h BcryptHasher) Verify(plaintext string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(plaintext)) == nil
}

package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore hashes and verifies user passwords with bcrypt. It is the
// only producer of User.PasswordHash.
type CredentialStore struct {
	cost int
}

// NewCredentialStore validates cost against bcrypt's bounds.
func NewCredentialStore(cost int) (*CredentialStore, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password hash cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &CredentialStore{cost: cost}, nil
}

// Hash derives a salted hash of plaintext. bcrypt draws a fresh salt on every
// call, so hashing the same password twice yields different strings.
func (c *CredentialStore) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ErrPasswordTooLong
		}
		return "", fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error.
func (c *CredentialStore) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

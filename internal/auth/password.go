// Package auth hashes passwords and issues the optional session tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// maxBcryptInput is the longest input bcrypt accepts
const maxBcryptInput = 72

// ErrMismatch is returned when a password does not match the stored value
var ErrMismatch = errors.New("password mismatch")

// Hasher hashes passwords with bcrypt
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost is
// out of bcrypt's range
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	const op = "auth.Hash"

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hash), nil
}

// Verify compares password with the stored value. Values that are not bcrypt
// hashes predate hashing and are compared as plain text.
func (h *Hasher) Verify(stored, password string) error {
	if !isBcrypt(stored) {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
			return ErrMismatch
		}
		return nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(stored), bcryptInput(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("auth.Verify: %w", err)
	}
	return nil
}

// bcryptInput passes short passwords through unchanged. Longer ones are
// replaced by their base64 SHA-256 digest, which fits bcrypt's limit.
func bcryptInput(password string) []byte {
	if len(password) <= maxBcryptInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func isBcrypt(s string) bool {
	return len(s) == 60 && strings.HasPrefix(s, "$2")
}

package internal

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/google/uuid"
)

// NewTokenID returns a random (v4) UUID used as a refresh token's tokenId.
func NewTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewUserID returns a random (v4) UUID for a new account.
func NewUserID() (string, error) {
	return NewTokenID()
}

// ValidID reports whether s is a canonical UUID string.
func ValidID(s string) bool {
	return uuid.Validate(s) == nil
}

// TokenDigest returns the SHA-256 digest of a token.
func TokenDigest(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

// EqualTokens compares two tokens in constant time with respect to their
// content. Digests are compared so differing lengths do not short-circuit.
func EqualTokens(a, b string) bool {
	da := TokenDigest(a)
	db := TokenDigest(b)
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

package password

import (
	"errors"
	"fmt"
)

const (
	// AlgorithmBcrypt selects [Bcrypt].
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects [Argon2].
	AlgorithmArgon2id = "argon2id"
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrUnsupportedAlgorithm is returned by New for unknown algorithm names.
	ErrUnsupportedAlgorithm = errors.New("unsupported password algorithm")
)

// Hasher hashes passwords and verifies them against stored hashes.
// Verify returns (false, nil) on mismatch and an error only for unusable hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// New builds the Hasher named by algorithm.
func New(algorithm string, bcryptCost int, argon Argon2Config) (Hasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		return NewBcrypt(bcryptCost)
	case AlgorithmArgon2id:
		return NewArgon2(argon)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

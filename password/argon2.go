package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned by [Argon2.Verify] for a stored hash that is
// not an argon2id PHC string this package can check.
var ErrMalformedHash = errors.New("malformed argon2id hash")

// Argon2Config holds the argon2id cost parameters. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// floor is the weakest configuration NewArgon2 accepts and the weakest
// parameter set Verify will evaluate.
var floor = Argon2Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

func (c Argon2Config) check() error {
	switch {
	case c.Memory < floor.Memory:
		return fmt.Errorf("argon2 memory %d KiB below %d", c.Memory, floor.Memory)
	case c.Time < floor.Time:
		return errors.New("argon2 time must be at least 1")
	case c.Parallelism < floor.Parallelism:
		return errors.New("argon2 parallelism must be at least 1")
	case c.SaltLength < floor.SaltLength:
		return fmt.Errorf("argon2 salt length %d below %d", c.SaltLength, floor.SaltLength)
	case c.KeyLength < floor.KeyLength:
		return fmt.Errorf("argon2 key length %d below %d", c.KeyLength, floor.KeyLength)
	}
	return nil
}

// Argon2 is the argon2id [Hasher]. Hashes are PHC strings with unpadded
// base64 salt and key:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Argon2 struct {
	config Argon2Config
}

// NewArgon2 returns an argon2id hasher, rejecting parameters below the floor.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a freshly salted key from the raw password bytes.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2 salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.config.Memory, a.config.Time, a.config.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify recomputes the key with the parameters embedded in encodedHash, not
// the hasher's own, so hashes made under an older config still verify.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	params, salt, key, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1, nil
}

func decodePHC(encoded string) (Argon2Config, []byte, []byte, error) {
	var params Argon2Config

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return params, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	var m, t, p uint64
	if n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || n != 3 {
		return params, nil, nil, fmt.Errorf("%w: parameters %q", ErrMalformedHash, fields[3])
	}
	if m > 1<<32-1 || t > 1<<32-1 || p > 255 {
		return params, nil, nil, fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}
	params.Memory, params.Time, params.Parallelism = uint32(m), uint32(t), uint8(p)

	salt, err := decodeB64(fields[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	key, err := decodeB64(fields[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	params.SaltLength, params.KeyLength = uint32(len(salt)), uint32(len(key))
	if err := params.check(); err != nil {
		return params, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return params, salt, key, nil
}

// decodeB64 accepts padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

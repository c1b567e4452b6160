package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("Secret1!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "Secret1!" {
		t.Fatal("hash must not equal plaintext")
	}

	ok, err := hasher.Verify("Secret1!", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("Secret2!", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestBcryptDefaultCost(t *testing.T) {
	hasher, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if hasher.Cost() != 10 {
		t.Fatalf("expected default cost 10, got %d", hasher.Cost())
	}
	hash, err := hasher.Hash("Secret1!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != 10 {
		t.Fatalf("expected stored cost 10, got %d err=%v", cost, err)
	}
}

func TestBcryptRejectsBadCost(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected cost above max to be rejected")
	}
	if _, err := NewBcrypt(1); err == nil {
		t.Fatal("expected cost below min to be rejected")
	}
}

func TestBcryptVerifyEdgeCases(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	hash, err := hasher.Hash("Secret1!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify(strings.Repeat("a", 100), hash)
	if err != nil || ok {
		t.Fatalf("expected over-long password to be a plain mismatch, ok=%v err=%v", ok, err)
	}
	if _, err := hasher.Verify("Secret1!", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected malformed hash to error")
	}
	if _, err := hasher.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestNewSelectsAlgorithm(t *testing.T) {
	h, err := New("", bcrypt.MinCost, Argon2Config{})
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := h.(*Bcrypt); !ok {
		t.Fatalf("expected bcrypt default, got %T", h)
	}

	h, err = New(AlgorithmArgon2id, 0, fastArgon2Config())
	if err != nil {
		t.Fatalf("New argon2id: %v", err)
	}
	if _, ok := h.(*Argon2); !ok {
		t.Fatalf("expected argon2, got %T", h)
	}

	if _, err := New("md5", 0, Argon2Config{}); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

package flows

import (
	"context"
	"time"
)

// SignupFailureKind classifies signup failures for root-level mapping.
type SignupFailureKind int

const (
	SignupFailureNone SignupFailureKind = iota
	SignupFailureValidation
	SignupFailurePolicy
	SignupFailureDuplicate
	SignupFailureStore
	SignupFailureHash
	SignupFailureID
)

// SignupResult carries the created identity or failure metadata.
type SignupResult struct {
	Failure  SignupFailureKind
	Err      error
	Identity Identity
}

// SignupDeps captures signup dependencies.
type SignupDeps struct {
	Now          func() time.Time
	CheckPolicy  func(string) error
	HashPassword func(string) (string, error)
	NewUserID    func() (string, error)
	FindByEmail  func(context.Context, string) (*UserRecord, error)
	IsNotFound   func(error) bool
	CreateUser   func(context.Context, *UserRecord) error
	IsDuplicate  func(error) bool
}

// RunSignup validates input, rejects duplicate emails, hashes the password
// and creates the user. It never issues tokens.
func RunSignup(ctx context.Context, email, password string, deps SignupDeps) SignupResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	email = NormalizeEmail(email)

	if err := CheckEmail(email); err != nil {
		return SignupResult{Failure: SignupFailureValidation, Err: err}
	}
	if password == "" {
		return SignupResult{Failure: SignupFailureValidation, Err: errEmptyPassword}
	}
	if deps.CheckPolicy != nil {
		if err := deps.CheckPolicy(password); err != nil {
			return SignupResult{Failure: SignupFailurePolicy, Err: err}
		}
	}

	existing, err := deps.FindByEmail(ctx, email)
	if err != nil && (deps.IsNotFound == nil || !deps.IsNotFound(err)) {
		return SignupResult{Failure: SignupFailureStore, Err: err}
	}
	if err == nil && existing != nil {
		return SignupResult{Failure: SignupFailureDuplicate}
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return SignupResult{Failure: SignupFailureHash, Err: err}
	}

	id, err := deps.NewUserID()
	if err != nil {
		return SignupResult{Failure: SignupFailureID, Err: err}
	}

	rec := &UserRecord{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    deps.Now().UTC(),
	}
	if err := deps.CreateUser(ctx, rec); err != nil {
		// A concurrent signup can win the race after the lookup above.
		if deps.IsDuplicate != nil && deps.IsDuplicate(err) {
			return SignupResult{Failure: SignupFailureDuplicate, Err: err}
		}
		return SignupResult{Failure: SignupFailureStore, Err: err}
	}

	return SignupResult{Identity: Identity{ID: id, Email: email}}
}

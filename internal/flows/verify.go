package flows

import "context"

// VerifyFailureKind classifies credential verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureValidation
	VerifyFailureUserNotFound
	VerifyFailureInvalidPassword
	VerifyFailureStore
	VerifyFailureHasher
)

// VerifyResult carries the verified identity or failure metadata.
type VerifyResult struct {
	Failure  VerifyFailureKind
	Err      error
	Identity Identity
}

// VerifyDeps captures credential verification dependencies.
type VerifyDeps struct {
	Rules          InputRules
	FindByEmail    func(context.Context, string) (*UserRecord, error)
	IsNotFound     func(error) bool
	VerifyPassword func(password, encodedHash string) (bool, error)
	// DummyHash is compared against when the user does not exist so both
	// failure paths cost one hash comparison.
	DummyHash string
}

// RunVerifyCredentials checks email/password against the credential store.
// Input is rejected before the store is touched.
func RunVerifyCredentials(ctx context.Context, email, password string, deps VerifyDeps) VerifyResult {
	email = NormalizeEmail(email)
	if err := CheckLoginInput(email, password, deps.Rules); err != nil {
		return VerifyResult{Failure: VerifyFailureValidation, Err: err}
	}

	user, err := deps.FindByEmail(ctx, email)
	if err != nil && (deps.IsNotFound == nil || !deps.IsNotFound(err)) {
		return VerifyResult{Failure: VerifyFailureStore, Err: err}
	}
	if user == nil || err != nil {
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return VerifyResult{Failure: VerifyFailureUserNotFound}
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureHasher, Err: err}
	}
	if !ok {
		return VerifyResult{Failure: VerifyFailureInvalidPassword}
	}

	return VerifyResult{
		Identity: Identity{ID: user.ID, Email: user.Email},
	}
}

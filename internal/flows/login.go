package flows

import "context"

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureValidation
	LoginFailureRateLimited
	LoginFailureUserNotFound
	LoginFailureInvalidPassword
	LoginFailureStore
	LoginFailureIssue
	LoginFailureInternal
)

// LoginResult carries the identity and issued pair, or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Identity Identity
	Issue    IssueResult
}

// LoginDeps captures login dependencies. The rate funcs are optional.
type LoginDeps struct {
	Verify VerifyDeps
	Issue  IssueDeps

	CheckRate     func(ctx context.Context, email, ip string) error
	IncrementRate func(ctx context.Context, email, ip string) error
	ResetRate     func(ctx context.Context, email, ip string) error
	IsRateLimited func(error) bool
	Warn          func(msg string, args ...any)
}

// RunLogin composes input validation, throttle check, credential
// verification and issuance. Invalid input never reaches the throttle.
func RunLogin(ctx context.Context, email, password, ip string, deps LoginDeps) LoginResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	key := NormalizeEmail(email)
	if err := CheckLoginInput(key, password, deps.Verify.Rules); err != nil {
		return LoginResult{Failure: LoginFailureValidation, Err: err}
	}

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, key, ip); err != nil {
			if deps.IsRateLimited != nil && deps.IsRateLimited(err) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err}
			}
			return LoginResult{Failure: LoginFailureStore, Err: err}
		}
	}

	verified := RunVerifyCredentials(ctx, email, password, deps.Verify)
	switch verified.Failure {
	case VerifyFailureNone:
	case VerifyFailureValidation:
		return LoginResult{Failure: LoginFailureValidation, Err: verified.Err}
	case VerifyFailureUserNotFound, VerifyFailureInvalidPassword:
		if deps.IncrementRate != nil {
			if err := deps.IncrementRate(ctx, key, ip); err != nil {
				deps.Warn("login throttle increment failed", "error", err)
			}
		}
		failure := LoginFailureUserNotFound
		if verified.Failure == VerifyFailureInvalidPassword {
			failure = LoginFailureInvalidPassword
		}
		return LoginResult{Failure: failure}
	case VerifyFailureStore:
		return LoginResult{Failure: LoginFailureStore, Err: verified.Err}
	default:
		return LoginResult{Failure: LoginFailureInternal, Err: verified.Err}
	}

	issued := RunIssue(ctx, verified.Identity, deps.Issue)
	if issued.Failure != IssueFailureNone {
		return LoginResult{
			Failure:  LoginFailureIssue,
			Err:      issued.Err,
			Identity: verified.Identity,
			Issue:    issued,
		}
	}

	if deps.ResetRate != nil {
		if err := deps.ResetRate(ctx, key, ip); err != nil {
			deps.Warn("login throttle reset failed", "error", err)
		}
	}

	return LoginResult{
		Identity: verified.Identity,
		Issue:    issued,
	}
}

package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureRevoke
)

// LogoutResult reports who was logged out. Identity is nil for an anonymous
// logout, in which case nothing was revoked.
type LogoutResult struct {
	Failure  LogoutFailureKind
	Err      error
	Identity *Identity
	Revoked  int
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	ParseAccess      func(string) (*jwt.AccessClaims, error)
	DeleteAllByOwner func(ctx context.Context, userID string) (int, error)
}

// RunLogout resolves identity from the access token with the verifying
// parser and revokes every refresh record owned by that user. An absent or
// unverifiable token is a successful no-op.
func RunLogout(ctx context.Context, accessToken string, deps LogoutDeps) LogoutResult {
	if accessToken == "" {
		return LogoutResult{}
	}
	claims, err := deps.ParseAccess(accessToken)
	if err != nil {
		return LogoutResult{}
	}

	identity := &Identity{ID: claims.ID, Email: claims.Email}
	revoked, err := deps.DeleteAllByOwner(ctx, claims.ID)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureRevoke, Err: err, Identity: identity}
	}

	return LogoutResult{Identity: identity, Revoked: revoked}
}

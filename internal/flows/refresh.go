package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureToken
	RefreshFailureRateLimited
	RefreshFailureRevoked
	RefreshFailureMismatch
	RefreshFailureUserGone
	RefreshFailureStore
	RefreshFailureIssueAccess
)

// RefreshResult carries the new access token or failure metadata. The
// refresh token itself is never rotated.
type RefreshResult struct {
	Failure         RefreshFailureKind
	Err             error
	TokenID         string
	UserID          string
	Identity        Identity
	AccessToken     string
	AccessExpiresAt time.Time
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseRefresh func(string) (*jwt.RefreshClaims, error)
	// ValidTokenID, when set, rejects tokenId claims of the wrong shape
	// before any store access.
	ValidTokenID   func(string) bool
	CheckRate      func(ctx context.Context, tokenID string) error
	IsRateLimited  func(error) bool
	Lookup         func(context.Context, string) (*session.Record, error)
	IsNotFound     func(error) bool
	FindUserByID   func(context.Context, string) (*UserRecord, error)
	IsUserNotFound func(error) bool
	SignAccess     func(id, email string) (string, time.Time, error)
	TokensEqual    func(a, b string) bool
}

// RunRefresh mints a new access token when, and only when, a live record
// exists for the presented refresh token.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureToken, Err: err}
	}
	if deps.ValidTokenID != nil && !deps.ValidTokenID(claims.TokenID) {
		return RefreshResult{Failure: RefreshFailureToken, Err: fmt.Errorf("%w: tokenId %q", jwt.ErrMalformed, claims.TokenID), UserID: claims.ID}
	}

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, claims.TokenID); err != nil {
			failure := RefreshFailureStore
			if deps.IsRateLimited != nil && deps.IsRateLimited(err) {
				failure = RefreshFailureRateLimited
			}
			return RefreshResult{Failure: failure, Err: err, TokenID: claims.TokenID, UserID: claims.ID}
		}
	}

	rec, err := deps.Lookup(ctx, claims.TokenID)
	if err != nil {
		if deps.IsNotFound != nil && deps.IsNotFound(err) {
			return RefreshResult{Failure: RefreshFailureRevoked, Err: err, TokenID: claims.TokenID, UserID: claims.ID}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, TokenID: claims.TokenID, UserID: claims.ID}
	}
	if rec == nil {
		return RefreshResult{Failure: RefreshFailureRevoked, TokenID: claims.TokenID, UserID: claims.ID}
	}

	equal := deps.TokensEqual
	if equal == nil {
		equal = func(a, b string) bool { return a == b }
	}
	if rec.UserID != claims.ID || !equal(rec.Token, refreshToken) {
		return RefreshResult{Failure: RefreshFailureMismatch, TokenID: claims.TokenID, UserID: claims.ID}
	}

	user, err := deps.FindUserByID(ctx, claims.ID)
	if err != nil && (deps.IsUserNotFound == nil || !deps.IsUserNotFound(err)) {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, TokenID: claims.TokenID, UserID: claims.ID}
	}
	if user == nil || err != nil {
		return RefreshResult{Failure: RefreshFailureUserGone, TokenID: claims.TokenID, UserID: claims.ID}
	}

	access, exp, err := deps.SignAccess(user.ID, user.Email)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, TokenID: claims.TokenID, UserID: claims.ID}
	}

	return RefreshResult{
		TokenID:         claims.TokenID,
		UserID:          user.ID,
		Identity:        Identity{ID: user.ID, Email: user.Email},
		AccessToken:     access,
		AccessExpiresAt: exp,
	}
}

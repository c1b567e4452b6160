package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// UserIdentity is the authenticated user as carried in an access token.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserRecord is one row of the credential store.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore is the opaque user store consulted by login, signup and
// refresh. Emails passed in are already trimmed and lower-cased.
//
// A missing user is reported as (nil, nil) or as an error wrapping
// [ErrUserNotFound]. CreateUser reports a taken email with an error wrapping
// [ErrAccountExists]. Any other error is treated as a store outage.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	CreateUser(ctx context.Context, user *UserRecord) error
}

// SessionStore persists refresh-token records. Lookup reports a missing or
// expired record with an error wrapping [session.ErrNotFound]. Implementations
// must tolerate concurrent Create and DeleteAllByOwner for the same user.
type SessionStore interface {
	Create(ctx context.Context, rec *session.Record) error
	Lookup(ctx context.Context, tokenID string) (*session.Record, error)
	DeleteByTokenID(ctx context.Context, tokenID string) error
	DeleteAllByOwner(ctx context.Context, userID string) (int, error)
	Ping(ctx context.Context) error
}

// TokenPair is the output of a successful issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenID          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Identity UserIdentity
	Tokens   TokenPair
	// Redirect is the landing path the client should navigate to.
	Redirect string
}

// RefreshResult is returned by [Engine.Refresh].
type RefreshResult struct {
	Identity        UserIdentity
	AccessToken     string
	AccessExpiresAt time.Time
}

// LogoutResult is returned by [Engine.Logout]. Identity is nil for an
// anonymous logout.
type LogoutResult struct {
	Identity *UserIdentity
	Revoked  int
	Redirect string
}

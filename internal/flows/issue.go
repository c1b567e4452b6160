package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureTokenID
	IssueFailureSignAccess
	IssueFailureSignRefresh
	IssueFailurePersist
)

// IssueResult carries the signed pair or failure metadata. Tokens are empty
// unless Failure is IssueFailureNone.
type IssueResult struct {
	Failure          IssueFailureKind
	Err              error
	AccessToken      string
	RefreshToken     string
	TokenID          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssueDeps captures token issuance dependencies.
type IssueDeps struct {
	Now          func() time.Time
	NewTokenID   func() (string, error)
	SignAccess   func(id, email string) (string, time.Time, error)
	SignRefresh  func(id, tokenID string) (string, time.Time, error)
	CreateRecord func(context.Context, *session.Record) error
}

// RunIssue signs an access and a refresh token for identity and persists the
// refresh record before returning. A persistence failure discards both
// tokens; no retry happens here.
func RunIssue(ctx context.Context, identity Identity, deps IssueDeps) IssueResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tokenID, err := deps.NewTokenID()
	if err != nil {
		return IssueResult{Failure: IssueFailureTokenID, Err: err}
	}

	access, accessExp, err := deps.SignAccess(identity.ID, identity.Email)
	if err != nil {
		return IssueResult{Failure: IssueFailureSignAccess, Err: err}
	}

	refresh, refreshExp, err := deps.SignRefresh(identity.ID, tokenID)
	if err != nil {
		return IssueResult{Failure: IssueFailureSignRefresh, Err: err}
	}

	rec := &session.Record{
		TokenID:   tokenID,
		Token:     refresh,
		UserID:    identity.ID,
		ExpiresAt: refreshExp.Unix(),
		CreatedAt: deps.Now().Unix(),
	}
	if err := deps.CreateRecord(ctx, rec); err != nil {
		return IssueResult{Failure: IssueFailurePersist, Err: err, TokenID: tokenID}
	}

	return IssueResult{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenID:          tokenID,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}
}

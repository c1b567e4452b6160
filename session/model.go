package session

import (
	"errors"
	"time"
)

// Record is one persisted refresh token. TokenID is the tokenId claim of the
// refresh token and the primary key; Token is the signed token string.
type Record struct {
	TokenID   string
	Token     string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.Unix()
}

// Check validates the fields every store requires before persisting.
func (r *Record) Check(now time.Time) error {
	if r == nil {
		return errors.Join(ErrInvalidRecord, errors.New("nil record"))
	}
	if r.TokenID == "" || r.UserID == "" || r.Token == "" {
		return errors.Join(ErrInvalidRecord, errors.New("tokenID, userID and token are required"))
	}
	if r.Expired(now) {
		return errors.Join(ErrInvalidRecord, errors.New("record already expired"))
	}
	return nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// RefreshTokens implements goSession.SessionStore over the refresh_tokens
// table. Expired rows are invisible to Lookup and removed by PurgeExpired.
type RefreshTokens struct {
	db      DBTX
	dialect Dialect
	now     func() time.Time
}

// NewRefreshTokens binds a RefreshTokens store to db.
func NewRefreshTokens(db DBTX, dialect Dialect) *RefreshTokens {
	return &RefreshTokens{db: db, dialect: dialect, now: time.Now}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
}

// Create inserts rec.
func (s *RefreshTokens) Create(ctx context.Context, rec *session.Record) error {
	if err := rec.Check(s.now()); err != nil {
		return err
	}

	query := `
		INSERT INTO refresh_tokens (token_id, user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		rec.TokenID, rec.UserID, rec.Token, rec.ExpiresAt, rec.CreatedAt); err != nil {
		return unavailable(err)
	}
	return nil
}

// Lookup returns the live record for tokenID or session.ErrNotFound.
func (s *RefreshTokens) Lookup(ctx context.Context, tokenID string) (*session.Record, error) {
	query := `
		SELECT token_id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token_id = ? AND expires_at > ?
	`
	rec := &session.Record{}
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), tokenID, s.now().Unix()).
		Scan(&rec.TokenID, &rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return rec, nil
}

// DeleteByTokenID removes one record. Deleting a missing record is not an
// error.
func (s *RefreshTokens) DeleteByTokenID(ctx context.Context, tokenID string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_id = ?
	`
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(query), tokenID); err != nil {
		return unavailable(err)
	}
	return nil
}

// DeleteAllByOwner removes every record of userID and returns how many live
// records were among them. It is one statement, so a concurrent Create either
// lands before it and is removed or lands after it and survives.
func (s *RefreshTokens) DeleteAllByOwner(ctx context.Context, userID string) (int, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = ?
		RETURNING expires_at
	`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), userID)
	if err != nil {
		return 0, unavailable(err)
	}
	defer rows.Close()

	now := s.now().Unix()
	live := 0
	for rows.Next() {
		var expiresAt int64
		if err := rows.Scan(&expiresAt); err != nil {
			return 0, unavailable(err)
		}
		if expiresAt > now {
			live++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, unavailable(err)
	}
	return live, nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many.
func (s *RefreshTokens) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= ?
	`
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(query), s.now().Unix())
	if err != nil {
		return 0, unavailable(err)
	}
	return res.RowsAffected()
}

// Ping checks the connection when db is a *sql.DB.
func (s *RefreshTokens) Ping(ctx context.Context) error {
	p, ok := s.db.(interface{ PingContext(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

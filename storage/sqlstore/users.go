package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// Users implements goSession.CredentialStore over the users table.
type Users struct {
	db      DBTX
	dialect Dialect
}

// NewUsers binds a Users store to db.
func NewUsers(db DBTX, dialect Dialect) *Users {
	return &Users{db: db, dialect: dialect}
}

// FindByEmail returns the user with email or goSession.ErrUserNotFound.
func (u *Users) FindByEmail(ctx context.Context, email string) (*goSession.UserRecord, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return u.findOne(ctx, query, email)
}

// FindByID returns the user with id or goSession.ErrUserNotFound.
func (u *Users) FindByID(ctx context.Context, id string) (*goSession.UserRecord, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return u.findOne(ctx, query, id)
}

func (u *Users) findOne(ctx context.Context, query string, arg string) (*goSession.UserRecord, error) {
	var (
		rec       goSession.UserRecord
		createdAt int64
	)
	err := u.db.QueryRowContext(ctx, u.dialect.rebind(query), arg).
		Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goSession.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// CreateUser inserts user. A taken email is reported as
// goSession.ErrAccountExists; the insert itself decides, so two concurrent
// signups for one email cannot both succeed.
func (u *Users) CreateUser(ctx context.Context, user *goSession.UserRecord) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`
	res, err := u.db.ExecContext(ctx, u.dialect.rebind(query),
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return goSession.ErrAccountExists
	}
	return nil
}

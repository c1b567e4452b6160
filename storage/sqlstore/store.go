package sqlstore

import (
	"context"
	"database/sql"
)

// Store groups the three SQL stores over one database.
type Store struct {
	DB            *sql.DB
	Dialect       Dialect
	Users         *Users
	RefreshTokens *RefreshTokens
	Activity      *ActivityLog
}

// New wraps an open database. It does not migrate.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		DB:            db,
		Dialect:       dialect,
		Users:         NewUsers(db, dialect),
		RefreshTokens: NewRefreshTokens(db, dialect),
		Activity:      NewActivityLog(db, dialect),
	}
}

// OpenAndMigrate opens dsn, applies migrations and returns the stores.
func OpenAndMigrate(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, dialect), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

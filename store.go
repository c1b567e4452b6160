package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/session"
)

// Every store call below runs under Store.Timeout. Backend failures,
// including the timeout itself, come back wrapped in ErrStoreUnavailable;
// only the documented not-found and duplicate sentinels pass through.

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Store.Timeout)
}

func (e *Engine) storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	e.metricInc(MetricStoreUnavailable)
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func toFlowUser(u *UserRecord) *flows.UserRecord {
	return &flows.UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func isUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}

func isRateLimited(err error) bool {
	return errors.Is(err, rate.ErrRateLimited)
}

func (e *Engine) findUserByEmail(ctx context.Context, email string) (*flows.UserRecord, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	u, err := e.credentials.FindByEmail(ctx, email)
	if err != nil {
		if isUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, e.storeErr("find user by email", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toFlowUser(u), nil
}

func (e *Engine) findUserByID(ctx context.Context, id string) (*flows.UserRecord, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	u, err := e.credentials.FindByID(ctx, id)
	if err != nil {
		if isUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, e.storeErr("find user by id", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toFlowUser(u), nil
}

func (e *Engine) createUser(ctx context.Context, u *flows.UserRecord) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	err := e.credentials.CreateUser(ctx, &UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return ErrAccountExists
		}
		return e.storeErr("create user", err)
	}
	return nil
}

func (e *Engine) createRecord(ctx context.Context, rec *session.Record) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	return e.storeErr("create refresh record", e.sessions.Create(ctx, rec))
}

func (e *Engine) lookupRecord(ctx context.Context, tokenID string) (*session.Record, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	rec, err := e.sessions.Lookup(ctx, tokenID)
	if err != nil {
		switch {
		case isRecordNotFound(err):
			return nil, session.ErrNotFound
		case errors.Is(err, session.ErrCorrupt):
			// An unreadable record cannot back a refresh.
			e.logger.Warn(ctx, "corrupt refresh record treated as revoked", "token_id", tokenID)
			return nil, session.ErrNotFound
		}
		return nil, e.storeErr("lookup refresh record", err)
	}
	return rec, nil
}

func (e *Engine) deleteAllByOwner(ctx context.Context, userID string) (int, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	n, err := e.sessions.DeleteAllByOwner(ctx, userID)
	if err != nil {
		return 0, e.storeErr("revoke refresh records", err)
	}
	return n, nil
}

func (e *Engine) checkLoginRate(ctx context.Context, email, ip string) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	if err := e.limiter.CheckLogin(ctx, email, ip); err != nil {
		if isRateLimited(err) {
			return err
		}
		return e.storeErr("login throttle", err)
	}
	return nil
}

func (e *Engine) incrementLoginRate(ctx context.Context, email, ip string) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	return e.limiter.IncrementLogin(ctx, email, ip)
}

func (e *Engine) resetLoginRate(ctx context.Context, email, ip string) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	return e.limiter.ResetLogin(ctx, email, ip)
}

func (e *Engine) checkRefreshRate(ctx context.Context, tokenID string) error {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	if err := e.limiter.CheckRefresh(ctx, tokenID); err != nil {
		if isRateLimited(err) {
			return err
		}
		return e.storeErr("refresh throttle", err)
	}
	return nil
}

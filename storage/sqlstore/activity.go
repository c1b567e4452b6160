package sqlstore

import (
	"context"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
)

// ActivityLog is a goSession.ActivitySink that appends to user_activity.
type ActivityLog struct {
	db      DBTX
	dialect Dialect
}

// NewActivityLog binds an ActivityLog to db.
func NewActivityLog(db DBTX, dialect Dialect) *ActivityLog {
	return &ActivityLog{db: db, dialect: dialect}
}

// Record inserts event. Metadata is not persisted.
func (a *ActivityLog) Record(ctx context.Context, event goSession.ActivityEvent) error {
	query := `
		INSERT INTO user_activity (id, user_id, event_type, ip, success, error, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := a.db.ExecContext(ctx, a.dialect.rebind(query),
		uuid.NewString(), event.UserID, event.EventType, event.IP, event.Success, event.Error, event.Timestamp.Unix()); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// ListByUser returns up to limit events of userID, newest first.
func (a *ActivityLog) ListByUser(ctx context.Context, userID string, limit int) ([]goSession.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT user_id, event_type, ip, success, error, occurred_at
		FROM user_activity
		WHERE user_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`
	rows, err := a.db.QueryContext(ctx, a.dialect.rebind(query), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []goSession.ActivityEvent
	for rows.Next() {
		var (
			ev         goSession.ActivityEvent
			occurredAt int64
		)
		if err := rows.Scan(&ev.UserID, &ev.EventType, &ev.IP, &ev.Success, &ev.Error, &occurredAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ev.Timestamp = time.Unix(occurredAt, 0).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

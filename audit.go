package goSession

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
)

// ActivityEvent is one activity-log record.
type ActivityEvent = audit.Event

// ActivitySink persists activity events. Record is called from the
// dispatcher goroutine; its errors are logged and counted, never surfaced to
// the operation that produced the event.
type ActivitySink = audit.Sink

// Activity event types.
const (
	EventLogin   = audit.EventLogin
	EventLogout  = audit.EventLogout
	EventSignup  = audit.EventSignup
	EventRefresh = audit.EventRefresh
)

// NewJSONActivitySink writes one JSON object per event to w.
func NewJSONActivitySink(w io.Writer) ActivitySink {
	return audit.NewJSONWriterSink(w)
}

// NewChannelActivitySink returns a sink that buffers events on a channel.
func NewChannelActivitySink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

func (e *Engine) emitActivity(ctx context.Context, eventType string, success bool, userID string, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := ActivityEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		// Only the class is recorded; causes can carry user input.
		event.Error = Kind(err).String()
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) onActivityError(event ActivityEvent, err error) {
	e.metricInc(MetricActivityFailed)
	e.logger.Warn(context.Background(), "activity sink failed", "event_type", event.EventType, "user_id", event.UserID, "error", err)
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

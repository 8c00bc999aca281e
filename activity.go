package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess         ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure         ActivityEventType = "auth.login.failure"
	ActivityEventPasswordResetRequest ActivityEventType = "auth.password.reset.request"
	ActivityEventPasswordResetSuccess ActivityEventType = "auth.password.reset"
	ActivityEventPasswordChanged      ActivityEventType = "auth.password.changed"
	ActivityEventUserDeactivated      ActivityEventType = "user.deactivated"
)

// ActivityEvent captures audit-friendly information about an action.
// Failure events carry the submitted email only, never a user ID, since
// the lookup may not have resolved one.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityRecorder receives audit events from the auth flows.
// Implementations must not block the request path.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, event ActivityEvent)
}

// ActivityRecorderFunc adapts a function into an ActivityRecorder.
type ActivityRecorderFunc func(ctx context.Context, event ActivityEvent)

func (f ActivityRecorderFunc) RecordActivity(ctx context.Context, event ActivityEvent) {
	if f != nil {
		f(ctx, event)
	}
}

// LogActivityRecorder writes events through the package logger.
type LogActivityRecorder struct {
	Logger Logger
}

func (r LogActivityRecorder) RecordActivity(_ context.Context, event ActivityEvent) {
	logger := r.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("activity",
		"event", string(event.EventType),
		"user_id", event.UserID,
		"email", event.Email,
	)
}

func newActivityEvent(eventType ActivityEventType, user *User) ActivityEvent {
	event := ActivityEvent{
		EventType:  eventType,
		OccurredAt: time.Now(),
	}

	if user != nil {
		event.UserID = user.ID.String()
		event.Email = user.Email
	}

	return event
}

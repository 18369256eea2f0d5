package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the event or calendar does not exist.
	ErrNotFound = errors.New("calendar: not found")

	// ErrGone is returned when the event has already been deleted.
	ErrGone = errors.New("calendar: resource deleted")

	// ErrMissingCalendarID is returned when an operation is called without a calendar id.
	ErrMissingCalendarID = errors.New("calendar: calendar id is required")
)

// Provider is the calendar collaborator the scheduling engine reads and writes through.
// Implementations must return ListEvents results as single instances ordered by
// start time, and FreeBusy results ascending and non-overlapping.
type Provider interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Interval, error)
	InsertEvent(ctx context.Context, calendarID string, fields EventFields) (*Event, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, fields EventFields) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// IsDeleted reports whether err means the target event no longer exists.
func IsDeleted(err error) bool {
	return errors.Is(err, ErrGone) || errors.Is(err, ErrNotFound)
}

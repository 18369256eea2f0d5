package scheduling

import (
	"errors"

	"github.com/teemow/autoschedule/internal/calendar"
)

var (
	// ErrMissingInstant is returned when an event or interval lacks a start or end.
	ErrMissingInstant = errors.New("scheduling: missing start or end instant")

	// ErrMissingCalendarID is returned when an Env has no calendar id.
	ErrMissingCalendarID = calendar.ErrMissingCalendarID

	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("scheduling: duration must be positive")

	// ErrInvalidDateTime is returned when a manual date or time cannot be parsed.
	ErrInvalidDateTime = errors.New("scheduling: invalid date or time")

	// ErrInvalidHorizon is returned by New when HorizonDays is not positive.
	ErrInvalidHorizon = errors.New("scheduling: horizon days must be positive")

	// ErrUnnamedZone is returned when recurring events would be written
	// without an IANA time zone name.
	ErrUnnamedZone = errors.New("scheduling: time zone has no IANA name")

	// ErrInvalidHours is returned for malformed weekly hours blocks.
	ErrInvalidHours = errors.New("scheduling: invalid weekly hours block")
)

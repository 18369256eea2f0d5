package scheduling

import (
	"time"
)

// Env is the per-call context of the engine: which calendar to work on,
// which time zone days are cut in, and what time it is.
type Env struct {
	CalendarID string
	Location   *time.Location
	Now        func() time.Time
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func (env Env) location() *time.Location {
	if env.Location == nil {
		return time.UTC
	}
	return env.Location
}

func (env Env) now() time.Time {
	now := time.Now
	if env.Now != nil {
		now = env.Now
	}
	return now().In(env.location())
}

// zoneName is the IANA name sent to the provider; empty lets it default.
// time.Local and unnamed fixed zones have no usable name.
func (env Env) zoneName() string {
	name := env.location().String()
	if name == "Local" {
		return ""
	}
	return name
}

func (env Env) validate() error {
	if env.CalendarID == "" {
		return ErrMissingCalendarID
	}
	return nil
}

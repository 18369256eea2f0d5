// Package scheduling implements the availability search and conflict
// resolution engine.
//
// An Engine places events on one calendar through a calendar.Provider. Auto
// scheduled events go into the earliest free slot that respects their minimum
// start and deadline; when the normal search cannot meet a deadline the engine
// escalates to a search that only treats high-priority events as busy and then
// reschedules whatever it displaced. Scheduling metadata lives in the event
// description (see Settings) and is only string-matched in settings.go.
//
// Every call takes an Env carrying the calendar id, the time zone and the
// clock, so tests can pin "now":
//
//	env := scheduling.Env{
//	    CalendarID: "primary",
//	    Location:   loc,
//	    Now:        scheduling.FixedClock(time.Date(2026, 10, 19, 9, 0, 0, 0, loc)),
//	}
//	res, err := engine.AutoSchedule(ctx, env, scheduling.AutoRequest{
//	    Summary:         "Write report",
//	    DurationMinutes: 90,
//	    Deadline:        deadline,
//	})
package scheduling

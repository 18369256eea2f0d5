package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event is a single calendar event as seen by the scheduling engine.
// Recurring series are always expanded, so Start/End describe one instance.
type Event struct {
	ID               string
	Summary          string
	Description      string
	Start            time.Time
	End              time.Time
	Recurrence       []string // RRULE, EXRULE, RDATE, EXDATE
	RecurringEventID string   // set on expanded instances of a recurring series
	ColorID          string
	// AllDay marks events whose boundaries are dates. Start and End then
	// hold local midnight of those dates and are never rewritten.
	AllDay bool
}

// Interval is a half-open [Start, End) busy period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Reminder is a reminder override on an event.
type Reminder struct {
	Method  string // "popup" or "email"
	Minutes int
}

// EventFields carries the fields written on insert or patch.
// A nil field is left unchanged by PatchEvent.
type EventFields struct {
	Summary     *string
	Start       *time.Time
	End         *time.Time
	Description *string
	ColorID     *string
	Reminders   []Reminder
	Recurrence  []string
	TimeZone    string
}

// String returns a pointer to s, for building EventFields.
func String(s string) *string {
	return &s
}

// Time returns a pointer to t, for building EventFields.
func Time(t time.Time) *time.Time {
	return &t
}

// toEvent converts a Google Calendar event to an Event
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	ev := Event{
		ID:               event.Id,
		Summary:          event.Summary,
		Description:      event.Description,
		Recurrence:       event.Recurrence,
		RecurringEventID: event.RecurringEventId,
		ColorID:          event.ColorId,
	}

	ev.Start = parseEventDateTime(event.Start)
	ev.End = parseEventDateTime(event.End)
	ev.AllDay = isDate(event.Start) && isDate(event.End)

	return ev
}

// parseEventDateTime reads either the timed or the all-day form of an event boundary
func parseEventDateTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	} else if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isDate(dt *calendar.EventDateTime) bool {
	return dt != nil && dt.DateTime == "" && dt.Date != ""
}

// applyFields copies the non-nil fields onto a Google Calendar event
func applyFields(event *calendar.Event, fields EventFields) {
	tz := fields.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	if fields.Summary != nil {
		event.Summary = *fields.Summary
	}
	if fields.Description != nil {
		event.Description = *fields.Description
		// An empty description must still reach the API to clear the old one.
		event.ForceSendFields = append(event.ForceSendFields, "Description")
	}
	if fields.Start != nil {
		event.Start = &calendar.EventDateTime{
			DateTime: fields.Start.Format(time.RFC3339),
			TimeZone: tz,
		}
	}
	if fields.End != nil {
		event.End = &calendar.EventDateTime{
			DateTime: fields.End.Format(time.RFC3339),
			TimeZone: tz,
		}
	}
	if fields.ColorID != nil {
		event.ColorId = *fields.ColorID
	}
	if len(fields.Reminders) > 0 {
		overrides := make([]*calendar.EventReminder, 0, len(fields.Reminders))
		for _, r := range fields.Reminders {
			overrides = append(overrides, &calendar.EventReminder{
				Method:  r.Method,
				Minutes: int64(r.Minutes),
			})
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	if len(fields.Recurrence) > 0 {
		event.Recurrence = fields.Recurrence
	}
}

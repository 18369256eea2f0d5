package localcal

import (
	"strings"
	"time"

	"github.com/teemow/autoschedule/internal/calendar"
)

// eventRecord is one stored event or recurring series master.
// Times are stored in UTC; TimeZone keeps the zone recurrences expand in.
type eventRecord struct {
	ID              string `gorm:"primaryKey"`
	CalendarID      string `gorm:"index"`
	SeriesID        string `gorm:"index"` // set on moved instances of a series
	Summary         string
	Description     string
	StartAt         time.Time `gorm:"index"`
	EndAt           time.Time
	TimeZone        string
	ColorID         string
	Recurrence      string // newline separated RRULE/EXDATE lines
	ReminderMethod  string
	ReminderMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (eventRecord) TableName() string {
	return "events"
}

func (r *eventRecord) recurrenceLines() []string {
	if r.Recurrence == "" {
		return nil
	}
	return strings.Split(r.Recurrence, "\n")
}

func (r *eventRecord) location() *time.Location {
	if r.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (r *eventRecord) apply(fields calendar.EventFields) {
	if fields.Summary != nil {
		r.Summary = *fields.Summary
	}
	if fields.Description != nil {
		r.Description = *fields.Description
	}
	if fields.Start != nil {
		r.StartAt = fields.Start.UTC().Truncate(time.Second)
	}
	if fields.End != nil {
		r.EndAt = fields.End.UTC().Truncate(time.Second)
	}
	if fields.ColorID != nil {
		r.ColorID = *fields.ColorID
	}
	if len(fields.Reminders) > 0 {
		r.ReminderMethod = fields.Reminders[0].Method
		r.ReminderMinutes = fields.Reminders[0].Minutes
	}
	if len(fields.Recurrence) > 0 {
		r.Recurrence = strings.Join(fields.Recurrence, "\n")
	}
	if fields.TimeZone != "" {
		r.TimeZone = fields.TimeZone
	}
}

func (r *eventRecord) toEvent() calendar.Event {
	loc := r.location()
	return calendar.Event{
		ID:               r.ID,
		Summary:          r.Summary,
		Description:      r.Description,
		Start:            r.StartAt.In(loc),
		End:              r.EndAt.In(loc),
		Recurrence:       r.recurrenceLines(),
		RecurringEventID: r.SeriesID,
		ColorID:          r.ColorID,
	}
}

// Package export renders calendar events as an iCalendar (RFC 5545) feed.
package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/scheduling"
)

// DefaultProductID is the PRODID of exported feeds.
const DefaultProductID = "-//teemow//autoschedule//EN"

// Options configures an export.
type Options struct {
	ProductID string
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Calendar builds one VEVENT per event instance. The scheduling class of each event
// is exported as its CATEGORIES value.
func Calendar(events []calendar.Event, opts Options) *ical.Calendar {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)

	for _, ev := range events {
		vevent := cal.AddEvent(ev.ID)
		vevent.SetDtStampTime(stamp)
		if ev.AllDay {
			vevent.SetAllDayStartAt(ev.Start)
			vevent.SetAllDayEndAt(ev.End)
		} else {
			vevent.SetStartAt(ev.Start.UTC())
			vevent.SetEndAt(ev.End.UTC())
		}
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		vevent.AddProperty(ical.ComponentPropertyCategories, scheduling.ClassOf(ev.Description).String())
	}
	return cal
}

// Write serializes events to w.
func Write(w io.Writer, events []calendar.Event, opts Options) error {
	if _, err := io.WriteString(w, Calendar(events, opts).Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

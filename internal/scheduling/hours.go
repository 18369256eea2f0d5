package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/logging"
)

// HoursKind selects which weekly hours series a request replaces.
type HoursKind int

const (
	WorkingHours HoursKind = iota
	UnavailableHours
)

func (k HoursKind) marker() string {
	if k == UnavailableHours {
		return MarkerUnavailableHours
	}
	return MarkerWorkingHours
}

func (k HoursKind) class() Class {
	if k == UnavailableHours {
		return ClassUnavailableHours
	}
	return ClassWorkingHours
}

// ParseHoursKind accepts "working" or "unavailable".
func ParseHoursKind(s string) (HoursKind, error) {
	switch s {
	case "working", "work":
		return WorkingHours, nil
	case "unavailable":
		return UnavailableHours, nil
	default:
		return 0, fmt.Errorf("%w: unknown hours kind %q", ErrInvalidHours, s)
	}
}

// WeeklyBlock is one recurring block, e.g. Monday 09:00-17:00.
type WeeklyBlock struct {
	Weekday time.Weekday
	Start   string // TimeLayout
	End     string // TimeLayout
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeeklyBlocks parses a comma-separated list like
// "mon 09:00-17:00, fri 09:00-13:00". An empty list is valid and clears the
// series.
func ParseWeeklyBlocks(s string) ([]WeeklyBlock, error) {
	var blocks []WeeklyBlock
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %q, want \"<weekday> HH:MM-HH:MM\"", ErrInvalidHours, part)
		}
		weekday, ok := weekdayNames[strings.ToLower(fields[0])]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidHours, fields[0])
		}
		start, end, ok := strings.Cut(fields[1], "-")
		if !ok {
			return nil, fmt.Errorf("%w: %q, want HH:MM-HH:MM", ErrInvalidHours, fields[1])
		}
		b := WeeklyBlock{Weekday: weekday, Start: start, End: end}
		if _, _, err := firstOccurrence(time.Time{}, b); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// WeeklyRule returns the RRULE line for a block recurring every week on weekday.
func WeeklyRule(weekday time.Weekday) string {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[weekday]},
	}
	return "RRULE:" + opt.RRuleString()
}

// ReplaceWeeklyHours deletes the current working or unavailable hours series
// and creates one weekly recurring event per block, starting from the next
// occurrence of each weekday. Series that are already gone are skipped.
func (e *Engine) ReplaceWeeklyHours(ctx context.Context, env Env, kind HoursKind, blocks []WeeklyBlock) ([]calendar.Event, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	// The series expand in the zone they are written with.
	if env.zoneName() == "" {
		return nil, ErrUnnamedZone
	}

	type span struct{ start, end time.Time }
	now := env.now()
	planned := make([]span, 0, len(blocks))
	for _, b := range blocks {
		start, end, err := firstOccurrence(now, b)
		if err != nil {
			return nil, err
		}
		planned = append(planned, span{start, end})
	}

	existing, err := e.ListEventsInRange(ctx, env, now, startOfDay(now, e.opts.HorizonDays))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, ev := range existing {
		if ClassOf(ev.Description) != kind.class() {
			continue
		}
		seriesID := ev.RecurringEventID
		if seriesID == "" {
			seriesID = ev.ID
		}
		if seen[seriesID] {
			continue
		}
		seen[seriesID] = true

		if err := e.provider.DeleteEvent(ctx, env.CalendarID, seriesID); err != nil {
			if calendar.IsDeleted(err) {
				e.logger.Debug("weekly hours series already deleted", logging.EventID(seriesID))
				continue
			}
			return nil, fmt.Errorf("delete weekly hours %s: %w", seriesID, err)
		}
	}

	created := make([]calendar.Event, 0, len(blocks))
	for i, b := range blocks {
		ev, err := e.provider.InsertEvent(ctx, env.CalendarID, calendar.EventFields{
			Summary:     calendar.String(kind.marker()),
			Description: calendar.String(kind.marker()),
			Start:       calendar.Time(planned[i].start),
			End:         calendar.Time(planned[i].end),
			Recurrence:  []string{WeeklyRule(b.Weekday)},
			TimeZone:    env.zoneName(),
		})
		if err != nil {
			return created, fmt.Errorf("insert weekly hours for %s: %w", b.Weekday, err)
		}
		created = append(created, *ev)
	}

	e.logger.Info("weekly hours replaced",
		logging.Operation("hours."+kind.class().String()),
		logging.Calendar(env.CalendarID),
		"deleted_series", len(seen),
		"created", len(created))
	return created, nil
}

// firstOccurrence returns the first [start, end) of b on or after now's date.
func firstOccurrence(now time.Time, b WeeklyBlock) (time.Time, time.Time, error) {
	startClock, err := time.Parse(TimeLayout, b.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrInvalidHours, b.Start)
	}
	endClock, err := time.Parse(TimeLayout, b.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrInvalidHours, b.End)
	}
	if !endClock.After(startClock) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s-%s ends before it starts", ErrInvalidHours, b.Start, b.End)
	}

	offset := (int(b.Weekday) - int(now.Weekday()) + 7) % 7
	day := startOfDay(now, offset)
	start := time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, day.Location())
	return start, end, nil
}

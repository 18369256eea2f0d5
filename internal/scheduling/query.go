package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teemow/autoschedule/internal/calendar"
)

// ListEventsInRange returns single instances overlapping [start, end),
// ascending by start time.
func (e *Engine) ListEventsInRange(ctx context.Context, env Env, start, end time.Time) ([]calendar.Event, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}

	events, err := e.provider.ListEvents(ctx, env.CalendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() {
			return nil, fmt.Errorf("event %s: %w", ev.ID, ErrMissingInstant)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// ClassifyHighPriority keeps the events whose description marks them as
// working hours, unavailable hours, manually scheduled or deadline bound.
func ClassifyHighPriority(events []calendar.Event) []calendar.Event {
	var out []calendar.Event
	for _, ev := range events {
		if ClassOf(ev.Description).HighPriority() {
			out = append(out, ev)
		}
	}
	return out
}

// FreeBusy returns the provider's aggregate busy time for env.CalendarID.
func (e *Engine) FreeBusy(ctx context.Context, env Env, start, end time.Time) ([]calendar.Interval, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}

	busy, err := e.provider.FreeBusy(ctx, env.CalendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query freebusy: %w", err)
	}
	return busy, nil
}

// busyIntervals returns the busy time in [start, end) under the requested lens.
func (e *Engine) busyIntervals(ctx context.Context, env Env, start, end time.Time, highPriority bool) ([]calendar.Interval, error) {
	if !highPriority {
		return e.FreeBusy(ctx, env, start, end)
	}

	events, err := e.ListEventsInRange(ctx, env, start, end)
	if err != nil {
		return nil, err
	}

	high := ClassifyHighPriority(events)
	busy := make([]calendar.Interval, 0, len(high))
	for _, ev := range high {
		busy = append(busy, calendar.Interval{Start: ev.Start, End: ev.End})
	}
	return busy, nil
}

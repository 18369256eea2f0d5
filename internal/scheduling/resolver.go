package scheduling

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/logging"
)

// conflictWindow is one unit of work for the resolver: a freshly placed
// event whose slot may overlap displaceable events.
type conflictWindow struct {
	start, end    time.Time
	placedSummary string
	depth         int
}

// RescheduleConflicts moves every displaceable event overlapping
// [windowStart, windowEnd) to a new slot and returns the status line for the
// user. Manually scheduled events, weekly hours and all-day events are never
// moved.
//
// Displaced events are re-placed with AutoSchedule semantics. One that can
// only meet its deadline by taking a high-priority slot may itself displace
// events; its window is queued and processed breadth-first, up to
// MaxConflictDepth levels. Events are handled in provider order and moves
// made later in a pass are not re-checked against earlier ones.
//
// A provider error aborts the pass. Events already moved stay moved.
func (e *Engine) RescheduleConflicts(ctx context.Context, env Env, windowStart, windowEnd time.Time, placedSummary string) (string, error) {
	outcome, err := e.resolve(ctx, env, conflictWindow{
		start:         windowStart,
		end:           windowEnd,
		placedSummary: placedSummary,
	})
	return outcome.message(), err
}

func (e *Engine) resolve(ctx context.Context, env Env, initial conflictWindow) (conflictOutcome, error) {
	var outcome conflictOutcome

	ctx, span := instrumentation.StartSchedulingSpan(ctx, "resolve",
		instrumentation.NewSpanAttributeBuilder().WithCalendar(env.CalendarID).Build()...)
	defer span.End()

	maxDepth := e.opts.MaxConflictDepth
	queue := []conflictWindow{initial}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		events, err := e.ListEventsInRange(ctx, env, w.start, w.end)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return outcome, err
		}
		if len(events) <= 1 {
			continue
		}

		instrumentation.AddSpanEvent(span, "window",
			attribute.Int(instrumentation.SpanAttrDepth, w.depth),
			attribute.Int("schedule.events", len(events)))

		for _, ev := range events {
			if ev.Summary == w.placedSummary {
				continue
			}

			next, err := e.displace(ctx, env, ev, w, &outcome)
			if err != nil {
				instrumentation.SetSpanError(span, err)
				return outcome, err
			}
			if next == nil {
				continue
			}
			if next.depth > maxDepth {
				e.logger.Warn("conflict depth limit reached, displaced events left in place",
					logging.EventID(ev.ID),
					logging.Depth(next.depth),
					logging.Window(next.start, next.end))
				e.metrics.RecordConflictReschedule(ctx, instrumentation.ConflictDepthCapped)
				e.opts.Audit.LogReschedule(ctx, instrumentation.RescheduleRecord{
					EventID: ev.ID,
					Summary: ev.Summary,
					From:    next.start,
					To:      next.end,
					Result:  instrumentation.ConflictDepthCapped,
					Depth:   next.depth,
				})
				continue
			}
			queue = append(queue, *next)
		}
	}

	instrumentation.SetSpanSuccess(span)
	return outcome, nil
}

// displace handles one event overlapping w. It returns the window to process
// next when the event was placed over other high-priority-lens busy time.
func (e *Engine) displace(ctx context.Context, env Env, ev calendar.Event, w conflictWindow, outcome *conflictOutcome) (*conflictWindow, error) {
	record := instrumentation.RescheduleRecord{
		EventID: ev.ID,
		Summary: ev.Summary,
		From:    ev.Start,
		Depth:   w.depth,
	}
	log := func(result string) {
		record.Result = result
		e.metrics.RecordConflictReschedule(ctx, result)
		e.opts.Audit.LogReschedule(ctx, record)
	}

	if ev.AllDay {
		e.logger.Debug("all-day event left in place", logging.EventID(ev.ID))
		log(instrumentation.ConflictAllDay)
		return nil, nil
	}
	if ClassOf(ev.Description).Fixed() {
		outcome.fixed = true
		log(instrumentation.ConflictFixed)
		return nil, nil
	}

	settings, err := ParseSettings(ev.Description, env.location())
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	minutes, err := DurationMinutes(ev.Start, ev.End)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	record.Deadline = settings.Deadline

	res, err := e.autoSchedule(ctx, env, AutoRequest{
		Summary:         ev.Summary,
		DurationMinutes: int(math.Ceil(minutes)),
		Deadline:        settings.Deadline,
		MinStart:        settings.MinStart,
		EventID:         ev.ID,
	}, false)
	if err != nil {
		return nil, fmt.Errorf("reschedule %s: %w", ev.ID, err)
	}

	switch {
	case res.DeadlineMissed:
		outcome.deadlineIssue = true
		log(instrumentation.ConflictDeadlineMiss)
		return nil, nil
	case !res.Placed:
		outcome.unplaced = true
		log(instrumentation.ConflictUnplaced)
		return nil, nil
	}

	outcome.rescheduled = true
	record.To = res.Start
	log(instrumentation.ConflictRescheduled)

	if !res.Escalated {
		return nil, nil
	}
	return &conflictWindow{
		start:         res.Start,
		end:           res.End,
		placedSummary: ev.Summary,
		depth:         w.depth + 1,
	}, nil
}

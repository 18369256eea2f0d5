package scheduling

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
)

// FindRequest describes one availability search. Zero Deadline and MinStart
// are absent.
type FindRequest struct {
	Duration     time.Duration
	Deadline     time.Time
	MinStart     time.Time
	HighPriority bool
}

// FindAvailability returns the earliest start at which req.Duration fits,
// scanning one local day at a time from max(now, MinStart). In the
// high-priority lens only high-priority events count as busy; otherwise all
// busy time does. found is false once the deadline or the horizon is passed.
func (e *Engine) FindAvailability(ctx context.Context, env Env, req FindRequest) (start time.Time, found bool, err error) {
	if err := env.validate(); err != nil {
		return time.Time{}, false, err
	}
	if req.Duration <= 0 {
		return time.Time{}, false, ErrInvalidDuration
	}

	ctx, span := instrumentation.StartSchedulingSpan(ctx, instrumentation.ModeFind,
		attribute.Bool("schedule.high_priority", req.HighPriority))
	defer span.End()

	base := env.now()
	if !req.MinStart.IsZero() && req.MinStart.After(base) {
		base = req.MinStart.In(env.location())
	}

	scanned := 0
	defer func() {
		e.metrics.RecordAvailabilityScan(ctx, req.HighPriority, scanned)
	}()

	for day := 0; day < e.opts.HorizonDays; day++ {
		queryStart := base
		if day > 0 {
			queryStart = startOfDay(base, day)
			if !req.Deadline.IsZero() && queryStart.After(req.Deadline) {
				break
			}
		}
		queryEnd := startOfDay(queryStart, 1)

		busy, err := e.busyIntervals(ctx, env, queryStart, queryEnd, req.HighPriority)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return time.Time{}, false, err
		}
		scanned++

		if slot, ok := firstFit(busy, queryStart, queryEnd, req.Duration); ok {
			instrumentation.SetSpanSuccess(span)
			return slot, true, nil
		}
	}

	instrumentation.SetSpanSuccess(span)
	return time.Time{}, false, nil
}

// FindAvailabilityBeforeDeadline searches the high-priority lens and only
// accepts a slot that ends at or before the deadline.
func (e *Engine) FindAvailabilityBeforeDeadline(ctx context.Context, env Env, duration time.Duration, deadline, minStart time.Time) (time.Time, bool, error) {
	start, found, err := e.FindAvailability(ctx, env, FindRequest{
		Duration:     duration,
		Deadline:     deadline,
		MinStart:     minStart,
		HighPriority: true,
	})
	if err != nil || !found {
		return time.Time{}, false, err
	}
	if start.Add(duration).After(deadline) {
		return time.Time{}, false, nil
	}
	return start, true, nil
}

// firstFit scans busy (ascending by start) for the first gap of length d
// inside the day [queryStart, queryEnd). An empty day is free from
// queryStart regardless of d. The cursor tracks the latest busy end seen so
// far, so overlapping intervals never yield an overlapping slot.
func firstFit(busy []calendar.Interval, queryStart, queryEnd time.Time, d time.Duration) (time.Time, bool) {
	if len(busy) == 0 {
		return queryStart, true
	}

	cursor := queryStart
	for _, b := range busy {
		if !b.End.After(cursor) {
			continue
		}
		if gapAtLeast(cursor, b.Start, d) {
			return cursor, true
		}
		cursor = laterOf(cursor, b.End)
	}

	if gapAtLeast(cursor, queryEnd, d) {
		return cursor, true
	}
	return time.Time{}, false
}

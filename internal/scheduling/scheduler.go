package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/logging"
)

// Layouts of ManualRequest.Date and ManualRequest.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ManualRequest places an event at a literal local date and time.
type ManualRequest struct {
	Summary         string
	Date            string
	Time            string
	DurationMinutes int
	// EventID moves an existing event instead of inserting a new one.
	EventID string
}

// AutoRequest asks the engine to find a slot. Zero Deadline and MinStart are absent.
type AutoRequest struct {
	Summary         string
	DurationMinutes int
	Deadline        time.Time
	MinStart        time.Time
	// EventID moves an existing event instead of inserting a new one.
	EventID string
}

// Result is the outcome of one scheduling request.
type Result struct {
	// Placed is false when no slot was written.
	Placed bool
	Start  time.Time
	End    time.Time
	// EventID is the id of the written event.
	EventID string
	// Escalated is set when the slot came from the high-priority search.
	Escalated bool
	// DeadlineMissed is set when no slot ends before the deadline.
	DeadlineMissed bool
	Message        UserMessage
}

func (r *Result) outcome() string {
	switch {
	case r.DeadlineMissed:
		return instrumentation.OutcomeDeadlineMissed
	case !r.Placed:
		return instrumentation.OutcomeNoAvailability
	case r.Escalated:
		return instrumentation.OutcomeEscalated
	default:
		return instrumentation.OutcomePlaced
	}
}

// ManualSchedule writes the event at the requested time, marks it manually
// scheduled and reschedules whatever it now overlaps. When conflict
// resolution fails the event stays booked and the partial result is returned
// along with the error.
func (e *Engine) ManualSchedule(ctx context.Context, env Env, req ManualRequest) (res *Result, err error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	start, err := time.ParseInLocation(DateLayout+" "+TimeLayout, req.Date+" "+req.Time, env.location())
	if err != nil {
		return nil, fmt.Errorf("%w: %q %q: %v", ErrInvalidDateTime, req.Date, req.Time, err)
	}
	end := EndTime(start, req.DurationMinutes)

	ctx, span := instrumentation.StartSchedulingSpan(ctx, instrumentation.ModeManual,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(env.CalendarID).WithMode(instrumentation.ModeManual).Build()...)
	defer span.End()
	began := time.Now()
	defer func() { e.finish(ctx, span, instrumentation.ModeManual, res, err, began) }()

	description := ManualSettings().Format()
	ev, err := e.WriteEvent(ctx, env, req.Summary, start, end, description, req.EventID)
	if err != nil {
		return nil, err
	}
	if req.EventID != "" {
		if err := e.patchDescription(ctx, env, req.EventID, description); err != nil {
			return nil, err
		}
	}

	res = &Result{
		Placed:  true,
		Start:   start,
		End:     end,
		EventID: ev.ID,
		Message: UserMessage{EventBeingScheduled: FormatTimestamp(start)},
	}

	conflicts, err := e.RescheduleConflicts(ctx, env, start, end, req.Summary)
	res.Message.ConflictingEvents = conflicts
	if err != nil {
		return res, fmt.Errorf("resolve conflicts: %w", err)
	}
	return res, nil
}

// AutoSchedule places the event in the earliest free slot. If that slot
// misses the deadline it retries treating only high-priority events as busy
// and then reschedules what the event displaced. A deadline that cannot be
// met is reported through the result, not as an error.
func (e *Engine) AutoSchedule(ctx context.Context, env Env, req AutoRequest) (res *Result, err error) {
	ctx, span := instrumentation.StartSchedulingSpan(ctx, instrumentation.ModeAuto,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(env.CalendarID).WithMode(instrumentation.ModeAuto).Build()...)
	defer span.End()
	began := time.Now()
	defer func() { e.finish(ctx, span, instrumentation.ModeAuto, res, err, began) }()

	return e.autoSchedule(ctx, env, req, true)
}

// autoSchedule implements AutoSchedule. With resolve unset, an escalated
// placement is returned without touching the events it now overlaps; the
// conflict resolver queues those itself.
func (e *Engine) autoSchedule(ctx context.Context, env Env, req AutoRequest, resolve bool) (*Result, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	settings := NewSettings(req.Deadline, req.MinStart)
	duration := time.Duration(req.DurationMinutes) * time.Minute

	start, found, err := e.FindAvailability(ctx, env, FindRequest{
		Duration: duration,
		Deadline: req.Deadline,
		MinStart: req.MinStart,
	})
	if err != nil {
		return nil, err
	}

	if found && (!settings.HasDeadline() || !EndTime(start, req.DurationMinutes).After(req.Deadline)) {
		return e.place(ctx, env, req, settings, start, false)
	}

	if !settings.HasDeadline() {
		return &Result{Message: UserMessage{EventBeingScheduled: NoAvailabilityMessage}}, nil
	}

	start, found, err = e.FindAvailabilityBeforeDeadline(ctx, env, duration, req.Deadline, req.MinStart)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Result{
			DeadlineMissed: true,
			Message:        UserMessage{EventBeingScheduled: DeadlineWarning},
		}, nil
	}

	res, err := e.place(ctx, env, req, settings, start, true)
	if err != nil || !resolve {
		return res, err
	}

	conflicts, err := e.RescheduleConflicts(ctx, env, res.Start, res.End, req.Summary)
	res.Message.ConflictingEvents = conflicts
	if err != nil {
		return res, fmt.Errorf("resolve conflicts: %w", err)
	}
	return res, nil
}

func (e *Engine) place(ctx context.Context, env Env, req AutoRequest, settings Settings, start time.Time, escalated bool) (*Result, error) {
	end := EndTime(start, req.DurationMinutes)
	description := settings.Format()

	ev, err := e.WriteEvent(ctx, env, req.Summary, start, end, description, req.EventID)
	if err != nil {
		return nil, err
	}
	if req.EventID != "" {
		if err := e.patchDescription(ctx, env, req.EventID, description); err != nil {
			return nil, err
		}
	}

	return &Result{
		Placed:    true,
		Start:     start,
		End:       end,
		EventID:   ev.ID,
		Escalated: escalated,
		Message:   UserMessage{EventBeingScheduled: FormatTimestamp(start)},
	}, nil
}

// WriteEvent moves the event with eventID to [start, end), leaving its
// description alone, or inserts a new event carrying description, the
// configured color tag and a popup reminder when eventID is empty.
func (e *Engine) WriteEvent(ctx context.Context, env Env, summary string, start, end time.Time, description, eventID string) (*calendar.Event, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, ErrMissingInstant
	}

	if eventID != "" {
		ev, err := e.provider.PatchEvent(ctx, env.CalendarID, eventID, calendar.EventFields{
			Start:    calendar.Time(start),
			End:      calendar.Time(end),
			TimeZone: env.zoneName(),
		})
		if err != nil {
			return nil, fmt.Errorf("move event %s: %w", eventID, err)
		}
		return ev, nil
	}

	ev, err := e.provider.InsertEvent(ctx, env.CalendarID, calendar.EventFields{
		Summary:     calendar.String(summary),
		Start:       calendar.Time(start),
		End:         calendar.Time(end),
		Description: calendar.String(description),
		ColorID:     calendar.String(e.opts.ColorID),
		Reminders:   []calendar.Reminder{{Method: "popup", Minutes: e.opts.ReminderMinutes}},
		TimeZone:    env.zoneName(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

func (e *Engine) patchDescription(ctx context.Context, env Env, eventID, description string) error {
	_, err := e.provider.PatchEvent(ctx, env.CalendarID, eventID, calendar.EventFields{
		Description: calendar.String(description),
	})
	if err != nil {
		return fmt.Errorf("update description of %s: %w", eventID, err)
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, mode string, res *Result, err error, began time.Time) {
	outcome := instrumentation.OutcomeError
	if err != nil {
		instrumentation.SetSpanError(span, err)
		e.logger.Warn("scheduling request failed",
			logging.Operation("schedule."+mode), logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
		outcome = res.outcome()
		e.logger.Debug("scheduling request finished",
			logging.Operation("schedule."+mode),
			logging.Status(outcome),
			logging.EventID(res.EventID))
	}
	e.metrics.RecordSchedulingRequest(ctx, mode, outcome, time.Since(began))
}

package scheduling

import (
	"context"
	"time"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/logging"
)

// SweepReport summarizes one conflict sweep.
type SweepReport struct {
	From    time.Time
	To      time.Time
	Windows int
	Message string
}

// SweepConflicts looks for manually scheduled events and weekly hours in
// [now, now+HorizonDays) that overlap displaceable events and runs the
// conflict resolver on each of them. It catches conflicts created outside the engine, e.g. by editing
// the calendar directly or by replacing weekly hours.
func (e *Engine) SweepConflicts(ctx context.Context, env Env) (report *SweepReport, err error) {
	if err := env.validate(); err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartSchedulingSpan(ctx, instrumentation.ModeSweep,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(env.CalendarID).WithMode(instrumentation.ModeSweep).Build()...)
	defer span.End()
	began := time.Now()
	defer func() {
		outcome := instrumentation.OutcomePlaced
		if err != nil {
			outcome = instrumentation.OutcomeError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		e.metrics.RecordSchedulingRequest(ctx, instrumentation.ModeSweep, outcome, time.Since(began))
	}()

	from := env.now()
	to := startOfDay(from, e.opts.HorizonDays)
	report = &SweepReport{From: from, To: to}

	events, err := e.ListEventsInRange(ctx, env, from, to)
	if err != nil {
		return nil, err
	}

	var total conflictOutcome
	for _, anchor := range conflictAnchors(events) {
		outcome, err := e.resolve(ctx, env, conflictWindow{
			start:         anchor.Start,
			end:           anchor.End,
			placedSummary: anchor.Summary,
		})
		total.merge(outcome)
		report.Windows++
		if err != nil {
			return report, err
		}
	}

	// Fixed events overlapping each other are normal here, e.g. a meeting
	// inside working hours.
	total.fixed = false
	report.Message = total.message()
	e.logger.Info("conflict sweep finished",
		logging.Calendar(env.CalendarID),
		"windows", report.Windows,
		logging.Status(report.Message))
	return report, nil
}

// conflictAnchors returns the fixed events that overlap at least one
// displaceable event with a different summary. Fixed events never move, so
// their windows stay valid while earlier anchors are resolved.
func conflictAnchors(events []calendar.Event) []calendar.Event {
	var anchors []calendar.Event
	for i, anchor := range events {
		if !ClassOf(anchor.Description).Fixed() {
			continue
		}
		for j, other := range events {
			if i == j || other.AllDay || other.Summary == anchor.Summary || ClassOf(other.Description).Fixed() {
				continue
			}
			if overlaps(anchor.Start, anchor.End, other.Start, other.End) {
				anchors = append(anchors, anchor)
				break
			}
		}
	}
	return anchors
}

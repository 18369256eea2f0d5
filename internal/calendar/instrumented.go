package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/autoschedule/internal/instrumentation"
)

// OperationRecorder records the outcome of calendar provider calls.
// *instrumentation.Metrics satisfies it.
type OperationRecorder interface {
	RecordCalendarOperation(ctx context.Context, backend, operation, status string, duration time.Duration)
}

// Instrumented decorates a Provider with metrics and tracing.
type Instrumented struct {
	next     Provider
	backend  string
	recorder OperationRecorder
}

var _ Provider = (*Instrumented)(nil)

// NewInstrumented wraps next. recorder may be nil, in which case only spans are emitted.
func NewInstrumented(next Provider, backend string, recorder OperationRecorder) *Instrumented {
	return &Instrumented{next: next, backend: backend, recorder: recorder}
}

func (p *Instrumented) observe(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartCalendarSpan(ctx, p.backend, operation, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if p.recorder != nil {
		p.recorder.RecordCalendarOperation(ctx, p.backend, operation, status, time.Since(start))
	}
	return err
}

func (p *Instrumented) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	var events []Event
	err := p.observe(ctx, instrumentation.OperationList, nil, func(ctx context.Context) error {
		var err error
		events, err = p.next.ListEvents(ctx, calendarID, timeMin, timeMax)
		return err
	})
	return events, err
}

func (p *Instrumented) FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Interval, error) {
	var busy []Interval
	err := p.observe(ctx, instrumentation.OperationFreeBusy, nil, func(ctx context.Context) error {
		var err error
		busy, err = p.next.FreeBusy(ctx, calendarID, timeMin, timeMax)
		return err
	})
	return busy, err
}

func (p *Instrumented) InsertEvent(ctx context.Context, calendarID string, fields EventFields) (*Event, error) {
	var ev *Event
	err := p.observe(ctx, instrumentation.OperationCreate, nil, func(ctx context.Context) error {
		var err error
		ev, err = p.next.InsertEvent(ctx, calendarID, fields)
		return err
	})
	return ev, err
}

func (p *Instrumented) PatchEvent(ctx context.Context, calendarID, eventID string, fields EventFields) (*Event, error) {
	attrs := instrumentation.NewSpanAttributeBuilder().WithResource("event", eventID).Build()
	var ev *Event
	err := p.observe(ctx, instrumentation.OperationUpdate, attrs, func(ctx context.Context) error {
		var err error
		ev, err = p.next.PatchEvent(ctx, calendarID, eventID, fields)
		return err
	})
	return ev, err
}

func (p *Instrumented) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	attrs := instrumentation.NewSpanAttributeBuilder().WithResource("event", eventID).Build()
	return p.observe(ctx, instrumentation.OperationDelete, attrs, func(ctx context.Context) error {
		return p.next.DeleteEvent(ctx, calendarID, eventID)
	})
}

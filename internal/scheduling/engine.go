package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
)

// Defaults applied by New for zero-valued Options fields.
const (
	DefaultMaxConflictDepth = 5
	DefaultColorID          = "9"
	DefaultReminderMinutes  = 30
)

// Recorder receives scheduling metrics. *instrumentation.Metrics satisfies it.
type Recorder interface {
	RecordSchedulingRequest(ctx context.Context, mode, outcome string, duration time.Duration)
	RecordConflictReschedule(ctx context.Context, result string)
	RecordAvailabilityScan(ctx context.Context, highPriority bool, days int)
}

type nopRecorder struct{}

func (nopRecorder) RecordSchedulingRequest(context.Context, string, string, time.Duration) {}
func (nopRecorder) RecordConflictReschedule(context.Context, string)                       {}
func (nopRecorder) RecordAvailabilityScan(context.Context, bool, int)                      {}

// Options configures an Engine.
type Options struct {
	// HorizonDays bounds every availability search. Required.
	HorizonDays int

	// MaxConflictDepth bounds how many times displaced events may displace
	// further events. Negative values disable cascading.
	MaxConflictDepth int

	// ColorID is the color tag set on newly inserted events.
	ColorID string

	// ReminderMinutes is the popup reminder set on newly inserted events.
	ReminderMinutes int

	Logger  *slog.Logger
	Metrics Recorder
	Audit   *instrumentation.AuditLogger
}

// Engine schedules events on a calendar.Provider.
// It holds no per-request state; concurrent callers must serialize mutations themselves.
type Engine struct {
	provider calendar.Provider
	opts     Options
	logger   *slog.Logger
	metrics  Recorder
}

// New creates an Engine.
func New(provider calendar.Provider, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("calendar provider cannot be nil")
	}
	if opts.HorizonDays <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, opts.HorizonDays)
	}
	if opts.MaxConflictDepth == 0 {
		opts.MaxConflictDepth = DefaultMaxConflictDepth
	}
	if opts.ColorID == "" {
		opts.ColorID = DefaultColorID
	}
	if opts.ReminderMinutes <= 0 {
		opts.ReminderMinutes = DefaultReminderMinutes
	}

	e := &Engine{
		provider: provider,
		opts:     opts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = nopRecorder{}
	}
	return e, nil
}

// HorizonDays returns the configured search horizon.
func (e *Engine) HorizonDays() int {
	return e.opts.HorizonDays
}

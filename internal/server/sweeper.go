package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teemow/autoschedule/internal/logging"
)

// DefaultSweepTimeout bounds one scheduled sweep.
const DefaultSweepTimeout = 2 * time.Minute

// Sweeper runs the conflict sweep on a cron schedule under the scheduling lock.
type Sweeper struct {
	sc      *ServerContext
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// NewSweeper parses spec (standard five-field cron syntax or a descriptor
// like "@hourly") and prepares a sweeper. Call Start to begin running.
func NewSweeper(sc *ServerContext, spec string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc := sc.Env("").Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Sweeper{
		sc:      sc,
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: DefaultSweepTimeout,
		logger:  logging.WithOperation(logger, "sweep.cron"),
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("conflict sweep scheduled", "next", s.Next())
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns when the next sweep runs, zero before Start.
func (s *Sweeper) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce performs one sweep of the default calendar.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(s.sc.Context(), s.timeout)
	defer cancel()

	env := s.sc.Env("")
	err := s.sc.Exclusive(ctx, func(ctx context.Context) error {
		report, err := s.sc.Engine().SweepConflicts(ctx, env)
		if err != nil {
			return err
		}
		s.logger.Info("scheduled sweep finished",
			logging.Calendar(env.CalendarID),
			"windows", report.Windows,
			logging.Status(report.Message))
		return nil
	})
	if err != nil {
		s.logger.Error("scheduled sweep failed", logging.Calendar(env.CalendarID), logging.Err(err))
	}
}

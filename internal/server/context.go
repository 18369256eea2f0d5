package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/scheduling"
)

// ErrShutdown is returned by Exclusive once the context has been shut down.
var ErrShutdown = errors.New("server: shutting down")

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	engine *scheduling.Engine
	env    scheduling.Env

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	// schedMu serializes calendar mutations across tool calls and the sweep job
	schedMu  sync.Mutex
	mu       sync.RWMutex
	shutdown bool
	lastRun  time.Time
	lastErr  error
}

// NewServerContext creates a new server context around a scheduling engine.
// env.CalendarID is the calendar tools use when the caller names none.
func NewServerContext(ctx context.Context, engine *scheduling.Engine, env scheduling.Env) (*ServerContext, error) {
	if engine == nil {
		return nil, fmt.Errorf("scheduling engine cannot be nil")
	}
	if env.CalendarID == "" {
		return nil, scheduling.ErrMissingCalendarID
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		engine: engine,
		env:    env,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Engine returns the scheduling engine
func (sc *ServerContext) Engine() *scheduling.Engine {
	return sc.engine
}

// Env returns the default environment. A non-empty calendarID overrides the
// configured calendar.
func (sc *ServerContext) Env(calendarID string) scheduling.Env {
	env := sc.env
	if calendarID != "" {
		env.CalendarID = calendarID
	}
	return env
}

// DefaultCalendarID returns the configured calendar id
func (sc *ServerContext) DefaultCalendarID() string {
	return sc.env.CalendarID
}

// Exclusive runs fn while holding the scheduling lock.
func (sc *ServerContext) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if sc.IsShutdown() {
		return ErrShutdown
	}

	sc.schedMu.Lock()
	defer sc.schedMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	err := fn(ctx)

	sc.mu.Lock()
	sc.lastRun = time.Now()
	sc.lastErr = err
	sc.mu.Unlock()
	return err
}

// LastRun returns when the last exclusive operation finished, zero if none did.
func (sc *ServerContext) LastRun() time.Time {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastRun
}

// LastError returns the error of the last exclusive operation, nil if it
// succeeded.
func (sc *ServerContext) LastError() error {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastErr
}

// SetMetrics sets the metrics recorder used for tool instrumentation
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, nil if not configured
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used for tool instrumentation
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, nil if not configured
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

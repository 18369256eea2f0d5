package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures information about one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool string

	// Target calendar and the engine operation the tool drove
	CalendarID string
	Mode       string // manual, auto, find, sweep, hours

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithCalendar sets the target calendar.
func (ti *ToolInvocation) WithCalendar(calendarID string) *ToolInvocation {
	ti.CalendarID = calendarID
	return ti
}

// WithMode sets the engine operation the tool drove.
func (ti *ToolInvocation) WithMode(mode string) *ToolInvocation {
	ti.Mode = mode
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar", ti.CalendarID))
	}
	if ti.Mode != "" {
		attrs = append(attrs, slog.String("mode", ti.Mode))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// RescheduleRecord describes one event the conflict resolver moved or left alone.
type RescheduleRecord struct {
	EventID  string
	Summary  string
	From     time.Time
	To       time.Time
	Result   string // one of the Conflict* constants
	Depth    int
	Deadline time.Time
}

// LogAttrs returns slog attributes for the record. The summary is only
// included when includeSummary is set.
func (r RescheduleRecord) LogAttrs(includeSummary bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("event_id", r.EventID),
		slog.String("result", r.Result),
		slog.Int("depth", r.Depth),
		slog.Time("from", r.From),
	}
	if !r.To.IsZero() {
		attrs = append(attrs, slog.Time("to", r.To))
	}
	if !r.Deadline.IsZero() {
		attrs = append(attrs, slog.Time("deadline", r.Deadline))
	}
	if includeSummary && r.Summary != "" {
		attrs = append(attrs, slog.String("summary", r.Summary))
	}
	return attrs
}

// AuditLogger provides structured audit logging for tool invocations and
// calendar mutations made by the conflict resolver.
type AuditLogger struct {
	logger           *slog.Logger
	includeSummaries bool
	enabled          bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// Event summaries are not logged by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:           logger,
		includeSummaries: config.IncludeSummaries,
		enabled:          config.Enabled,
	}
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	args := attrsToArgs(ti.LogAttrs())
	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}

// LogReschedule logs one conflict resolver decision.
func (al *AuditLogger) LogReschedule(ctx context.Context, r RescheduleRecord) {
	if al == nil || !al.enabled {
		return
	}

	attrs := r.LogAttrs(al.includeSummaries)
	if traceID := GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}

	level := slog.LevelInfo
	if r.Result == ConflictDeadlineMiss || r.Result == ConflictDepthCapped {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "conflict_reschedule", attrs...)
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

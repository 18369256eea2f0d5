package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrBackend   = "backend"
	attrMode      = "mode"
	attrOutcome   = "outcome"
	attrResult    = "result"
	attrTool      = "tool"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Calendar provider metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Scheduling metrics
	schedulingRequestsTotal   metric.Int64Counter
	schedulingRequestDuration metric.Float64Histogram
	conflictReschedulesTotal  metric.Int64Counter
	availabilityDaysScanned   metric.Int64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_api_operations_total",
		metric.WithDescription("Total number of calendar provider operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_api_operation_duration_seconds",
		metric.WithDescription("Calendar provider operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operation_duration_seconds histogram: %w", err)
	}

	m.schedulingRequestsTotal, err = meter.Int64Counter(
		"scheduling_requests_total",
		metric.WithDescription("Total number of scheduling requests by mode and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduling_requests_total counter: %w", err)
	}

	m.schedulingRequestDuration, err = meter.Float64Histogram(
		"scheduling_request_duration_seconds",
		metric.WithDescription("Scheduling request duration in seconds, including conflict resolution"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduling_request_duration_seconds histogram: %w", err)
	}

	m.conflictReschedulesTotal, err = meter.Int64Counter(
		"conflict_reschedules_total",
		metric.WithDescription("Total number of displaced events handled by the conflict resolver"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conflict_reschedules_total counter: %w", err)
	}

	m.availabilityDaysScanned, err = meter.Int64Histogram(
		"availability_days_scanned",
		metric.WithDescription("Number of days scanned by one availability search"),
		metric.WithUnit("{day}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 7, 14, 30, 60, 90, 365),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_days_scanned histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCalendarOperation records a calendar provider call.
//
// Parameters:
//   - backend: provider backend ("google" or "local")
//   - operation: list, freebusy, create, update, delete
//   - status: "success" or "error"
//   - duration: time taken by the call
func (m *Metrics) RecordCalendarOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, NormalizeOperation(operation)),
		attribute.String(attrStatus, status),
	}

	m.calendarOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSchedulingRequest records one top-level scheduling request.
// mode is manual, auto or sweep; outcome is one of the Outcome* constants.
func (m *Metrics) RecordSchedulingRequest(ctx context.Context, mode, outcome string, duration time.Duration) {
	if m == nil || m.schedulingRequestsTotal == nil || m.schedulingRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMode, mode),
		attribute.String(attrOutcome, outcome),
	}

	m.schedulingRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.schedulingRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordConflictReschedule records how the conflict resolver handled one displaced event.
// result is one of the Conflict* constants.
func (m *Metrics) RecordConflictReschedule(ctx context.Context, result string) {
	if m == nil || m.conflictReschedulesTotal == nil {
		return // Instrumentation not initialized
	}

	m.conflictReschedulesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordAvailabilityScan records how many days one availability search looked at.
func (m *Metrics) RecordAvailabilityScan(ctx context.Context, highPriority bool, days int) {
	if m == nil || m.availabilityDaysScanned == nil {
		return // Instrumentation not initialized
	}

	lens := "low_priority"
	if highPriority {
		lens = "high_priority"
	}
	m.availabilityDaysScanned.Record(ctx, int64(days), metric.WithAttributes(attribute.String("lens", lens)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

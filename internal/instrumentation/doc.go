// Package instrumentation provides OpenTelemetry instrumentation for the
// autoschedule engine, CLI and MCP server.
//
// # Metrics
//
// Calendar provider metrics:
//   - calendar_api_operations_total: calendar calls by backend, operation and status
//   - calendar_api_operation_duration_seconds: calendar call durations
//
// Scheduling metrics:
//   - scheduling_requests_total: top-level requests by mode (manual, auto, sweep) and outcome
//   - scheduling_request_duration_seconds: request durations including conflict resolution
//   - conflict_reschedules_total: displaced events by result (rescheduled, fixed, deadline_missed, unplaced, depth_capped, all_day)
//   - availability_days_scanned: days examined by one availability search
//
// Server metrics:
//   - http_requests_total, http_request_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), scheduling steps
// (schedule.<step>) and calendar calls (calendar.<backend>.<operation>).
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: autoschedule)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_SUMMARIES
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordSchedulingRequest(ctx, instrumentation.ModeAuto, instrumentation.OutcomePlaced, time.Since(start))
package instrumentation

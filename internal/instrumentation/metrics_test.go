package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)

	if got := collectSum(t, reader, "http_requests_total"); got != 2 {
		t.Errorf("http_requests_total = %d, want 2", got)
	}
}

func TestMetrics_RecordCalendarOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCalendarOperation(ctx, BackendGoogle, OperationList, StatusSuccess, 200*time.Millisecond)
	m.RecordCalendarOperation(ctx, BackendLocal, OperationCreate, StatusError, 5*time.Millisecond)
	m.RecordCalendarOperation(ctx, BackendGoogle, "watch", StatusSuccess, time.Millisecond)

	if got := collectSum(t, reader, "calendar_api_operations_total"); got != 3 {
		t.Errorf("calendar_api_operations_total = %d, want 3", got)
	}
}

func TestMetrics_RecordSchedulingRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSchedulingRequest(ctx, ModeAuto, OutcomePlaced, time.Second)
	m.RecordSchedulingRequest(ctx, ModeManual, OutcomePlaced, time.Second)

	if got := collectSum(t, reader, "scheduling_requests_total"); got != 2 {
		t.Errorf("scheduling_requests_total = %d, want 2", got)
	}
}

func TestMetrics_RecordConflictReschedule(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordConflictReschedule(ctx, ConflictRescheduled)
	m.RecordConflictReschedule(ctx, ConflictFixed)
	m.RecordConflictReschedule(ctx, ConflictDeadlineMiss)

	if got := collectSum(t, reader, "conflict_reschedules_total"); got != 3 {
		t.Errorf("conflict_reschedules_total = %d, want 3", got)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "schedule_auto", StatusSuccess, 100*time.Millisecond)
	m.RecordAvailabilityScan(ctx, true, 3)

	if got := collectSum(t, reader, "mcp_tool_invocations_total"); got != 1 {
		t.Errorf("mcp_tool_invocations_total = %d, want 1", got)
	}
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordCalendarOperation(ctx, BackendGoogle, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordSchedulingRequest(ctx, ModeAuto, OutcomePlaced, time.Second)
	metrics.RecordConflictReschedule(ctx, ConflictRescheduled)
	metrics.RecordAvailabilityScan(ctx, false, 1)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, 100*time.Millisecond)

	var nilMetrics *Metrics
	nilMetrics.RecordConflictReschedule(ctx, ConflictFixed)
}

package instrumentation

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "AUDIT_LOGGING_INCLUDE_SUMMARIES", "OTEL_METRIC_EXPORT_INTERVAL"} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "autoschedule" {
		t.Errorf("expected ServiceName 'autoschedule', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if config.AuditLogging.IncludeSummaries {
		t.Error("event summaries should be excluded from audit logs by default")
	}
	if config.MetricInterval != DefaultMetricInterval {
		t.Errorf("expected MetricInterval %s, got %s", DefaultMetricInterval, config.MetricInterval)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_SUMMARIES", "true")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false")
	}
	if config.MetricsExporter != ExporterStdout {
		t.Errorf("expected MetricsExporter 'stdout', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterStdout {
		t.Errorf("expected TracingExporter 'stdout', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.IncludeSummaries {
		t.Error("expected IncludeSummaries to be true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid defaults",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1},
		},
		{
			name:   "valid otlp",
			config: Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318", TraceSamplingRate: 1},
		},
		{
			name:    "sampling rate too high",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.1},
			wantErr: "sampling rate",
		},
		{
			name:    "invalid metrics exporter",
			config:  Config{MetricsExporter: "graphite"},
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "invalid tracing exporter",
			config:  Config{TracingExporter: "zipkin"},
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("AUTOSCHEDULE_TEST_STR", "value")
	t.Setenv("AUTOSCHEDULE_TEST_BOOL", "notabool")
	t.Setenv("AUTOSCHEDULE_TEST_FLOAT", "0.25")

	if got := getEnvOrDefault("AUTOSCHEDULE_TEST_STR", "default"); got != "value" {
		t.Errorf("getEnvOrDefault = %q, want %q", got, "value")
	}
	if got := getEnvOrDefault("AUTOSCHEDULE_TEST_MISSING", "default"); got != "default" {
		t.Errorf("getEnvOrDefault = %q, want %q", got, "default")
	}
	if got := getEnvBoolOrDefault("AUTOSCHEDULE_TEST_BOOL", true); !got {
		t.Error("unparseable bool should fall back to the default")
	}
	if got := getEnvFloatOrDefault("AUTOSCHEDULE_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("getEnvFloatOrDefault = %f, want 0.25", got)
	}
}

func TestGetEnvMillisOrDefault(t *testing.T) {
	t.Setenv("AUTOSCHEDULE_TEST_MS", "2500")
	if got := getEnvMillisOrDefault("AUTOSCHEDULE_TEST_MS", time.Second); got != 2500*time.Millisecond {
		t.Errorf("getEnvMillisOrDefault = %s, want 2.5s", got)
	}

	t.Setenv("AUTOSCHEDULE_TEST_MS", "-1")
	if got := getEnvMillisOrDefault("AUTOSCHEDULE_TEST_MS", time.Second); got != time.Second {
		t.Errorf("negative interval should fall back to the default, got %s", got)
	}
}

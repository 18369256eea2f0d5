package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/logging"
)

// Metrics server defaults.
const (
	DefaultMetricsAddr      = ":9090"
	DefaultMetricsTimeout   = 10 * time.Second
	DefaultMetricsIdle      = 60 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	metricsEndpointPath     = "/metrics"
	metricsLivenessEndpoint = "/healthz"
)

// MetricsServerConfig configures a MetricsServer.
type MetricsServerConfig struct {
	// Addr defaults to DefaultMetricsAddr. Use "127.0.0.1:0" for a random port.
	Addr string

	// InstrumentationProvider must be enabled and export through Prometheus.
	InstrumentationProvider *instrumentation.Provider

	Logger *slog.Logger
}

// MetricsServer exposes the Prometheus registry on its own listener, apart
// from the MCP endpoint.
type MetricsServer struct {
	addr       string
	handler    http.Handler
	logger     *slog.Logger
	httpServer *http.Server
	boundAddr  string
}

// NewMetricsServer checks config and prepares the handler. Nothing listens
// until Start.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	p := config.InstrumentationProvider
	switch {
	case p == nil:
		return nil, errors.New("instrumentation provider is required for metrics server")
	case !p.Enabled():
		return nil, errors.New("instrumentation provider is not enabled")
	case !p.PrometheusEnabled():
		return nil, errors.New("instrumentation provider does not export prometheus metrics")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	// The otel prometheus exporter registers on the default registry.
	mux.Handle(metricsEndpointPath, promhttp.Handler())
	mux.HandleFunc(metricsLivenessEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr:    addr,
		handler: mux,
		logger:  logging.WithOperation(logger, "metrics"),
	}, nil
}

// Handler returns the metrics mux.
func (s *MetricsServer) Handler() http.Handler {
	return s.handler
}

// Start blocks serving metrics until Shutdown.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal is like Start but closes ready once the listener is
// bound, so callers can report the metrics endpoint before blocking.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.boundAddr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultMetricsTimeout,
		WriteTimeout:      DefaultMetricsTimeout,
		IdleTimeout:       DefaultMetricsIdle,
	}

	s.logger.Info("starting metrics server", "addr", s.boundAddr)
	if ready != nil {
		close(ready)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown stops the listener. It is a no-op before Start.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// BoundAddr returns the address the listener is bound to, empty before start.
func (s *MetricsServer) BoundAddr() string {
	return s.boundAddr
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/logging"
	"github.com/teemow/autoschedule/internal/server"
	"github.com/teemow/autoschedule/internal/tools/scheduling_tools"
)

// Transports accepted by --transport.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve flags.
type serveOptions struct {
	transport      string
	httpAddr       string
	readOnly       bool
	metricsEnabled bool
	metricsAddr    string
	sweepCron      string
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to expose scheduling
operations as tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP server on /mcp with /healthz and /readyz

Mutating tools run one at a time. With --sweep-cron the conflict sweep also
runs periodically, e.g. --sweep-cron "*/30 * * * *".

Use --read-only to expose only the availability tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, so)
		},
	}

	cmd.Flags().StringVar(&so.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&so.httpAddr, "http-addr", "", "HTTP server address (default from config, :8080)")
	cmd.Flags().BoolVar(&so.readOnly, "read-only", false, "Register only tools that do not modify the calendar")
	cmd.Flags().BoolVar(&so.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&so.metricsAddr, "metrics-addr", "", "Metrics server address (default from config, :9090). Can also use METRICS_ADDR env var.")
	cmd.Flags().StringVar(&so.sweepCron, "sweep-cron", "", "Cron schedule for the periodic conflict sweep (default from config, empty disables it)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, so *serveOptions) error {
	if so.transport != transportStdio && so.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", so.transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			so.metricsEnabled = v == "true"
		}
	}
	if so.metricsAddr == "" {
		so.metricsAddr = os.Getenv("METRICS_ADDR")
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var ao appOptions
	if provider.Enabled() {
		ao.metrics = provider.Metrics()
	}

	a, err := newApp(shutdownCtx, cmd, opts, ao)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to close calendar backend", logging.Err(err))
		}
	}()
	logger := logging.WithOperation(a.logger, "serve")

	if so.httpAddr == "" {
		so.httpAddr = a.cfg.Serve.HTTPAddr
	}
	if so.metricsAddr == "" {
		so.metricsAddr = a.cfg.Serve.MetricsAddr
	}
	if so.sweepCron == "" {
		so.sweepCron = a.cfg.Serve.SweepCron
	}

	serverContext, err := server.NewServerContext(shutdownCtx, a.engine, a.env)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(a.logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// No metrics listener on stdio: the client owns the process.
	if so.transport != transportStdio && so.metricsEnabled && provider.PrometheusEnabled() {
		metricsServer, err := startMetricsServer(so.metricsAddr, provider, a.logger)
		if err != nil {
			return err
		}
		logger.Info("metrics server started", "addr", metricsServer.BoundAddr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	if so.sweepCron != "" {
		sweeper, err := server.NewSweeper(serverContext, so.sweepCron, a.logger)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	mcpSrv := mcpserver.NewMCPServer("autoschedule", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := scheduling_tools.RegisterSchedulingTools(mcpSrv, serverContext, so.readOnly); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	logger.Info("MCP server configured",
		"transport", so.transport,
		"read_only", so.readOnly,
		logging.Calendar(a.env.CalendarID))

	switch so.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, so.httpAddr, provider, logger)
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ready:
		return metricsServer, nil
	case err := <-errCh:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, errors.New("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, provider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	healthChecker := server.NewHealthChecker(sc)
	httpServer.SetHealthChecker(healthChecker)
	if provider != nil && provider.Enabled() {
		httpServer.SetMetrics(provider.Metrics())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

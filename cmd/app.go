package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/config"
	"github.com/teemow/autoschedule/internal/google"
	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/localcal"
	"github.com/teemow/autoschedule/internal/logging"
	"github.com/teemow/autoschedule/internal/scheduling"
)

// app is everything a subcommand needs to talk to the engine.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	provider   calendar.Provider
	engine     *scheduling.Engine
	env        scheduling.Env
	closers    []func() error
}

// appOptions wires optional instrumentation into the engine and provider.
type appOptions struct {
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// loadConfig reads the config file and applies environment variables and
// flags on top, in that order.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, string, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("calendar") {
		cfg.CalendarID = opts.calendarID
	}
	if flags.Changed("timezone") {
		cfg.Timezone = opts.timezone
	}
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

func newLogger(cmd *cobra.Command, opts *globalOptions) *slog.Logger {
	logger := logging.New(cmd.ErrOrStderr(), opts.logFormat, opts.debug)
	slog.SetDefault(logger)
	return logger
}

// newApp builds the calendar provider and the engine for one command.
func newApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions, ao appOptions) (*app, error) {
	cfg, path, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, opts)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		env: scheduling.Env{
			CalendarID: cfg.CalendarID,
			Location:   loc,
		},
	}

	var provider calendar.Provider
	switch cfg.Backend {
	case config.BackendGoogle:
		tokens, err := tokenProvider(cfg.Google.Account)
		if err != nil {
			return nil, err
		}
		if !tokens.HasTokenForAccount(cfg.Google.Account) {
			return nil, errors.New(google.GetAuthenticationErrorMessage(cfg.Google.Account))
		}
		client, err := calendar.NewClientForAccountWithProvider(ctx, cfg.Google.Account, tokens)
		if err != nil {
			return nil, err
		}
		provider = client
	case config.BackendLocal:
		dsn := cfg.LocalDSN(path)
		store, err := localcal.Open(dsn, localcal.Options{Logger: logging.NewSlogAdapter(logger)})
		if err != nil {
			return nil, fmt.Errorf("failed to open local calendar %s: %w", dsn, err)
		}
		a.closers = append(a.closers, store.Close)
		provider = store
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	var recorder calendar.OperationRecorder
	engineOpts := scheduling.Options{
		HorizonDays:      cfg.HorizonDays,
		MaxConflictDepth: cfg.MaxConflictDepth,
		ColorID:          cfg.ColorID,
		ReminderMinutes:  cfg.ReminderMinutes,
		Logger:           logger,
		Audit:            ao.audit,
	}
	if ao.metrics != nil {
		recorder = ao.metrics
		engineOpts.Metrics = ao.metrics
	}
	a.provider = calendar.NewInstrumented(provider, cfg.Backend, recorder)

	a.engine, err = scheduling.New(a.provider, engineOpts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Debug("engine ready",
		logging.Calendar(cfg.CalendarID),
		slog.String(logging.KeyBackend, cfg.Backend),
		"timezone", loc.String(),
		"horizon_days", cfg.HorizonDays)
	return a, nil
}

// googleTokenEnv holds an "<access> <refresh>" token that replaces the
// cached token file, for deployments that mount credentials as secrets.
const googleTokenEnv = "AUTOSCHEDULE_GOOGLE_TOKEN"

func tokenProvider(account string) (google.TokenProvider, error) {
	raw := os.Getenv(googleTokenEnv)
	if raw == "" {
		return google.NewFileTokenProvider(), nil
	}
	token, err := google.ParseToken(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", googleTokenEnv, err)
	}
	static := google.NewStaticTokenProvider()
	if err := static.SetToken(account, token); err != nil {
		return nil, err
	}
	return static, nil
}

// Close releases the provider.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command, opts *globalOptions) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, opts.timeout)
}

// withApp runs fn with a ready app and closes it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := commandContext(cmd, opts)
	defer cancel()

	a, err := newApp(ctx, cmd, opts, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to close calendar backend", logging.Err(err))
		}
	}()

	return fn(ctx, a)
}

// instantLayouts are accepted for --deadline, --min-start, --from and --to.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseInstant parses s in loc. An empty string is the zero time.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use RFC 3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD)", s)
}

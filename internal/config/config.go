package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendGoogle = "google"
	BackendLocal  = "local"
)

// Defaults applied by Normalize.
const (
	DefaultCalendarID       = "primary"
	DefaultTimezone         = "Local"
	DefaultHorizonDays      = 30
	DefaultMaxConflictDepth = 5
	DefaultColorID          = "9"
	DefaultReminderMinutes  = 30
	DefaultGoogleAccount    = "default"
	DefaultHTTPAddr         = ":8080"
	DefaultMetricsAddr      = ":9090"
)

// GoogleConfig selects the OAuth account used by the Google backend.
type GoogleConfig struct {
	Account string `yaml:"account" json:"account"`
}

// LocalConfig configures the sqlite-backed calendar.
type LocalConfig struct {
	// DSN is the sqlite database path. Defaults to calendar.db next to the config file.
	DSN string `yaml:"dsn" json:"dsn"`
}

// ServeConfig configures the MCP server.
type ServeConfig struct {
	HTTPAddr    string `yaml:"http_addr" json:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`

	// SweepCron is a cron schedule for the periodic conflict sweep, e.g.
	// "*/30 * * * *". Empty disables it.
	SweepCron string `yaml:"sweep_cron,omitempty" json:"sweep_cron,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// CalendarID is the calendar every command works on.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`

	// Timezone is the IANA zone days are cut in, or "Local".
	Timezone string `yaml:"timezone" json:"timezone"`

	// HorizonDays bounds every availability search.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// MaxConflictDepth bounds cascading reschedules. Negative disables cascading.
	MaxConflictDepth int `yaml:"max_conflict_depth" json:"max_conflict_depth"`

	ColorID         string `yaml:"color_id" json:"color_id"`
	ReminderMinutes int    `yaml:"reminder_minutes" json:"reminder_minutes"`

	// Backend is "google" or "local".
	Backend string `yaml:"backend" json:"backend"`

	Google GoogleConfig `yaml:"google" json:"google"`
	Local  LocalConfig  `yaml:"local" json:"local"`
	Serve  ServeConfig  `yaml:"serve" json:"serve"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing values so that partially filled files still work.
func (c *Config) Normalize() {
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	if c.MaxConflictDepth == 0 {
		c.MaxConflictDepth = DefaultMaxConflictDepth
	}
	if c.ColorID == "" {
		c.ColorID = DefaultColorID
	}
	if c.ReminderMinutes <= 0 {
		c.ReminderMinutes = DefaultReminderMinutes
	}
	if c.Backend == "" {
		c.Backend = BackendGoogle
	}
	if c.Google.Account == "" {
		c.Google.Account = DefaultGoogleAccount
	}
	if c.Serve.HTTPAddr == "" {
		c.Serve.HTTPAddr = DefaultHTTPAddr
	}
	if c.Serve.MetricsAddr == "" {
		c.Serve.MetricsAddr = DefaultMetricsAddr
	}
}

// ApplyEnv overrides file values with AUTOSCHEDULE_* environment variables.
// Malformed numbers keep the current value.
func (c *Config) ApplyEnv() {
	c.CalendarID = getEnvOrDefault("AUTOSCHEDULE_CALENDAR_ID", c.CalendarID)
	c.Timezone = getEnvOrDefault("AUTOSCHEDULE_TIMEZONE", c.Timezone)
	c.HorizonDays = getEnvIntOrDefault("AUTOSCHEDULE_HORIZON_DAYS", c.HorizonDays)
	c.MaxConflictDepth = getEnvIntOrDefault("AUTOSCHEDULE_MAX_CONFLICT_DEPTH", c.MaxConflictDepth)
	c.Backend = getEnvOrDefault("AUTOSCHEDULE_BACKEND", c.Backend)
	c.Google.Account = getEnvOrDefault("AUTOSCHEDULE_GOOGLE_ACCOUNT", c.Google.Account)
	c.Local.DSN = getEnvOrDefault("AUTOSCHEDULE_LOCAL_DSN", c.Local.DSN)
	c.Serve.SweepCron = getEnvOrDefault("AUTOSCHEDULE_SWEEP_CRON", c.Serve.SweepCron)
}

// Validate checks values Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Backend != BackendGoogle && c.Backend != BackendLocal {
		return fmt.Errorf("invalid backend %q, must be one of: google, local", c.Backend)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive, got %d", c.HorizonDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. "Local" is resolved to the IANA zone of the
// host, since events are written with the zone name.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
		return systemLocation()
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// localtimePath is the zoneinfo link consulted when TZ is unset.
var localtimePath = "/etc/localtime"

func systemLocation() (*time.Location, error) {
	name := zoneName(strings.TrimPrefix(os.Getenv("TZ"), ":"))
	if name == "" {
		if target, err := os.Readlink(localtimePath); err == nil {
			name = zoneName(target)
		}
	}
	if name == "" {
		if time.Local.String() == "UTC" {
			return time.UTC, nil
		}
		return nil, errors.New("cannot determine the IANA name of the local time zone, set timezone explicitly")
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid local timezone %q: %w", name, err)
	}
	return loc, nil
}

// zoneName strips a zoneinfo directory prefix from a TZ value or link target.
func zoneName(s string) string {
	if i := strings.LastIndex(s, "zoneinfo/"); i >= 0 {
		return s[i+len("zoneinfo/"):]
	}
	if filepath.IsAbs(s) {
		return ""
	}
	return s
}

// LocalDSN returns the sqlite path, defaulting to calendar.db in the
// directory of configPath.
func (c *Config) LocalDSN(configPath string) string {
	if c.Local.DSN != "" {
		return c.Local.DSN
	}
	return filepath.Join(filepath.Dir(configPath), "calendar.db")
}

// DefaultPath returns $XDG_CONFIG_HOME/autoschedule/config.yaml or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "autoschedule", "config.yaml")
}

// Load reads the YAML file at path. A missing file is created with the
// defaults (mode 0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically with mode 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".autoschedule-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

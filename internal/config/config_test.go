package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar_id: team@example.com\nmax_conflict_depth: -1\nbackend: local\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, -1, cfg.MaxConflictDepth)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, DefaultHorizonDays, cfg.HorizonDays)
	assert.Equal(t, DefaultColorID, cfg.ColorID)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "calendar.db"), cfg.LocalDSN(path))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: [1"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.Serve.SweepCron = "*/30 * * * *"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AUTOSCHEDULE_CALENDAR_ID", "work")
	t.Setenv("AUTOSCHEDULE_HORIZON_DAYS", "14")
	t.Setenv("AUTOSCHEDULE_MAX_CONFLICT_DEPTH", "not-a-number")
	t.Setenv("AUTOSCHEDULE_BACKEND", BackendLocal)

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "work", cfg.CalendarID)
	assert.Equal(t, 14, cfg.HorizonDays)
	assert.Equal(t, DefaultMaxConflictDepth, cfg.MaxConflictDepth)
	assert.Equal(t, BackendLocal, cfg.Backend)
}

func TestValidate(t *testing.T) {
	t.Setenv("TZ", "UTC")
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "outlook" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "zero horizon", mutate: func(c *Config) { c.HorizonDays = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	t.Setenv("TZ", "Europe/Berlin")
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLocation_LocalResolvesZoneName(t *testing.T) {
	link := filepath.Join(t.TempDir(), "localtime")
	require.NoError(t, os.Symlink("/usr/share/zoneinfo/America/New_York", link))

	old := localtimePath
	localtimePath = link
	t.Cleanup(func() { localtimePath = old })

	t.Setenv("TZ", "")
	loc, err := DefaultConfig().Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	t.Setenv("TZ", ":/usr/share/zoneinfo/Asia/Tokyo")
	loc, err = DefaultConfig().Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestZoneName(t *testing.T) {
	assert.Equal(t, "Europe/Berlin", zoneName("Europe/Berlin"))
	assert.Equal(t, "Europe/Berlin", zoneName("/var/db/timezone/zoneinfo/Europe/Berlin"))
	assert.Empty(t, zoneName("/etc/custom-zone"))
	assert.Empty(t, zoneName(""))
}

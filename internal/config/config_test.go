package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"PLANNER_ADDR", "PLANNER_DB", "PLANNER_OSRM_URL",
		"PLANNER_DISTANCE_PROVIDER", "PLANNER_LOG_LEVEL", "PLANNER_RESTARTS", "PLANNER_NOMINATIM_URL"} {
		t.Setenv(key, "")
	}
	return home
}

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "planner.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dbPath, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, AppDirName, SQLiteDBFileName), dbPath)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), `
[server]
addr = "0.0.0.0:9000"
write_timeout = "2m"

[database]
path = "/tmp/planner.db"

[distance]
provider = "Haversine"
speed_kph = 80

[geocoding]
enabled = false
rate_limit = "250ms"

[solver]
restarts = 16
workers = 4

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout.Duration)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, ProviderHaversine, cfg.Distance.Provider)
	assert.Equal(t, 80.0, cfg.Distance.SpeedKPH)
	assert.False(t, cfg.Geocoding.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocoding.RateLimit.Duration)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoding.NominatimURL)
	assert.Equal(t, 16, cfg.Solver.Restarts)
	assert.Equal(t, 4, cfg.Solver.Workers)
	assert.Equal(t, 4, cfg.Solver.Parallelism)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, level)

	dbPath, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/planner.db", dbPath)
}

func TestLoad_DefaultFileInAppDir(t *testing.T) {
	home := isolate(t)
	appDir := filepath.Join(home, AppDirName)
	require.NoError(t, os.MkdirAll(appDir, 0700))
	writeFile(t, appDir, "[solver]\nrestarts = 3\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Solver.Restarts)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "[server]\naddr = \"127.0.0.1:1\"\n")
	t.Setenv("PLANNER_ADDR", "127.0.0.1:2")
	t.Setenv("PLANNER_DB", "/data/x.db")
	t.Setenv("PLANNER_OSRM_URL", "http://osrm:5000")
	t.Setenv("PLANNER_DISTANCE_PROVIDER", "haversine")
	t.Setenv("PLANNER_LOG_LEVEL", "warn")
	t.Setenv("PLANNER_RESTARTS", "21")
	t.Setenv("PLANNER_NOMINATIM_URL", "http://nominatim:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2", cfg.Server.Addr)
	assert.Equal(t, "/data/x.db", cfg.Database.Path)
	assert.Equal(t, "http://osrm:5000", cfg.Distance.OSRMURL)
	assert.Equal(t, ProviderHaversine, cfg.Distance.Provider)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 21, cfg.Solver.Restarts)
	assert.Equal(t, "http://nominatim:8080", cfg.Geocoding.NominatimURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad toml", content: "[server\n"},
		{name: "bad duration", content: "[server]\nread_timeout = \"soon\"\n"},
		{name: "unknown provider", content: "[distance]\nprovider = \"google\"\n"},
		{name: "zero restarts", content: "[solver]\nrestarts = 0\n"},
		{name: "bad speed", content: "[distance]\nspeed_kph = -1\n"},
		{name: "bad log level", content: "[log]\nlevel = \"loud\"\n"},
		{name: "negative rate limit", content: "[geocoding]\nrate_limit = \"-1s\"\n"},
		{name: "bad restarts env", env: map[string]string{"PLANNER_RESTARTS": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, t.TempDir(), tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

// Package config loads planner settings from a TOML file with environment
// variable overrides.
//
// Precedence, lowest first: built-in defaults, the config file, then
// PLANNER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Distance providers
const (
	ProviderOSRM      = "osrm"
	ProviderHaversine = "haversine"
)

// Duration is a time.Duration that decodes from strings like "30s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full planner configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Distance  DistanceConfig  `toml:"distance"`
	Geocoding GeocodingConfig `toml:"geocoding"`
	Solver    SolverConfig    `toml:"solver"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path of the sqlite file; empty uses ~/.facility-planner/data.db
	Path string `toml:"path"`
}

type DistanceConfig struct {
	Provider string   `toml:"provider"`
	OSRMURL  string   `toml:"osrm_url"`
	Timeout  Duration `toml:"timeout"`
	// SpeedKPH derives durations for the haversine provider
	SpeedKPH float64 `toml:"speed_kph"`
}

// GeocodingConfig controls address lookup for sites given without coordinates
type GeocodingConfig struct {
	Enabled      bool     `toml:"enabled"`
	NominatimURL string   `toml:"nominatim_url"`
	RateLimit    Duration `toml:"rate_limit"`
}

type SolverConfig struct {
	Restarts    int `toml:"restarts"`
	Parallelism int `toml:"parallelism"`
	Workers     int `toml:"workers"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{120 * time.Second},
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Distance: DistanceConfig{
			Provider: ProviderOSRM,
			OSRMURL:  "https://router.project-osrm.org",
			Timeout:  Duration{30 * time.Second},
			SpeedKPH: 50,
		},
		Geocoding: GeocodingConfig{
			Enabled:      true,
			NominatimURL: "https://nominatim.openstreetmap.org",
			RateLimit:    Duration{time.Second},
		},
		Solver: SolverConfig{
			Restarts:    8,
			Parallelism: 4,
			Workers:     1,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An empty path reads the default config file
// if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := GetConfigFilePath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("PLANNER_ADDR", c.Server.Addr)
	c.Database.Path = getEnv("PLANNER_DB", c.Database.Path)
	c.Distance.OSRMURL = getEnv("PLANNER_OSRM_URL", c.Distance.OSRMURL)
	c.Distance.Provider = getEnv("PLANNER_DISTANCE_PROVIDER", c.Distance.Provider)
	c.Geocoding.NominatimURL = getEnv("PLANNER_NOMINATIM_URL", c.Geocoding.NominatimURL)
	c.Log.Level = getEnv("PLANNER_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("PLANNER_RESTARTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PLANNER_RESTARTS %q: %w", v, err)
		}
		c.Solver.Restarts = n
	}
	return nil
}

// Validate checks the configuration for values the planner cannot run with
func (c *Config) Validate() error {
	c.Distance.Provider = strings.ToLower(strings.TrimSpace(c.Distance.Provider))
	switch c.Distance.Provider {
	case ProviderOSRM, ProviderHaversine:
	default:
		return fmt.Errorf("unknown distance provider %q", c.Distance.Provider)
	}
	if c.Solver.Restarts < 1 {
		return fmt.Errorf("solver restarts must be at least 1, got %d", c.Solver.Restarts)
	}
	if c.Geocoding.RateLimit.Duration < 0 {
		return fmt.Errorf("geocoding rate_limit must not be negative, got %s", c.Geocoding.RateLimit)
	}
	if c.Distance.SpeedKPH <= 0 {
		return fmt.Errorf("distance speed_kph must be positive, got %v", c.Distance.SpeedKPH)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured log level
func (c *Config) LogLevel() (log.Level, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// DBPath returns the configured database path, falling back to the default location
func (c *Config) DBPath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return GetDefaultDBPath()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

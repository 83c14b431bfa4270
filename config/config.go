// Package config loads the YAML configuration of the bridge.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarNames holds the display metadata of the two synthetic
// calendars.
type CalendarNames struct {
	EventName        string `yaml:"event_name"`
	EventDescription string `yaml:"event_description"`
	TodoName         string `yaml:"todo_name"`
	TodoDescription  string `yaml:"todo_description"`
}

// Config is the top-level bridge configuration.
type Config struct {
	// DatabasePath is the sqlite database holding users and events.
	DatabasePath string `yaml:"database_path"`

	// Horizon caps the expansion of unbounded recurrence rules,
	// formatted as YYYY-MM-DD. Must stay before 2038-01-19 so the
	// resulting timestamps fit a 32-bit epoch value.
	Horizon string `yaml:"horizon"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Calendars CalendarNames `yaml:"calendars"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath: "calbridge.db",
		Horizon:      "2038-01-01",
		LogLevel:     "info",
		Calendars: CalendarNames{
			EventName:        "Kalendar",
			EventDescription: "Events added in the DMS",
			TodoName:         "Todo",
			TodoDescription:  "List of open tasks in the DMS",
		},
	}
}

// Load reads the configuration at path. A missing file is created with
// defaults so a first run leaves an editable template behind.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.HorizonTime(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to path with owner-only permissions.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// maxHorizon is the 32-bit epoch boundary; horizons at or beyond it are
// rejected.
var maxHorizon = time.Date(2038, time.January, 19, 0, 0, 0, 0, time.UTC)

// HorizonTime parses and validates the configured horizon.
func (c Config) HorizonTime() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Horizon)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse horizon %q: %w", c.Horizon, err)
	}
	if !t.Before(maxHorizon) {
		return time.Time{}, fmt.Errorf("horizon %s must be before 2038-01-19", c.Horizon)
	}
	return t, nil
}

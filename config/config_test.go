package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calbridge.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second load reads the file that was just written.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_path: /tmp/x.db\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
	assert.Equal(t, "2038-01-01", cfg.Horizon)
	assert.Equal(t, "Kalendar", cfg.Calendars.EventName)
}

func TestHorizonValidation(t *testing.T) {
	cfg := Default()
	h, err := cfg.HorizonTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2038, 1, 1, 0, 0, 0, 0, time.UTC), h)

	cfg.Horizon = "2038-01-19"
	_, err = cfg.HorizonTime()
	assert.Error(t, err, "horizon at the 32-bit boundary is rejected")

	cfg.Horizon = "not-a-date"
	_, err = cfg.HorizonTime()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "calbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: 2040-01-01\n"), 0600))
	_, err = Load(path)
	assert.Error(t, err)
}

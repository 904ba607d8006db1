package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing addresses.
	err := Validate(new(Config))
	require.Error(t, err)

	require.Error(t, Validate(nil))

	// Bad socket.
	err = Validate(&Config{
		GRPCAddress: "bad:address",
	})
	require.Error(t, err)

	// Negative limits.
	err = Validate(&Config{
		HTTPAddress:       "127.0.0.1:0",
		StatusRecentLimit: -1,
	})
	require.Error(t, err)

	// Unknown log level.
	err = Validate(&Config{
		HTTPAddress: "127.0.0.1:0",
		LogLevel:    "loud",
	})
	require.Error(t, err)

	// Only one address is enough.
	err = Validate(&Config{
		HTTPAddress: "127.0.0.1:0",
	})
	require.NoError(t, err)
}

// TestValidate_FillsDefaults verifies default values for unset fields.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	settings := &Config{
		GRPCAddress: "127.0.0.1:50051",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultRateWindow, settings.RateLimit.Window)
	require.Equal(t, DefaultRateLimit, settings.RateLimit.MaxPerWindow)
	require.Equal(t, DefaultMaxSources, settings.RateLimit.MaxSources)
	require.Equal(t, DefaultSweepInterval, settings.RateLimit.SweepInterval)
	require.Equal(t, DefaultStatusRecentLimit, settings.StatusRecentLimit)
	require.Equal(t, DefaultSchoolsFilename, settings.SchoolsFile)
	require.EqualValues(t, DefaultReportCacheBytes, settings.ReportCacheBytes)
	require.Zero(t, settings.MaxTenants)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		GRPCAddress: "127.0.0.1:50051",
		HTTPAddress: "127.0.0.1:8080",
		RateLimit: RateLimit{
			Window:       30 * time.Second,
			MaxPerWindow: 2,
		},
		MaxTenants: 10,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.GRPCAddress, loaded.GRPCAddress)
	require.Equal(t, settings.HTTPAddress, loaded.HTTPAddress)
	require.Equal(t, 30*time.Second, loaded.RateLimit.Window)
	require.Equal(t, 2, loaded.RateLimit.MaxPerWindow)
	require.Equal(t, 10, loaded.MaxTenants)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_MissingFile returns an error for a missing file.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

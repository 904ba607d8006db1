package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/panic-alert/internal/logger"
)

// Config holds the settings shared by the panic-alert binaries.
type Config struct {
	// GRPCAddress is the gRPC address of the panel service.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress is the listen address of the web API.
	HTTPAddress string `yaml:"http_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// LogFormat selects the log encoder (console or json).
	LogFormat logger.Format `yaml:"log_format"`
	// RateLimit configures per-source admission control for alert submissions.
	RateLimit RateLimit `yaml:"rate_limit"`
	// StatusRecentLimit caps the number of alerts returned by a status query.
	StatusRecentLimit int `yaml:"status_recent_limit"`
	// MaxTenants caps the number of schools held in memory; zero means unlimited.
	MaxTenants int `yaml:"max_tenants"`
	// SchoolsFile is the path to the YAML file with school metadata.
	SchoolsFile string `yaml:"schools_file"`
	// ConsolePasswordHash is the bcrypt hash guarding console routes; empty disables the check.
	ConsolePasswordHash string `yaml:"console_password_hash"`
	// ReportCacheBytes is the memory budget for rendered reports.
	ReportCacheBytes int64 `yaml:"report_cache_bytes"`
}

// RateLimit holds the sliding-window parameters.
type RateLimit struct {
	// Window is the length of the sliding window.
	Window time.Duration `yaml:"window"`
	// MaxPerWindow is the number of alerts one source may submit per window.
	MaxPerWindow int `yaml:"max_per_window"`
	// MaxSources caps the number of tracked sources.
	MaxSources int `yaml:"max_sources"`
	// SweepInterval is how often idle sources are forgotten.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "panic-alert-settings.yaml"

	// DefaultSchoolsFilename is the default filename for school metadata.
	DefaultSchoolsFilename = "panic-alert-schools.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultRateWindow is the default sliding window length.
	DefaultRateWindow = time.Minute

	// DefaultRateLimit is the default number of alerts per source per window.
	DefaultRateLimit = 30

	// DefaultMaxSources is the default number of tracked sources.
	DefaultMaxSources = 100000

	// DefaultSweepInterval is the default interval between idle-source sweeps.
	DefaultSweepInterval = time.Minute

	// DefaultStatusRecentLimit is the default number of alerts in a status snapshot.
	DefaultStatusRecentLimit = 50

	// DefaultReportCacheBytes is the default memory budget for rendered reports.
	DefaultReportCacheBytes = 32 << 20

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errListenAddressRequired is returned when neither address is configured.
	errListenAddressRequired = errors.New("grpc_addr or http_addr must be provided")
	// errNegativeValue is returned for negative limits.
	errNegativeValue = errors.New("value must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold the console password hash.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for unset values.
//
//nolint:cyclop // A flat list of independent checks.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.GRPCAddress == "" && settings.HTTPAddress == "" {
		return errListenAddressRequired
	}

	for name, addr := range map[string]string{"grpc_addr": settings.GRPCAddress, "http_addr": settings.HTTPAddress} {
		if addr == "" {
			continue
		}

		if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if settings.StatusRecentLimit < 0 {
		return fmt.Errorf("status_recent_limit: %w", errNegativeValue)
	}

	if settings.MaxTenants < 0 {
		return fmt.Errorf("max_tenants: %w", errNegativeValue)
	}

	if settings.RateLimit.MaxPerWindow < 0 || settings.RateLimit.MaxSources < 0 {
		return fmt.Errorf("rate_limit: %w", errNegativeValue)
	}

	if settings.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
			return fmt.Errorf("invalid log_level %q", settings.LogLevel)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogFormat == "" {
		settings.LogFormat = logger.FormatConsole
	}

	if settings.RateLimit.Window <= 0 {
		settings.RateLimit.Window = DefaultRateWindow
	}

	if settings.RateLimit.MaxPerWindow == 0 {
		settings.RateLimit.MaxPerWindow = DefaultRateLimit
	}

	if settings.RateLimit.MaxSources == 0 {
		settings.RateLimit.MaxSources = DefaultMaxSources
	}

	if settings.RateLimit.SweepInterval <= 0 {
		settings.RateLimit.SweepInterval = DefaultSweepInterval
	}

	if settings.StatusRecentLimit == 0 {
		settings.StatusRecentLimit = DefaultStatusRecentLimit
	}

	if settings.SchoolsFile == "" {
		settings.SchoolsFile = DefaultSchoolsFilename
	}

	if settings.ReportCacheBytes <= 0 {
		settings.ReportCacheBytes = DefaultReportCacheBytes
	}

	return nil
}

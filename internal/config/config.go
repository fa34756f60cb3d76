// Package config loads and validates the scriptsec configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/svanoort/script-security-plugin/internal/logger"
)

var cfgLog = logger.New("config")

// Config is the scriptsec configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalogs  CatalogsConfig  `yaml:"catalogs"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds management API server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	NoColor  bool   `yaml:"no_color"`
}

// CatalogsConfig holds whitelist catalog settings.
type CatalogsConfig struct {
	UserDir        string `yaml:"user_dir"`        // directory for user catalogs (default: ~/.scriptsec/whitelists.d)
	DisableBuiltin bool   `yaml:"disable_builtin"` // disable the embedded builtin catalog
	Watch          bool   `yaml:"watch"`           // reload user catalogs on file change
}

// TelemetryConfig holds denial-log settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	EncryptionKey string `yaml:"encryption_key"` // SQLCipher encryption key (empty = no encryption)
	RetentionDays int    `yaml:"retention_days"` // 0 = keep forever
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfigPath returns the default config file path (~/.scriptsec/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".scriptsec", "config.yaml")
}

// defaultDBPath returns the default denial database path under ~/.scriptsec/.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./scriptsec.db"
	}
	return filepath.Join(home, ".scriptsec", "scriptsec.db")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     7787,
			LogLevel: "info",
			NoColor:  false,
		},
		Catalogs: CatalogsConfig{
			UserDir:        "", // empty means use default ~/.scriptsec/whitelists.d
			DisableBuiltin: false,
			Watch:          true,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			DBPath:        defaultDBPath(),
			RetentionDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks all Config fields and returns a multi-error report.
// Call this AFTER CLI overrides have been applied, not during Load().
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be 1-65535 (got %d)", c.Server.Port))
	}

	if _, err := logger.ParseLevel(c.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("server.log_level: unknown log level %q (valid: trace, debug, info, warn, error)", c.Server.LogLevel))
	}

	if c.Telemetry.RetentionDays < 0 || c.Telemetry.RetentionDays > 36500 {
		errs = append(errs, fmt.Sprintf("telemetry.retention_days: must be 0-36500 (got %d)", c.Telemetry.RetentionDays))
	}

	if len(errs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for i, e := range errs {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e)
	}
	return errors.New(sb.String())
}

// isUnknownFieldError reports whether the error came from
// yaml.Decoder.KnownFields(true) rejecting an unrecognized key.
func isUnknownFieldError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found in type")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Load does NOT call Validate(): callers apply CLI overrides
// first, then call cfg.Validate() themselves.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Strict decode first so typos like "servr:" get surfaced.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if isUnknownFieldError(err) {
			cfgLog.Warn("config has unknown fields (ignored): %v", err)
			cfg = DefaultConfig()
			if err2 := yaml.Unmarshal(data, cfg); err2 != nil {
				return nil, fmt.Errorf("config parse error: %w", err2)
			}
		} else {
			return nil, fmt.Errorf("config parse error: %w", err)
		}
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Server.Port != 7787 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if !cfg.Catalogs.Watch {
		t.Errorf("hot reload should default on")
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.RetentionDays != 30 {
		t.Errorf("telemetry defaults = %+v", cfg.Telemetry)
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("missing file should yield defaults")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	text := `server:
  port: 9999
  log_level: debug
catalogs:
  disable_builtin: true
  watch: false
telemetry:
  enabled: false
`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 || cfg.Server.LogLevel != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !cfg.Catalogs.DisableBuiltin || cfg.Catalogs.Watch {
		t.Errorf("catalogs = %+v", cfg.Catalogs)
	}
	if cfg.Telemetry.Enabled {
		t.Errorf("telemetry should be disabled")
	}
	// Untouched sections keep defaults.
	if cfg.Telemetry.RetentionDays != 30 {
		t.Errorf("retention_days should keep its default, got %d", cfg.Telemetry.RetentionDays)
	}
}

func TestLoad_UnknownFieldsAreTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	text := `server:
  port: 4242
sevrer_typo:
  port: 1
`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unknown fields should warn, not fail: %v", err)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("known fields must still apply, port = %d", cfg.Server.Port)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed YAML must fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "loud" }, "server.log_level"},
		{"bad retention", func(c *Config) { c.Telemetry.RetentionDays = -1 }, "retention_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = 6001

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 6001 {
		t.Errorf("round trip lost the port, got %d", loaded.Server.Port)
	}
}

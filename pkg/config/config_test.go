package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/devsync/pkg/models"
)

// ============== Validate Tests ==============

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"port zero", func(c *Config) { c.Device.Port = 0 }, "device.port"},
		{"port too large", func(c *Config) { c.Device.Port = 70000 }, "device.port"},
		{"zero timeout", func(c *Config) { c.Device.Timeout = 0 }, "device.timeout"},
		{"factor below one", func(c *Config) { c.Device.RetryTimeoutFactor = 0.5 }, "device.retry_timeout_factor"},
		{"negative bandwidth", func(c *Config) { c.Device.BandwidthLimit = -1 }, "device.bandwidth_limit"},
		{"negative tolerance", func(c *Config) { c.Sync.TimestampTolerance = -time.Second }, "sync.timestamp_tolerance"},
		{"unknown on_timeout", func(c *Config) { c.Sync.OnTimeout = "later" }, "sync.on_timeout"},
		{"negative retries", func(c *Config) { c.Sync.MaxRetries = -1 }, "sync.max_retries"},
		{"listen port", func(c *Config) { c.Peer.ListenPort = -1 }, "peer.listen_port"},
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"rotation", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

// ============== File Tests ==============

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DataDir = "/srv/recordings"
	cfg.Device.Timeout = 45 * time.Second
	cfg.Sync.Skip = []string{"scratch/"}
	cfg.Sync.OnTimeout = "retry"

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".config-*")); len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.DataDir != cfg.DataDir {
		t.Errorf("DataDir = %q, want %q", loaded.DataDir, cfg.DataDir)
	}
	if loaded.Device.Timeout != 45*time.Second {
		t.Errorf("Device.Timeout = %v, want 45s", loaded.Device.Timeout)
	}
	if len(loaded.Sync.Skip) != 1 || loaded.Sync.Skip[0] != "scratch/" {
		t.Errorf("Sync.Skip = %v", loaded.Sync.Skip)
	}
	if loaded.Sync.OnTimeout != "retry" {
		t.Errorf("Sync.OnTimeout = %q, want retry", loaded.Sync.OnTimeout)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "device:\n  timeout: 5s\nsync:\n  on_timeout: ignore\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Device.Timeout != 5*time.Second {
		t.Errorf("Device.Timeout = %v, want 5s", cfg.Device.Timeout)
	}
	if cfg.Device.Port != 5914 {
		t.Errorf("Device.Port = %d, want default 5914", cfg.Device.Port)
	}
	if cfg.Sync.OnTimeout != "ignore" {
		t.Errorf("Sync.OnTimeout = %q, want ignore", cfg.Sync.OnTimeout)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("device: [unclosed"), 0644)
	if _, err := LoadFromFile(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("LoadFromFile(bad yaml) error = %v", err)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("output:\n  format: xml\n"), 0644)
	if _, err := LoadFromFile(invalid); err == nil {
		t.Error("LoadFromFile(invalid values) should fail")
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromFile(missing) should fail")
	}
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("device:\n  portt: 1\n"), 0644)

	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should reject unknown keys")
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, nil, 0644)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile(empty) error = %v", err)
	}
	if cfg.Device.Port != 5914 {
		t.Errorf("Device.Port = %d, want default", cfg.Device.Port)
	}
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/devsync.yaml")
	if got, _ := DefaultConfigPath(); got != "/etc/devsync.yaml" {
		t.Errorf("DefaultConfigPath() = %q, want env override", got)
	}
}

func TestLoadDefault_MissingFile(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if cfg.Sync.OnTimeout != "ask" {
		t.Errorf("OnTimeout = %q, want default", cfg.Sync.OnTimeout)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "devsync", "config.yaml")) {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}

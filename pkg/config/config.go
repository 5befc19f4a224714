package config

import (
	"fmt"
	"time"

	"github.com/sdejongh/devsync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	// DataDir is the host repository root holding project folders
	DataDir string        `yaml:"data_dir"`
	Device  DeviceConfig  `yaml:"device"`
	Sync    SyncConfig    `yaml:"sync"`
	Peer    PeerConfig    `yaml:"peer"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
}

// DeviceConfig holds settings for talking to the device
type DeviceConfig struct {
	Port               int           `yaml:"port"`
	Timeout            time.Duration `yaml:"timeout"`
	RetryTimeoutFactor float64       `yaml:"retry_timeout_factor"`
	BandwidthLimit     int64         `yaml:"bandwidth_limit"` // bytes/s for uploads, 0 = unlimited
}

// SyncConfig holds merge-related settings
type SyncConfig struct {
	Skip               []string      `yaml:"skip"`
	TimestampTolerance time.Duration `yaml:"timestamp_tolerance"`
	OnTimeout          string        `yaml:"on_timeout"`  // "ask", "retry", "ignore" or "abort"
	MaxRetries         int           `yaml:"max_retries"` // retries per file when on_timeout is "retry"
}

// PeerConfig holds settings for waiting on a device announcement
type PeerConfig struct {
	ListenPort int `yaml:"listen_port"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show a progress bar
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File       string `yaml:"file"`   // Log file path (empty = no file log)
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds the prometheus endpoint settings
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// HistoryConfig holds session history settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty = <data_dir>/.devsync/history.db
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:               5914,
			Timeout:            30 * time.Second,
			RetryTimeoutFactor: 2,
			BandwidthLimit:     0,
		},
		Sync: SyncConfig{
			Skip:               []string{"*.tmp", "*.partial"},
			TimestampTolerance: time.Second,
			OnTimeout:          "ask",
			MaxRetries:         3,
		},
		Peer: PeerConfig{
			ListenPort: 5915,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSize:    10 << 20,
			MaxBackups: 3,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return &models.ValidationError{
			Field:   "device.port",
			Message: "must be between 1 and 65535",
		}
	}

	if c.Device.Timeout <= 0 {
		return &models.ValidationError{
			Field:   "device.timeout",
			Message: "must be positive",
		}
	}

	if c.Device.RetryTimeoutFactor < 1 {
		return &models.ValidationError{
			Field:   "device.retry_timeout_factor",
			Message: "must be at least 1",
		}
	}

	if c.Device.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "device.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	if c.Sync.TimestampTolerance < 0 {
		return &models.ValidationError{
			Field:   "sync.timestamp_tolerance",
			Message: "must not be negative",
		}
	}

	validOnTimeout := map[string]bool{"ask": true, "retry": true, "ignore": true, "abort": true}
	if !validOnTimeout[c.Sync.OnTimeout] {
		return &models.ValidationError{
			Field:   "sync.on_timeout",
			Message: "must be 'ask', 'retry', 'ignore', or 'abort'",
		}
	}

	if c.Sync.MaxRetries < 0 {
		return &models.ValidationError{
			Field:   "sync.max_retries",
			Message: "must not be negative",
		}
	}

	if c.Peer.ListenPort < 0 || c.Peer.ListenPort > 65535 {
		return &models.ValidationError{
			Field:   "peer.listen_port",
			Message: "must be between 0 and 65535",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size",
			Message: fmt.Sprintf("rotation settings must not be negative (max_size %d, max_backups %d)", c.Logging.MaxSize, c.Logging.MaxBackups),
		}
	}

	return nil
}

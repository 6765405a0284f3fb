// Package config handles Roost configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for Roost.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// List settings for the conversation list.
	List ListConfig `yaml:"list" mapstructure:"list"`

	// Pins settings for the pinned row.
	Pins PinsConfig `yaml:"pins" mapstructure:"pins"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global Roost settings.
type GlobalConfig struct {
	// DataDir is where Roost stores its data (default: ~/.local/share/roost).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/roost).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ListConfig contains conversation-list settings.
type ListConfig struct {
	// PageSize is how many conversations to load per page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// BatchPageSize is the page size for batch actions over a select-all
	// selection.
	BatchPageSize int `yaml:"batch_page_size" mapstructure:"batch_page_size"`

	// SnoozeDuration is how long a batch snooze silences a conversation.
	SnoozeDuration time.Duration `yaml:"snooze_duration" mapstructure:"snooze_duration"`
}

// PinsConfig contains pinned-row settings.
type PinsConfig struct {
	// ItemWidth is the horizontal slot width used to map a drag offset to a
	// target position.
	ItemWidth float64 `yaml:"item_width" mapstructure:"item_width"`

	// UnpinThreshold is the downward drag distance that unpins on release.
	UnpinThreshold float64 `yaml:"unpin_threshold" mapstructure:"unpin_threshold"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// RefreshInterval is how often to refresh the display.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// Theme is the color theme (default, dark, light).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps shows timestamps in the UI.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`

	// CompactMode uses a more compact layout.
	CompactMode bool `yaml:"compact_mode" mapstructure:"compact_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "roost"),
			ConfigDir: filepath.Join(homeDir, ".config", "roost"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/roost.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		List: ListConfig{
			PageSize:       100,
			BatchPageSize:  50,
			SnoozeDuration: 8 * time.Hour,
		},
		Pins: PinsConfig{
			ItemWidth:      72,
			UnpinThreshold: 96,
		},
		TUI: TUIConfig{
			RefreshInterval: 500 * time.Millisecond,
			Theme:           "default",
			ShowTimestamps:  true,
			CompactMode:     false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}

	if c.List.PageSize < 1 {
		return fmt.Errorf("list.page_size must be at least 1")
	}
	if c.List.BatchPageSize < 1 {
		return fmt.Errorf("list.batch_page_size must be at least 1")
	}
	if c.List.SnoozeDuration < time.Minute {
		return fmt.Errorf("list.snooze_duration must be at least 1m")
	}

	if c.Pins.ItemWidth <= 0 {
		return fmt.Errorf("pins.item_width must be positive")
	}
	if c.Pins.UnpinThreshold <= 0 {
		return fmt.Errorf("pins.unpin_threshold must be positive")
	}

	if c.TUI.RefreshInterval < 50*time.Millisecond {
		return fmt.Errorf("tui.refresh_interval must be at least 50ms")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "roost.db")
}

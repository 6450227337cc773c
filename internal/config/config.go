package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything persisted in config.ini. The store only
// consumes the retention limits; hotkey and window settings are carried
// for the UI layer and passed through untouched.
type Config struct {
	DatabasePath         string
	MaxAgeDays           int
	MaxRecordSizeMB      int
	CleanupIntervalHours int
	MonitorIntervalMS    int
	HotkeyShow           string

	WindowOpacity   float64
	WindowWidth     int
	WindowHeight    int
	MaxDisplayItems int
	FontSize        int
}

func Default() *Config {
	return &Config{
		MaxAgeDays:           3,
		MaxRecordSizeMB:      1,
		CleanupIntervalHours: 1,
		MonitorIntervalMS:    500,
		HotkeyShow:           "<ctrl>+grave",

		WindowOpacity:   0.95,
		WindowWidth:     400,
		WindowHeight:    300,
		MaxDisplayItems: 50,
		FontSize:        12,
	}
}

// Dir returns the configuration directory (~/.config/copyu on Linux),
// creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	dir := filepath.Join(base, "copyu")
	return dir, os.MkdirAll(dir, 0755)
}

// DefaultPath returns the default config.ini location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.ini"), nil
}

// Load reads config.ini from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	setDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			config.fillDatabasePath()
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.DatabasePath = v.GetString("general.database_path")
	config.MaxAgeDays = v.GetInt("general.max_age_days")
	config.MaxRecordSizeMB = v.GetInt("general.max_record_size_mb")
	config.CleanupIntervalHours = v.GetInt("general.cleanup_interval_hours")
	config.MonitorIntervalMS = v.GetInt("general.monitor_interval_ms")
	config.HotkeyShow = v.GetString("general.hotkey_show")

	config.WindowOpacity = v.GetFloat64("ui.window_opacity")
	config.WindowWidth = v.GetInt("ui.window_width")
	config.WindowHeight = v.GetInt("ui.window_height")
	config.MaxDisplayItems = v.GetInt("ui.max_display_items")
	config.FontSize = v.GetInt("ui.font_size")

	config.validate()
	config.fillDatabasePath()

	return config, nil
}

// Save writes the configuration as config.ini.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.Set("general.database_path", c.DatabasePath)
	v.Set("general.max_age_days", c.MaxAgeDays)
	v.Set("general.max_record_size_mb", c.MaxRecordSizeMB)
	v.Set("general.cleanup_interval_hours", c.CleanupIntervalHours)
	v.Set("general.monitor_interval_ms", c.MonitorIntervalMS)
	v.Set("general.hotkey_show", c.HotkeyShow)

	v.Set("ui.window_opacity", c.WindowOpacity)
	v.Set("ui.window_width", c.WindowWidth)
	v.Set("ui.window_height", c.WindowHeight)
	v.Set("ui.max_display_items", c.MaxDisplayItems)
	v.Set("ui.font_size", c.FontSize)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("general.database_path", c.DatabasePath)
	v.SetDefault("general.max_age_days", c.MaxAgeDays)
	v.SetDefault("general.max_record_size_mb", c.MaxRecordSizeMB)
	v.SetDefault("general.cleanup_interval_hours", c.CleanupIntervalHours)
	v.SetDefault("general.monitor_interval_ms", c.MonitorIntervalMS)
	v.SetDefault("general.hotkey_show", c.HotkeyShow)

	v.SetDefault("ui.window_opacity", c.WindowOpacity)
	v.SetDefault("ui.window_width", c.WindowWidth)
	v.SetDefault("ui.window_height", c.WindowHeight)
	v.SetDefault("ui.max_display_items", c.MaxDisplayItems)
	v.SetDefault("ui.font_size", c.FontSize)
}

func (c *Config) validate() {
	defaults := Default()
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = defaults.MaxAgeDays
	}
	if c.MaxRecordSizeMB <= 0 {
		c.MaxRecordSizeMB = defaults.MaxRecordSizeMB
	}
	if c.CleanupIntervalHours <= 0 {
		c.CleanupIntervalHours = defaults.CleanupIntervalHours
	}
	if c.MonitorIntervalMS <= 0 {
		c.MonitorIntervalMS = defaults.MonitorIntervalMS
	}
	if c.MaxDisplayItems <= 0 {
		c.MaxDisplayItems = defaults.MaxDisplayItems
	}
}

func (c *Config) fillDatabasePath() {
	if c.DatabasePath != "" {
		return
	}
	if dir, err := Dir(); err == nil {
		c.DatabasePath = filepath.Join(dir, "clipboard_store.db")
	} else {
		c.DatabasePath = "clipboard_store.db"
	}
}

// The store consumes the limits below as its read-only settings contract.

func (c *Config) MaxRecordSize() int64 {
	return int64(c.MaxRecordSizeMB) * 1024 * 1024
}

func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalMS) * time.Millisecond
}

package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GenerationConfig controls the recurrence generator.
type GenerationConfig struct {
	// WindowDays is how far ahead (inclusive of today) instances are
	// generated on each pass.
	WindowDays int `mapstructure:"window_days" yaml:"window_days"`
}

// TimelineConfig controls the activity interval normalizer.
type TimelineConfig struct {
	// MergeThresholdSec is the minimum length a clamped neighbor may keep
	// before it is absorbed into the larger adjacent interval.
	MergeThresholdSec int `mapstructure:"merge_threshold_sec" yaml:"merge_threshold_sec"`
}

// NotifierConfig controls the reminder collaborator.
type NotifierConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the SQLite database file location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// DataDir holds logs and other app-owned files.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	Debug      bool             `mapstructure:"debug" yaml:"debug"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Timeline   TimelineConfig   `mapstructure:"timeline" yaml:"timeline"`
	Notifier   NotifierConfig   `mapstructure:"notifier" yaml:"notifier"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/neuropilot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "neuropilot", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := filepath.Join(".", "data")
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "neuropilot")
	}
	return &AppConfig{
		DBPath:  filepath.Join(dataDir, "neuropilot.db"),
		DataDir: dataDir,
		Generation: GenerationConfig{
			WindowDays: 14,
		},
		Timeline: TimelineConfig{
			MergeThresholdSec: 60,
		},
		Notifier: NotifierConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("generation.window_days", defaults.Generation.WindowDays)
	v.SetDefault("timeline.merge_threshold_sec", defaults.Timeline.MergeThresholdSec)
	v.SetDefault("notifier.enabled", defaults.Notifier.Enabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Generation.WindowDays <= 0 {
		cfg.Generation.WindowDays = defaults.Generation.WindowDays
	}
	if cfg.Timeline.MergeThresholdSec <= 0 {
		cfg.Timeline.MergeThresholdSec = defaults.Timeline.MergeThresholdSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("data_dir", cfg.DataDir)
	v.Set("debug", cfg.Debug)
	v.Set("generation", cfg.Generation)
	v.Set("timeline", cfg.Timeline)
	v.Set("notifier", cfg.Notifier)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

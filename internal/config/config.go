package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"yt-feed-sync/internal/model"
)

// Config holds all application configuration
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Download DownloadConfig `mapstructure:"download"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Sources  []SourceConfig `mapstructure:"sources"`
}

// PathsConfig holds filesystem locations
type PathsConfig struct {
	VideoDir string `mapstructure:"video_dir"`
	StateDir string `mapstructure:"state_dir"`
}

// ScanConfig holds feed query tuning
type ScanConfig struct {
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`
	MaxRetries          int `mapstructure:"max_retries"`
	RetryDelaySeconds   int `mapstructure:"retry_delay_seconds"`
	GapCheckLimit       int `mapstructure:"gap_check_limit"`
	InitialPerSource    int `mapstructure:"initial_per_source"`
	MaxPerSource        int `mapstructure:"max_per_source"`
}

// SyncConfig holds planning policy
type SyncConfig struct {
	FilterShorts          bool `mapstructure:"filter_shorts"`
	ShortThresholdSeconds int  `mapstructure:"short_threshold_seconds"`
	HistoryMaxEntries     int  `mapstructure:"history_max_entries"`
}

// DownloadConfig holds transfer tuning
type DownloadConfig struct {
	MaxResolution       string `mapstructure:"max_resolution"`
	MaxParallel         int    `mapstructure:"max_parallel"`
	ResumeRetentionDays int    `mapstructure:"resume_retention_days"`
}

// CleanupConfig holds housekeeping policy
type CleanupConfig struct {
	CleanupDays int `mapstructure:"cleanup_days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SourceConfig is one subscribed feed in the registry
type SourceConfig struct {
	Key          string `mapstructure:"key"`
	Name         string `mapstructure:"name"`
	Kind         string `mapstructure:"kind"`
	InitialLimit int    `mapstructure:"initial_limit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			VideoDir: defaultVideoDir(),
			StateDir: defaultStateDir(),
		},
		Scan: ScanConfig{
			QueryTimeoutSeconds: 60,
			MaxRetries:          2,
			RetryDelaySeconds:   3,
			GapCheckLimit:       10,
			InitialPerSource:    5,
			MaxPerSource:        100,
		},
		Sync: SyncConfig{
			FilterShorts:          true,
			ShortThresholdSeconds: 60,
			HistoryMaxEntries:     1000,
		},
		Download: DownloadConfig{
			MaxResolution:       "720",
			MaxParallel:         3,
			ResumeRetentionDays: 7,
		},
		Cleanup: CleanupConfig{
			CleanupDays: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultVideoDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Videos", "yt-feed-sync")
}

func defaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "yt-feed-sync")
}

func defaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "yt-feed-sync")
}

// DefaultConfigFile returns the path written by Save when no explicit path
// was given.
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// Load reads configuration from file and environment. An empty path searches
// the default locations; a missing file is fine, defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(defaultConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YTFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if strings.TrimSpace(path) != "" {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories. An
// empty path targets the default config file.
func Save(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("paths.video_dir", cfg.Paths.VideoDir)
	v.Set("paths.state_dir", cfg.Paths.StateDir)

	v.Set("scan.query_timeout_seconds", cfg.Scan.QueryTimeoutSeconds)
	v.Set("scan.max_retries", cfg.Scan.MaxRetries)
	v.Set("scan.retry_delay_seconds", cfg.Scan.RetryDelaySeconds)
	v.Set("scan.gap_check_limit", cfg.Scan.GapCheckLimit)
	v.Set("scan.initial_per_source", cfg.Scan.InitialPerSource)
	v.Set("scan.max_per_source", cfg.Scan.MaxPerSource)

	v.Set("sync.filter_shorts", cfg.Sync.FilterShorts)
	v.Set("sync.short_threshold_seconds", cfg.Sync.ShortThresholdSeconds)
	v.Set("sync.history_max_entries", cfg.Sync.HistoryMaxEntries)

	v.Set("download.max_resolution", cfg.Download.MaxResolution)
	v.Set("download.max_parallel", cfg.Download.MaxParallel)
	v.Set("download.resume_retention_days", cfg.Download.ResumeRetentionDays)

	v.Set("cleanup.cleanup_days", cfg.Cleanup.CleanupDays)

	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)

	sources := make([]map[string]any, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, map[string]any{
			"key":           s.Key,
			"name":          s.Name,
			"kind":          s.Kind,
			"initial_limit": s.InitialLimit,
		})
	}
	v.Set("sources", sources)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// QueryTimeout returns the per-attempt feed query timeout.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Scan.QueryTimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between feed query retries.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Scan.RetryDelaySeconds) * time.Second
}

// SourceList converts the registry into domain sources, dropping entries
// with blank keys or unknown kinds.
func (c *Config) SourceList() []model.Source {
	out := make([]model.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		key := strings.TrimSpace(s.Key)
		if key == "" || !model.IsKnownKind(s.Kind) {
			continue
		}
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = key
		}
		limit := s.InitialLimit
		if limit <= 0 {
			limit = c.Scan.InitialPerSource
		}
		out = append(out, model.Source{
			Key:          key,
			DisplayName:  name,
			Kind:         s.Kind,
			InitialLimit: limit,
		})
	}
	return out
}

// AddSource appends a registry entry, rejecting duplicates by key.
func (c *Config) AddSource(s SourceConfig) error {
	key := strings.TrimSpace(s.Key)
	if key == "" {
		return fmt.Errorf("source key is required")
	}
	if !model.IsKnownKind(s.Kind) {
		return fmt.Errorf("unknown source kind %q (expected %s or %s)", s.Kind, model.KindChannel, model.KindPlaylist)
	}
	for _, existing := range c.Sources {
		if strings.EqualFold(strings.TrimSpace(existing.Key), key) {
			return fmt.Errorf("source %q already exists", key)
		}
	}
	s.Key = key
	c.Sources = append(c.Sources, s)
	return nil
}

// RemoveSource deletes a registry entry by key.
func (c *Config) RemoveSource(key string) error {
	key = strings.TrimSpace(key)
	for i, existing := range c.Sources {
		if strings.EqualFold(strings.TrimSpace(existing.Key), key) {
			c.Sources = append(c.Sources[:i], c.Sources[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("source %q not found", key)
}

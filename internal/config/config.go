package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the relay configuration (mutable moderation state such as the
// join flag lives in the database, not here).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Paths      PathsConfig      `yaml:"paths"`
	Relay      RelayConfig      `yaml:"relay"`
	Moderation ModerationConfig `yaml:"moderation"`
}

// ServerConfig holds network listener settings.
type ServerConfig struct {
	RelayPort  int `yaml:"relay_port"`
	HealthPort int `yaml:"health_port"`
}

// PathsConfig holds filesystem paths for data and optional scripts.
type PathsConfig struct {
	Data         string `yaml:"data"`
	Database     string `yaml:"database"`
	FilterScript string `yaml:"filter_script"`
}

// RelayConfig holds delivery pipeline tuning.
type RelayConfig struct {
	AlbumDebounceMs int `yaml:"album_debounce_ms"`
	MaxAlbumSize    int `yaml:"max_album_size"`
	MediaChunkSize  int `yaml:"media_chunk_size"`
	SendDelayMs     int `yaml:"send_delay_ms"`
	QueueSize       int `yaml:"queue_size"`
}

// ModerationConfig holds admission policy settings.
type ModerationConfig struct {
	ModeratorID          int64 `yaml:"moderator_id"`
	RequireActivation    bool  `yaml:"require_activation"`
	ActivationThreshold  int   `yaml:"activation_threshold"`
	RecoveryBaseline     int   `yaml:"recovery_baseline"`
	InactivityWindowSecs int   `yaml:"inactivity_window_secs"`
	SweepIntervalSecs    int   `yaml:"sweep_interval_secs"`
}

// AlbumDebounce returns the debounce window for grouped media.
func (r RelayConfig) AlbumDebounce() time.Duration {
	return time.Duration(r.AlbumDebounceMs) * time.Millisecond
}

// SendDelay returns the pause between consecutive transport sends.
func (r RelayConfig) SendDelay() time.Duration {
	return time.Duration(r.SendDelayMs) * time.Millisecond
}

// InactivityWindow returns how long a user may stay quiet before the sweep
// flags them.
func (m ModerationConfig) InactivityWindow() time.Duration {
	return time.Duration(m.InactivityWindowSecs) * time.Second
}

// SweepInterval returns how often the background inactivity sweep runs.
func (m ModerationConfig) SweepInterval() time.Duration {
	return time.Duration(m.SweepIntervalSecs) * time.Second
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Default returns a config populated with the stock thresholds.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			RelayPort:  7070,
			HealthPort: 7071,
		},
		Paths: PathsConfig{
			Data:     "./data",
			Database: "./data/idnon.db",
		},
		Relay: RelayConfig{
			AlbumDebounceMs: 750,
			MaxAlbumSize:    50,
			MediaChunkSize:  10,
			SendDelayMs:     40,
			QueueSize:       256,
		},
		Moderation: ModerationConfig{
			RequireActivation:    true,
			ActivationThreshold:  12,
			RecoveryBaseline:     0,
			InactivityWindowSecs: 60,
			SweepIntervalSecs:    30,
		},
	}
}

func (c *Config) validate() error {
	if c.Relay.AlbumDebounceMs <= 0 {
		return fmt.Errorf("album_debounce_ms must be > 0")
	}
	if c.Relay.MediaChunkSize <= 0 {
		return fmt.Errorf("media_chunk_size must be > 0")
	}
	if c.Relay.MaxAlbumSize < c.Relay.MediaChunkSize {
		return fmt.Errorf("max_album_size must be >= media_chunk_size")
	}
	if c.Relay.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be > 0")
	}
	if c.Moderation.ActivationThreshold <= 0 {
		return fmt.Errorf("activation_threshold must be > 0")
	}
	if c.Moderation.RecoveryBaseline < 0 || c.Moderation.RecoveryBaseline >= c.Moderation.ActivationThreshold {
		return fmt.Errorf("recovery_baseline must be in [0, activation_threshold)")
	}
	if c.Moderation.InactivityWindowSecs <= 0 {
		return fmt.Errorf("inactivity_window_secs must be > 0")
	}
	return nil
}

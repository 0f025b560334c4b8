package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"

	FailureReport = "report"
	FailureSilent = "silent"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	ITunes   ITunesConfig   `toml:"itunes"`
	Database DatabaseConfig `toml:"database"`
	Network  NetworkConfig  `toml:"network"`
	Sync     SyncConfig     `toml:"sync"`
	Log      LogConfig      `toml:"log"`
}

// ITunesConfig contains iTunes Search API settings.
type ITunesConfig struct {
	BaseURL   string            `toml:"base_url"`
	Limit     int               `toml:"limit"`
	RateLimit float64           `toml:"rate_limit"`
	Timeout   Duration          `toml:"timeout"`
	Terms     map[string]string `toml:"terms"`
}

// DatabaseConfig contains local store settings.
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	RedisAddr     string `toml:"redis_addr"`
	RedisDB       int    `toml:"redis_db"`
	RedisPassword string `toml:"redis_password"`
}

// NetworkConfig contains connectivity probe settings.
type NetworkConfig struct {
	ProbeAddr     string   `toml:"probe_addr"`
	ProbeTimeout  Duration `toml:"probe_timeout"`
	ProbeInterval Duration `toml:"probe_interval"`
	WatchPaths    []string `toml:"watch_paths"`
}

// SyncConfig controls how fetch failures reach the view.
type SyncConfig struct {
	FetchFailure string            `toml:"fetch_failure"`
	Genres       map[string]string `toml:"genres"`
}

// LogConfig contains logger settings. File output is rotated when File is set.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Duration is a [time.Duration] that decodes from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PolicyFor returns the fetch failure policy for genre, falling back to the global setting.
func (c SyncConfig) PolicyFor(genre string) string {
	if p, ok := c.Genres[genre]; ok && p != "" {
		return p
	}
	if c.FetchFailure == "" {
		return FailureReport
	}
	return c.FetchFailure
}

// TermFor returns the search term used for genre.
func (c ITunesConfig) TermFor(genre string) string {
	if t, ok := c.Terms[genre]; ok && t != "" {
		return t
	}
	return genre
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverBolt, DriverRedis:
	default:
		return fmt.Errorf("%w: database.driver %q", ErrUnsupportedDriver, c.Database.Driver)
	}

	policies := map[string]string{"sync.fetch_failure": c.Sync.FetchFailure}
	for genre, p := range c.Sync.Genres {
		policies["sync.genres."+genre] = p
	}
	for key, p := range policies {
		switch p {
		case "", FailureReport, FailureSilent:
		default:
			return fmt.Errorf("%w: %s must be %q or %q, got %q", ErrInvalidConfig, key, FailureReport, FailureSilent, p)
		}
	}

	if c.ITunes.Limit < 0 || c.ITunes.RateLimit < 0 {
		return fmt.Errorf("%w: itunes limits must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ITunes.BaseURL) == "" {
		return fmt.Errorf("%w: itunes.base_url is required", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

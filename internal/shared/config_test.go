package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected driver sqlite, got %s", config.Database.Driver)
		}

		if config.Database.Path != "./tunecache.db" {
			t.Errorf("expected database path ./tunecache.db, got %s", config.Database.Path)
		}

		if config.ITunes.Timeout.Duration != 15*time.Second {
			t.Errorf("expected itunes timeout 15s, got %s", config.ITunes.Timeout)
		}

		if config.ITunes.TermFor("classic") != "classick" {
			t.Errorf("expected classic term classick, got %s", config.ITunes.TermFor("classic"))
		}

		if err := config.Validate(); err != nil {
			t.Errorf("embedded config should be valid: %v", err)
		}
	})

	t.Run("PolicyFor", func(t *testing.T) {
		config := DefaultConfig()

		if got := config.Sync.PolicyFor("pop"); got != FailureSilent {
			t.Errorf("expected pop policy silent, got %s", got)
		}
		if got := config.Sync.PolicyFor("rock"); got != FailureReport {
			t.Errorf("expected rock policy report, got %s", got)
		}

		empty := SyncConfig{}
		if got := empty.PolicyFor("classic"); got != FailureReport {
			t.Errorf("expected default policy report, got %s", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
driver = "bolt"
path = "/custom/path.db"

[network]
probe_timeout = "500ms"

[sync]
fetch_failure = "silent"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Driver != DriverBolt {
			t.Errorf("expected driver bolt, got %s", config.Database.Driver)
		}
		if config.Network.ProbeTimeout.Duration != 500*time.Millisecond {
			t.Errorf("expected probe timeout 500ms, got %s", config.Network.ProbeTimeout)
		}
		if config.ITunes.BaseURL == "" {
			t.Error("expected unset values to keep defaults")
		}
		if got := config.Sync.PolicyFor("rock"); got != FailureSilent {
			t.Errorf("expected rock policy silent, got %s", got)
		}
	})

	t.Run("LoadConfig rejects bad durations", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[network]\nprobe_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for bad duration")
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tc := []struct {
			name string
			body string
			want error
		}{
			{name: "driver", body: "[database]\ndriver = \"mysql\"\n", want: ErrUnsupportedDriver},
			{name: "policy", body: "[sync]\nfetch_failure = \"retry\"\n", want: ErrInvalidConfig},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tt.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				if _, err := LoadConfig(configPath); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("TUNECACHE_DATABASE_DRIVER", "redis")
		t.Setenv("TUNECACHE_ITUNES_LIMIT", "5")
		t.Setenv("TUNECACHE_ITUNES_RATE_LIMIT", "0")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("failed to apply env: %v", err)
		}

		if config.Database.Driver != DriverRedis {
			t.Errorf("expected driver redis, got %s", config.Database.Driver)
		}
		if config.ITunes.Limit != 5 {
			t.Errorf("expected limit 5, got %d", config.ITunes.Limit)
		}
		if config.ITunes.RateLimit != 0 {
			t.Errorf("expected rate limit 0, got %v", config.ITunes.RateLimit)
		}
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Setenv("TUNECACHE_ITUNES_LIMIT", "many")

		if err := ApplyEnv(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("TUNECACHE_LOG_LEVEL=debug\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("TUNECACHE_LOG_LEVEL", "")
		os.Unsetenv("TUNECACHE_LOG_LEVEL")

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("failed to load env: %v", err)
		}
		if got := os.Getenv("TUNECACHE_LOG_LEVEL"); got != "debug" {
			t.Errorf("expected debug, got %q", got)
		}
	})
}

package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "TUNECACHE_"

// LoadEnv loads KEY=VALUE pairs from the given dotenv files (".env" when none are given) into the process environment.
// Variables already set are not overridden and missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values from TUNECACHE_* environment variables.
func ApplyEnv(c *Config) error {
	strs := map[string]*string{
		"ITUNES_BASE_URL":         &c.ITunes.BaseURL,
		"DATABASE_DRIVER":         &c.Database.Driver,
		"DATABASE_PATH":           &c.Database.Path,
		"DATABASE_REDIS_ADDR":     &c.Database.RedisAddr,
		"DATABASE_REDIS_PASSWORD": &c.Database.RedisPassword,
		"NETWORK_PROBE_ADDR":      &c.Network.ProbeAddr,
		"SYNC_FETCH_FAILURE":      &c.Sync.FetchFailure,
		"LOG_LEVEL":               &c.Log.Level,
		"LOG_FILE":                &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ITUNES_LIMIT":      &c.ITunes.Limit,
		"DATABASE_REDIS_DB": &c.Database.RedisDB,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, envPrefix, key, v)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "ITUNES_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %sITUNES_RATE_LIMIT=%q", ErrInvalidConfig, envPrefix, v)
		}
		c.ITunes.RateLimit = f
	}

	return c.Validate()
}

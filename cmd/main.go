package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// loadConfig reads path when it exists and applies TUNECACHE_* overrides on top.
func loadConfig(path string) (*shared.Config, error) {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv("TUNECACHE_CONFIG"); ok && p != "" {
		configPath = p
	}

	config, err := loadConfig(configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	appLogger, closer, err := shared.NewLoggerFromConfig(nil, config.Log)
	if err != nil {
		logger.Fatalf("invalid log config: %v", err)
	}
	defer closer.Close()
	logger = appLogger

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tunecache",
		Usage:    "Offline-first music catalog cache for classic, pop & rock",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close store", "error", cerr)
	}
	if err != nil {
		closer.Close()
		logger.Fatalf("application error: %v", err)
	}
}

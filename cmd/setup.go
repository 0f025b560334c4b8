package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file when none exists and initializes the configured store.
//
// SQLite databases are migrated (or rolled back with --rollback) and their migration state is printed. Bolt and Redis
// stores are opened to verify they are reachable.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	} else if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	rollback := cmd.Bool("rollback")
	if r.driver() == shared.DriverSQLite {
		return r.setupSQLite(rollback)
	}
	if rollback {
		return fmt.Errorf("%w: --rollback requires the sqlite driver", shared.ErrInvalidFlag)
	}

	r.logger.Info("connecting to store", "driver", r.driver())
	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s store ready", r.driver()))
	for _, genre := range models.Genres() {
		n, err := store.Count(ctx, genre)
		if err != nil {
			return fmt.Errorf("failed to count %s songs: %w", genre, err)
		}
		r.writePlain("  %-8s %d songs\n", genre, n)
	}
	return nil
}

func (r *Runner) setupSQLite(rollback bool) error {
	c := r.config.Database
	r.logger.Info("initializing database", "path", c.Path)

	db, err := shared.NewDatabase(c.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, max(c.MaxOpenConns, 1), max(c.MaxIdleConns, 1))

	if rollback {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.writePlainHeader(fmt.Sprintf("Database: %s", c.Path))
	for _, s := range states {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("  %s %04d %s\n", mark, s.Version, s.Name)
	}
	r.logger.Infof("setup complete for database: %v", c.Path)
	return nil
}

// package repositories provides persistence layer implementations for cached songs and sync history.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

// SongStore is the local cache used by the sync engine and the CLI.
type SongStore interface {
	InsertAll(ctx context.Context, songs []models.Song) error                   // InsertAll upserts songs by track id as a single unit
	GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error) // GetAllByGenre returns a genre partition in first-seen order
	Get(ctx context.Context, trackID int64) (models.Song, error)                 // Get returns one song or [shared.ErrNotFound]
	DeleteGenre(ctx context.Context, genre models.Genre) (int, error)            // DeleteGenre drops a partition and reports how many songs it held
	Count(ctx context.Context, genre models.Genre) (int, error)                  // Count returns the size of a partition
	RecordRun(ctx context.Context, run models.SyncRun) error                     // RecordRun appends to the sync history
	LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error)
	Close() error
}

var (
	_ SongStore = (*SongRepository)(nil)
	_ SongStore = (*BoltSongStore)(nil)
	_ SongStore = (*RedisSongStore)(nil)
)

// Open returns the store selected by c.Driver. SQLite databases are migrated before use.
func Open(ctx context.Context, c shared.DatabaseConfig) (SongStore, error) {
	switch c.Driver {
	case "", shared.DriverSQLite:
		db, err := shared.OpenSQLite(c)
		if err != nil {
			return nil, err
		}
		return NewSongRepository(db), nil
	case shared.DriverBolt:
		return NewBoltSongStore(c.Path)
	case shared.DriverRedis:
		return NewRedisSongStore(ctx, RedisOpts{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedDriver, c.Driver)
	}
}

// validateAll checks every song before a batch write begins.
func validateAll(songs []models.Song) error {
	for _, s := range songs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// reserveSequence atomically advances the counter for table by n and returns the first reserved value.
//
// It runs inside the caller's transaction so the reservation rolls back with a failed batch.
func reserveSequence(ctx context.Context, tx *sql.Tx, table string, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO table_sequence (table_name, value) VALUES (?, ?)
		ON CONFLICT(table_name) DO UPDATE SET value = value + excluded.value
	`, table, n)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var last int64
	if err := tx.QueryRowContext(ctx, "SELECT value FROM table_sequence WHERE table_name = ?", table).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return last - int64(n) + 1, nil
}

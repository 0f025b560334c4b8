package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenSQLite(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestSongRepository(t *testing.T) {
	testSongStore(t, func(t *testing.T) SongStore {
		return NewSongRepository(setupTestDB(t))
	})

	t.Run("sequence reservations are contiguous", func(t *testing.T) {
		db := setupTestDB(t)
		ctx := context.Background()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin: %v", err)
		}
		defer tx.Rollback()

		first, err := reserveSequence(ctx, tx, "songs", 3)
		if err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}
		second, err := reserveSequence(ctx, tx, "songs", 2)
		if err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}

		if first != 1 || second != 4 {
			t.Errorf("expected blocks starting at 1 and 4, got %d and %d", first, second)
		}
	})

	t.Run("absent text violates schema", func(t *testing.T) {
		db := setupTestDB(t)

		_, err := db.Exec(`INSERT INTO songs (track_id, sequence, genre, content_advisory_rating, artwork_url_30, kind,
			track_censored_name, track_explicitness, track_name, track_view_url, artist_view_url)
			VALUES (1, 1, 'rock', '', '', '', '', '', NULL, '', '')`)
		if err == nil {
			t.Error("expected NOT NULL constraint failure")
		}
	})
}

func TestBoltSongStore(t *testing.T) {
	testSongStore(t, func(t *testing.T) SongStore {
		store, err := NewBoltSongStore(filepath.Join(t.TempDir(), "songs.bolt"))
		if err != nil {
			t.Fatalf("failed to open bolt store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.bolt")
		ctx := context.Background()

		store, err := NewBoltSongStore(path)
		if err != nil {
			t.Fatalf("failed to open bolt store: %v", err)
		}
		if err := store.InsertAll(ctx, []models.Song{song(1, models.GenreRock, "a")}); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
		store.Close()

		store, err = NewBoltSongStore(path)
		if err != nil {
			t.Fatalf("failed to reopen bolt store: %v", err)
		}
		defer store.Close()

		if n, _ := store.Count(ctx, models.GenreRock); n != 1 {
			t.Errorf("expected 1 song after reopen, got %d", n)
		}
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(ctx, shared.DatabaseConfig{Driver: shared.DriverSQLite, Path: ":memory:"})
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		defer store.Close()

		if _, ok := store.(*SongRepository); !ok {
			t.Errorf("expected *SongRepository, got %T", store)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		store, err := Open(ctx, shared.DatabaseConfig{Driver: shared.DriverBolt, Path: filepath.Join(t.TempDir(), "x.bolt")})
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		defer store.Close()

		if _, ok := store.(*BoltSongStore); !ok {
			t.Errorf("expected *BoltSongStore, got %T", store)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := Open(ctx, shared.DatabaseConfig{Driver: "mysql"}); !errors.Is(err, shared.ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}
	})
}

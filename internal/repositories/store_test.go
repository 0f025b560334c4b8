package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

func song(id int64, genre models.Genre, name string) models.Song {
	s := models.Song{
		TrackID:    id,
		ArtistName: "Artist " + name,
		TrackPrice: 1.29,
		TrackName:  models.StrPtr(name),
		Genre:      genre,
	}
	return *models.RemoveEmptyFields(&s)
}

func trackIDs(songs []models.Song) []int64 {
	ids := make([]int64, len(songs))
	for i, s := range songs {
		ids[i] = s.TrackID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testSongStore runs the behaviour every [SongStore] backend must share.
func testSongStore(t *testing.T, open func(t *testing.T) SongStore) {
	ctx := context.Background()

	t.Run("InsertAll and GetAllByGenre", func(t *testing.T) {
		store := open(t)

		batch := []models.Song{
			song(3, models.GenreRock, "c"),
			song(1, models.GenreRock, "a"),
			song(2, models.GenrePop, "b"),
		}
		if err := store.InsertAll(ctx, batch); err != nil {
			t.Fatalf("failed to insert songs: %v", err)
		}

		rock, err := store.GetAllByGenre(ctx, models.GenreRock)
		if err != nil {
			t.Fatalf("failed to get songs: %v", err)
		}
		if got := trackIDs(rock); !equalIDs(got, []int64{3, 1}) {
			t.Errorf("expected insertion order [3 1], got %v", got)
		}

		for _, s := range rock {
			if s.Genre != models.GenreRock {
				t.Errorf("expected only rock songs, got %s", s.Genre)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("read back song should be valid: %v", err)
			}
		}
		if rock[0].Title() != "c" || rock[0].ArtistName != "Artist c" {
			t.Errorf("unexpected song data: %+v", rock[0])
		}
	})

	t.Run("empty genre", func(t *testing.T) {
		store := open(t)

		songs, err := store.GetAllByGenre(ctx, models.GenreClassic)
		if err != nil {
			t.Fatalf("failed to get songs: %v", err)
		}
		if songs == nil || len(songs) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", songs)
		}
	})

	t.Run("upsert keeps first-seen order", func(t *testing.T) {
		store := open(t)

		if err := store.InsertAll(ctx, []models.Song{song(1, models.GenrePop, "one"), song(2, models.GenrePop, "two")}); err != nil {
			t.Fatalf("failed to insert songs: %v", err)
		}
		if err := store.InsertAll(ctx, []models.Song{song(3, models.GenrePop, "three"), song(1, models.GenrePop, "uno")}); err != nil {
			t.Fatalf("failed to upsert songs: %v", err)
		}

		pop, err := store.GetAllByGenre(ctx, models.GenrePop)
		if err != nil {
			t.Fatalf("failed to get songs: %v", err)
		}
		if got := trackIDs(pop); !equalIDs(got, []int64{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", got)
		}
		if pop[0].Title() != "uno" {
			t.Errorf("expected updated title uno, got %s", pop[0].Title())
		}
	})

	t.Run("genre change moves partition", func(t *testing.T) {
		store := open(t)

		if err := store.InsertAll(ctx, []models.Song{song(9, models.GenrePop, "x")}); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}
		if err := store.InsertAll(ctx, []models.Song{song(9, models.GenreRock, "x")}); err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}

		pop, _ := store.GetAllByGenre(ctx, models.GenrePop)
		rock, _ := store.GetAllByGenre(ctx, models.GenreRock)
		if len(pop) != 0 || len(rock) != 1 {
			t.Errorf("expected song moved to rock, got pop=%d rock=%d", len(pop), len(rock))
		}
	})

	t.Run("invalid batch writes nothing", func(t *testing.T) {
		store := open(t)

		bad := song(5, models.GenreRock, "bad")
		bad.TrackName = nil
		err := store.InsertAll(ctx, []models.Song{song(4, models.GenreRock, "good"), bad})
		if !errors.Is(err, models.ErrInvalidSong) {
			t.Fatalf("expected ErrInvalidSong, got %v", err)
		}

		n, err := store.Count(ctx, models.GenreRock)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no songs written, got %d", n)
		}
	})

	t.Run("Get", func(t *testing.T) {
		store := open(t)

		if err := store.InsertAll(ctx, []models.Song{song(11, models.GenreClassic, "nocturne")}); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}

		got, err := store.Get(ctx, 11)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.Title() != "nocturne" {
			t.Errorf("expected nocturne, got %s", got.Title())
		}

		if _, err := store.Get(ctx, 12); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteGenre and Count", func(t *testing.T) {
		store := open(t)

		batch := []models.Song{
			song(1, models.GenreRock, "a"),
			song(2, models.GenreRock, "b"),
			song(3, models.GenrePop, "c"),
		}
		if err := store.InsertAll(ctx, batch); err != nil {
			t.Fatalf("failed to insert songs: %v", err)
		}

		n, err := store.DeleteGenre(ctx, models.GenreRock)
		if err != nil {
			t.Fatalf("failed to delete genre: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 deleted, got %d", n)
		}

		if n, _ := store.Count(ctx, models.GenreRock); n != 0 {
			t.Errorf("expected empty rock partition, got %d", n)
		}
		if n, _ := store.Count(ctx, models.GenrePop); n != 1 {
			t.Errorf("expected pop untouched, got %d", n)
		}

		if err := store.InsertAll(ctx, []models.Song{song(1, models.GenreRock, "a")}); err != nil {
			t.Fatalf("failed to reinsert after delete: %v", err)
		}
	})

	t.Run("RecordRun and LastRuns", func(t *testing.T) {
		store := open(t)

		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		runs := []models.SyncRun{
			{Genre: models.GenreRock, Outcome: models.OutcomeSuccess, SongCount: 3, StartedAt: start, FinishedAt: start.Add(time.Second)},
			{Genre: models.GenrePop, Outcome: models.OutcomeOffline, StartedAt: start, FinishedAt: start.Add(2 * time.Second)},
			{Genre: models.GenreRock, Outcome: models.OutcomeFailed, Error: "boom", StartedAt: start, FinishedAt: start.Add(3 * time.Second)},
		}
		for _, r := range runs {
			if err := store.RecordRun(ctx, r); err != nil {
				t.Fatalf("failed to record run: %v", err)
			}
		}

		got, err := store.LastRuns(ctx, models.GenreRock, 5)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 rock runs, got %d", len(got))
		}
		if got[0].Outcome != models.OutcomeFailed || got[0].Error != "boom" {
			t.Errorf("expected most recent run first, got %+v", got[0])
		}
		if got[1].ID == "" {
			t.Error("expected generated run id")
		}
		if got[1].Duration() != time.Second {
			t.Errorf("expected 1s duration, got %s", got[1].Duration())
		}

		one, _ := store.LastRuns(ctx, models.GenreRock, 1)
		if len(one) != 1 {
			t.Errorf("expected limit to apply, got %d", len(one))
		}
	})
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

const songColumns = `track_id, genre, artist_name, collection_name, primary_genre_name, track_price,
	artwork_url_60, artwork_url_100, preview_url, content_advisory_rating, artwork_url_30, kind,
	track_censored_name, track_explicitness, track_name, track_view_url, artist_view_url`

// SongRepository implements [SongStore] on SQLite.
//
// Songs are keyed by track id. Re-inserting a known track updates its data and genre but keeps its original
// sequence, so a partition keeps the order in which tracks were first cached.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given migrated database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// InsertAll upserts songs in a single transaction. Either every song is written or none is.
func (r *SongRepository) InsertAll(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	if err := validateAll(songs); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start, err := reserveSequence(ctx, tx, "songs", len(songs))
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (`+songColumns+`, sequence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			genre = excluded.genre,
			artist_name = excluded.artist_name,
			collection_name = excluded.collection_name,
			primary_genre_name = excluded.primary_genre_name,
			track_price = excluded.track_price,
			artwork_url_60 = excluded.artwork_url_60,
			artwork_url_100 = excluded.artwork_url_100,
			preview_url = excluded.preview_url,
			content_advisory_rating = excluded.content_advisory_rating,
			artwork_url_30 = excluded.artwork_url_30,
			kind = excluded.kind,
			track_censored_name = excluded.track_censored_name,
			track_explicitness = excluded.track_explicitness,
			track_name = excluded.track_name,
			track_view_url = excluded.track_view_url,
			artist_view_url = excluded.artist_view_url,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, s := range songs {
		_, err := stmt.ExecContext(ctx,
			s.TrackID,
			string(s.Genre),
			s.ArtistName,
			s.CollectionName,
			s.PrimaryGenreName,
			s.TrackPrice,
			s.ArtworkURL60,
			s.ArtworkURL100,
			s.PreviewURL,
			s.ContentAdvisoryRating,
			s.ArtworkURL30,
			s.Kind,
			s.TrackCensoredName,
			s.TrackExplicitness,
			s.TrackName,
			s.TrackViewURL,
			s.ArtistViewURL,
			start+int64(i),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert song %d: %w", s.TrackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit songs: %w", err)
	}
	return nil
}

// GetAllByGenre returns every cached song of genre ordered by first-seen sequence
func (r *SongRepository) GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE genre = ? ORDER BY sequence, track_id`

	rows, err := r.db.QueryContext(ctx, query, string(genre))
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}
	return songs, nil
}

// Get retrieves a cached song by track id
func (r *SongRepository) Get(ctx context.Context, trackID int64) (models.Song, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE track_id = ?`, trackID)

	s, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, fmt.Errorf("%w: %d", shared.ErrNotFound, trackID)
	}
	return s, err
}

// DeleteGenre removes every cached song of genre
func (r *SongRepository) DeleteGenre(ctx context.Context, genre models.Genre) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE genre = ?", string(genre))
	if err != nil {
		return 0, fmt.Errorf("failed to delete songs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// Count returns the number of cached songs of genre
func (r *SongRepository) Count(ctx context.Context, genre models.Genre) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs WHERE genre = ?", string(genre)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database
func (r *SongRepository) Close() error {
	return r.db.Close()
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanRow reads one song in [songColumns] order.
func (r *SongRepository) scanRow(row scanner) (models.Song, error) {
	var (
		s     models.Song
		genre string
		text  [8]string
	)

	err := row.Scan(
		&s.TrackID,
		&genre,
		&s.ArtistName,
		&s.CollectionName,
		&s.PrimaryGenreName,
		&s.TrackPrice,
		&s.ArtworkURL60,
		&s.ArtworkURL100,
		&s.PreviewURL,
		&text[0],
		&text[1],
		&text[2],
		&text[3],
		&text[4],
		&text[5],
		&text[6],
		&text[7],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("failed to scan song: %w", err)
	}

	s.Genre = models.Genre(genre)
	s.ContentAdvisoryRating = &text[0]
	s.ArtworkURL30 = &text[1]
	s.Kind = &text[2]
	s.TrackCensoredName = &text[3]
	s.TrackExplicitness = &text[4]
	s.TrackName = &text[5]
	s.TrackViewURL = &text[6]
	s.ArtistViewURL = &text[7]
	return s, nil
}

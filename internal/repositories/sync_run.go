package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

// RecordRun stores a completed sync pass. A run without an id gets a generated one.
func (r *SongRepository) RecordRun(ctx context.Context, run models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO sync_runs (id, genre, outcome, song_count, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Genre),
		string(run.Outcome),
		run.SongCount,
		run.Error,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// LastRuns returns up to n runs for genre, most recent first
func (r *SongRepository) LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error) {
	query := `
		SELECT id, genre, outcome, song_count, error, started_at, finished_at
		FROM sync_runs
		WHERE genre = ?
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(genre), n)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var genre, outcome string
		if err := rows.Scan(&run.ID, &genre, &outcome, &run.SongCount, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Genre = models.Genre(genre)
		run.Outcome = models.Outcome(outcome)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return runs, nil
}

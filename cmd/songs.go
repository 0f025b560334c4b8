package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/tunecache/internal/formatter"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/urfave/cli/v3"
)

// List prints cached songs for a genre, optionally fuzzy filtered.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	genres, err := genresArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	limit := int(cmd.Int("limit"))
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	for _, genre := range genres {
		songs, err := store.GetAllByGenre(ctx, genre)
		if err != nil {
			return fmt.Errorf("failed to read %s songs: %w", genre, err)
		}

		songs = formatter.Filter(songs, cmd.String("match"))
		if limit > 0 && len(songs) > limit {
			songs = songs[:limit]
		}

		if len(genres) > 1 {
			r.writePlainln("%s", genre)
		}
		if err := formatter.WriteSongs(r.output, format, genre, songs); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes cached songs for a genre.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	genres, err := genresArg(cmd)
	if err != nil {
		return err
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	for _, genre := range genres {
		n, err := store.DeleteGenre(ctx, genre)
		if err != nil {
			return fmt.Errorf("failed to clear %s songs: %w", genre, err)
		}
		r.logger.Info("cache cleared", "genre", genre, "songs", n)
		r.writePlain("✓ %s: removed %d songs\n", genre, n)
	}
	return nil
}

// Open opens the store page of a cached song.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("track-id")
	if arg == "" {
		return fmt.Errorf("%w: track-id", shared.ErrMissingArgument)
	}
	trackID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || trackID <= 0 {
		return fmt.Errorf("%w: track-id %q", shared.ErrInvalidArgument, arg)
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	song, err := store.Get(ctx, trackID)
	if err != nil {
		return err
	}

	url := models.Str(song.TrackViewURL)
	if url == "" {
		return fmt.Errorf("%w: %s has no store page", shared.ErrNotFound, song.Title())
	}

	r.logger.Debug("opening store page", "track", trackID, "url", url)
	if err := r.openURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	r.writePlain("Opened %s - %s\n", song.ArtistName, song.Title())
	return nil
}

// genreStatus is the status report for one genre.
type genreStatus struct {
	Genre models.Genre     `json:"genre"`
	Songs int              `json:"songs"`
	Runs  []models.SyncRun `json:"runs"`
}

// statusReport is the full status output.
type statusReport struct {
	Driver string        `json:"driver"`
	Online bool          `json:"online"`
	Genres []genreStatus `json:"genres"`
}

// Status prints the cache size and recent sync history of every genre, plus current connectivity.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	n := int(cmd.Int("runs"))
	if n < 0 {
		return fmt.Errorf("%w: --runs must not be negative", shared.ErrInvalidFlag)
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	report := statusReport{Driver: r.driver(), Online: r.online(ctx)}
	var runs []models.SyncRun
	for _, genre := range models.Genres() {
		count, err := store.Count(ctx, genre)
		if err != nil {
			return fmt.Errorf("failed to count %s songs: %w", genre, err)
		}
		last, err := store.LastRuns(ctx, genre, n)
		if err != nil {
			return fmt.Errorf("failed to read %s sync runs: %w", genre, err)
		}
		if last == nil {
			last = []models.SyncRun{}
		}
		report.Genres = append(report.Genres, genreStatus{Genre: genre, Songs: count, Runs: last})
		runs = append(runs, last...)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	network := warnStyle.Render("offline")
	if report.Online {
		network = okStyle.Render("online")
	}

	r.writePlainHeader("tunecache status")
	r.writePlain("Store:   %s\n", report.Driver)
	r.writePlain("Network: %s\n\n", network)
	for _, g := range report.Genres {
		r.writePlain("  %-8s %d songs\n", g.Genre, g.Songs)
	}
	if len(runs) > 0 {
		r.writePlainln("Recent syncs")
		r.writePlain("%s", formatter.RunsToTable(runs))
	}
	return nil
}

// online reads one connectivity value. Errors count as offline.
func (r *Runner) online(ctx context.Context) bool {
	for online, err := range r.monitor.NetworkState(ctx) {
		if err != nil {
			r.logger.Debug("connectivity check failed", "err", err)
			return false
		}
		return online
	}
	return false
}

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/tunecache/internal/formatter"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/netmon"
	"github.com/desertthunder/tunecache/internal/repositories"
	"github.com/desertthunder/tunecache/internal/tasks"
	"github.com/urfave/cli/v3"
)

// engineFactory builds engines that share store, scheduler and progress channel.
func (r *Runner) engineFactory(
	ctx context.Context,
	store repositories.SongStore,
	monitor tasks.NetworkMonitor,
	scheduler tasks.Scheduler,
	prog chan<- tasks.ProgressUpdate,
	silent bool,
) tasks.EngineFactory {
	return func(genre models.Genre) (*tasks.SongEngine, error) {
		policy, err := r.policyFor(genre)
		if err != nil {
			return nil, err
		}
		if silent {
			policy = tasks.FallbackSilently
		}

		return tasks.NewGenreEngine(genre, r.service, tasks.EngineOpts{
			Monitor:   monitor,
			Store:     store,
			Recorder:  store,
			Scheduler: scheduler,
			Policy:    policy,
			Progress:  prog,
			Logger:    r.logger,
			Context:   ctx,
		})
	}
}

// Sync runs one sync pass per requested genre and prints the resulting songs.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	genres, err := genresArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	monitor := r.monitor
	if cmd.Bool("offline") {
		monitor = netmon.StaticMonitor{Online: false}
	}

	loop := tasks.NewMainLoop()
	defer loop.Close()

	prog := make(chan tasks.ProgressUpdate, 32)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for u := range prog {
			r.logger.Debug(u.Message, "phase", u.Phase, "genre", u.Genre)
		}
	}()

	quiet := cmd.Bool("quiet")
	opts := tasks.BulkSyncOpts{NumWorkers: int(cmd.Int("workers"))}
	if !quiet {
		opts.ViewFor = func(genre models.Genre) tasks.ViewContract { return NewConsoleView(r.output, genre) }
	}

	factory := r.engineFactory(ctx, store, monitor, loop, prog, cmd.Bool("silent"))
	result, err := tasks.BulkSync(ctx, prog, genres, factory, opts)
	close(prog)
	<-drained
	if err != nil && result == nil {
		return err
	}

	slices.SortFunc(result.Results, func(a, b tasks.GenreSyncResult) int {
		return cmp.Compare(slices.Index(models.Genres(), a.Genre), slices.Index(models.Genres(), b.Genre))
	})

	if outDir := cmd.String("output"); outDir != "" {
		for _, res := range result.Results {
			if res.Outcome == models.OutcomeFailed {
				continue
			}
			path, werr := formatter.WriteExport(outDir, format, res.Genre, res.Songs)
			if werr != nil {
				return werr
			}
			r.logger.Info("songs exported", "genre", res.Genre, "path", path)
		}
	} else if !quiet {
		for _, res := range result.Results {
			if res.Outcome == models.OutcomeFailed {
				continue
			}
			if len(result.Results) > 1 {
				r.writePlainln("%s", res.Genre)
			}
			if werr := formatter.WriteSongs(r.output, format, res.Genre, res.Songs); werr != nil {
				return werr
			}
		}
	}

	r.writePlainln("Synced %d genres: %d online, %d offline, %d failed",
		result.TotalGenres, result.Succeeded, result.Offline, result.Failed)

	if err != nil {
		return err
	}
	var errs []error
	for _, res := range result.Results {
		if res.Outcome == models.OutcomeFailed {
			errs = append(errs, fmt.Errorf("%s: %w", res.Genre, res.Err))
		}
	}
	return errors.Join(errs...)
}

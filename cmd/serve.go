package main

import (
	"context"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/server"
	"github.com/desertthunder/tunecache/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve exposes the cache over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	store, err := r.songStore(ctx)
	if err != nil {
		return err
	}

	loop := tasks.NewMainLoop()
	defer loop.Close()

	var sync server.SyncFunc
	if !cmd.Bool("read-only") {
		workers := int(cmd.Int("workers"))
		sync = func(ctx context.Context, genres []models.Genre) (*tasks.BulkSyncResult, error) {
			factory := r.engineFactory(ctx, store, r.monitor, loop, nil, false)
			return tasks.BulkSync(ctx, nil, genres, factory, tasks.BulkSyncOpts{NumWorkers: workers})
		}
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewSongsHandler(store, sync, r.logger))

	return server.Serve(ctx, cmd.String("addr"), router, r.logger, nil)
}

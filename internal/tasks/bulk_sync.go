package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"golang.org/x/time/rate"
)

// EngineFactory builds the engine that syncs one genre.
type EngineFactory func(genre models.Genre) (*SongEngine, error)

// BulkSyncOpts contains configuration for bulk genre syncs.
type BulkSyncOpts struct {
	// Concurrent workers (default: 3)
	NumWorkers int
	// Passes started per second (default: 1)
	RateLimit float64
	// Optional view receiving each genre's events
	ViewFor func(genre models.Genre) ViewContract
}

// GenreSyncResult is the outcome of one genre's pass.
type GenreSyncResult struct {
	Genre    models.Genre
	Outcome  models.Outcome
	Songs    []models.Song
	Err      error
	Duration time.Duration
}

// BulkSyncResult summarizes a bulk sync.
type BulkSyncResult struct {
	TotalGenres int
	Succeeded   int
	Offline     int
	Failed      int
	Results     []GenreSyncResult
}

// collector records the terminal events of one pass and forwards every event to next.
type collector struct {
	next     ViewContract
	outcome  models.Outcome
	songs    []models.Song
	err      error
	received bool
}

func (c *collector) LoadingSongs(loading bool) {
	if c.next != nil {
		c.next.LoadingSongs(loading)
	}
}

func (c *collector) SongSuccess(songs []models.Song) {
	c.received = true
	c.outcome, c.songs = models.OutcomeSuccess, songs
	if c.next != nil {
		c.next.SongSuccess(songs)
	}
}

func (c *collector) OfflineLoad(songs []models.Song) {
	c.received = true
	c.outcome, c.songs = models.OutcomeOffline, songs
	if c.next != nil {
		c.next.OfflineLoad(songs)
	}
}

// SongFailed keeps an offline outcome: the cache was still served.
func (c *collector) SongFailed(err error) {
	if !c.received {
		c.outcome = models.OutcomeFailed
	}
	c.received = true
	c.err = err
	if c.next != nil {
		c.next.SongFailed(err)
	}
}

// BulkSync runs one pass per genre concurrently with rate limiting and progress tracking.
//
// Each genre gets its own engine from factory, which is destroyed once its pass has been delivered. A genre whose
// engine cannot be built is reported as failed; the remaining genres still run.
func BulkSync(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	genres []models.Genre,
	factory EngineFactory,
	opts BulkSyncOpts,
) (*BulkSyncResult, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: engine factory", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > len(models.Genres()) {
		opts.NumWorkers = len(models.Genres())
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	result := &BulkSyncResult{
		TotalGenres: len(genres),
		Results:     make([]GenreSyncResult, 0, len(genres)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.Genre, len(genres))
	results := make(chan GenreSyncResult, len(genres))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go syncWorker(ctx, &wg, jobs, results, factory, opts)
	}

	go func() {
		defer close(jobs)
		for _, genre := range genres {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- genre
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		switch res.Outcome {
		case models.OutcomeSuccess:
			result.Succeeded++
		case models.OutcomeOffline:
			result.Offline++
		default:
			result.Failed++
		}
		sendProgress(prog, genreSyncedUpdate(len(result.Results), len(genres), res))
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("bulk sync interrupted: %w", err)
	}
	return result, nil
}

// syncWorker is a worker goroutine that syncs genres from the jobs channel.
func syncWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Genre,
	results chan<- GenreSyncResult,
	factory EngineFactory,
	opts BulkSyncOpts,
) {
	defer wg.Done()

	for genre := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- syncGenre(ctx, genre, factory, opts)
	}
}

// syncGenre runs a single pass and waits for its events to be delivered.
func syncGenre(ctx context.Context, genre models.Genre, factory EngineFactory, opts BulkSyncOpts) GenreSyncResult {
	started := time.Now()
	res := GenreSyncResult{Genre: genre, Outcome: models.OutcomeFailed}

	engine, err := factory(genre)
	if err != nil {
		res.Err = fmt.Errorf("failed to create %s engine: %w", genre, err)
		return res
	}
	defer engine.Destroy()

	c := &collector{}
	if opts.ViewFor != nil {
		c.next = opts.ViewFor(genre)
	}
	engine.InitializePresenter(c)

	if err := engine.CheckNetwork(); err != nil {
		res.Err = err
		return res
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := engine.GetSongs(); err != nil {
			res.Err = err
			return
		}
		engine.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		engine.Destroy()
		<-done
		res.Err = ctx.Err()
		res.Duration = time.Since(started)
		return res
	}

	res.Duration = time.Since(started)
	if res.Err != nil {
		return res
	}
	if c.received {
		res.Outcome, res.Songs, res.Err = c.outcome, c.songs, c.err
	}
	return res
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

var ErrEngineDestroyed = errors.New("engine destroyed")

// FailurePolicy decides whether a failed remote fetch reaches the view as SongFailed.
type FailurePolicy int

const (
	// ReportAndFallback shows the cached songs and then reports the fetch error.
	ReportAndFallback FailurePolicy = iota
	// FallbackSilently shows the cached songs only.
	FallbackSilently
)

func (p FailurePolicy) String() string {
	if p == FallbackSilently {
		return shared.FailureSilent
	}
	return shared.FailureReport
}

// ParseFailurePolicy maps a config value onto a policy. An empty value is [ReportAndFallback].
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", shared.FailureReport:
		return ReportAndFallback, nil
	case shared.FailureSilent:
		return FallbackSilently, nil
	default:
		return 0, fmt.Errorf("%w: failure policy %q", shared.ErrInvalidConfig, s)
	}
}

// State is the last view event an engine scheduled.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateOffline
	StateFailed
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateOffline:
		return "offline"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return ""
	}
}

// EngineOpts configures [NewSongEngine]. Genre, Fetch, Monitor, Store and Scheduler are required.
type EngineOpts struct {
	Genre     models.Genre
	Fetch     FetchFunc
	Monitor   NetworkMonitor
	Store     DatabaseRepository
	Scheduler Scheduler
	Policy    FailurePolicy
	Recorder  RunRecorder           // optional sync history
	Progress  chan<- ProgressUpdate // optional, never blocks the pass
	Logger    *log.Logger
	Context   context.Context // parent of every pass; defaults to [context.Background]
}

// viewRef boxes the view so a nil view can be stored atomically.
type viewRef struct {
	view ViewContract
}

// SongEngine keeps one genre of the local cache in sync with the remote catalog.
//
// A pass checks connectivity, then either refreshes the cache from the network and reads it back, or serves the
// cache as it is. Results reach the bound [ViewContract] through the [Scheduler]. The view is read once per
// dispatched event, so rebinding or clearing it takes effect for the next event.
type SongEngine struct {
	genre     models.Genre
	fetch     FetchFunc
	monitor   NetworkMonitor
	store     DatabaseRepository
	scheduler Scheduler
	policy    FailurePolicy
	recorder  RunRecorder
	progress  chan<- ProgressUpdate
	logger    *log.Logger

	view        atomic.Pointer[viewRef]
	disposables *Disposables
	destroyed   atomic.Bool

	mu    sync.Mutex
	state State
}

// NewSongEngine creates an engine from opts.
func NewSongEngine(opts EngineOpts) (*SongEngine, error) {
	switch {
	case !opts.Genre.Valid():
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownGenre, opts.Genre)
	case opts.Fetch == nil:
		return nil, fmt.Errorf("%w: fetch function", shared.ErrMissingArgument)
	case opts.Monitor == nil:
		return nil, fmt.Errorf("%w: network monitor", shared.ErrMissingArgument)
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: database repository", shared.ErrMissingArgument)
	case opts.Scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &SongEngine{
		genre:       opts.Genre,
		fetch:       opts.Fetch,
		monitor:     opts.Monitor,
		store:       opts.Store,
		scheduler:   opts.Scheduler,
		policy:      opts.Policy,
		recorder:    opts.Recorder,
		progress:    opts.Progress,
		logger:      shared.WithLogger(logger, "genre", opts.Genre),
		disposables: NewDisposables(opts.Context),
	}, nil
}

// NewGenreEngine creates an engine bound to the per-genre fetch of repo.
func NewGenreEngine(genre models.Genre, repo SongRepository, opts EngineOpts) (*SongEngine, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: song repository", shared.ErrMissingArgument)
	}
	opts.Genre = genre
	opts.Fetch = FetcherFor(repo, genre)
	return NewSongEngine(opts)
}

// Genre returns the partition this engine syncs.
func (e *SongEngine) Genre() models.Genre {
	return e.genre
}

// InitializePresenter binds view, replacing any previous one. A nil view unbinds.
func (e *SongEngine) InitializePresenter(view ViewContract) {
	if view == nil {
		e.view.Store(nil)
		return
	}
	e.view.Store(&viewRef{view: view})
}

// CheckNetwork registers the network monitor. Registering twice is harmless.
func (e *SongEngine) CheckNetwork() error {
	if e.destroyed.Load() {
		return ErrEngineDestroyed
	}
	if err := e.monitor.RegisterNetworkMonitor(); err != nil {
		return fmt.Errorf("failed to register network monitor: %w", err)
	}
	return nil
}

// GetSongs starts one sync pass in the background and returns immediately.
func (e *SongEngine) GetSongs() error {
	if e.destroyed.Load() {
		return ErrEngineDestroyed
	}

	ctx := e.disposables.Context()
	passID := shared.GenerateID()
	started := time.Now()

	e.setState(StateLoading)
	e.dispatch(ctx, func(v ViewContract) { v.LoadingSongs(true) })

	if !e.disposables.Go(func(ctx context.Context) { e.runPass(ctx, passID, started) }) {
		return ErrEngineDestroyed
	}
	return nil
}

// Wait blocks until every started pass has finished and, when the scheduler supports it, its view events have been
// delivered.
func (e *SongEngine) Wait() {
	e.disposables.Wait()
	if f, ok := e.scheduler.(interface{ Flush() }); ok {
		f.Flush()
	}
}

// Destroy unregisters the monitor, unbinds the view and cancels every in-flight pass. It does not wait for them.
// Calling it again does nothing.
func (e *SongEngine) Destroy() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}

	e.monitor.UnregisterNetworkMonitor()
	e.view.Store(nil)
	e.disposables.Dispose()

	e.mu.Lock()
	e.state = StateDestroyed
	e.mu.Unlock()
	e.logger.Debug("engine destroyed")
}

// State returns the last view event scheduled.
func (e *SongEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// InFlight returns the number of passes still running.
func (e *SongEngine) InFlight() int {
	return e.disposables.Size()
}

func (e *SongEngine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateDestroyed {
		e.state = s
	}
}

// dispatch posts fn to the scheduler. The view is resolved when fn runs, and nothing is delivered once ctx is done.
func (e *SongEngine) dispatch(ctx context.Context, fn func(ViewContract)) {
	e.scheduler.Post(func() {
		if ctx.Err() != nil {
			return
		}
		ref := e.view.Load()
		if ref == nil {
			return
		}
		fn(ref.view)
	})
}

// connected consumes the first connectivity value. Errors and empty sequences count as offline.
func (e *SongEngine) connected(ctx context.Context, logger *log.Logger) bool {
	for online, err := range e.monitor.NetworkState(ctx) {
		if err != nil {
			logger.Debug("connectivity check failed, assuming offline", "err", err)
			return false
		}
		return online
	}
	logger.Debug("no connectivity state, assuming offline")
	return false
}

func (e *SongEngine) runPass(ctx context.Context, passID string, started time.Time) {
	logger := e.logger.With("pass", passID)
	run := models.SyncRun{ID: passID, Genre: e.genre, StartedAt: started}

	sendProgress(e.progress, checkNetworkUpdate(e.genre, passID))
	online := e.connected(ctx, logger)
	if ctx.Err() != nil {
		return
	}
	if !online {
		logger.Info("offline, serving cache")
		e.loadOffline(ctx, logger, run, nil, nil)
		return
	}

	sendProgress(e.progress, fetchSongsUpdate(e.genre, passID))
	batch, err := e.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Warn("fetch failed, serving cache", "err", err, "policy", e.policy)
		var report error
		if e.policy == ReportAndFallback {
			report = err
		}
		e.loadOffline(ctx, logger, run, err, report)
		return
	}

	var fetched []models.Song
	if batch != nil {
		fetched = batch.Songs
	}
	songs := models.TagAndNormalize(e.genre, fetched)

	sendProgress(e.progress, persistSongsUpdate(e.genre, passID, len(songs)))
	if err := e.store.InsertAll(ctx, songs); err != nil {
		if ctx.Err() != nil {
			return
		}
		werr := fmt.Errorf("%w: %w", shared.ErrPersist, err)
		logger.Warn("write failed, serving cache", "err", err)
		e.loadOffline(ctx, logger, run, werr, werr)
		return
	}

	sendProgress(e.progress, readBackUpdate(e.genre, passID))
	stored, err := e.store.GetAllByGenre(ctx, e.genre)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		rerr := fmt.Errorf("%w: %w", shared.ErrStoreRead, err)
		logger.Error("read back failed", "err", err)
		e.setState(StateFailed)
		e.dispatch(ctx, func(v ViewContract) { v.SongFailed(rerr) })
		e.finish(ctx, logger, run, models.OutcomeFailed, 0, rerr)
		return
	}

	logger.Info(fmt.Sprintf("%s songs loaded", e.genre), "fetched", len(songs), "cached", len(stored))
	e.setState(StateSuccess)
	e.dispatch(ctx, func(v ViewContract) { v.SongSuccess(stored) })
	e.finish(ctx, logger, run, models.OutcomeSuccess, len(stored), nil)
}

// loadOffline serves the cached partition. cause is why the network result was not used; report, when set, is
// delivered as SongFailed after the cached songs, or joined with the read error if the cache is unreadable too.
func (e *SongEngine) loadOffline(ctx context.Context, logger *log.Logger, run models.SyncRun, cause, report error) {
	sendProgress(e.progress, loadOfflineUpdate(e.genre, run.ID, cause))

	songs, err := e.store.GetAllByGenre(ctx, e.genre)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		failure := fmt.Errorf("%w: %w", shared.ErrStoreRead, err)
		if report != nil {
			failure = errors.Join(report, failure)
		}
		logger.Error("cache read failed", "err", err)
		e.setState(StateFailed)
		e.dispatch(ctx, func(v ViewContract) { v.SongFailed(failure) })
		e.finish(ctx, logger, run, models.OutcomeFailed, 0, failure)
		return
	}

	e.setState(StateOffline)
	e.dispatch(ctx, func(v ViewContract) { v.OfflineLoad(songs) })
	if report != nil {
		e.setState(StateFailed)
		e.dispatch(ctx, func(v ViewContract) { v.SongFailed(report) })
	}
	e.finish(ctx, logger, run, models.OutcomeOffline, len(songs), cause)
}

// finish records the pass and emits the completion update.
func (e *SongEngine) finish(ctx context.Context, logger *log.Logger, run models.SyncRun, outcome models.Outcome, n int, cause error) {
	run.Outcome = outcome
	run.SongCount = n
	run.FinishedAt = time.Now()
	if cause != nil {
		run.Error = cause.Error()
	}

	if e.recorder != nil {
		if err := e.recorder.RecordRun(ctx, run); err != nil {
			logger.Warn("failed to record sync run", "err", err)
		}
	}
	sendProgress(e.progress, completedUpdate(run))
}

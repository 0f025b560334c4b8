package tasks

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/tunecache/internal/models"
)

// ViewContract is the presentation sink of a [SongEngine]. Every call arrives through the engine's [Scheduler], so
// implementations never see two callbacks at once.
type ViewContract interface {
	LoadingSongs(loading bool)       // LoadingSongs(true) opens every sync pass
	SongSuccess(songs []models.Song) // SongSuccess carries the genre partition read back after a network refresh
	OfflineLoad(songs []models.Song) // OfflineLoad carries the cached partition when the network was not used
	SongFailed(err error)            // SongFailed reports a fetch, write or read failure
}

// NetworkMonitor reports connectivity. The engine consumes only the first value of each sequence; an error or an
// empty sequence counts as offline.
type NetworkMonitor interface {
	NetworkState(ctx context.Context) iter.Seq2[bool, error]
	RegisterNetworkMonitor() error
	UnregisterNetworkMonitor()
}

// SongRepository is the remote catalog with one fetch per genre.
type SongRepository interface {
	GetClassicSongs(ctx context.Context) (*models.Songs, error)
	GetPopSongs(ctx context.Context) (*models.Songs, error)
	GetRockSongs(ctx context.Context) (*models.Songs, error)
}

// DatabaseRepository is the local cache. InsertAll upserts by track id as a unit; GetAllByGenre reads one partition.
type DatabaseRepository interface {
	InsertAll(ctx context.Context, songs []models.Song) error
	GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error)
}

// RunRecorder stores the outcome of completed passes. It is optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, run models.SyncRun) error
}

// Scheduler runs posted functions one at a time in posting order. Post reports false once the scheduler is closed.
type Scheduler interface {
	Post(fn func()) bool
}

// FetchFunc performs the remote fetch bound to one engine.
type FetchFunc func(ctx context.Context) (*models.Songs, error)

// FetcherFor binds the per-genre fetch of repo.
func FetcherFor(repo SongRepository, genre models.Genre) FetchFunc {
	switch genre {
	case models.GenreClassic:
		return repo.GetClassicSongs
	case models.GenrePop:
		return repo.GetPopSongs
	case models.GenreRock:
		return repo.GetRockSongs
	default:
		return func(context.Context) (*models.Songs, error) {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownGenre, genre)
		}
	}
}

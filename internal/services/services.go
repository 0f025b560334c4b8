// package services defines interface SongService for fetching song listings over HTTP
//
// iTunes Search API
package services

import (
	"context"

	"github.com/desertthunder/tunecache/internal/models"
)

// SongService defines the remote catalog: one batch fetch per genre.
type SongService interface {
	// GetClassicSongs fetches the classic catalog.
	GetClassicSongs(ctx context.Context) (*models.Songs, error)

	// GetPopSongs fetches the pop catalog.
	GetPopSongs(ctx context.Context) (*models.Songs, error)

	// GetRockSongs fetches the rock catalog.
	GetRockSongs(ctx context.Context) (*models.Songs, error)

	// GetSongs fetches the catalog for any supported genre.
	GetSongs(ctx context.Context, genre models.Genre) (*models.Songs, error)

	// Name returns the name of the service (e.g., "iTunes")
	Name() string
}

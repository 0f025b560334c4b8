// Package services implements the remote song catalog consumed by the sync engine.
//
// # Song Service Interface
//
// [SongService] exposes one fetch per genre plus a genre-parameterized [SongService.GetSongs]. Every call performs
// exactly one request; retries are left to the caller.
//
// # iTunes Implementation
//
// [ITunesService] queries the public iTunes Search API:
//
//	GET {base}/search?term=<term>&media=music&entity=song&limit=<n>
//
// The search term per genre is configurable (the classic catalog is searched with "classick"). Requests pass through
// a [rate.Limiter] so repeated syncs stay within the API's published request budget.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : non-2xx response or transport failure
//   - [models.ErrUnknownGenre] : genre without a search binding
package services

// Package tasks keeps the local song cache in sync with the remote catalog and reports results to a view.
//
// # Sync Pass
//
// [SongEngine.GetSongs] starts one pass for the engine's genre:
//
//  1. Check connectivity through the [NetworkMonitor] (first value only)
//  2. Online: fetch the genre, tag and normalize, upsert with [DatabaseRepository.InsertAll], read the partition back
//     and deliver it with SongSuccess
//  3. Offline, or after a failed fetch or write: deliver the cached partition with OfflineLoad
//
// A failed fetch is reported as SongFailed after the cached songs unless the engine uses [FallbackSilently]. A failed
// write is always reported. When the cache cannot be read, a single SongFailed carries every cause.
//
// # Scheduling
//
// Passes run on background goroutines owned by a [Disposables] group. View callbacks are posted to a [Scheduler]
// (usually a [MainLoop]) so the view sees them one at a time and in order. [SongEngine.Destroy] cancels in-flight
// passes and unbinds the view; nothing is delivered afterwards.
//
// # Progress Reporting
//
// Engines and [BulkSync] send [ProgressUpdate] values on an optional channel. Sends use select with default so a slow
// reader never stalls a pass.
//
// # Bulk Sync
//
// [BulkSync] runs one engine per genre with a worker pool and a rate limiter and collects each genre's outcome.
package tasks

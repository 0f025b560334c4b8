// Package repositories implements the local song cache behind the sync engine.
//
// Every backend satisfies [SongStore] and keeps songs partitioned by genre, ordered by the sequence in which a
// track was first seen. A batch write is all-or-nothing.
//
// Key Implementations:
//   - [SongRepository] : SQLite persistence with embedded migrations (default)
//   - [BoltSongStore] : single-file bbolt persistence with per-genre index buckets
//   - [RedisSongStore] : shared Redis persistence with per-genre sorted sets
//
// Sequence numbers are reserved in blocks inside the same transaction as the batch, so a failed batch never leaves
// partially ordered records behind.
package repositories

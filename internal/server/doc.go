// Package server exposes the local song cache over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recover] are the stock middleware used by the serve command.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a request with the wrong method gets a 405.
//
// # Songs API
//
// [SongsHandler] serves the cache without touching the network:
//
//	GET  /healthz               liveness
//	GET  /status?runs=N         per-genre song counts and recent sync runs
//	GET  /songs/{genre}         cached partition; ?match= fuzzy filter, ?limit=, ?format=text|table|csv|markdown|json
//	GET  /tracks/{id}           one cached song
//	POST /sync/{genre}          run a sync pass ("all" for every genre) and report the outcome
//
// Errors are JSON objects with an "error" key. Unknown genres and bad parameters answer 400, missing songs 404.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

// Package ui implements an interactive song browser using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [GenreListView] : Pick a genre
//  2. [SongListView] : Browse the genre's songs while a sync pass runs
//
// Choosing a genre builds a [tasks.SongEngine] for it and starts a pass. The engine reports to a [ProgramView], which
// turns each view callback into a [Msg] sent to the running program, so the (view) [Model] only ever changes inside
// Update. Leaving the song list destroys the engine; messages still in flight for it are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, o, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui

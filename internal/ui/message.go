package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunecache/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// Every message carries the engine generation that produced it so results of a discarded engine are ignored.
type Msg struct {
	kind MsgKind
	gen  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoading MsgKind = iota
	MsgSongsLoaded
	MsgOfflineLoaded
	MsgSongFailed
	MsgOpened
)

// loadingMsg is the constructor for [MsgLoading]
func loadingMsg(gen int, loading bool) Msg {
	return Msg{kind: MsgLoading, gen: gen, data: loading}
}

// songsLoadedMsg is the constructor for [MsgSongsLoaded]
func songsLoadedMsg(gen int, songs []models.Song) Msg {
	return Msg{kind: MsgSongsLoaded, gen: gen, data: songs}
}

// offlineLoadedMsg is the constructor for [MsgOfflineLoaded]
func offlineLoadedMsg(gen int, songs []models.Song) Msg {
	return Msg{kind: MsgOfflineLoaded, gen: gen, data: songs}
}

// songFailedMsg is the constructor for [MsgSongFailed]
func songFailedMsg(gen int, err error) Msg {
	return Msg{kind: MsgSongFailed, gen: gen, data: err}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/tasks"
)

var _ tasks.ViewContract = (*ProgramView)(nil)

// ProgramView forwards engine callbacks to a bubbletea program as [Msg] values.
type ProgramView struct {
	send func(tea.Msg)
	gen  int
}

func (v *ProgramView) LoadingSongs(loading bool) { v.send(loadingMsg(v.gen, loading)) }

func (v *ProgramView) SongSuccess(songs []models.Song) { v.send(songsLoadedMsg(v.gen, songs)) }

func (v *ProgramView) OfflineLoad(songs []models.Song) { v.send(offlineLoadedMsg(v.gen, songs)) }

func (v *ProgramView) SongFailed(err error) { v.send(songFailedMsg(v.gen, err)) }

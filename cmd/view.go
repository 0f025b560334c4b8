package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/tasks"
)

var (
	_ tasks.ViewContract = (*ConsoleView)(nil)

	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	dimStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

// ConsoleView prints one status line per engine callback.
type ConsoleView struct {
	w     io.Writer
	genre models.Genre
}

func NewConsoleView(w io.Writer, genre models.Genre) *ConsoleView {
	return &ConsoleView{w: w, genre: genre}
}

func (v *ConsoleView) LoadingSongs(loading bool) {
	if loading {
		fmt.Fprintln(v.w, dimStyle.Render(fmt.Sprintf("⟳ %s: syncing...", v.genre)))
	}
}

func (v *ConsoleView) SongSuccess(songs []models.Song) {
	fmt.Fprintln(v.w, okStyle.Render(fmt.Sprintf("✓ %s: %d songs up to date", v.genre, len(songs))))
}

func (v *ConsoleView) OfflineLoad(songs []models.Song) {
	fmt.Fprintln(v.w, warnStyle.Render(fmt.Sprintf("! %s: offline, %d cached songs", v.genre, len(songs))))
}

func (v *ConsoleView) SongFailed(err error) {
	fmt.Fprintln(v.w, errStyle.Render(fmt.Sprintf("✗ %s: %v", v.genre, err)))
}

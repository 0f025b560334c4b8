package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tunecache/internal/models"
)

var styles = newTheme()

// theme holds the browser's styles. Each genre has its own accent for the song list title.
type theme struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
	accent map[models.Genre]lipgloss.Color
}

func newTheme() theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }

	return theme{
		title: fg("#FAFAFA").Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
		ok:    fg("#04B575").Bold(true),
		err:   fg("#FF5F5F").Bold(true),
		warn:  fg("#FFA500"),
		dim:   fg("#626262").Italic(true),
		accent: map[models.Genre]lipgloss.Color{
			models.GenreClassic: lipgloss.Color("#B8860B"),
			models.GenrePop:     lipgloss.Color("#FF69B4"),
			models.GenreRock:    lipgloss.Color("#DC143C"),
		},
	}
}

// genreTitle styles the song list title for genre, falling back to the default title.
func (t theme) genreTitle(g models.Genre) lipgloss.Style {
	c, ok := t.accent[g]
	if !ok {
		return t.title
	}
	return t.title.Background(c)
}

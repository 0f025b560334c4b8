package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tunecache/internal/models"
)

var (
	_ list.Item = genreItem{}
	_ list.Item = songItem{}
)

// genreItem wraps [models.Genre] to implement [list.Item].
type genreItem struct {
	genre models.Genre
}

func (i genreItem) FilterValue() string { return i.genre.String() }
func (i genreItem) Title() string       { return i.genre.String() }
func (i genreItem) Description() string { return fmt.Sprintf("Sync and browse %s songs", i.genre) }

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title() + " " + i.song.ArtistName }
func (i songItem) Title() string       { return i.song.Title() }
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.song.ArtistName, i.song.Price())
	if i.song.CollectionName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.CollectionName)
	}
	return desc
}

package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/desertthunder/tunecache/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GenreListView ViewState = iota
	SongListView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	factory tasks.EngineFactory
	send    func(tea.Msg)
	open    func(string) error

	engine *tasks.SongEngine
	gen    int
	genre  models.Genre

	width     int
	height    int
	genreList list.Model
	songList  list.Model
	loading   bool
	offline   bool
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model that builds one engine per chosen genre with factory.
func NewModel(ctx context.Context, factory tasks.EngineFactory) *Model {
	items := make([]list.Item, 0, len(models.Genres()))
	for _, g := range models.Genres() {
		items = append(items, genreItem{genre: g})
	}
	genres := list.New(items, list.NewDefaultDelegate(), 0, 0)
	genres.Title = "Genres"
	genres.Styles.Title = styles.title

	return &Model{
		ctx:       ctx,
		view:      GenreListView,
		factory:   factory,
		send:      func(tea.Msg) {},
		open:      shared.OpenBrowser,
		genreList: genres,
		songList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// SetSender sets where engine callbacks are delivered, usually [tea.Program.Send].
func (m *Model) SetSender(send func(tea.Msg)) {
	m.send = send
}

// SetOpener replaces the function used to open a song's store page.
func (m *Model) SetOpener(open func(string) error) {
	m.open = open
}

// Close destroys the active engine, if any.
func (m *Model) Close() {
	m.stopEngine()
}

// Init implements [tea.Model]. Nothing is loaded until a genre is chosen.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.genreList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GenreListView:
			return m.handleGenreListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case GenreListView:
		return m.renderGenreList()
	case SongListView:
		return m.renderSongList()
	default:
		return ""
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	if msg.kind == MsgOpened {
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
		}
		return m, nil
	}
	if msg.gen != m.gen || m.engine == nil {
		return m, nil
	}

	switch msg.kind {
	case MsgLoading:
		m.loading, _ = msg.data.(bool)
		if m.loading {
			m.err = nil
		}
	case MsgSongsLoaded:
		m.loading, m.offline = false, false
		return m, m.setSongs(msg.data.([]models.Song))
	case MsgOfflineLoaded:
		m.loading, m.offline = false, true
		return m, m.setSongs(msg.data.([]models.Song))
	case MsgSongFailed:
		m.loading = false
		m.err, _ = msg.data.(error)
	}
	return m, nil
}

func (m *Model) setSongs(songs []models.Song) tea.Cmd {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return m.songList.SetItems(items)
}

func (m *Model) handleGenreListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.genreList.SettingFilter() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.genreList.SelectedItem().(genreItem); ok {
			m.startSync(item.genre)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.SettingFilter() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.songList.IsFiltered() {
			return m.updateLists(msg)
		}
		m.stopEngine()
		m.view = GenreListView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.openSong(item.song)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GenreListView:
		m.genreList, cmd = m.genreList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

// startSync replaces the active engine with one for genre and starts a pass.
func (m *Model) startSync(genre models.Genre) {
	m.stopEngine()

	engine, err := m.factory(genre)
	if err != nil {
		m.err = fmt.Errorf("failed to start %s sync: %w", genre, err)
		return
	}
	engine.InitializePresenter(&ProgramView{send: m.send, gen: m.gen})
	if err := engine.CheckNetwork(); err != nil {
		engine.Destroy()
		m.err = err
		return
	}

	m.engine = engine
	m.genre = genre
	m.view = SongListView
	m.offline = false
	m.err = nil
	m.songList.SetItems(nil)
	m.songList.Title = fmt.Sprintf("%s songs", genre)
	m.songList.Styles.Title = styles.genreTitle(genre)
	m.refresh()
}

func (m *Model) refresh() {
	if m.engine == nil {
		return
	}
	if err := m.engine.GetSongs(); err != nil {
		m.err = err
	}
}

// stopEngine destroys the active engine and moves to a new generation so its pending messages are dropped.
func (m *Model) stopEngine() {
	if m.engine != nil {
		m.engine.Destroy()
		m.engine = nil
	}
	m.gen++
	m.loading = false
}

func (m *Model) openSong(song models.Song) tea.Cmd {
	url := models.Str(song.TrackViewURL)
	open := m.open
	return func() tea.Msg {
		if url == "" {
			return openedMsg(fmt.Errorf("%w: %s has no store page", shared.ErrNotFound, song.Title()))
		}
		return openedMsg(open(url))
	}
}

func (m *Model) status() string {
	switch {
	case m.loading:
		return styles.dim.Render(fmt.Sprintf("Syncing %s...", m.genre))
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.offline:
		return styles.warn.Render("Offline: showing cached songs")
	default:
		return styles.ok.Render(fmt.Sprintf("✓ %d songs up to date", len(m.songList.Items())))
	}
}

func (m *Model) renderGenreList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if m.err != nil {
		return fmt.Sprintf("%s\n%s\n\n%s", m.genreList.View(), styles.err.Render(fmt.Sprintf("Error: %v", m.err)), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.genreList.View(), helpView)
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.open, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.songList.View(), m.status(), helpView)
}

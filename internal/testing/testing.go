// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
)

// Song builds a normalized song for tests.
func Song(id int64, genre models.Genre, name string) models.Song {
	s := models.Song{
		TrackID:    id,
		ArtistName: "Artist " + name,
		TrackPrice: 0.99,
		TrackName:  models.StrPtr(name),
		Genre:      genre,
	}
	return *models.RemoveEmptyFields(&s)
}

// RawSong builds a song as the remote source returns it: no genre and absent optional text.
func RawSong(id int64, name string) models.Song {
	return models.Song{TrackID: id, ArtistName: "Artist " + name, TrackName: models.StrPtr(name)}
}

// MockSongService is a test double for [services.SongService]
type MockSongService struct {
	mu     sync.Mutex
	Songs  map[models.Genre]*models.Songs
	Err    error
	Calls  []models.Genre
	Before func(ctx context.Context, genre models.Genre) // Before runs before each fetch returns
}

func (m *MockSongService) GetClassicSongs(ctx context.Context) (*models.Songs, error) {
	return m.GetSongs(ctx, models.GenreClassic)
}

func (m *MockSongService) GetPopSongs(ctx context.Context) (*models.Songs, error) {
	return m.GetSongs(ctx, models.GenrePop)
}

func (m *MockSongService) GetRockSongs(ctx context.Context) (*models.Songs, error) {
	return m.GetSongs(ctx, models.GenreRock)
}

func (m *MockSongService) GetSongs(ctx context.Context, genre models.Genre) (*models.Songs, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, genre)
	before := m.Before
	m.mu.Unlock()

	if before != nil {
		before(ctx, genre)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if songs, ok := m.Songs[genre]; ok {
		return songs, nil
	}
	return &models.Songs{Songs: []models.Song{}}, nil
}

func (m *MockSongService) Name() string { return "mock" }

// CallCount returns how many fetches were made.
func (m *MockSongService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MemoryStore is an in-memory song cache with injectable failures.
type MemoryStore struct {
	mu       sync.Mutex
	songs    map[int64]models.Song
	order    []int64
	runs     []models.SyncRun
	WriteErr error
	ReadErr  error
	Writes   int
	Reads    int
}

// NewMemoryStore creates an empty store seeded with songs.
func NewMemoryStore(seed ...models.Song) *MemoryStore {
	m := &MemoryStore{songs: make(map[int64]models.Song)}
	for _, s := range seed {
		m.put(s)
	}
	return m
}

func (m *MemoryStore) put(s models.Song) {
	if _, ok := m.songs[s.TrackID]; !ok {
		m.order = append(m.order, s.TrackID)
	}
	m.songs[s.TrackID] = s
}

func (m *MemoryStore) InsertAll(ctx context.Context, songs []models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	for _, s := range songs {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, s := range songs {
		m.put(s)
	}
	return nil
}

func (m *MemoryStore) GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	out := []models.Song{}
	for _, id := range m.order {
		if s := m.songs[id]; s.Genre == genre {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, trackID int64) (models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.songs[trackID]
	if !ok {
		return models.Song{}, fmt.Errorf("%w: %d", shared.ErrNotFound, trackID)
	}
	return s, nil
}

func (m *MemoryStore) DeleteGenre(ctx context.Context, genre models.Genre) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	m.order = slices.DeleteFunc(m.order, func(id int64) bool {
		if m.songs[id].Genre == genre {
			delete(m.songs, id)
			n++
			return true
		}
		return false
	})
	return n, nil
}

func (m *MemoryStore) Count(ctx context.Context, genre models.Genre) (int, error) {
	songs, err := m.GetAllByGenre(ctx, genre)
	return len(songs), err
}

func (m *MemoryStore) RecordRun(ctx context.Context, run models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemoryStore) LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		if m.runs[i].Genre == genre {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// Runs returns every recorded run in insertion order.
func (m *MemoryStore) Runs() []models.SyncRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.runs)
}

// Event kinds recorded by [RecordingView].
const (
	EventLoading = "loading"
	EventSuccess = "success"
	EventOffline = "offline"
	EventFailed  = "failed"
)

// Event is one callback received by [RecordingView].
type Event struct {
	Kind    string
	Loading bool
	Songs   []models.Song
	Err     error
}

// RecordingView records every view callback in order. OnEvent, when set, runs after each record.
type RecordingView struct {
	mu      sync.Mutex
	events  []Event
	OnEvent func(Event)
}

func (v *RecordingView) record(e Event) {
	v.mu.Lock()
	v.events = append(v.events, e)
	hook := v.OnEvent
	v.mu.Unlock()

	if hook != nil {
		hook(e)
	}
}

func (v *RecordingView) LoadingSongs(loading bool) {
	v.record(Event{Kind: EventLoading, Loading: loading})
}

func (v *RecordingView) SongSuccess(songs []models.Song) {
	v.record(Event{Kind: EventSuccess, Songs: songs})
}

func (v *RecordingView) OfflineLoad(songs []models.Song) {
	v.record(Event{Kind: EventOffline, Songs: songs})
}

func (v *RecordingView) SongFailed(err error) {
	v.record(Event{Kind: EventFailed, Err: err})
}

// Events returns a copy of the recorded events.
func (v *RecordingView) Events() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.events)
}

// Kinds returns the recorded event kinds in order.
func (v *RecordingView) Kinds() []string {
	events := v.Events()
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// MockMonitor is a test double for a network monitor. NetworkState yields States in order, then Err if set.
type MockMonitor struct {
	mu           sync.Mutex
	States       []bool
	Err          error
	registered   int
	unregistered int
}

func (m *MockMonitor) NetworkState(ctx context.Context) iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		for _, s := range m.States {
			if !yield(s, nil) {
				return
			}
		}
		if m.Err != nil {
			yield(false, m.Err)
		}
	}
}

func (m *MockMonitor) RegisterNetworkMonitor() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered++
	return nil
}

func (m *MockMonitor) UnregisterNetworkMonitor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregistered++
}

// Registrations returns how many times register and unregister were called.
func (m *MockMonitor) Registrations() (registered, unregistered int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered, m.unregistered
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

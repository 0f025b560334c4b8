package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunecache/internal/formatter"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/desertthunder/tunecache/internal/tasks"
)

// Catalog is the read side of the song cache.
type Catalog interface {
	GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error)
	Get(ctx context.Context, trackID int64) (models.Song, error)
	Count(ctx context.Context, genre models.Genre) (int, error)
	LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error)
}

// SyncFunc runs one sync pass per genre.
type SyncFunc func(ctx context.Context, genres []models.Genre) (*tasks.BulkSyncResult, error)

// SongsHandler serves cached songs and triggers sync passes.
//
// Reads never touch the network. POST /sync/{genre} runs a pass and answers with its outcome.
type SongsHandler struct {
	catalog Catalog
	sync    SyncFunc
	logger  *log.Logger
	mux     *http.ServeMux
}

// NewSongsHandler creates a handler over catalog. A nil sync disables the sync route.
func NewSongsHandler(catalog Catalog, sync SyncFunc, logger *log.Logger) *SongsHandler {
	h := &SongsHandler{catalog: catalog, sync: sync, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /status", h.status)
	h.mux.HandleFunc("GET /songs/{genre}", h.songs)
	h.mux.HandleFunc("GET /tracks/{id}", h.track)
	h.mux.HandleFunc("POST /sync/{genre}", h.syncGenres)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *SongsHandler) Routes() []string {
	return []string{"GET /healthz", "GET /status", "GET /songs/{genre}", "GET /tracks/{id}", "POST /sync/{genre}"}
}

func (h *SongsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *SongsHandler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// genreStatus is one genre's entry in the status response.
type genreStatus struct {
	Genre models.Genre     `json:"genre"`
	Songs int              `json:"songs"`
	Runs  []models.SyncRun `json:"runs"`
}

func (h *SongsHandler) status(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "runs", 3)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]genreStatus, 0, len(models.Genres()))
	for _, genre := range models.Genres() {
		count, err := h.catalog.Count(r.Context(), genre)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: %w", shared.ErrStoreRead, err))
			return
		}
		runs, err := h.catalog.LastRuns(r.Context(), genre, n)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: %w", shared.ErrStoreRead, err))
			return
		}
		if runs == nil {
			runs = []models.SyncRun{}
		}
		out = append(out, genreStatus{Genre: genre, Songs: count, Runs: runs})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *SongsHandler) songs(w http.ResponseWriter, r *http.Request) {
	genre, err := models.ParseGenre(r.PathValue("genre"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	songs, err := h.catalog.GetAllByGenre(r.Context(), genre)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %w", shared.ErrStoreRead, err))
		return
	}
	songs = formatter.Filter(songs, r.URL.Query().Get("match"))
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}

	if r.URL.Query().Get("format") == "" {
		h.writeJSON(w, http.StatusOK, nonNil(songs))
		return
	}

	data, err := formatter.Songs(format, genre, songs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *SongsHandler) track(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, fmt.Errorf("%w: track id %q", shared.ErrInvalidArgument, r.PathValue("id")))
		return
	}

	song, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, song)
}

// syncResult is the JSON form of [tasks.GenreSyncResult].
type syncResult struct {
	Genre    models.Genre   `json:"genre"`
	Outcome  models.Outcome `json:"outcome"`
	Songs    int            `json:"songs"`
	Error    string         `json:"error,omitempty"`
	Duration string         `json:"duration"`
}

type syncResponse struct {
	Succeeded int          `json:"succeeded"`
	Offline   int          `json:"offline"`
	Failed    int          `json:"failed"`
	Results   []syncResult `json:"results"`
}

func (h *SongsHandler) syncGenres(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		http.Error(w, "sync disabled", http.StatusNotImplemented)
		return
	}

	var genres []models.Genre
	if arg := r.PathValue("genre"); arg == "all" {
		genres = models.Genres()
	} else {
		genre, err := models.ParseGenre(arg)
		if err != nil {
			h.writeError(w, err)
			return
		}
		genres = []models.Genre{genre}
	}

	result, err := h.sync(r.Context(), genres)
	if result == nil {
		h.writeError(w, err)
		return
	}

	resp := syncResponse{Succeeded: result.Succeeded, Offline: result.Offline, Failed: result.Failed}
	for _, res := range result.Results {
		sr := syncResult{
			Genre:    res.Genre,
			Outcome:  res.Outcome,
			Songs:    len(res.Songs),
			Duration: res.Duration.String(),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		resp.Results = append(resp.Results, sr)
	}

	code := http.StatusOK
	if result.Failed > 0 || err != nil {
		code = http.StatusBadGateway
	}
	h.writeJSON(w, code, resp)
}

func (h *SongsHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code and writes it as {"error": ...}.
func (h *SongsHandler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, models.ErrUnknownGenre),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidFlag):
		code = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", shared.ErrInvalidFlag, name, v)
	}
	return n, nil
}

func contentType(f formatter.Format) string {
	switch f {
	case formatter.FormatJSON:
		return "application/json"
	case formatter.FormatCSV:
		return "text/csv; charset=utf-8"
	case formatter.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func nonNil(songs []models.Song) []models.Song {
	if songs == nil {
		return []models.Song{}
	}
	return songs
}

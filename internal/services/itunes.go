package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultITunesBaseURL = "https://itunes.apple.com"
	defaultLimit         = 50
	defaultTimeout       = 15 * time.Second
)

// ITunesOpts configures [NewITunesService]. Zero values fall back to defaults.
type ITunesOpts struct {
	BaseURL    string
	Limit      int
	RateLimit  float64 // requests per second; 0 disables the limiter
	Timeout    time.Duration
	Terms      map[models.Genre]string
	HTTPClient *http.Client
}

// ITunesOptsFromConfig converts the [shared.ITunesConfig] section.
func ITunesOptsFromConfig(c shared.ITunesConfig) ITunesOpts {
	terms := make(map[models.Genre]string, len(c.Terms))
	for _, g := range models.Genres() {
		terms[g] = c.TermFor(string(g))
	}
	return ITunesOpts{
		BaseURL:   c.BaseURL,
		Limit:     c.Limit,
		RateLimit: c.RateLimit,
		Timeout:   c.Timeout.Duration,
		Terms:     terms,
	}
}

// ITunesService implements [SongService] against the iTunes Search API.
type ITunesService struct {
	baseURL    string
	limit      int
	terms      map[models.Genre]string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewITunesService creates a new iTunes service instance.
func NewITunesService(opts ITunesOpts) *ITunesService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultITunesBaseURL
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	terms := map[models.Genre]string{
		models.GenreClassic: "classick",
		models.GenrePop:     "pop",
		models.GenreRock:    "rock",
	}
	for g, t := range opts.Terms {
		if t != "" {
			terms[g] = t
		}
	}

	return &ITunesService{
		baseURL:    opts.BaseURL,
		limit:      opts.Limit,
		terms:      terms,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: opts.HTTPClient,
	}
}

// Name returns the service name.
func (s *ITunesService) Name() string {
	return "iTunes"
}

// GetClassicSongs fetches the classic catalog.
func (s *ITunesService) GetClassicSongs(ctx context.Context) (*models.Songs, error) {
	return s.GetSongs(ctx, models.GenreClassic)
}

// GetPopSongs fetches the pop catalog.
func (s *ITunesService) GetPopSongs(ctx context.Context) (*models.Songs, error) {
	return s.GetSongs(ctx, models.GenrePop)
}

// GetRockSongs fetches the rock catalog.
func (s *ITunesService) GetRockSongs(ctx context.Context) (*models.Songs, error) {
	return s.GetSongs(ctx, models.GenreRock)
}

// GetSongs searches with the term bound to genre.
func (s *ITunesService) GetSongs(ctx context.Context, genre models.Genre) (*models.Songs, error) {
	term, ok := s.terms[genre]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownGenre, genre)
	}
	return s.Search(ctx, term)
}

// Search performs a song search for term.
//
// Calls GET /search?term=<term>&media=music&entity=song&limit=<n>
func (s *ITunesService) Search(ctx context.Context, term string) (*models.Songs, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(s.limit))

	var result models.Songs
	if err := s.doRequest(ctx, "/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	if result.Songs == nil {
		result.Songs = []models.Song{}
	}
	return &result, nil
}

func (s *ITunesService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			ErrorMessage string `json:"errorMessage"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorMessage != "" {
			return fmt.Errorf("%w: itunes status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.ErrorMessage)
		}
		return fmt.Errorf("%w: itunes status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

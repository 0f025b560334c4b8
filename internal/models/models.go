// package models defines the data model for the offline-first song catalog
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownGenre = errors.New("unknown genre")
	ErrInvalidSong  = errors.New("invalid song")
)

// Genre is the partition key for cached songs.
type Genre string

const (
	GenreClassic Genre = "classic"
	GenrePop     Genre = "pop"
	GenreRock    Genre = "rock"
)

// Genres returns every supported genre in display order.
func Genres() []Genre {
	return []Genre{GenreClassic, GenrePop, GenreRock}
}

func (g Genre) String() string { return string(g) }

// Valid reports whether g is one of the supported genres.
func (g Genre) Valid() bool {
	switch g {
	case GenreClassic, GenrePop, GenreRock:
		return true
	default:
		return false
	}
}

// ParseGenre resolves a user supplied genre name. Matching is case-insensitive and "classical" is accepted for
// [GenreClassic].
func ParseGenre(s string) (Genre, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classic", "classical":
		return GenreClassic, nil
	case "pop":
		return GenrePop, nil
	case "rock":
		return GenreRock, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGenre, s)
	}
}

// Song is a single track record. Field names follow the iTunes Search API so a response body decodes directly.
//
// The pointer fields may be absent on the wire; after [RemoveEmptyFields] they are always non-nil.
type Song struct {
	TrackID          int64   `json:"trackId"`
	ArtistName       string  `json:"artistName"`
	CollectionName   string  `json:"collectionName,omitempty"`
	PrimaryGenreName string  `json:"primaryGenreName,omitempty"`
	TrackPrice       float64 `json:"trackPrice"`
	ArtworkURL60     string  `json:"artworkUrl60"`
	ArtworkURL100    string  `json:"artworkUrl100"`
	PreviewURL       string  `json:"previewUrl"`

	ContentAdvisoryRating *string `json:"contentAdvisoryRating"`
	ArtworkURL30          *string `json:"artworkUrl30"`
	Kind                  *string `json:"kind"`
	TrackCensoredName     *string `json:"trackCensoredName"`
	TrackExplicitness     *string `json:"trackExplicitness"`
	TrackName             *string `json:"trackName"`
	TrackViewURL          *string `json:"trackViewUrl"`
	ArtistViewURL         *string `json:"artistViewUrl"`

	Genre Genre `json:"genre"`
}

// Songs is the batch wrapper returned by a remote fetch.
type Songs struct {
	ResultCount int    `json:"resultCount"`
	Songs       []Song `json:"results"`
}

// optionalFields lists the pointers to every optional text attribute of s.
func (s *Song) optionalFields() []**string {
	return []**string{
		&s.ContentAdvisoryRating,
		&s.ArtworkURL30,
		&s.Kind,
		&s.TrackCensoredName,
		&s.TrackExplicitness,
		&s.TrackName,
		&s.TrackViewURL,
		&s.ArtistViewURL,
	}
}

// RemoveEmptyFields replaces every absent optional text attribute with an empty string. It mutates and returns s.
// Applying it twice yields the same record.
func RemoveEmptyFields(s *Song) *Song {
	if s == nil {
		return nil
	}
	for _, f := range s.optionalFields() {
		if *f == nil || **f == "" {
			*f = new(string)
		}
	}
	return s
}

// TagAndNormalize returns a copy of songs with genre assigned and every record normalized. The input is not mutated.
func TagAndNormalize(genre Genre, songs []Song) []Song {
	out := make([]Song, len(songs))
	for i, s := range songs {
		s.Genre = genre
		RemoveEmptyFields(&s)
		out[i] = s
	}
	return out
}

// Validate checks that s can be persisted: a non-zero track id, a known genre and no absent optional text.
func (s Song) Validate() error {
	if s.TrackID == 0 {
		return fmt.Errorf("%w: missing track id", ErrInvalidSong)
	}
	if !s.Genre.Valid() {
		return fmt.Errorf("%w: track %d has genre %q", ErrInvalidSong, s.TrackID, s.Genre)
	}
	for _, f := range s.optionalFields() {
		if *f == nil {
			return fmt.Errorf("%w: track %d has absent text fields", ErrInvalidSong, s.TrackID)
		}
	}
	return nil
}

// Title returns the track name, or an empty string when absent.
func (s Song) Title() string { return Str(s.TrackName) }

// Price formats the track price the way the catalog list shows it.
func (s Song) Price() string { return fmt.Sprintf("$%.2f", s.TrackPrice) }

// Str dereferences p, treating nil as empty.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StrPtr returns a pointer to a copy of v.
func StrPtr(v string) *string { return &v }

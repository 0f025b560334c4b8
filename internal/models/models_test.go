package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRemoveEmptyFields(t *testing.T) {
	t.Run("fills absent and empty text", func(t *testing.T) {
		s := &Song{TrackID: 1, TrackName: StrPtr(""), Kind: StrPtr("song")}
		RemoveEmptyFields(s)

		for i, f := range s.optionalFields() {
			if *f == nil {
				t.Fatalf("field %d still absent", i)
			}
		}
		if got := Str(s.Kind); got != "song" {
			t.Errorf("expected kind song, got %q", got)
		}
		if got := Str(s.TrackName); got != "" {
			t.Errorf("expected empty track name, got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		s := &Song{TrackID: 2, TrackViewURL: StrPtr("https://example.com/t/2")}
		once := *RemoveEmptyFields(s)
		twice := *RemoveEmptyFields(s)

		a, _ := json.Marshal(once)
		b, _ := json.Marshal(twice)
		if string(a) != string(b) {
			t.Errorf("expected identical records, got %s and %s", a, b)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if RemoveEmptyFields(nil) != nil {
			t.Error("expected nil for nil input")
		}
	})
}

func TestTagAndNormalize(t *testing.T) {
	in := []Song{{TrackID: 1}, {TrackID: 2, Genre: GenrePop}}
	out := TagAndNormalize(GenreRock, in)

	if len(out) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(out))
	}
	for _, s := range out {
		if s.Genre != GenreRock {
			t.Errorf("expected genre rock, got %s", s.Genre)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid song, got %v", err)
		}
	}
	if in[0].TrackName != nil || in[0].Genre != "" {
		t.Error("input slice should not be mutated")
	}
}

func TestSongValidate(t *testing.T) {
	valid := *RemoveEmptyFields(&Song{TrackID: 7, Genre: GenreClassic})

	tc := []struct {
		name    string
		song    Song
		wantErr bool
	}{
		{name: "valid", song: valid},
		{name: "missing id", song: func() Song { s := valid; s.TrackID = 0; return s }(), wantErr: true},
		{name: "missing genre", song: func() Song { s := valid; s.Genre = ""; return s }(), wantErr: true},
		{name: "unknown genre", song: func() Song { s := valid; s.Genre = "jazz"; return s }(), wantErr: true},
		{name: "absent text", song: func() Song { s := valid; s.ArtistViewURL = nil; return s }(), wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.song.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSong) {
					t.Errorf("expected ErrInvalidSong, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestParseGenre(t *testing.T) {
	tc := []struct {
		in   string
		want Genre
		err  bool
	}{
		{in: "classic", want: GenreClassic},
		{in: "Classical", want: GenreClassic},
		{in: " POP ", want: GenrePop},
		{in: "rock", want: GenreRock},
		{in: "jazz", err: true},
		{in: "", err: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGenre(tt.in)
			if tt.err {
				if !errors.Is(err, ErrUnknownGenre) {
					t.Errorf("expected ErrUnknownGenre, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseGenre(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSongsDecode(t *testing.T) {
	body := `{"resultCount":1,"results":[{"trackId":42,"artistName":"Queen","trackName":"Bohemian Rhapsody","trackPrice":1.29,"kind":null}]}`

	var songs Songs
	if err := json.Unmarshal([]byte(body), &songs); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if songs.ResultCount != 1 || len(songs.Songs) != 1 {
		t.Fatalf("expected 1 song, got %d/%d", songs.ResultCount, len(songs.Songs))
	}

	s := songs.Songs[0]
	if s.Title() != "Bohemian Rhapsody" {
		t.Errorf("expected title Bohemian Rhapsody, got %s", s.Title())
	}
	if s.Kind != nil {
		t.Error("expected null kind to decode as absent")
	}
	if s.Price() != "$1.29" {
		t.Errorf("expected $1.29, got %s", s.Price())
	}
}
